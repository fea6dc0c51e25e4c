package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestCSVParser_ParseHeader(t *testing.T) {
	parser, err := NewCSVParser(strings.NewReader("sku,product_name\nAPP-001,Jacket\n"))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	assert.Equal(t, []string{"sku", "product_name"}, parser.Headers())
}

func TestCSVParser_StripsBOM(t *testing.T) {
	parser, err := NewCSVParser(strings.NewReader("\xef\xbb\xbfsku,product_name\n"))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	assert.Equal(t, "sku", parser.Headers()[0])
}

func TestCSVParser_EmptyInput(t *testing.T) {
	_, err := NewCSVParser(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestCSVParser_HeaderOnly(t *testing.T) {
	parser, err := NewCSVParser(strings.NewReader("sku,cost\n"))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	rows, err := parser.ReadAllRows()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCSVParser_InvalidEncoding(t *testing.T) {
	_, err := NewCSVParser(strings.NewReader("sku,\xff\xfe\n"))
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestCSVParser_MissingHeaders(t *testing.T) {
	parser, err := NewCSVParser(strings.NewReader("sku,cost\n"))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	missing := parser.MissingHeaders([]string{"sku", "product_name", "base_price"})
	assert.Equal(t, []string{"product_name", "base_price"}, missing)

	assert.Empty(t, parser.MissingHeaders([]string{"sku", "cost"}))
}

func TestCSVParser_ReadRow(t *testing.T) {
	parser, err := NewCSVParser(strings.NewReader("sku,cost\nAPP-001,45.00\n"))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	row, err := parser.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, 2, row.LineNumber)
	assert.Equal(t, "APP-001", row.Get("sku"))
	assert.Equal(t, "45.00", row.Get("cost"))
	assert.Equal(t, "", row.Get("no_such_column"))

	_, err = parser.ReadRow()
	assert.ErrorIs(t, err, io.EOF)
}

func TestCSVParser_TrimsWhitespace(t *testing.T) {
	parser, err := NewCSVParser(strings.NewReader("sku,cost\n  APP-001 , 45.00\n"))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	row, err := parser.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, "APP-001", row.Get("sku"))
	assert.Equal(t, "45.00", row.Get("cost"))
}

func TestCSVParser_ReadAllRowsSkipsEmpty(t *testing.T) {
	input := "sku,cost\nAPP-001,45.00\n,\nAPP-002,12.00\n"
	parser, err := NewCSVParser(strings.NewReader(input))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	rows, err := parser.ReadAllRows()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "APP-001", rows[0].Get("sku"))
	assert.Equal(t, "APP-002", rows[1].Get("sku"))
}

func TestCSVParser_QuotedFields(t *testing.T) {
	input := "sku,description\nAPP-001,\"Jacket, with hood\"\n"
	parser, err := NewCSVParser(strings.NewReader(input))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	row, err := parser.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, "Jacket, with hood", row.Get("description"))
}
