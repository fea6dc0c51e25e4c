package csvimport

import (
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRow(line int, data map[string]string) *Row {
	return &Row{LineNumber: line, Data: data}
}

func TestValidator_RequiredColumns(t *testing.T) {
	v := NewValidator([]FieldRule{
		{Column: "sku", Required: true},
		{Column: "description"},
		{Column: "cost", Required: true},
	})

	assert.Equal(t, []string{"sku", "cost"}, v.RequiredColumns())
}

func TestValidator_RequiredField(t *testing.T) {
	v := NewValidator([]FieldRule{{Column: "sku", Type: TypeString, Required: true}})
	ec := NewErrorCollection(10)

	ok := v.ValidateRow(testRow(2, map[string]string{"sku": ""}), ec)
	assert.False(t, ok)
	require.Len(t, ec.Errors(), 1)
	assert.Equal(t, ErrCodeRequiredField, ec.Errors()[0].Code)
	assert.Equal(t, 2, ec.Errors()[0].Row)
}

func TestValidator_OptionalFieldMayBeEmpty(t *testing.T) {
	v := NewValidator([]FieldRule{{Column: "description", Type: TypeString, MaxLength: 10}})
	ec := NewErrorCollection(10)

	ok := v.ValidateRow(testRow(2, map[string]string{"description": ""}), ec)
	assert.True(t, ok)
	assert.False(t, ec.HasErrors())
}

func TestValidator_TypeChecks(t *testing.T) {
	v := NewValidator([]FieldRule{
		{Column: "qty", Type: TypeInt},
		{Column: "cost", Type: TypeDecimal},
		{Column: "active", Type: TypeBool},
	})

	tests := []struct {
		name   string
		data   map[string]string
		wantOK bool
		code   string
	}{
		{"valid values", map[string]string{"qty": "5", "cost": "12.50", "active": "true"}, true, ""},
		{"bad int", map[string]string{"qty": "five"}, false, ErrCodeInvalidType},
		{"bad decimal", map[string]string{"cost": "12,50"}, false, ErrCodeInvalidType},
		{"bad bool", map[string]string{"active": "yes"}, false, ErrCodeInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec := NewErrorCollection(10)
			ok := v.ValidateRow(testRow(2, tt.data), ec)
			assert.Equal(t, tt.wantOK, ok)
			if tt.code != "" {
				require.Len(t, ec.Errors(), 1)
				assert.Equal(t, tt.code, ec.Errors()[0].Code)
			}
		})
	}
}

func TestValidator_MinValue(t *testing.T) {
	zero := decimal.Zero
	v := NewValidator([]FieldRule{{Column: "cost", Type: TypeDecimal, MinValue: &zero}})
	ec := NewErrorCollection(10)

	ok := v.ValidateRow(testRow(2, map[string]string{"cost": "-1.00"}), ec)
	assert.False(t, ok)
	require.Len(t, ec.Errors(), 1)
	assert.Equal(t, ErrCodeInvalidRange, ec.Errors()[0].Code)

	ec = NewErrorCollection(10)
	assert.True(t, v.ValidateRow(testRow(3, map[string]string{"cost": "0"}), ec))
}

func TestValidator_MaxLength(t *testing.T) {
	v := NewValidator([]FieldRule{{Column: "name", Type: TypeString, MaxLength: 5}})
	ec := NewErrorCollection(10)

	ok := v.ValidateRow(testRow(2, map[string]string{"name": "toolongname"}), ec)
	assert.False(t, ok)
	require.Len(t, ec.Errors(), 1)
	assert.Equal(t, ErrCodeInvalidRange, ec.Errors()[0].Code)
}

func TestValidator_Pattern(t *testing.T) {
	v := NewValidator([]FieldRule{{
		Column:      "sku",
		Type:        TypeString,
		Pattern:     regexp.MustCompile(`^[A-Z]{3}-[0-9]{3}$`),
		PatternDesc: "SKU like APP-001",
	}})

	ec := NewErrorCollection(10)
	assert.True(t, v.ValidateRow(testRow(2, map[string]string{"sku": "APP-001"}), ec))

	ec = NewErrorCollection(10)
	ok := v.ValidateRow(testRow(3, map[string]string{"sku": "app001"}), ec)
	assert.False(t, ok)
	require.Len(t, ec.Errors(), 1)
	assert.Equal(t, ErrCodeInvalidFormat, ec.Errors()[0].Code)
	assert.Contains(t, ec.Errors()[0].Message, "SKU like APP-001")
}

func TestValidator_UniqueAcrossRows(t *testing.T) {
	v := NewValidator([]FieldRule{{Column: "sku", Type: TypeString, Unique: true}})
	ec := NewErrorCollection(10)

	assert.True(t, v.ValidateRow(testRow(2, map[string]string{"sku": "APP-001"}), ec))
	assert.True(t, v.ValidateRow(testRow(3, map[string]string{"sku": "APP-002"}), ec))

	ok := v.ValidateRow(testRow(4, map[string]string{"sku": "APP-001"}), ec)
	assert.False(t, ok)
	require.Len(t, ec.Errors(), 1)
	assert.Equal(t, ErrCodeDuplicateInFile, ec.Errors()[0].Code)
	assert.Equal(t, 4, ec.Errors()[0].Row)
}

func TestErrorCollection_Truncation(t *testing.T) {
	ec := NewErrorCollection(3)
	for i := 0; i < 5; i++ {
		ec.AddRequired(i+2, "sku")
	}

	assert.Len(t, ec.Errors(), 3)
	assert.Equal(t, 5, ec.TotalCount())
	assert.True(t, ec.IsTruncated())
	assert.Contains(t, ec.String(), "5 error(s) found")
	assert.Contains(t, ec.String(), "showing first 3")
}
