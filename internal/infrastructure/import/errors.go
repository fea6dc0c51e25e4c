package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// Import error codes, surfaced in the importer report so operators can
// group failures by cause.
const (
	ErrCodeRequiredField     = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeInvalidType       = "ERR_IMPORT_INVALID_TYPE"
	ErrCodeInvalidFormat     = "ERR_IMPORT_INVALID_FORMAT"
	ErrCodeInvalidRange      = "ERR_IMPORT_INVALID_RANGE"
	ErrCodeDuplicateInFile   = "ERR_IMPORT_DUPLICATE_IN_FILE"
	ErrCodeReferenceNotFound = "ERR_IMPORT_REFERENCE_NOT_FOUND"
)

var (
	// ErrEmptyFile is returned when the CSV file is empty.
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned when the file is not valid UTF-8.
	ErrInvalidEncoding = errors.New("invalid file encoding")

	// ErrMissingHeader is returned when the CSV file has no header row.
	ErrMissingHeader = errors.New("CSV file missing header row")

	// ErrNoDataRows is returned when the CSV file has no data rows.
	ErrNoDataRows = errors.New("CSV file contains no data rows")
)

// RowError describes a problem with a specific row and column.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection accumulates row errors up to a cap so a badly broken
// file cannot balloon the report.
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates an ErrorCollection keeping at most maxErrors.
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{
		errors:    make([]RowError, 0, maxErrors),
		maxErrors: maxErrors,
	}
}

// Add records an error, dropping it from the report when over the cap.
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddRequired records a missing required field.
func (ec *ErrorCollection) AddRequired(row int, column string) {
	ec.Add(RowError{Row: row, Column: column, Code: ErrCodeRequiredField,
		Message: fmt.Sprintf("field '%s' is required", column)})
}

// AddType records a value that could not be parsed as the expected type.
func (ec *ErrorCollection) AddType(row int, column, expectedType, value string) {
	ec.Add(RowError{Row: row, Column: column, Code: ErrCodeInvalidType,
		Message: fmt.Sprintf("expected %s", expectedType), Value: value})
}

// AddFormat records a value that does not match the expected format.
func (ec *ErrorCollection) AddFormat(row int, column, expected, value string) {
	ec.Add(RowError{Row: row, Column: column, Code: ErrCodeInvalidFormat,
		Message: fmt.Sprintf("invalid format, expected %s", expected), Value: value})
}

// AddRange records a numeric value outside its allowed range.
func (ec *ErrorCollection) AddRange(row int, column, constraint, value string) {
	ec.Add(RowError{Row: row, Column: column, Code: ErrCodeInvalidRange,
		Message: constraint, Value: value})
}

// AddDuplicate records a value repeated earlier in the same file.
func (ec *ErrorCollection) AddDuplicate(row int, column, value string) {
	ec.Add(RowError{Row: row, Column: column, Code: ErrCodeDuplicateInFile,
		Message: fmt.Sprintf("duplicate value '%s' found in file", value), Value: value})
}

// AddReference records a lookup value with no matching database row.
func (ec *ErrorCollection) AddReference(row int, column, value, refType string) {
	ec.Add(RowError{Row: row, Column: column, Code: ErrCodeReferenceNotFound,
		Message: fmt.Sprintf("%s '%s' not found", refType, value), Value: value})
}

// Errors returns the collected errors.
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// TotalCount returns the total error count including dropped ones.
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors returns true if any error was recorded.
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// IsTruncated returns true if errors were dropped due to the cap.
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > ec.maxErrors
}

func (ec *ErrorCollection) String() string {
	if !ec.HasErrors() {
		return "no errors"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s) found", ec.totalCount)
	if ec.IsTruncated() {
		fmt.Fprintf(&sb, " (showing first %d)", ec.maxErrors)
	}
	sb.WriteString(":\n")
	for _, err := range ec.errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}
