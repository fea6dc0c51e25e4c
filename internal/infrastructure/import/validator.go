package csvimport

import (
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

// FieldType is the expected type of a CSV column.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
	TypeBool    FieldType = "bool"
)

// FieldRule defines the validation applied to one column.
type FieldRule struct {
	Column      string
	Type        FieldType
	Required    bool
	MaxLength   int
	MinValue    *decimal.Decimal
	Pattern     *regexp.Regexp
	PatternDesc string
	Unique      bool
}

// Validator checks parsed rows against a set of field rules.
type Validator struct {
	rules []FieldRule
	seen  map[string]map[string]bool
}

// NewValidator creates a Validator for the given rules.
func NewValidator(rules []FieldRule) *Validator {
	return &Validator{
		rules: rules,
		seen:  make(map[string]map[string]bool),
	}
}

// RequiredColumns returns the columns that must be present in the header.
func (v *Validator) RequiredColumns() []string {
	var cols []string
	for _, r := range v.rules {
		if r.Required {
			cols = append(cols, r.Column)
		}
	}
	return cols
}

// ValidateRow checks one row, recording problems into ec. Returns true
// when the row passed all rules.
func (v *Validator) ValidateRow(row *Row, ec *ErrorCollection) bool {
	before := ec.TotalCount()

	for _, rule := range v.rules {
		value := row.Get(rule.Column)

		if value == "" {
			if rule.Required {
				ec.AddRequired(row.LineNumber, rule.Column)
			}
			continue
		}

		if rule.MaxLength > 0 && len(value) > rule.MaxLength {
			ec.AddRange(row.LineNumber, rule.Column,
				"length must be at most "+strconv.Itoa(rule.MaxLength), value)
			continue
		}

		if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
			ec.AddFormat(row.LineNumber, rule.Column, rule.PatternDesc, value)
			continue
		}

		if !v.checkType(row.LineNumber, rule, value, ec) {
			continue
		}

		if rule.Unique {
			values := v.seen[rule.Column]
			if values == nil {
				values = make(map[string]bool)
				v.seen[rule.Column] = values
			}
			if values[value] {
				ec.AddDuplicate(row.LineNumber, rule.Column, value)
				continue
			}
			values[value] = true
		}
	}

	return ec.TotalCount() == before
}

func (v *Validator) checkType(line int, rule FieldRule, value string, ec *ErrorCollection) bool {
	switch rule.Type {
	case TypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			ec.AddType(line, rule.Column, "integer", value)
			return false
		}
	case TypeDecimal:
		d, err := decimal.NewFromString(value)
		if err != nil {
			ec.AddType(line, rule.Column, "decimal number", value)
			return false
		}
		if rule.MinValue != nil && d.LessThan(*rule.MinValue) {
			ec.AddRange(line, rule.Column,
				"value must be at least "+rule.MinValue.String(), value)
			return false
		}
	case TypeBool:
		if _, err := strconv.ParseBool(value); err != nil {
			ec.AddType(line, rule.Column, "boolean", value)
			return false
		}
	}
	return true
}
