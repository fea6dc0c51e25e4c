package models

import "github.com/shopspring/decimal"

// CompanyPolicy is a company rule consulted by the finance and supplier
// tool servers (ordering thresholds, vendor selection rules and so on).
type CompanyPolicy struct {
	PolicyID              int              `gorm:"column:policy_id;primaryKey;autoIncrement"`
	PolicyName            string           `gorm:"column:policy_name;not null"`
	PolicyType            string           `gorm:"column:policy_type;not null"`
	PolicyContent         string           `gorm:"column:policy_content;not null"`
	Department            string           `gorm:"column:department"`
	MinimumOrderThreshold *decimal.Decimal `gorm:"column:minimum_order_threshold;type:decimal(10,2)"`
	ApprovalRequired      bool             `gorm:"column:approval_required;default:false"`
	IsActive              bool             `gorm:"column:is_active;default:true"`
}

// TableName returns the table name for GORM
func (CompanyPolicy) TableName() string {
	return "company_policies"
}
