package models

// Store is a physical or online store location.
// RLSUserID is the row-level-security principal the MCP servers use when
// querying on behalf of this store.
type Store struct {
	StoreID   int    `gorm:"column:store_id;primaryKey;autoIncrement"`
	StoreName string `gorm:"column:store_name;not null;uniqueIndex"`
	RLSUserID string `gorm:"column:rls_user_id;not null"`
	IsOnline  bool   `gorm:"column:is_online;not null;default:false"`
}

// TableName returns the table name for GORM
func (Store) TableName() string {
	return "stores"
}
