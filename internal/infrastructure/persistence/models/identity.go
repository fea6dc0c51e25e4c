package models

import "time"

// User roles.
const (
	RoleAdmin        = "admin"
	RoleStoreManager = "store_manager"
)

// User is a management console account. Store managers carry the StoreID
// their queries are scoped to; admins see every store.
type User struct {
	UserID       int       `gorm:"column:user_id;primaryKey;autoIncrement"`
	Username     string    `gorm:"column:username;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Role         string    `gorm:"column:role;not null"`
	StoreID      *int      `gorm:"column:store_id"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}
