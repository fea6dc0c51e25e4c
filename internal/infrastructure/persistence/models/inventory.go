package models

// Inventory is the stock level of a product at a store.
// The (store_id, product_id) pair is the composite primary key.
type Inventory struct {
	StoreID    int `gorm:"column:store_id;primaryKey"`
	ProductID  int `gorm:"column:product_id;primaryKey"`
	StockLevel int `gorm:"column:stock_level;not null"`

	Store   *Store   `gorm:"foreignKey:StoreID;references:StoreID"`
	Product *Product `gorm:"foreignKey:ProductID;references:ProductID"`
}

// TableName returns the table name for GORM
func (Inventory) TableName() string {
	return "inventory"
}
