package model

import "time"

// 商品カタログの1行。
// description/supplier/category/imageは未入力ならNULLで保存する。
type Product struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string    `gorm:"type:varchar(255);not null;index" json:"name"`
	SKU           string    `gorm:"column:sku;type:varchar(100);not null;uniqueIndex" json:"sku"`
	Description   *string   `gorm:"type:text" json:"description"`
	Price         float64   `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	Supplier      *string   `gorm:"type:varchar(255);index" json:"supplier"`
	Category      *string   `gorm:"type:varchar(100);index" json:"category"`
	StockQuantity int64     `gorm:"not null;default:0" json:"stock_quantity"`
	Image         *string   `gorm:"type:varchar(255)" json:"image"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
