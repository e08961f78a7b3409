package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is an item that can be sold at the register
type Product struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Transaction is one recorded sale. Rows are append-only: nothing in the
// application updates or deletes them. Total is always price × quantity at
// the time of sale.
type Transaction struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Product   Product         `gorm:"foreignKey:ProductID" json:"-"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Timestamp time.Time       `gorm:"column:timestamp;autoCreateTime" json:"timestamp"`
}
