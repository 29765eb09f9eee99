package model

import "time"

// Order and OrderLineItem belong to the order subsystem. The analytics
// aggregator joins against them read-only for revenue and purchase counts.
type Order struct {
	ID         uint            `gorm:"primarykey" json:"id"`
	StoreID    uint            `json:"store_id" gorm:"not null;index"`
	TotalPrice float64         `json:"total_price" gorm:"not null"`
	LineItems  []OrderLineItem `json:"line_items,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type OrderLineItem struct {
	ID        uint    `gorm:"primarykey" json:"id"`
	OrderID   uint    `json:"order_id" gorm:"not null;index"`
	ProductID uint    `json:"product_id" gorm:"not null;index"`
	Quantity  int     `json:"quantity" gorm:"not null;default:1"`
	Price     float64 `json:"price" gorm:"not null"`
}
