package model

import (
	"time"

	"gorm.io/gorm"
)

// Product statuses. The advisor only ever reads products; the catalog
// subsystem owns all writes.
const (
	ProductStatusActive   = "active"
	ProductStatusDraft    = "draft"
	ProductStatusArchived = "archived"
)

type Product struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	StoreID        uint           `json:"store_id" gorm:"not null;index"`
	Title          string         `json:"title" gorm:"not null"`
	Handle         string         `json:"handle" gorm:"not null;index"`
	ImageURL       string         `json:"image_url,omitempty"`
	Price          float64        `json:"price" gorm:"not null"`
	CompareAtPrice *float64       `json:"compare_at_price,omitempty"`
	Status         string         `json:"status" gorm:"not null;default:'active';index"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
