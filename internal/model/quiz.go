package model

import (
	"time"

	"gorm.io/gorm"
)

type Quiz struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	StoreID     uint   `json:"store_id" gorm:"not null;index"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active" gorm:"default:true"`
	// ResultsCount caps how many recommendations a calculation returns.
	ResultsCount     int            `json:"results_count" gorm:"not null;default:5"`
	TotalStarts      int64          `json:"total_starts" gorm:"not null;default:0"`
	TotalCompletions int64          `json:"total_completions" gorm:"not null;default:0"`
	Questions        []Question     `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}
