package model

import (
	"time"

	"gorm.io/gorm"
)

type Question struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	QuizID   uint   `json:"quiz_id" gorm:"not null;index"`
	Text     string `json:"text" gorm:"type:text;not null"`
	Position int    `json:"position" gorm:"not null"`
	// AllowMultiple marks questions where the storefront may select several answers.
	AllowMultiple bool           `json:"allow_multiple" gorm:"default:false"`
	Answers       []Answer       `json:"answers,omitempty" gorm:"foreignKey:QuestionID"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
