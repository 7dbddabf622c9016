package db

import "time"

type Quiz struct {
	ID        uint      `gorm:"primaryKey"`
	Title     string    `gorm:"size:255;not null"`
	Owner     string    `gorm:"size:64;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Questions []Question
	Sessions  []Session
}
