package db

import "time"

type Answer struct {
	ID        uint      `gorm:"primaryKey"`
	FobbitID  uint      `gorm:"index;not null"`
	Text      string    `gorm:"size:255;not null"`
	Order     *int      `gorm:"column:display_order"`
	Showed    bool      `gorm:"not null;default:false"`
	IsCorrect bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Guesses   []Guess `gorm:"constraint:OnDelete:CASCADE"`
}
