package db

import "time"

type Question struct {
	ID            uint      `gorm:"primaryKey"`
	QuizID        uint      `gorm:"index;not null;uniqueIndex:idx_questions_quiz_order"`
	Text          string    `gorm:"size:255;not null"`
	CorrectAnswer string    `gorm:"size:255;not null"`
	Order         int       `gorm:"not null;uniqueIndex:idx_questions_quiz_order"`
	ImageURL      string    `gorm:"size:255"`
	Player        string    `gorm:"size:64"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
	Fobbits       []Fobbit
}
