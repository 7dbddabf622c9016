package db

import "time"

type Guess struct {
	ID        uint      `gorm:"primaryKey"`
	FobbitID  uint      `gorm:"index;not null;uniqueIndex:idx_guesses_fobbit_player"`
	PlayerID  uint      `gorm:"index;not null;uniqueIndex:idx_guesses_fobbit_player"`
	AnswerID  uint      `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
