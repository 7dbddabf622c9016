package db

import (
	"time"

	"gorm.io/datatypes"
)

type Session struct {
	ID             uint           `gorm:"primaryKey"`
	QuizID         uint           `gorm:"index;not null"`
	Name           string         `gorm:"size:255;not null"`
	JoinCode       string         `gorm:"size:12;uniqueIndex;not null"`
	Owner          string         `gorm:"size:64;not null"`
	Modus          string         `gorm:"size:32;not null"`
	Settings       datatypes.JSON `gorm:"type:jsonb;not null"`
	ActiveFobbitID *uint          `gorm:"index"`
	CreatedAt      time.Time      `gorm:"not null"`
	UpdatedAt      time.Time      `gorm:"not null"`
	Players        []Player
	Fobbits        []Fobbit `gorm:"constraint:OnDelete:CASCADE"`
	Events         []Event
}

type Player struct {
	ID        uint      `gorm:"primaryKey"`
	SessionID uint      `gorm:"index;not null;uniqueIndex:idx_players_session_name"`
	Name      string    `gorm:"size:64;not null;uniqueIndex:idx_players_session_name"`
	IsHost    bool      `gorm:"not null;default:false"`
	JoinedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Bluffs    []Bluff
	Guesses   []Guess
}
