package db

import "time"

// Bluff keeps a SET NULL link to the answer it was folded into so a
// regenerated answer set never drags bluff rows down with it.
type Bluff struct {
	ID        uint      `gorm:"primaryKey"`
	FobbitID  uint      `gorm:"index;not null;uniqueIndex:idx_bluffs_fobbit_player"`
	PlayerID  uint      `gorm:"index;not null;uniqueIndex:idx_bluffs_fobbit_player"`
	Text      string    `gorm:"size:255;not null"`
	AnswerID  *uint     `gorm:"index;constraint:OnDelete:SET NULL"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
