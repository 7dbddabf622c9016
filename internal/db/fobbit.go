package db

import "time"

type Fobbit struct {
	ID         uint      `gorm:"primaryKey"`
	SessionID  uint      `gorm:"index;not null;uniqueIndex:idx_fobbits_session_question"`
	QuestionID uint      `gorm:"index;not null;uniqueIndex:idx_fobbits_session_question"`
	Round      int       `gorm:"not null;default:0"`
	Status     string    `gorm:"size:32;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
	Answers    []Answer `gorm:"constraint:OnDelete:CASCADE"`
	Bluffs     []Bluff  `gorm:"constraint:OnDelete:CASCADE"`
}
