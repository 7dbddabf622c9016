package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fobbage/internal/db"

	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Write-through mirroring of the in-memory store into Postgres. Every helper
// is a no-op when the server runs without a database (tests do). Callers hold
// the session lock, so the memory and database views move together.

func (s *Server) persistQuiz(quiz *Quiz) error {
	if s.db == nil {
		return nil
	}
	record := db.Quiz{
		Title: quiz.Title,
		Owner: quiz.Owner,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return err
	}
	quiz.DBID = record.ID
	for i := range quiz.Questions {
		question := &quiz.Questions[i]
		row := db.Question{
			QuizID:        quiz.DBID,
			Text:          question.Text,
			CorrectAnswer: question.CorrectAnswer,
			Order:         question.Order,
			ImageURL:      question.ImageURL,
			Player:        question.Player,
		}
		if err := s.db.Create(&row).Error; err != nil {
			return err
		}
		question.DBID = row.ID
	}
	return nil
}

func (s *Server) persistSession(session *Session) error {
	if s.db == nil {
		return nil
	}
	settings, err := json.Marshal(session.Settings)
	if err != nil {
		return err
	}
	record := db.Session{
		QuizID:   session.Quiz.DBID,
		Name:     session.Name,
		JoinCode: session.JoinCode,
		Owner:    hostName(session),
		Modus:    session.Modus,
		Settings: datatypes.JSON(settings),
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	session.DBID = record.ID
	newID := fmt.Sprintf("session-%d", record.ID)
	if session.ID != newID {
		s.store.UpdateSessionID(session, newID)
	}
	return s.persistEvent(session, "session_created", EventPayload{
		SessionID: session.ID,
		JoinCode:  session.JoinCode,
	})
}

func hostName(session *Session) string {
	if player, ok := findPlayer(session, session.HostID); ok {
		return player.Name
	}
	return ""
}

func (s *Server) persistPlayer(session *Session, player *Player) error {
	if s.db == nil {
		return nil
	}
	if player.DBID != 0 || session.DBID == 0 {
		return nil
	}
	record := db.Player{
		SessionID: session.DBID,
		Name:      player.Name,
		IsHost:    player.IsHost,
		JoinedAt:  player.JoinedAt,
	}
	if err := s.db.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.findPlayerDBID(session.DBID, player.Name)
			if lookupErr == nil && existing != 0 {
				player.DBID = existing
				return nil
			}
		}
		return err
	}
	player.DBID = record.ID
	return s.persistEvent(session, "player_joined", EventPayload{
		PlayerName: player.Name,
		PlayerID:   player.ID,
	})
}

// persistSessionState mirrors modus, settings and the active fobbit.
func (s *Server) persistSessionState(session *Session) error {
	if s.db == nil || session.DBID == 0 {
		return nil
	}
	settings, err := json.Marshal(session.Settings)
	if err != nil {
		return err
	}
	updates := map[string]any{
		"modus":    session.Modus,
		"settings": datatypes.JSON(settings),
	}
	if fobbit, ok := activeFobbit(session); ok && fobbit.DBID != 0 {
		updates["active_fobbit_id"] = fobbit.DBID
	} else {
		updates["active_fobbit_id"] = nil
	}
	return s.db.Model(&db.Session{}).Where("id = ?", session.DBID).Updates(updates).Error
}

func (s *Server) persistFobbit(session *Session, fobbit *FobbitState) error {
	if s.db == nil || session.DBID == 0 || fobbit.DBID != 0 {
		return nil
	}
	question, ok := questionByID(session, fobbit.QuestionID)
	if !ok {
		return fmt.Errorf("question %d: %w", fobbit.QuestionID, ErrNotFound)
	}
	record := db.Fobbit{
		SessionID:  session.DBID,
		QuestionID: question.DBID,
		Round:      fobbit.Round,
		Status:     fobbit.Status.String(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return err
	}
	fobbit.DBID = record.ID
	return s.persistEvent(session, "fobbit_created", EventPayload{
		FobbitID: fobbit.ID,
		Round:    fobbit.Round,
	})
}

func (s *Server) persistFobbitStatus(session *Session, fobbit *FobbitState) error {
	if s.db == nil || fobbit.DBID == 0 {
		return nil
	}
	return s.db.Model(&db.Fobbit{}).
		Where("id = ?", fobbit.DBID).
		Update("status", fobbit.Status.String()).Error
}

// persistBluff upserts by the (fobbit, player) unique key so resubmission
// overwrites in place.
func (s *Server) persistBluff(session *Session, fobbit *FobbitState, playerID int) error {
	if s.db == nil || fobbit.DBID == 0 {
		return nil
	}
	player, ok := findPlayer(session, playerID)
	if !ok || player.DBID == 0 {
		return fmt.Errorf("player %d: %w", playerID, ErrNotFound)
	}
	bluff, ok := bluffOf(fobbit, playerID)
	if !ok {
		return fmt.Errorf("bluff for player %d: %w", playerID, ErrNotFound)
	}
	record := db.Bluff{
		FobbitID: fobbit.DBID,
		PlayerID: player.DBID,
		Text:     bluff.Text,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fobbit_id"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return err
	}
	bluff.DBID = record.ID
	return s.persistEvent(session, "bluff_submitted", EventPayload{
		PlayerID: playerID,
		FobbitID: fobbit.ID,
	})
}

// persistGuess upserts by the (fobbit, player) unique key.
func (s *Server) persistGuess(session *Session, fobbit *FobbitState, playerID int) error {
	if s.db == nil || fobbit.DBID == 0 {
		return nil
	}
	player, ok := findPlayer(session, playerID)
	if !ok || player.DBID == 0 {
		return fmt.Errorf("player %d: %w", playerID, ErrNotFound)
	}
	guess, ok := guessOf(fobbit, playerID)
	if !ok {
		return fmt.Errorf("guess for player %d: %w", playerID, ErrNotFound)
	}
	answer, ok := answerByID(fobbit, guess.AnswerID)
	if !ok {
		return fmt.Errorf("answer %d: %w", guess.AnswerID, ErrNotFound)
	}
	record := db.Guess{
		FobbitID: fobbit.DBID,
		PlayerID: player.DBID,
		AnswerID: answer.DBID,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fobbit_id"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answer_id", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return err
	}
	guess.DBID = record.ID
	return s.persistEvent(session, "guess_submitted", EventPayload{
		PlayerID: playerID,
		FobbitID: fobbit.ID,
		AnswerID: guess.AnswerID,
	})
}

// persistAnswerSet replaces the fobbit's answers in one transaction: old
// answers (and their guesses) go, the new set comes in, bluff links move
// over and the status flips. Either all of it lands or none.
func (s *Server) persistAnswerSet(session *Session, fobbit *FobbitState) error {
	if s.db == nil || fobbit.DBID == 0 {
		return nil
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("answer_id IN (?)",
			tx.Model(&db.Answer{}).Select("id").Where("fobbit_id = ?", fobbit.DBID),
		).Delete(&db.Guess{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&db.Bluff{}).
			Where("fobbit_id = ?", fobbit.DBID).
			Update("answer_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("fobbit_id = ?", fobbit.DBID).Delete(&db.Answer{}).Error; err != nil {
			return err
		}
		for i := range fobbit.Answers {
			answer := &fobbit.Answers[i]
			order := answer.Order
			row := db.Answer{
				FobbitID:  fobbit.DBID,
				Text:      answer.Text,
				Order:     &order,
				Showed:    answer.Showed,
				IsCorrect: answer.IsCorrect,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			answer.DBID = row.ID
		}
		for i := range fobbit.Bluffs {
			bluff := &fobbit.Bluffs[i]
			if bluff.DBID == 0 || bluff.AnswerID == 0 {
				continue
			}
			answer, ok := answerByID(fobbit, bluff.AnswerID)
			if !ok {
				return fmt.Errorf("answer %d: %w", bluff.AnswerID, ErrNotFound)
			}
			if err := tx.Model(&db.Bluff{}).
				Where("id = ?", bluff.DBID).
				Update("answer_id", answer.DBID).Error; err != nil {
				return err
			}
		}
		return tx.Model(&db.Fobbit{}).
			Where("id = ?", fobbit.DBID).
			Update("status", fobbit.Status.String()).Error
	})
	if err != nil {
		return err
	}
	return s.persistEvent(session, "answers_generated", EventPayload{
		FobbitID: fobbit.ID,
		Count:    len(fobbit.Answers),
	})
}

func (s *Server) persistAnswerShowed(fobbit *FobbitState) error {
	if s.db == nil || fobbit.DBID == 0 {
		return nil
	}
	for i := range fobbit.Answers {
		answer := &fobbit.Answers[i]
		if answer.DBID == 0 {
			continue
		}
		if err := s.db.Model(&db.Answer{}).
			Where("id = ?", answer.DBID).
			Update("showed", answer.Showed).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) persistEvent(session *Session, eventType string, payload EventPayload) error {
	if s.db == nil || session.DBID == 0 {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := db.Event{
		SessionID: session.DBID,
		FobbitID:  s.resolveEventFobbitID(session, payload),
		PlayerID:  s.resolveEventPlayerID(session, payload),
		Type:      eventType,
		Payload:   datatypes.JSON(data),
		CreatedAt: time.Now().UTC(),
	}
	return s.db.Create(&event).Error
}

func (s *Server) resolveEventFobbitID(session *Session, payload EventPayload) *uint {
	if payload.FobbitID <= 0 {
		return nil
	}
	fobbit, ok := fobbitByID(session, payload.FobbitID)
	if !ok || fobbit.DBID == 0 {
		return nil
	}
	id := fobbit.DBID
	return &id
}

func (s *Server) resolveEventPlayerID(session *Session, payload EventPayload) *uint {
	if payload.PlayerID <= 0 {
		return nil
	}
	player, ok := findPlayer(session, payload.PlayerID)
	if !ok || player.DBID == 0 {
		return nil
	}
	id := player.DBID
	return &id
}

func (s *Server) findPlayerDBID(sessionDBID uint, name string) (uint, error) {
	var record db.Player
	if err := s.db.Where("session_id = ? AND name = ?", sessionDBID, name).First(&record).Error; err != nil {
		return 0, err
	}
	return record.ID, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
