package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fobbage/internal/db"
)

// restoreSessionFromDB rehydrates one session from the database into the
// store, e.g. after a server restart. The param may be a session id or a join
// code. Auth tokens live only in memory, so restored players get fresh ones;
// rejoining by name hands a player their new token back.
func (s *Server) restoreSessionFromDB(param string) (*Session, error) {
	if s.db == nil {
		return nil, errors.New("database not configured")
	}

	record, err := s.findSessionRecord(strings.TrimSpace(param))
	if err != nil {
		return nil, err
	}
	if handle, ok := s.store.handle(fmt.Sprintf("session-%d", record.ID)); ok {
		return handle.session, nil
	}

	quiz, err := s.loadQuizForRestore(record.QuizID)
	if err != nil {
		return nil, fmt.Errorf("load quiz %d: %w", record.QuizID, err)
	}
	players, err := s.loadRoster(record.ID)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	fobbits, err := s.loadFobbits(record.ID)
	if err != nil {
		return nil, fmt.Errorf("load fobbits: %w", err)
	}
	answers, bluffs, guesses, err := s.loadFobbitAssets(fobbits)
	if err != nil {
		return nil, fmt.Errorf("load fobbit assets: %w", err)
	}

	session, err := buildRestoredSession(record, quiz, players, fobbits, answers, bluffs, guesses)
	if err != nil {
		return nil, err
	}
	if err := s.store.RestoreSession(session); err != nil {
		return nil, err
	}
	s.logger.Info("session restored",
		zap.String("session_id", session.ID),
		zap.String("join_code", session.JoinCode),
		zap.Int("players", len(session.Players)),
		zap.Int("fobbits", len(session.Fobbits)))
	return session, nil
}

// ensureSession pulls a session back into memory when the store does not hold
// it. Misses are expected for ids that never existed; those only get a debug
// line.
func (s *Server) ensureSession(idOrCode string) {
	if s.db == nil {
		return
	}
	if _, ok := s.store.handle(idOrCode); ok {
		return
	}
	if _, err := s.restoreSessionFromDB(idOrCode); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound) {
			s.logger.Debug("no session to restore", zap.String("session_id", idOrCode))
			return
		}
		s.logger.Warn("restore session", zap.String("session_id", idOrCode), zap.Error(err))
	}
}

func (s *Server) findSessionRecord(param string) (db.Session, error) {
	var record db.Session
	if rest, ok := strings.CutPrefix(param, "session-"); ok {
		id, err := strconv.Atoi(rest)
		if err != nil {
			return record, fmt.Errorf("session %s: %w", param, ErrNotFound)
		}
		return record, s.db.First(&record, id).Error
	}
	return record, s.db.Where("join_code = ?", param).First(&record).Error
}

func (s *Server) loadQuizForRestore(quizID uint) (*Quiz, error) {
	var record db.Quiz
	if err := s.db.First(&record, quizID).Error; err != nil {
		return nil, err
	}
	var questions []db.Question
	if err := s.db.Where("quiz_id = ?", quizID).Order(`"order" asc`).Find(&questions).Error; err != nil {
		return nil, err
	}
	return buildRestoredQuiz(record, questions), nil
}

func (s *Server) loadRoster(sessionID uint) ([]db.Player, error) {
	var players []db.Player
	err := s.db.Where("session_id = ?", sessionID).Order("joined_at asc, id asc").Find(&players).Error
	return players, err
}

func (s *Server) loadFobbits(sessionID uint) ([]db.Fobbit, error) {
	var fobbits []db.Fobbit
	err := s.db.Where("session_id = ?", sessionID).Order("id asc").Find(&fobbits).Error
	return fobbits, err
}

func (s *Server) loadFobbitAssets(fobbits []db.Fobbit) ([]db.Answer, []db.Bluff, []db.Guess, error) {
	if len(fobbits) == 0 {
		return nil, nil, nil, nil
	}
	ids := make([]uint, 0, len(fobbits))
	for _, fobbit := range fobbits {
		ids = append(ids, fobbit.ID)
	}

	var answers []db.Answer
	if err := s.db.Where("fobbit_id IN ?", ids).Order("id asc").Find(&answers).Error; err != nil {
		return nil, nil, nil, err
	}
	var bluffs []db.Bluff
	if err := s.db.Where("fobbit_id IN ?", ids).Order("id asc").Find(&bluffs).Error; err != nil {
		return nil, nil, nil, err
	}
	var guesses []db.Guess
	if err := s.db.Where("fobbit_id IN ?", ids).Order("id asc").Find(&guesses).Error; err != nil {
		return nil, nil, nil, err
	}
	return answers, bluffs, guesses, nil
}

func buildRestoredQuiz(record db.Quiz, questions []db.Question) *Quiz {
	quiz := &Quiz{
		ID:    fmt.Sprintf("quiz-%d", record.ID),
		DBID:  record.ID,
		Title: record.Title,
		Owner: record.Owner,
	}
	for i, row := range questions {
		quiz.Questions = append(quiz.Questions, Question{
			ID:            i + 1,
			DBID:          row.ID,
			Text:          row.Text,
			CorrectAnswer: row.CorrectAnswer,
			Order:         row.Order,
			ImageURL:      row.ImageURL,
			Player:        row.Player,
		})
	}
	return quiz
}

// buildRestoredSession rebuilds the in-memory session from its database rows.
// Row slices must be ordered the way the loaders order them. Database ids map
// to in-memory ids: players keep their row id, questions take the quiz's
// 1-based order, fobbits and answers are renumbered sequentially. Rows whose
// foreign key no longer resolves are skipped rather than failing the restore.
func buildRestoredSession(record db.Session, quiz *Quiz, players []db.Player, fobbits []db.Fobbit, answers []db.Answer, bluffs []db.Bluff, guesses []db.Guess) (*Session, error) {
	var settings SessionSettings
	if len(record.Settings) > 0 {
		if err := json.Unmarshal(record.Settings, &settings); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
	}
	session := &Session{
		ID:           fmt.Sprintf("session-%d", record.ID),
		DBID:         record.ID,
		JoinCode:     record.JoinCode,
		Name:         record.Name,
		Quiz:         quiz,
		Modus:        record.Modus,
		Settings:     settings,
		CreatedAt:    record.CreatedAt,
		AuthTokens:   make(map[int]string),
		nextFobbitID: 1,
		nextAnswerID: 1,
	}

	questionIndex := make(map[uint]int, len(quiz.Questions))
	for _, question := range quiz.Questions {
		questionIndex[question.DBID] = question.ID
	}

	for _, row := range players {
		player := Player{
			ID:       int(row.ID),
			DBID:     row.ID,
			Name:     row.Name,
			IsHost:   row.IsHost,
			JoinedAt: row.JoinedAt,
		}
		session.Players = append(session.Players, player)
		session.AuthTokens[player.ID] = newAuthToken()
		if player.IsHost {
			session.HostID = player.ID
		}
	}

	answersByFobbit := make(map[uint][]db.Answer)
	for _, row := range answers {
		answersByFobbit[row.FobbitID] = append(answersByFobbit[row.FobbitID], row)
	}
	bluffsByFobbit := make(map[uint][]db.Bluff)
	for _, row := range bluffs {
		bluffsByFobbit[row.FobbitID] = append(bluffsByFobbit[row.FobbitID], row)
	}
	guessesByFobbit := make(map[uint][]db.Guess)
	for _, row := range guesses {
		guessesByFobbit[row.FobbitID] = append(guessesByFobbit[row.FobbitID], row)
	}

	fobbitIndex := make(map[uint]int, len(fobbits))
	for _, row := range fobbits {
		questionID, ok := questionIndex[row.QuestionID]
		if !ok {
			return nil, fmt.Errorf("fobbit %d references question %d: %w", row.ID, row.QuestionID, ErrNotFound)
		}
		fobbit := FobbitState{
			ID:         session.nextFobbitID,
			DBID:       row.ID,
			QuestionID: questionID,
			Round:      row.Round,
			Status:     parseFobbitStatus(row.Status),
		}
		session.nextFobbitID++

		answerIndex := make(map[uint]int)
		for _, answer := range answersByFobbit[row.ID] {
			order := 0
			if answer.Order != nil {
				order = *answer.Order
			}
			entry := AnswerEntry{
				ID:        session.nextAnswerID,
				DBID:      answer.ID,
				Text:      answer.Text,
				Order:     order,
				Showed:    answer.Showed,
				IsCorrect: answer.IsCorrect,
			}
			session.nextAnswerID++
			answerIndex[answer.ID] = entry.ID
			fobbit.Answers = append(fobbit.Answers, entry)
		}
		for _, bluff := range bluffsByFobbit[row.ID] {
			entry := BluffEntry{
				PlayerID: int(bluff.PlayerID),
				DBID:     bluff.ID,
				Text:     bluff.Text,
			}
			if bluff.AnswerID != nil {
				entry.AnswerID = answerIndex[*bluff.AnswerID]
			}
			fobbit.Bluffs = append(fobbit.Bluffs, entry)
		}
		for _, guess := range guessesByFobbit[row.ID] {
			answerID, ok := answerIndex[guess.AnswerID]
			if !ok {
				continue
			}
			fobbit.Guesses = append(fobbit.Guesses, GuessEntry{
				PlayerID: int(guess.PlayerID),
				DBID:     guess.ID,
				AnswerID: answerID,
			})
		}

		fobbitIndex[row.ID] = fobbit.ID
		session.Fobbits = append(session.Fobbits, fobbit)
	}

	if record.ActiveFobbitID != nil {
		session.ActiveFobbitID = fobbitIndex[*record.ActiveFobbitID]
	}
	return session, nil
}

func parseFobbitStatus(value string) FobbitStatus {
	switch value {
	case "guess":
		return StatusGuess
	case "finished":
		return StatusFinished
	}
	return StatusBluff
}
