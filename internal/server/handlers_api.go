package server

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

var errForbidden = errors.New("forbidden")

type questionInput struct {
	Text          string `json:"text"`
	CorrectAnswer string `json:"correct_answer"`
	ImageURL      string `json:"image_url,omitempty"`
	Player        string `json:"player,omitempty"`
}

type createQuizRequest struct {
	Title     string          `json:"title"`
	Owner     string          `json:"owner"`
	Questions []questionInput `json:"questions"`
}

type createSessionRequest struct {
	QuizID   string            `json:"quiz_id"`
	Name     string            `json:"name"`
	HostName string            `json:"host_name"`
	Rounds   []RoundDefinition `json:"rounds,omitempty"`
}

type joinRequest struct {
	Name string `json:"name"`
}

type bluffRequest struct {
	PlayerID int    `json:"player_id"`
	Token    string `json:"token"`
	FobbitID int    `json:"fobbit_id,omitempty"`
	Text     string `json:"text"`
}

type guessRequest struct {
	PlayerID int    `json:"player_id"`
	Token    string `json:"token"`
	FobbitID int    `json:"fobbit_id,omitempty"`
	AnswerID int    `json:"answer_id"`
}

type hostRequest struct {
	PlayerID int    `json:"player_id"`
	Token    string `json:"token"`
	FobbitID int    `json:"fobbit_id,omitempty"`
}

type newRoundRequest struct {
	PlayerID          int     `json:"player_id"`
	Token             string  `json:"token"`
	NumberOfQuestions int     `json:"number_of_questions"`
	Multiplier        float64 `json:"multiplier"`
}

func (s *Server) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || len(req.Questions) == 0 {
		writeError(w, http.StatusBadRequest, "title and at least one question are required")
		return
	}
	questions := make([]Question, 0, len(req.Questions))
	for _, input := range req.Questions {
		if input.Text == "" || input.CorrectAnswer == "" {
			writeError(w, http.StatusBadRequest, "every question needs text and a correct answer")
			return
		}
		questions = append(questions, Question{
			Text:          input.Text,
			CorrectAnswer: input.CorrectAnswer,
			ImageURL:      input.ImageURL,
			Player:        input.Player,
		})
	}

	quiz := s.store.CreateQuiz(req.Title, req.Owner, questions)
	if err := s.persistQuiz(quiz); err != nil {
		s.logger.Warn("persist quiz", zap.String("quiz_id", quiz.ID), zap.Error(err))
	}
	s.logger.Info("quiz created",
		zap.String("quiz_id", quiz.ID),
		zap.Int("questions", len(quiz.Questions)))
	writeJSON(w, http.StatusCreated, map[string]any{
		"quiz_id":   quiz.ID,
		"title":     quiz.Title,
		"questions": len(quiz.Questions),
	})
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuizPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	quiz, ok := s.store.GetQuiz(id)
	if !ok {
		writeError(w, http.StatusNotFound, "quiz not found")
		return
	}
	questions := make([]map[string]any, 0, len(quiz.Questions))
	for _, question := range quiz.Questions {
		questions = append(questions, map[string]any{
			"id":             question.ID,
			"text":           question.Text,
			"correct_answer": question.CorrectAnswer,
			"order":          question.Order,
			"image_url":      question.ImageURL,
			"player":         question.Player,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"quiz_id":   quiz.ID,
		"title":     quiz.Title,
		"owner":     quiz.Owner,
		"questions": questions,
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.HostName == "" {
		writeError(w, http.StatusBadRequest, "name and host_name are required")
		return
	}
	quiz, ok := s.store.GetQuiz(req.QuizID)
	if !ok {
		writeError(w, http.StatusNotFound, "quiz not found")
		return
	}
	rounds := req.Rounds
	if len(rounds) == 0 {
		rounds = []RoundDefinition{{
			NumberOfQuestions: s.cfg.FirstRoundQuestions,
			Multiplier:        s.cfg.FirstRoundMultiplier,
		}}
	}
	for _, round := range rounds {
		if round.NumberOfQuestions <= 0 || round.Multiplier <= 0 {
			writeError(w, http.StatusBadRequest, "rounds need a positive question count and multiplier")
			return
		}
	}

	session, host := s.store.CreateSession(quiz, req.Name, req.HostName, SessionSettings{Rounds: rounds})
	var sessionID, joinCode, token string
	err := s.store.UpdateSession(session.ID, func(session *Session) error {
		if err := s.persistSession(session); err != nil {
			s.logger.Warn("persist session", zap.String("session_id", session.ID), zap.Error(err))
		}
		for i := range session.Players {
			if err := s.persistPlayer(session, &session.Players[i]); err != nil {
				s.logger.Warn("persist player", zap.String("session_id", session.ID), zap.Error(err))
			}
		}
		sessionID = session.ID
		joinCode = session.JoinCode
		token = session.AuthTokens[host.ID]
		return nil
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.logger.Info("session created",
		zap.String("session_id", sessionID),
		zap.String("join_code", joinCode))
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": sessionID,
		"join_code":  joinCode,
		"player_id":  host.ID,
		"token":      token,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	summaries := s.store.ListSessionSummaries()
	sessions := make([]map[string]any, 0, len(summaries))
	for _, summary := range summaries {
		sessions = append(sessions, map[string]any{
			"session_id": summary.ID,
			"join_code":  summary.JoinCode,
			"name":       summary.Name,
			"modus":      summary.Modus,
			"players":    summary.Players,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleSessionSubroutes(w http.ResponseWriter, r *http.Request) {
	id, action, ok := parseSessionPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.ensureSession(id)
	if r.Method == http.MethodGet {
		switch action {
		case "":
			s.handleGetSession(w, id)
		case "scoreboard":
			s.handleScoreboard(w, id)
		default:
			http.NotFound(w, r)
		}
		return
	}
	switch action {
	case "join":
		s.handleJoin(w, r, id)
	case "bluffs":
		s.handleSubmitBluff(w, r, id)
	case "guesses":
		s.handleSubmitGuess(w, r, id)
	case "advance":
		s.handleAdvance(w, r, id)
	case "rounds":
		s.handleNewRound(w, r, id)
	case "finish":
		s.handleFinish(w, r, id)
	case "reveal":
		s.handleReveal(w, r, id)
	case "reset":
		s.handleReset(w, r, id)
	case "delete-answers":
		s.handleDeleteAnswers(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, id string) {
	var payload map[string]any
	if !s.store.ViewSession(id, func(session *Session) {
		payload = snapshot(session)
	}) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleScoreboard(w http.ResponseWriter, id string) {
	var scores []PlayerScore
	if !s.store.ViewSession(id, func(session *Session) {
		scores = scoreboard(session)
	}) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scoreboard": scores})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request, id string) {
	var req joinRequest
	if err := readJSON(r.Body, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	player, token, err := s.store.AddPlayer(id, req.Name)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	var sessionID string
	_ = s.store.UpdateSession(id, func(session *Session) error {
		sessionID = session.ID
		for i := range session.Players {
			if session.Players[i].ID == player.ID {
				if err := s.persistPlayer(session, &session.Players[i]); err != nil {
					s.logger.Warn("persist player", zap.String("session_id", session.ID), zap.Error(err))
				}
				break
			}
		}
		return nil
	})
	s.notifySessionChanged(sessionID)
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"player_id":  player.ID,
		"token":      token,
	})
}

// handleSubmitBluff records the bluff and, when it was the last one missing,
// generates the answer set and advances the session in the same critical
// section. Two racing final bluffs cannot double-generate: the second sees
// the guess status and skips.
func (s *Server) handleSubmitBluff(w http.ResponseWriter, r *http.Request, id string) {
	var req bluffRequest
	if err := readJSON(r.Body, &req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	var sessionID string
	err := s.store.UpdateSession(id, func(session *Session) error {
		if !playerAuthorized(session, req.PlayerID, req.Token) {
			return errForbidden
		}
		fobbit, err := targetFobbit(session, req.FobbitID)
		if err != nil {
			return err
		}
		if err := submitBluff(session, fobbit, req.PlayerID, req.Text); err != nil {
			return err
		}
		if err := s.persistBluff(session, fobbit, req.PlayerID); err != nil {
			s.logger.Warn("persist bluff", zap.String("session_id", session.ID), zap.Error(err))
		}
		sessionID = session.ID
		if fobbit.Status != StatusBluff || !allBluffsIn(session, fobbit) {
			return nil
		}
		if err := generateAnswers(session, fobbit); err != nil {
			return err
		}
		if err := s.persistAnswerSet(session, fobbit); err != nil {
			clearAnswers(fobbit)
			fobbit.Status = StatusBluff
			return err
		}
		s.advanceAfterGeneration(session)
		return nil
	})
	// sessionID is set once the bluff itself is recorded. A failure in the
	// generation cascade after that still changed the session, so listeners
	// hear about it even when the request errors.
	if sessionID != "" {
		s.notifySessionChanged(sessionID)
	}
	if err != nil {
		writeRequestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// advanceAfterGeneration moves the session along once a fobbit's answers are
// out. Running out of questions mid-round is not an error here; the session
// just flips to guessing with the fobbits it has.
func (s *Server) advanceAfterGeneration(session *Session) {
	fobbit, err := advanceSession(session)
	if err != nil {
		if errors.Is(err, ErrExhausted) {
			session.Modus = ModusGuessing
			if existing := fobbitsInRound(session, activeRound(session)); len(existing) > 0 {
				session.ActiveFobbitID = existing[0].ID
			}
		} else {
			s.logger.Warn("advance session", zap.String("session_id", session.ID), zap.Error(err))
			return
		}
	}
	if fobbit != nil {
		if err := s.persistFobbit(session, fobbit); err != nil {
			s.logger.Warn("persist fobbit", zap.String("session_id", session.ID), zap.Error(err))
		}
	}
	if err := s.persistSessionState(session); err != nil {
		s.logger.Warn("persist session state", zap.String("session_id", session.ID), zap.Error(err))
	}
}

// handleSubmitGuess records the vote. The fobbit stays in the guess phase
// until the host finishes it, so players may revise their vote until then.
func (s *Server) handleSubmitGuess(w http.ResponseWriter, r *http.Request, id string) {
	var req guessRequest
	if err := readJSON(r.Body, &req); err != nil || req.AnswerID == 0 {
		writeError(w, http.StatusBadRequest, "answer_id is required")
		return
	}
	var sessionID string
	err := s.store.UpdateSession(id, func(session *Session) error {
		if !playerAuthorized(session, req.PlayerID, req.Token) {
			return errForbidden
		}
		fobbit, err := targetFobbit(session, req.FobbitID)
		if err != nil {
			return err
		}
		if err := submitGuess(session, fobbit, req.PlayerID, req.AnswerID); err != nil {
			return err
		}
		if err := s.persistGuess(session, fobbit, req.PlayerID); err != nil {
			s.logger.Warn("persist guess", zap.String("session_id", session.ID), zap.Error(err))
		}
		sessionID = session.ID
		return nil
	})
	if err != nil {
		writeRequestError(w, err)
		return
	}
	s.notifySessionChanged(sessionID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request, id string) {
	var req hostRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var sessionID, modus string
	var fobbitID int
	err := s.store.UpdateSession(id, func(session *Session) error {
		if !hostAuthorized(session, req.PlayerID, req.Token) {
			return errForbidden
		}
		fobbit, err := advanceSession(session)
		if err != nil {
			return err
		}
		if fobbit != nil {
			if err := s.persistFobbit(session, fobbit); err != nil {
				s.logger.Warn("persist fobbit", zap.String("session_id", session.ID), zap.Error(err))
			}
			fobbitID = fobbit.ID
		}
		if err := s.persistSessionState(session); err != nil {
			s.logger.Warn("persist session state", zap.String("session_id", session.ID), zap.Error(err))
		}
		sessionID = session.ID
		modus = session.Modus
		return nil
	})
	if err != nil {
		writeRequestError(w, err)
		return
	}
	s.notifySessionChanged(sessionID)
	payload := map[string]any{"modus": modus}
	if fobbitID != 0 {
		payload["fobbit_id"] = fobbitID
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleNewRound(w http.ResponseWriter, r *http.Request, id string) {
	var req newRoundRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NumberOfQuestions <= 0 || req.Multiplier <= 0 {
		writeError(w, http.StatusBadRequest, "rounds need a positive question count and multiplier")
		return
	}
	var sessionID string
	var fobbitID, round int
	err := s.store.UpdateSession(id, func(session *Session) error {
		if !hostAuthorized(session, req.PlayerID, req.Token) {
			return errForbidden
		}
		fobbit, err := newRound(session, RoundDefinition{
			NumberOfQuestions: req.NumberOfQuestions,
			Multiplier:        req.Multiplier,
		})
		if err != nil {
			return err
		}
		if err := s.persistFobbit(session, fobbit); err != nil {
			s.logger.Warn("persist fobbit", zap.String("session_id", session.ID), zap.Error(err))
		}
		if err := s.persistSessionState(session); err != nil {
			s.logger.Warn("persist session state", zap.String("session_id", session.ID), zap.Error(err))
		}
		sessionID = session.ID
		fobbitID = fobbit.ID
		round = fobbit.Round
		return nil
	})
	if err != nil {
		writeRequestError(w, err)
		return
	}
	s.notifySessionChanged(sessionID)
	writeJSON(w, http.StatusOK, map[string]any{
		"fobbit_id": fobbitID,
		"round":     round,
	})
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request, id string) {
	var req hostRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var sessionID string
	err := s.store.UpdateSession(id, func(session *Session) error {
		if !hostAuthorized(session, req.PlayerID, req.Token) {
			return errForbidden
		}
		fobbit, err := targetFobbit(session, req.FobbitID)
		if err != nil {
			return err
		}
		if err := finishFobbit(session, fobbit); err != nil {
			return err
		}
		if err := s.persistFobbitStatus(session, fobbit); err != nil {
			s.logger.Warn("persist fobbit status", zap.String("session_id", session.ID), zap.Error(err))
		}
		sessionID = session.ID
		return nil
	})
	if err != nil {
		writeRequestError(w, err)
		return
	}
	s.notifySessionChanged(sessionID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request, id string) {
	var req hostRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var sessionID string
	var payload map[string]any
	err := s.store.UpdateSession(id, func(session *Session) error {
		if !hostAuthorized(session, req.PlayerID, req.Token) {
			return errForbidden
		}
		fobbit, err := targetFobbit(session, req.FobbitID)
		if err != nil {
			return err
		}
		answer, bluffs, err := nextReveal(session, fobbit)
		if err != nil {
			return err
		}
		if err := s.persistAnswerShowed(fobbit); err != nil {
			s.logger.Warn("persist answer showed", zap.String("session_id", session.ID), zap.Error(err))
		}
		sessionID = session.ID
		payload = map[string]any{
			"answer": map[string]any{
				"id":         answer.ID,
				"text":       answer.Text,
				"is_correct": answer.IsCorrect,
				"guesses":    guessCountForAnswer(fobbit, answer.ID),
			},
			"bluffs": bluffs,
		}
		return nil
	})
	if err != nil {
		writeRequestError(w, err)
		return
	}
	s.notifySessionChanged(sessionID)
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, id string) {
	var req hostRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var sessionID string
	err := s.store.UpdateSession(id, func(session *Session) error {
		if !hostAuthorized(session, req.PlayerID, req.Token) {
			return errForbidden
		}
		fobbit, err := targetFobbit(session, req.FobbitID)
		if err != nil {
			return err
		}
		resetFobbit(fobbit)
		if err := s.persistAnswerSet(session, fobbit); err != nil {
			s.logger.Warn("persist answer set", zap.String("session_id", session.ID), zap.Error(err))
		}
		sessionID = session.ID
		return nil
	})
	if err != nil {
		writeRequestError(w, err)
		return
	}
	s.notifySessionChanged(sessionID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDeleteAnswers(w http.ResponseWriter, r *http.Request, id string) {
	var req hostRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var sessionID string
	err := s.store.UpdateSession(id, func(session *Session) error {
		if !hostAuthorized(session, req.PlayerID, req.Token) {
			return errForbidden
		}
		fobbit, err := targetFobbit(session, req.FobbitID)
		if err != nil {
			return err
		}
		if !deleteAnswers(fobbit) {
			return fmt.Errorf("fobbit is finished: %w", ErrPreconditionNotMet)
		}
		if err := s.persistAnswerSet(session, fobbit); err != nil {
			s.logger.Warn("persist answer set", zap.String("session_id", session.ID), zap.Error(err))
		}
		sessionID = session.ID
		return nil
	})
	if err != nil {
		writeRequestError(w, err)
		return
	}
	s.notifySessionChanged(sessionID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func playerAuthorized(session *Session, playerID int, token string) bool {
	stored, ok := session.AuthTokens[playerID]
	return ok && token != "" && stored == token
}

func hostAuthorized(session *Session, playerID int, token string) bool {
	return playerID == session.HostID && playerAuthorized(session, playerID, token)
}

// targetFobbit resolves an explicit fobbit id, falling back to the session's
// active fobbit.
func targetFobbit(session *Session, fobbitID int) (*FobbitState, error) {
	if fobbitID != 0 {
		fobbit, ok := fobbitByID(session, fobbitID)
		if !ok {
			return nil, fmt.Errorf("fobbit %d: %w", fobbitID, ErrNotFound)
		}
		return fobbit, nil
	}
	fobbit, ok := activeFobbit(session)
	if !ok {
		return nil, fmt.Errorf("no active fobbit: %w", ErrNotFound)
	}
	return fobbit, nil
}

func writeRequestError(w http.ResponseWriter, err error) {
	if errors.Is(err, errForbidden) {
		writeError(w, http.StatusForbidden, "invalid player credentials")
		return
	}
	writeEngineError(w, err)
}
