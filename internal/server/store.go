package server

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Store is the authoritative in-memory entity store. Sessions are guarded by
// per-session mutexes so one session's critical section never blocks another.
type Store struct {
	mu            sync.RWMutex
	nextQuizID    int
	nextSessionID int
	nextPlayerID  int
	quizzes       map[string]*Quiz
	sessions      map[string]*sessionHandle
}

type sessionHandle struct {
	mu      sync.Mutex
	session *Session
}

func NewStore() *Store {
	return &Store{
		nextQuizID:    1,
		nextSessionID: 1,
		nextPlayerID:  1,
		quizzes:       make(map[string]*Quiz),
		sessions:      make(map[string]*sessionHandle),
	}
}

func (s *Store) CreateQuiz(title, owner string, questions []Question) *Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("quiz-%d", s.nextQuizID)
	s.nextQuizID++
	quiz := &Quiz{
		ID:    id,
		Title: title,
		Owner: owner,
	}
	for i, question := range questions {
		question.ID = i + 1
		question.Order = i + 1
		quiz.Questions = append(quiz.Questions, question)
	}
	s.quizzes[id] = quiz
	return quiz
}

func (s *Store) GetQuiz(id string) (*Quiz, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	return quiz, ok
}

func (s *Store) CreateSession(quiz *Quiz, name, hostName string, settings SessionSettings) (*Session, Player) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("session-%d", s.nextSessionID)
	s.nextSessionID++
	host := Player{
		ID:       s.nextPlayerID,
		Name:     hostName,
		IsHost:   true,
		JoinedAt: time.Now().UTC(),
	}
	s.nextPlayerID++
	session := &Session{
		ID:           id,
		JoinCode:     newJoinCode(),
		Name:         name,
		Quiz:         quiz,
		HostID:       host.ID,
		Modus:        ModusBluffing,
		Settings:     settings,
		CreatedAt:    time.Now().UTC(),
		Players:      []Player{host},
		AuthTokens:   map[int]string{host.ID: newAuthToken()},
		nextFobbitID: 1,
		nextAnswerID: 1,
	}
	s.sessions[id] = &sessionHandle{session: session}
	return session, host
}

func (s *Store) handle(idOrCode string) (*sessionHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if handle, ok := s.sessions[idOrCode]; ok {
		return handle, true
	}
	for _, handle := range s.sessions {
		if handle.session.JoinCode == idOrCode {
			return handle, true
		}
	}
	return nil, false
}

// UpdateSession runs fn with exclusive access to one session. The closure is
// the serialization point for every check-and-mutate sequence in the engine.
func (s *Store) UpdateSession(idOrCode string, fn func(session *Session) error) error {
	handle, ok := s.handle(idOrCode)
	if !ok {
		return fmt.Errorf("session %s: %w", idOrCode, ErrNotFound)
	}
	handle.mu.Lock()
	defer handle.mu.Unlock()
	return fn(handle.session)
}

// ViewSession runs fn with shared-state access to one session. Mutating the
// session inside fn is a bug; the lock only guards against concurrent writers.
func (s *Store) ViewSession(idOrCode string, fn func(session *Session)) bool {
	handle, ok := s.handle(idOrCode)
	if !ok {
		return false
	}
	handle.mu.Lock()
	defer handle.mu.Unlock()
	fn(handle.session)
	return true
}

// AddPlayer joins a player to a session, idempotent by name. Joining is only
// open while the first round's bluff phase still is.
func (s *Store) AddPlayer(idOrCode, name string) (joined Player, token string, err error) {
	handle, ok := s.handle(idOrCode)
	if !ok {
		return Player{}, "", fmt.Errorf("session %s: %w", idOrCode, ErrNotFound)
	}

	handle.mu.Lock()
	defer handle.mu.Unlock()
	session := handle.session
	for _, player := range session.Players {
		if player.Name == name {
			return player, session.AuthTokens[player.ID], nil
		}
	}
	if !rosterOpen(session) {
		return Player{}, "", fmt.Errorf("session already started: %w", ErrPreconditionNotMet)
	}

	s.mu.Lock()
	player := Player{
		ID:       s.nextPlayerID,
		Name:     name,
		JoinedAt: time.Now().UTC(),
	}
	s.nextPlayerID++
	s.mu.Unlock()

	session.Players = append(session.Players, player)
	token = newAuthToken()
	session.AuthTokens[player.ID] = token
	return player, token, nil
}

// rosterOpen reports whether new players may still join: no fobbit has left
// its first bluff phase yet.
func rosterOpen(session *Session) bool {
	for i := range session.Fobbits {
		if session.Fobbits[i].Status != StatusBluff {
			return false
		}
	}
	return true
}

// RestoreSession registers a session rebuilt from persisted rows. The counters
// move past the restored ids so later CreateSession and AddPlayer calls cannot
// collide with them.
func (s *Store) RestoreSession(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("session %s is already loaded", session.ID)
	}
	for _, handle := range s.sessions {
		if handle.session.JoinCode == session.JoinCode {
			return fmt.Errorf("join code %s is already loaded", session.JoinCode)
		}
	}

	s.sessions[session.ID] = &sessionHandle{session: session}
	if key := sessionSortKey(session.ID); key >= s.nextSessionID {
		s.nextSessionID = key + 1
	}
	for _, player := range session.Players {
		if player.ID >= s.nextPlayerID {
			s.nextPlayerID = player.ID + 1
		}
	}
	if quiz := session.Quiz; quiz != nil {
		if _, exists := s.quizzes[quiz.ID]; !exists {
			s.quizzes[quiz.ID] = quiz
			if key := sessionSortKey(quiz.ID); key >= s.nextQuizID {
				s.nextQuizID = key + 1
			}
		}
	}
	return nil
}

func (s *Store) UpdateSessionID(session *Session, newID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle, ok := s.sessions[session.ID]
	if !ok || session.ID == newID {
		return
	}
	delete(s.sessions, session.ID)
	session.ID = newID
	s.sessions[newID] = handle
}

func (s *Store) ListSessionSummaries() []SessionSummary {
	s.mu.RLock()
	handles := make([]*sessionHandle, 0, len(s.sessions))
	for _, handle := range s.sessions {
		handles = append(handles, handle)
	}
	s.mu.RUnlock()

	list := make([]SessionSummary, 0, len(handles))
	for _, handle := range handles {
		handle.mu.Lock()
		session := handle.session
		list = append(list, SessionSummary{
			ID:       session.ID,
			JoinCode: session.JoinCode,
			Name:     session.Name,
			Modus:    session.Modus,
			Players:  len(session.Players),
		})
		handle.mu.Unlock()
	}
	sort.Slice(list, func(i, j int) bool {
		return sessionSortKey(list[i].ID) < sessionSortKey(list[j].ID)
	})
	return list
}

func sessionSortKey(id string) int {
	parts := strings.Split(id, "-")
	if len(parts) < 2 {
		return 0
	}
	value, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0
	}
	return value
}

func findPlayer(session *Session, playerID int) (Player, bool) {
	for _, player := range session.Players {
		if player.ID == playerID {
			return player, true
		}
	}
	return Player{}, false
}
