package server

import "time"

// Fobbit lifecycle. Ordering matters: guards compare against these values.
type FobbitStatus int

const (
	StatusBluff FobbitStatus = iota
	StatusGuess
	StatusFinished
)

func (s FobbitStatus) String() string {
	switch s {
	case StatusBluff:
		return "bluff"
	case StatusGuess:
		return "guess"
	case StatusFinished:
		return "finished"
	}
	return "unknown"
}

// Session-wide intent for what advance() does next.
const (
	ModusBluffing = "bluffing"
	ModusGuessing = "guessing"
)

type SessionSummary struct {
	ID       string
	JoinCode string
	Name     string
	Modus    string
	Players  int
}

type Quiz struct {
	ID        string
	DBID      uint
	Title     string
	Owner     string
	Questions []Question
}

type Question struct {
	ID            int
	DBID          uint
	Text          string
	CorrectAnswer string
	Order         int
	ImageURL      string
	Player        string
}

type RoundDefinition struct {
	NumberOfQuestions int     `json:"number_of_questions"`
	Multiplier        float64 `json:"multiplier"`
}

type SessionSettings struct {
	Rounds []RoundDefinition `json:"rounds"`
}

type Session struct {
	ID             string
	DBID           uint
	JoinCode       string
	Name           string
	Quiz           *Quiz
	HostID         int
	Modus          string
	Settings       SessionSettings
	ActiveFobbitID int
	CreatedAt      time.Time
	Players        []Player
	Fobbits        []FobbitState
	AuthTokens     map[int]string

	nextFobbitID int
	nextAnswerID int
}

type Player struct {
	ID       int
	DBID     uint
	Name     string
	IsHost   bool
	JoinedAt time.Time
}

// FobbitState is one question as played in this session and round.
type FobbitState struct {
	ID         int
	DBID       uint
	QuestionID int
	Round      int
	Status     FobbitStatus
	Answers    []AnswerEntry
	Bluffs     []BluffEntry
	Guesses    []GuessEntry
}

type AnswerEntry struct {
	ID        int
	DBID      uint
	Text      string
	Order     int // 1-based display order, 0 until the shuffle assigns it
	Showed    bool
	IsCorrect bool
}

type BluffEntry struct {
	PlayerID int
	DBID     uint
	Text     string
	AnswerID int // 0 until answer generation folds the bluff into an answer
}

type GuessEntry struct {
	PlayerID int
	DBID     uint
	AnswerID int
}
