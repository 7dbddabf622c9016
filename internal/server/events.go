package server

type EventPayload struct {
	SessionID         string  `json:"session_id,omitempty"`
	JoinCode          string  `json:"join_code,omitempty"`
	PlayerName        string  `json:"player,omitempty"`
	PlayerID          int     `json:"player_id,omitempty"`
	FobbitID          int     `json:"fobbit_id,omitempty"`
	Round             int     `json:"round,omitempty"`
	Status            string  `json:"status,omitempty"`
	Modus             string  `json:"modus,omitempty"`
	AnswerID          int     `json:"answer_id,omitempty"`
	Answer            string  `json:"answer,omitempty"`
	Count             int     `json:"count,omitempty"`
	Multiplier        float64 `json:"multiplier,omitempty"`
	NumberOfQuestions int     `json:"number_of_questions,omitempty"`
}
