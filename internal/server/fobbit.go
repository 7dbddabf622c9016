package server

import (
	"fmt"
	"strings"
)

func fobbitByID(session *Session, fobbitID int) (*FobbitState, bool) {
	for i := range session.Fobbits {
		if session.Fobbits[i].ID == fobbitID {
			return &session.Fobbits[i], true
		}
	}
	return nil, false
}

func activeFobbit(session *Session) (*FobbitState, bool) {
	if session.ActiveFobbitID == 0 {
		return nil, false
	}
	return fobbitByID(session, session.ActiveFobbitID)
}

func questionByID(session *Session, questionID int) (Question, bool) {
	if session.Quiz == nil {
		return Question{}, false
	}
	for _, question := range session.Quiz.Questions {
		if question.ID == questionID {
			return question, true
		}
	}
	return Question{}, false
}

// submitBluff records or overwrites a player's bluff. Resubmission before the
// bluff phase closes replaces the earlier text in place.
func submitBluff(session *Session, fobbit *FobbitState, playerID int, text string) error {
	if _, ok := findPlayer(session, playerID); !ok {
		return fmt.Errorf("player %d: %w", playerID, ErrNotFound)
	}
	if fobbit.Status != StatusBluff {
		return fmt.Errorf("bluffing closed: %w", ErrPreconditionNotMet)
	}
	for i := range fobbit.Bluffs {
		if fobbit.Bluffs[i].PlayerID == playerID {
			fobbit.Bluffs[i].Text = text
			return nil
		}
	}
	fobbit.Bluffs = append(fobbit.Bluffs, BluffEntry{PlayerID: playerID, Text: text})
	return nil
}

// submitGuess records or overwrites a player's vote for an answer.
func submitGuess(session *Session, fobbit *FobbitState, playerID, answerID int) error {
	if _, ok := findPlayer(session, playerID); !ok {
		return fmt.Errorf("player %d: %w", playerID, ErrNotFound)
	}
	if fobbit.Status != StatusGuess {
		return fmt.Errorf("guessing closed: %w", ErrPreconditionNotMet)
	}
	if _, ok := answerByID(fobbit, answerID); !ok {
		return fmt.Errorf("answer %d: %w", answerID, ErrNotFound)
	}
	for i := range fobbit.Guesses {
		if fobbit.Guesses[i].PlayerID == playerID {
			fobbit.Guesses[i].AnswerID = answerID
			return nil
		}
	}
	fobbit.Guesses = append(fobbit.Guesses, GuessEntry{PlayerID: playerID, AnswerID: answerID})
	return nil
}

// finishFobbit closes guessing once every rostered player has voted.
func finishFobbit(session *Session, fobbit *FobbitState) error {
	if fobbit.Status != StatusGuess {
		return fmt.Errorf("fobbit is %s: %w", fobbit.Status, ErrPreconditionNotMet)
	}
	if len(playersWithoutGuess(session, fobbit)) > 0 {
		return fmt.Errorf("not all players have guessed: %w", ErrPreconditionNotMet)
	}
	fobbit.Status = StatusFinished
	return nil
}

// deleteAnswers throws away the generated answer set and reopens bluffing.
// Reports false once the fobbit is finished.
func deleteAnswers(fobbit *FobbitState) bool {
	if fobbit.Status >= StatusFinished {
		return false
	}
	clearAnswers(fobbit)
	fobbit.Status = StatusBluff
	return true
}

// resetFobbit returns a fobbit from any state to the bluff phase.
func resetFobbit(fobbit *FobbitState) {
	clearAnswers(fobbit)
	fobbit.Status = StatusBluff
}

// clearAnswers removes all answers, cascades the guesses that reference them
// and nulls the bluff links.
func clearAnswers(fobbit *FobbitState) {
	fobbit.Answers = nil
	fobbit.Guesses = nil
	for i := range fobbit.Bluffs {
		fobbit.Bluffs[i].AnswerID = 0
	}
}

func answerByID(fobbit *FobbitState, answerID int) (*AnswerEntry, bool) {
	for i := range fobbit.Answers {
		if fobbit.Answers[i].ID == answerID {
			return &fobbit.Answers[i], true
		}
	}
	return nil, false
}

func answerByText(fobbit *FobbitState, text string) (*AnswerEntry, bool) {
	for i := range fobbit.Answers {
		if strings.EqualFold(fobbit.Answers[i].Text, text) {
			return &fobbit.Answers[i], true
		}
	}
	return nil, false
}

func bluffOf(fobbit *FobbitState, playerID int) (*BluffEntry, bool) {
	for i := range fobbit.Bluffs {
		if fobbit.Bluffs[i].PlayerID == playerID {
			return &fobbit.Bluffs[i], true
		}
	}
	return nil, false
}

func guessOf(fobbit *FobbitState, playerID int) (*GuessEntry, bool) {
	for i := range fobbit.Guesses {
		if fobbit.Guesses[i].PlayerID == playerID {
			return &fobbit.Guesses[i], true
		}
	}
	return nil, false
}

func playersWithoutBluff(session *Session, fobbit *FobbitState) []Player {
	missing := make([]Player, 0)
	for _, player := range session.Players {
		if _, ok := bluffOf(fobbit, player.ID); !ok {
			missing = append(missing, player)
		}
	}
	return missing
}

func playersWithoutGuess(session *Session, fobbit *FobbitState) []Player {
	missing := make([]Player, 0)
	for _, player := range session.Players {
		if _, ok := guessOf(fobbit, player.ID); !ok {
			missing = append(missing, player)
		}
	}
	return missing
}

func allBluffsIn(session *Session, fobbit *FobbitState) bool {
	return len(session.Players) > 0 && len(playersWithoutBluff(session, fobbit)) == 0
}

// fobbitMultiplier resolves the score multiplier from the session's round
// settings. A missing round entry falls back to round+1, an empty rounds
// list to 1, so a session without configured rounds still scores.
func fobbitMultiplier(session *Session, fobbit *FobbitState) float64 {
	rounds := session.Settings.Rounds
	if len(rounds) == 0 {
		return 1
	}
	if fobbit.Round < 0 || fobbit.Round >= len(rounds) {
		return float64(fobbit.Round + 1)
	}
	return rounds[fobbit.Round].Multiplier
}
