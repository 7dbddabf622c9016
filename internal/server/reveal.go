package server

import "fmt"

type BluffReveal struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// nextReveal stages the answer reveal on a finished fobbit: each call shows
// the not-yet-shown incorrect answer with the fewest guesses, and once every
// bluff is out it resets the flags and shows the correct answer. Returns the
// revealed answer with the bluffers behind it and their bluff scores.
func nextReveal(session *Session, fobbit *FobbitState) (*AnswerEntry, []BluffReveal, error) {
	if fobbit.Status != StatusFinished {
		return nil, nil, fmt.Errorf("fobbit is %s: %w", fobbit.Status, ErrPreconditionNotMet)
	}

	var answer *AnswerEntry
	for i := range fobbit.Answers {
		candidate := &fobbit.Answers[i]
		if candidate.Showed || candidate.IsCorrect {
			continue
		}
		if answer == nil || guessCountForAnswer(fobbit, candidate.ID) < guessCountForAnswer(fobbit, answer.ID) {
			answer = candidate
		}
	}
	if answer == nil {
		// Every bluff is out. Reset so the host can run the reveal again
		// and close with the truth.
		for i := range fobbit.Answers {
			fobbit.Answers[i].Showed = false
		}
		for i := range fobbit.Answers {
			if fobbit.Answers[i].IsCorrect {
				answer = &fobbit.Answers[i]
				break
			}
		}
		if answer == nil {
			return nil, nil, fmt.Errorf("correct answer: %w", ErrNotFound)
		}
	}
	answer.Showed = true

	bluffs := make([]BluffReveal, 0)
	for _, bluff := range fobbit.Bluffs {
		if bluff.AnswerID != answer.ID {
			continue
		}
		player, _ := findPlayer(session, bluff.PlayerID)
		bluffs = append(bluffs, BluffReveal{
			PlayerID: bluff.PlayerID,
			Name:     player.Name,
			Score:    bluffScore(session, fobbit, bluff.PlayerID),
		})
	}
	return answer, bluffs, nil
}
