package server

import "sort"

// Scoring is computed on demand from finished fobbits only. The per-player
// total is the bluff score plus the guess score; the zeroing rules (no credit
// for bluffing the truth, no credit when voting for your own bluff) live
// inside the component scores so every call site agrees.

func guessCountForAnswer(fobbit *FobbitState, answerID int) int {
	count := 0
	for _, guess := range fobbit.Guesses {
		if guess.AnswerID == answerID {
			count++
		}
	}
	return count
}

func bluffCountForAnswer(fobbit *FobbitState, answerID int) int {
	count := 0
	for _, bluff := range fobbit.Bluffs {
		if bluff.AnswerID == answerID {
			count++
		}
	}
	return count
}

// bluffScore is what a player's bluff earned from the players it fooled:
// guesses on the bluff's answer times multiplier times 500, split between the
// bluffs that share the answer. Zero when the bluff landed on the correct
// answer or the bluffer voted for it themselves.
func bluffScore(session *Session, fobbit *FobbitState, playerID int) int {
	if fobbit.Status != StatusFinished {
		return 0
	}
	bluff, ok := bluffOf(fobbit, playerID)
	if !ok || bluff.AnswerID == 0 {
		return 0
	}
	answer, ok := answerByID(fobbit, bluff.AnswerID)
	if !ok || answer.IsCorrect {
		return 0
	}
	if guess, ok := guessOf(fobbit, playerID); ok && guess.AnswerID == bluff.AnswerID {
		return 0
	}
	share := bluffCountForAnswer(fobbit, bluff.AnswerID)
	if share == 0 {
		return 0
	}
	taken := guessCountForAnswer(fobbit, bluff.AnswerID)
	return int(float64(taken) * fobbitMultiplier(session, fobbit) * 500 / float64(share))
}

// guessScore is multiplier times 1000 for finding the correct answer on a
// finished fobbit, zero otherwise. Guessing your own bluff's answer never
// scores, and a player whose bluff was the correct answer scores nothing.
func guessScore(session *Session, fobbit *FobbitState, playerID int) int {
	if fobbit.Status != StatusFinished {
		return 0
	}
	guess, ok := guessOf(fobbit, playerID)
	if !ok {
		return 0
	}
	if bluff, ok := bluffOf(fobbit, playerID); ok && bluff.AnswerID != 0 {
		if answer, ok := answerByID(fobbit, bluff.AnswerID); ok && answer.IsCorrect {
			return 0
		}
		if guess.AnswerID == bluff.AnswerID {
			return 0
		}
	}
	answer, ok := answerByID(fobbit, guess.AnswerID)
	if !ok {
		return 0
	}
	question, ok := questionByID(session, fobbit.QuestionID)
	if !ok || answer.Text != question.CorrectAnswer {
		return 0
	}
	return int(fobbitMultiplier(session, fobbit) * 1000)
}

// fobbitScoreForPlayer is the authoritative per-player total for one fobbit.
func fobbitScoreForPlayer(session *Session, fobbit *FobbitState, playerID int) int {
	if fobbit.Status != StatusFinished {
		return 0
	}
	if bluff, ok := bluffOf(fobbit, playerID); ok && bluff.AnswerID != 0 {
		if answer, ok := answerByID(fobbit, bluff.AnswerID); ok && answer.IsCorrect {
			return 0
		}
	}
	return bluffScore(session, fobbit, playerID) + guessScore(session, fobbit, playerID)
}

// sessionScoreForPlayer sums the player's score over every fobbit.
func sessionScoreForPlayer(session *Session, playerID int) int {
	total := 0
	for i := range session.Fobbits {
		total += fobbitScoreForPlayer(session, &session.Fobbits[i], playerID)
	}
	return total
}

type PlayerScore struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// scoreboard ranks the roster by total session score, highest first.
func scoreboard(session *Session) []PlayerScore {
	scores := make([]PlayerScore, 0, len(session.Players))
	for _, player := range session.Players {
		scores = append(scores, PlayerScore{
			PlayerID: player.ID,
			Name:     player.Name,
			Score:    sessionScoreForPlayer(session, player.ID),
		})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}
