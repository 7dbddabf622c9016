package server

import "sort"

// snapshot is the client-facing view of a session, pushed over the websocket
// hub after every mutation. Answer correctness stays hidden until the fobbit
// is finished.
func snapshot(session *Session) map[string]any {
	payload := map[string]any{
		"session_id":   session.ID,
		"join_code":    session.JoinCode,
		"name":         session.Name,
		"quiz_title":   "",
		"modus":        session.Modus,
		"active_round": activeRound(session),
		"players":      playersPayload(session),
		"scoreboard":   scoreboard(session),
	}
	if session.Quiz != nil {
		payload["quiz_title"] = session.Quiz.Title
	}
	if fobbit, ok := activeFobbit(session); ok {
		payload["fobbit"] = fobbitPayload(session, fobbit)
	}
	return payload
}

func playersPayload(session *Session) []map[string]any {
	players := make([]map[string]any, 0, len(session.Players))
	for _, player := range session.Players {
		players = append(players, map[string]any{
			"id":      player.ID,
			"name":    player.Name,
			"is_host": player.IsHost,
		})
	}
	return players
}

func fobbitPayload(session *Session, fobbit *FobbitState) map[string]any {
	payload := map[string]any{
		"id":         fobbit.ID,
		"round":      fobbit.Round,
		"status":     fobbit.Status.String(),
		"multiplier": fobbitMultiplier(session, fobbit),
	}
	if question, ok := questionByID(session, fobbit.QuestionID); ok {
		payload["question"] = question.Text
		if question.ImageURL != "" {
			payload["image_url"] = question.ImageURL
		}
	}
	switch fobbit.Status {
	case StatusBluff:
		payload["players_without_bluff"] = playerNames(playersWithoutBluff(session, fobbit))
	case StatusGuess:
		payload["players_without_guess"] = playerNames(playersWithoutGuess(session, fobbit))
	}
	if fobbit.Status >= StatusGuess {
		payload["answers"] = answersPayload(fobbit)
	}
	return payload
}

func answersPayload(fobbit *FobbitState) []map[string]any {
	ordered := make([]AnswerEntry, len(fobbit.Answers))
	copy(ordered, fobbit.Answers)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})
	answers := make([]map[string]any, 0, len(ordered))
	for _, answer := range ordered {
		entry := map[string]any{
			"id":     answer.ID,
			"order":  answer.Order,
			"text":   answer.Text,
			"showed": answer.Showed,
		}
		if fobbit.Status == StatusFinished {
			entry["is_correct"] = answer.IsCorrect
			entry["guesses"] = guessCountForAnswer(fobbit, answer.ID)
		}
		answers = append(answers, entry)
	}
	return answers
}

func playerNames(players []Player) []string {
	names := make([]string, 0, len(players))
	for _, player := range players {
		names = append(names, player.Name)
	}
	return names
}
