package server

import "fmt"

// questionsInRound returns the configured question count for a round, 0 when
// the round is unset or out of range.
func questionsInRound(session *Session, round int) int {
	if round < 0 || round >= len(session.Settings.Rounds) {
		return 0
	}
	return session.Settings.Rounds[round].NumberOfQuestions
}

// activeRound is the round of the active fobbit, -1 when none is active.
func activeRound(session *Session) int {
	fobbit, ok := activeFobbit(session)
	if !ok {
		return -1
	}
	return fobbit.Round
}

func fobbitsInRound(session *Session, round int) []*FobbitState {
	fobbits := make([]*FobbitState, 0)
	for i := range session.Fobbits {
		if session.Fobbits[i].Round == round {
			fobbits = append(fobbits, &session.Fobbits[i])
		}
	}
	return fobbits
}

// generateFobbit pairs the next unused question of the session's quiz with
// this session at the given round.
func generateFobbit(session *Session, round int) (*FobbitState, error) {
	if session.Quiz == nil {
		return nil, fmt.Errorf("quiz: %w", ErrNotFound)
	}
	used := make(map[int]struct{}, len(session.Fobbits))
	for i := range session.Fobbits {
		used[session.Fobbits[i].QuestionID] = struct{}{}
	}
	for _, question := range session.Quiz.Questions {
		if _, taken := used[question.ID]; taken {
			continue
		}
		session.Fobbits = append(session.Fobbits, FobbitState{
			ID:         session.nextFobbitID,
			QuestionID: question.ID,
			Round:      round,
			Status:     StatusBluff,
		})
		session.nextFobbitID++
		return &session.Fobbits[len(session.Fobbits)-1], nil
	}
	return nil, ErrExhausted
}

// advanceSession moves the session to its next fobbit. While bluffing it
// keeps generating fobbits until the round is full, then flips the modus to
// guessing and re-activates the round's first fobbit so players vote through
// the backlog.
func advanceSession(session *Session) (*FobbitState, error) {
	round := activeRound(session)
	if round < 0 {
		round = 0
	}

	var fobbit *FobbitState
	switch session.Modus {
	case ModusBluffing:
		if len(fobbitsInRound(session, round)) < questionsInRound(session, round) {
			generated, err := generateFobbit(session, round)
			if err != nil {
				return nil, err
			}
			fobbit = generated
		} else {
			session.Modus = ModusGuessing
			existing := fobbitsInRound(session, round)
			if len(existing) == 0 {
				return nil, fmt.Errorf("round %d has no fobbits: %w", round, ErrPreconditionNotMet)
			}
			fobbit = existing[0]
		}
	case ModusGuessing:
		// Step through the round's backlog; nil once it is exhausted,
		// at which point the host opens a new round.
		passed := false
		for _, candidate := range fobbitsInRound(session, round) {
			if candidate.ID == session.ActiveFobbitID {
				passed = true
				continue
			}
			if passed {
				fobbit = candidate
				break
			}
		}
	}

	if fobbit != nil {
		session.ActiveFobbitID = fobbit.ID
	}
	return fobbit, nil
}

// newRound appends a round definition, activates the new round's first
// fobbit and returns the session to bluffing. Callers are responsible for
// exhausting the previous round first.
func newRound(session *Session, definition RoundDefinition) (*FobbitState, error) {
	session.Settings.Rounds = append(session.Settings.Rounds, definition)
	fobbit, err := generateFobbit(session, len(session.Settings.Rounds)-1)
	if err != nil {
		session.Settings.Rounds = session.Settings.Rounds[:len(session.Settings.Rounds)-1]
		return nil, err
	}
	session.ActiveFobbitID = fobbit.ID
	session.Modus = ModusBluffing
	return fobbit, nil
}
