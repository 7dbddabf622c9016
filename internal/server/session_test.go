package server

import (
	"errors"
	"testing"
)

// bluffAndGenerate pushes a fobbit through its bluff phase so the
// orchestrator tests can focus on the transitions.
func bluffAndGenerate(t *testing.T, session *Session, fobbit *FobbitState) {
	t.Helper()
	for i, player := range session.Players {
		if err := submitBluff(session, fobbit, player.ID, "bluff-"+session.Players[i].Name); err != nil {
			t.Fatalf("submit bluff: %v", err)
		}
	}
	if err := generateAnswers(session, fobbit); err != nil {
		t.Fatalf("generate answers: %v", err)
	}
}

func TestAdvanceFillsRoundThenFlipsToGuessing(t *testing.T) {
	session := testSession(3, 2)
	session.Settings.Rounds[0].NumberOfQuestions = 2

	first, err := advanceSession(session)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if first == nil || session.ActiveFobbitID != first.ID {
		t.Fatalf("expected first fobbit to activate")
	}
	if session.Modus != ModusBluffing {
		t.Fatalf("expected bluffing, got %s", session.Modus)
	}

	second, err := advanceSession(session)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if second == nil || second.ID == first.ID {
		t.Fatalf("expected a second fobbit")
	}
	if len(fobbitsInRound(session, 0)) != 2 {
		t.Fatalf("expected 2 fobbits in round 0")
	}

	// Round is full: the next advance flips to guessing and rewinds to the
	// round's first fobbit.
	third, err := advanceSession(session)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if session.Modus != ModusGuessing {
		t.Fatalf("expected guessing, got %s", session.Modus)
	}
	if third == nil || third.ID != first.ID {
		t.Fatalf("expected rewind to first fobbit, got %#v", third)
	}
}

func TestAdvanceStepsThroughGuessingBacklog(t *testing.T) {
	session := testSession(3, 2)
	session.Settings.Rounds[0].NumberOfQuestions = 2

	first, _ := advanceSession(session)
	second, _ := advanceSession(session)
	if _, err := advanceSession(session); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if session.ActiveFobbitID != first.ID {
		t.Fatalf("expected first fobbit active")
	}

	next, err := advanceSession(session)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if next == nil || next.ID != second.ID {
		t.Fatalf("expected second fobbit, got %#v", next)
	}

	done, err := advanceSession(session)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if done != nil {
		t.Fatalf("expected nil once the backlog is exhausted, got %#v", done)
	}
	if session.ActiveFobbitID != second.ID {
		t.Fatalf("active fobbit must not move past the backlog")
	}
}

func TestGenerateFobbitExhaustsQuestions(t *testing.T) {
	session := testSession(1, 2)
	if _, err := generateFobbit(session, 0); err != nil {
		t.Fatalf("generate fobbit: %v", err)
	}
	if _, err := generateFobbit(session, 0); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected exhausted error, got %v", err)
	}
}

func TestGenerateFobbitNeverReusesQuestions(t *testing.T) {
	session := testSession(3, 2)
	used := make(map[int]bool)
	for i := 0; i < 3; i++ {
		fobbit, err := generateFobbit(session, 0)
		if err != nil {
			t.Fatalf("generate fobbit %d: %v", i, err)
		}
		if used[fobbit.QuestionID] {
			t.Fatalf("question %d reused", fobbit.QuestionID)
		}
		used[fobbit.QuestionID] = true
	}
}

func TestNewRoundStartsBluffing(t *testing.T) {
	session := testSession(2, 2)

	first, _ := advanceSession(session)
	bluffAndGenerate(t, session, first)
	session.Modus = ModusGuessing

	fobbit, err := newRound(session, RoundDefinition{NumberOfQuestions: 1, Multiplier: 2})
	if err != nil {
		t.Fatalf("new round: %v", err)
	}
	if fobbit.Round != 1 {
		t.Fatalf("expected round 1, got %d", fobbit.Round)
	}
	if session.Modus != ModusBluffing {
		t.Fatalf("expected bluffing, got %s", session.Modus)
	}
	if session.ActiveFobbitID != fobbit.ID {
		t.Fatalf("expected new fobbit active")
	}
	if got := fobbitMultiplier(session, fobbit); got != 2 {
		t.Fatalf("expected multiplier 2, got %v", got)
	}
}

func TestNewRoundRollsBackWhenExhausted(t *testing.T) {
	session := testSession(1, 2)
	if _, err := generateFobbit(session, 0); err != nil {
		t.Fatalf("generate fobbit: %v", err)
	}

	_, err := newRound(session, RoundDefinition{NumberOfQuestions: 1, Multiplier: 2})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected exhausted error, got %v", err)
	}
	if len(session.Settings.Rounds) != 1 {
		t.Fatalf("failed round must not stay configured, got %d rounds", len(session.Settings.Rounds))
	}
}

func TestFinishFobbitRequiresAllGuesses(t *testing.T) {
	session := testSession(1, 2)
	fobbit, err := generateFobbit(session, 0)
	if err != nil {
		t.Fatalf("generate fobbit: %v", err)
	}

	if err := finishFobbit(session, fobbit); !errors.Is(err, ErrPreconditionNotMet) {
		t.Fatalf("expected precondition error while bluffing, got %v", err)
	}

	bluffAndGenerate(t, session, fobbit)
	if err := finishFobbit(session, fobbit); !errors.Is(err, ErrPreconditionNotMet) {
		t.Fatalf("expected precondition error with missing guesses, got %v", err)
	}

	for _, player := range session.Players {
		if err := submitGuess(session, fobbit, player.ID, fobbit.Answers[0].ID); err != nil {
			t.Fatalf("submit guess: %v", err)
		}
	}
	if err := finishFobbit(session, fobbit); err != nil {
		t.Fatalf("finish fobbit: %v", err)
	}
	if fobbit.Status != StatusFinished {
		t.Fatalf("expected finished status, got %s", fobbit.Status)
	}
}

func TestNextRevealStagesBluffsThenTruth(t *testing.T) {
	session := testSession(1, 3)
	fobbit, err := generateFobbit(session, 0)
	if err != nil {
		t.Fatalf("generate fobbit: %v", err)
	}
	bluffAll(t, session, fobbit, "London", "Rome", "Madrid")
	if err := generateAnswers(session, fobbit); err != nil {
		t.Fatalf("generate answers: %v", err)
	}
	guessByText(t, session, fobbit, 1, "Rome")
	guessByText(t, session, fobbit, 2, "Rome")
	guessByText(t, session, fobbit, 3, "Truth 1")
	if err := finishFobbit(session, fobbit); err != nil {
		t.Fatalf("finish fobbit: %v", err)
	}

	// Least-guessed incorrect answers first; the Rome bluff with two votes
	// comes last before the truth.
	var revealed []string
	for i := 0; i < 3; i++ {
		answer, _, err := nextReveal(session, fobbit)
		if err != nil {
			t.Fatalf("reveal %d: %v", i, err)
		}
		revealed = append(revealed, answer.Text)
	}
	if revealed[2] != "Rome" {
		t.Fatalf("expected most-guessed bluff last, got %v", revealed)
	}
	for _, text := range revealed {
		if text == "Truth 1" {
			t.Fatalf("truth revealed among the bluffs: %v", revealed)
		}
	}

	answer, bluffs, err := nextReveal(session, fobbit)
	if err != nil {
		t.Fatalf("final reveal: %v", err)
	}
	if !answer.IsCorrect {
		t.Fatalf("expected the truth after all bluffs, got %q", answer.Text)
	}
	if len(bluffs) != 0 {
		t.Fatalf("the truth carries no bluffers, got %v", bluffs)
	}
}

func TestNextRevealRequiresFinishedFobbit(t *testing.T) {
	session := testSession(1, 2)
	fobbit, err := generateFobbit(session, 0)
	if err != nil {
		t.Fatalf("generate fobbit: %v", err)
	}
	if _, _, err := nextReveal(session, fobbit); !errors.Is(err, ErrPreconditionNotMet) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}
