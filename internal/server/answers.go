package server

import (
	"fmt"
	"math/rand"
)

// generateAnswers builds the shuffled candidate-answer set for a fobbit out
// of the correct answer and every player's bluff. Callers must hold the
// session lock; the status guard makes a second racing trigger a no-op.
func generateAnswers(session *Session, fobbit *FobbitState) error {
	if len(session.Players) == 0 {
		return fmt.Errorf("roster is empty: %w", ErrPreconditionNotMet)
	}
	if !allBluffsIn(session, fobbit) {
		return fmt.Errorf("not all players have bluffed: %w", ErrPreconditionNotMet)
	}
	if fobbit.Status >= StatusGuess {
		return fmt.Errorf("answers already generated: %w", ErrPreconditionNotMet)
	}
	question, ok := questionByID(session, fobbit.QuestionID)
	if !ok {
		return fmt.Errorf("question %d: %w", fobbit.QuestionID, ErrNotFound)
	}

	clearAnswers(fobbit)

	// The correct answer is seeded first so a bluff that matches the truth
	// folds onto it instead of creating a second correct entry.
	fobbit.Answers = append(fobbit.Answers, AnswerEntry{
		ID:        session.nextAnswerID,
		Text:      question.CorrectAnswer,
		IsCorrect: true,
	})
	session.nextAnswerID++

	for i := range fobbit.Bluffs {
		bluff := &fobbit.Bluffs[i]
		answer, ok := answerByText(fobbit, bluff.Text)
		if !ok {
			fobbit.Answers = append(fobbit.Answers, AnswerEntry{
				ID:   session.nextAnswerID,
				Text: bluff.Text,
			})
			session.nextAnswerID++
			answer = &fobbit.Answers[len(fobbit.Answers)-1]
		}
		bluff.AnswerID = answer.ID
	}

	// Anti-guessing shuffle: display order is a uniform random permutation,
	// never insertion order.
	for position, index := range rand.Perm(len(fobbit.Answers)) {
		fobbit.Answers[index].Order = position + 1
	}

	fobbit.Status = StatusGuess
	return nil
}
