package server

import "testing"

// capitalSession is a two-player session over a single question with a known
// answer, used by the scoring tests.
func capitalSession(t *testing.T) (*Session, *FobbitState) {
	t.Helper()
	session := &Session{
		ID:     "session-1",
		Quiz:   &Quiz{ID: "quiz-1", Questions: []Question{{ID: 1, Text: "Capital of France?", CorrectAnswer: "Paris", Order: 1}}},
		HostID: 1,
		Modus:  ModusBluffing,
		Settings: SessionSettings{
			Rounds: []RoundDefinition{{NumberOfQuestions: 1, Multiplier: 1}},
		},
		Players: []Player{
			{ID: 1, Name: "Alice", IsHost: true},
			{ID: 2, Name: "Bob"},
		},
		AuthTokens:   map[int]string{},
		nextFobbitID: 1,
		nextAnswerID: 1,
	}
	fobbit, err := generateFobbit(session, 0)
	if err != nil {
		t.Fatalf("generate fobbit: %v", err)
	}
	return session, fobbit
}

func guessByText(t *testing.T, session *Session, fobbit *FobbitState, playerID int, text string) {
	t.Helper()
	answer, ok := answerByText(fobbit, text)
	if !ok {
		t.Fatalf("answer %q not found", text)
	}
	if err := submitGuess(session, fobbit, playerID, answer.ID); err != nil {
		t.Fatalf("submit guess: %v", err)
	}
}

func TestScoringFooledAndFound(t *testing.T) {
	session, fobbit := capitalSession(t)
	bluffAll(t, session, fobbit, "London", "Rome")
	if err := generateAnswers(session, fobbit); err != nil {
		t.Fatalf("generate answers: %v", err)
	}

	// Alice falls for Bob's bluff, Bob finds the truth.
	guessByText(t, session, fobbit, 1, "Rome")
	guessByText(t, session, fobbit, 2, "Paris")
	if err := finishFobbit(session, fobbit); err != nil {
		t.Fatalf("finish fobbit: %v", err)
	}

	if got := sessionScoreForPlayer(session, 2); got != 1500 {
		t.Fatalf("expected Bob to score 1500, got %d", got)
	}
	if got := sessionScoreForPlayer(session, 1); got != 0 {
		t.Fatalf("expected Alice to score 0, got %d", got)
	}
}

func TestScoringZeroBeforeFinish(t *testing.T) {
	session, fobbit := capitalSession(t)
	bluffAll(t, session, fobbit, "London", "Rome")
	if err := generateAnswers(session, fobbit); err != nil {
		t.Fatalf("generate answers: %v", err)
	}
	guessByText(t, session, fobbit, 1, "Rome")
	guessByText(t, session, fobbit, 2, "Paris")

	for _, player := range session.Players {
		if got := fobbitScoreForPlayer(session, fobbit, player.ID); got != 0 {
			t.Fatalf("expected no score before finish, player %d got %d", player.ID, got)
		}
	}
}

func TestScoringSelfVoteEarnsNothing(t *testing.T) {
	session, fobbit := capitalSession(t)
	bluffAll(t, session, fobbit, "London", "Rome")
	if err := generateAnswers(session, fobbit); err != nil {
		t.Fatalf("generate answers: %v", err)
	}

	// Bob votes for his own bluff; Alice votes for it too.
	guessByText(t, session, fobbit, 1, "Rome")
	guessByText(t, session, fobbit, 2, "Rome")
	if err := finishFobbit(session, fobbit); err != nil {
		t.Fatalf("finish fobbit: %v", err)
	}

	// Voting for your own bluff forfeits both the bluff and the guess points.
	if got := bluffScore(session, fobbit, 2); got != 0 {
		t.Fatalf("expected bluff score 0 for self-voted bluff, got %d", got)
	}
	if got := guessScore(session, fobbit, 2); got != 0 {
		t.Fatalf("expected guess score 0 for self-vote, got %d", got)
	}
}

func TestScoringBluffOnTruthEarnsNothing(t *testing.T) {
	session, fobbit := capitalSession(t)
	bluffAll(t, session, fobbit, "paris", "Rome")
	if err := generateAnswers(session, fobbit); err != nil {
		t.Fatalf("generate answers: %v", err)
	}

	// Alice's bluff folded onto the truth. Both players vote for Paris.
	guessByText(t, session, fobbit, 1, "Paris")
	guessByText(t, session, fobbit, 2, "Paris")
	if err := finishFobbit(session, fobbit); err != nil {
		t.Fatalf("finish fobbit: %v", err)
	}

	if got := sessionScoreForPlayer(session, 1); got != 0 {
		t.Fatalf("expected 0 for a player whose bluff was the truth, got %d", got)
	}
	if got := sessionScoreForPlayer(session, 2); got != 1000 {
		t.Fatalf("expected 1000 for Bob's correct guess, got %d", got)
	}
}

func TestScoringSharedBluffSplitsPoints(t *testing.T) {
	session := testSession(1, 4)
	fobbit, err := generateFobbit(session, 0)
	if err != nil {
		t.Fatalf("generate fobbit: %v", err)
	}
	// Two players share the same bluff text, two fall for it.
	bluffAll(t, session, fobbit, "London", "London", "Madrid", "Oslo")
	if err := generateAnswers(session, fobbit); err != nil {
		t.Fatalf("generate answers: %v", err)
	}
	guessByText(t, session, fobbit, 1, "Madrid")
	guessByText(t, session, fobbit, 2, "Oslo")
	guessByText(t, session, fobbit, 3, "London")
	guessByText(t, session, fobbit, 4, "London")
	if err := finishFobbit(session, fobbit); err != nil {
		t.Fatalf("finish fobbit: %v", err)
	}

	// 2 guesses x 1 multiplier x 500, split between the 2 sharing bluffers.
	if got := bluffScore(session, fobbit, 1); got != 500 {
		t.Fatalf("expected split bluff score 500, got %d", got)
	}
	if got := bluffScore(session, fobbit, 2); got != 500 {
		t.Fatalf("expected split bluff score 500, got %d", got)
	}
}

func TestScoringMultiplierScales(t *testing.T) {
	session, fobbit := capitalSession(t)
	session.Settings.Rounds[0].Multiplier = 3
	bluffAll(t, session, fobbit, "London", "Rome")
	if err := generateAnswers(session, fobbit); err != nil {
		t.Fatalf("generate answers: %v", err)
	}
	guessByText(t, session, fobbit, 1, "Rome")
	guessByText(t, session, fobbit, 2, "Paris")
	if err := finishFobbit(session, fobbit); err != nil {
		t.Fatalf("finish fobbit: %v", err)
	}

	if got := sessionScoreForPlayer(session, 2); got != 4500 {
		t.Fatalf("expected 3x scores to total 4500, got %d", got)
	}
}

func TestFobbitMultiplierFallbacks(t *testing.T) {
	session, fobbit := capitalSession(t)
	if got := fobbitMultiplier(session, fobbit); got != 1 {
		t.Fatalf("expected configured multiplier 1, got %v", got)
	}

	fobbit.Round = 3
	if got := fobbitMultiplier(session, fobbit); got != 4 {
		t.Fatalf("expected round+1 fallback, got %v", got)
	}

	session.Settings.Rounds = nil
	if got := fobbitMultiplier(session, fobbit); got != 1 {
		t.Fatalf("expected fallback 1 without rounds, got %v", got)
	}
}

func TestScoreTotalsMatchComponents(t *testing.T) {
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
	guessByText(t, session, fobbit, 2, "Truth 1")
	guessByText(t, session, fobbit, 3, "London")
	if err := finishFobbit(session, fobbit); err != nil {
		t.Fatalf("finish fobbit: %v", err)
	}

	for _, player := range session.Players {
		total := fobbitScoreForPlayer(session, fobbit, player.ID)
		parts := bluffScore(session, fobbit, player.ID) + guessScore(session, fobbit, player.ID)
		if total != parts {
			t.Fatalf("player %d: total %d != components %d", player.ID, total, parts)
		}
	}
}

func TestScoreboardRanksHighestFirst(t *testing.T) {
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
	guessByText(t, session, fobbit, 2, "Truth 1")
	guessByText(t, session, fobbit, 3, "London")
	if err := finishFobbit(session, fobbit); err != nil {
		t.Fatalf("finish fobbit: %v", err)
	}

	board := scoreboard(session)
	if len(board) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(board))
	}
	for i := 1; i < len(board); i++ {
		if board[i-1].Score < board[i].Score {
			t.Fatalf("scoreboard not sorted: %v", board)
		}
	}
	if board[0].PlayerID != 2 {
		t.Fatalf("expected Bob on top, got player %d", board[0].PlayerID)
	}
}
