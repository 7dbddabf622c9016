package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"fobbage/internal/config"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func newTestEngine(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(nil, config.Default(), nil)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func createQuiz(t *testing.T, ts *httptest.Server, questions ...[2]string) string {
	t.Helper()
	inputs := make([]map[string]string, 0, len(questions))
	for _, pair := range questions {
		inputs = append(inputs, map[string]string{
			"text":           pair[0],
			"correct_answer": pair[1],
		})
	}
	resp := doRequest(t, ts, http.MethodPost, "/api/quizzes", map[string]any{
		"title":     "Test Quiz",
		"owner":     "tester",
		"questions": inputs,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	return decodeBody(t, resp)["quiz_id"].(string)
}

type testCredentials struct {
	PlayerID int
	Token    string
}

func createSessionForQuiz(t *testing.T, ts *httptest.Server, quizID string, rounds []map[string]any) (string, testCredentials) {
	t.Helper()
	payload := map[string]any{
		"quiz_id":   quizID,
		"name":      "Friday Night",
		"host_name": "Alice",
	}
	if rounds != nil {
		payload["rounds"] = rounds
	}
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions", payload)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return body["session_id"].(string), testCredentials{
		PlayerID: int(body["player_id"].(float64)),
		Token:    body["token"].(string),
	}
}

func joinSession(t *testing.T, ts *httptest.Server, sessionID, name string) testCredentials {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/join", map[string]string{
		"name": name,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return testCredentials{
		PlayerID: int(body["player_id"].(float64)),
		Token:    body["token"].(string),
	}
}

func submitBluffHTTP(t *testing.T, ts *httptest.Server, sessionID string, creds testCredentials, text string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/bluffs", map[string]any{
		"player_id": creds.PlayerID,
		"token":     creds.Token,
		"text":      text,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func submitGuessHTTP(t *testing.T, ts *httptest.Server, sessionID string, creds testCredentials, answerID int) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/guesses", map[string]any{
		"player_id": creds.PlayerID,
		"token":     creds.Token,
		"answer_id": answerID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func finishHTTP(t *testing.T, ts *httptest.Server, sessionID string, host testCredentials) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/finish", map[string]any{
		"player_id": host.PlayerID,
		"token":     host.Token,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func advanceHTTP(t *testing.T, ts *httptest.Server, sessionID string, host testCredentials) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/advance", map[string]any{
		"player_id": host.PlayerID,
		"token":     host.Token,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

func fetchSnapshot(t *testing.T, ts *httptest.Server, sessionID string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodGet, "/api/sessions/"+sessionID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

func answerIDByText(t *testing.T, snapshot map[string]any, text string) int {
	t.Helper()
	fobbit, ok := snapshot["fobbit"].(map[string]any)
	if !ok {
		t.Fatalf("snapshot has no fobbit: %#v", snapshot)
	}
	answers, ok := fobbit["answers"].([]any)
	if !ok {
		t.Fatalf("fobbit has no answers: %#v", fobbit)
	}
	for _, entry := range answers {
		answer := entry.(map[string]any)
		if answer["text"] == text {
			return int(answer["id"].(float64))
		}
	}
	t.Fatalf("answer %q not found", text)
	return 0
}

// testSession builds a bluff-phase session directly against the engine for
// tests that bypass HTTP.
func testSession(questionCount, playerCount int) *Session {
	quiz := &Quiz{ID: "quiz-1", Title: "Capitals"}
	for i := 1; i <= questionCount; i++ {
		quiz.Questions = append(quiz.Questions, Question{
			ID:            i,
			Text:          fmt.Sprintf("Question %d", i),
			CorrectAnswer: fmt.Sprintf("Truth %d", i),
			Order:         i,
		})
	}
	session := &Session{
		ID:       "session-1",
		JoinCode: "ABC123",
		Name:     "Test",
		Quiz:     quiz,
		HostID:   1,
		Modus:    ModusBluffing,
		Settings: SessionSettings{
			Rounds: []RoundDefinition{{NumberOfQuestions: questionCount, Multiplier: 1}},
		},
		AuthTokens:   map[int]string{},
		nextFobbitID: 1,
		nextAnswerID: 1,
	}
	names := []string{"Alice", "Bob", "Carol", "Dave", "Erin"}
	for i := 0; i < playerCount; i++ {
		session.Players = append(session.Players, Player{
			ID:     i + 1,
			Name:   names[i%len(names)],
			IsHost: i == 0,
		})
	}
	return session
}
