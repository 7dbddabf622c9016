package server

import "strings"

// parseQuizPath extracts the quiz id from /api/quizzes/{id}.
func parseQuizPath(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, "/api/quizzes/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

// parseSessionPath extracts the session id and optional action from
// /api/sessions/{id} and /api/sessions/{id}/{action}.
func parseSessionPath(path string) (id, action string, ok bool) {
	rest, found := strings.CutPrefix(path, "/api/sessions/")
	if !found || rest == "" {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	switch len(parts) {
	case 1:
		return parts[0], "", parts[0] != ""
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return "", "", false
		}
		return parts[0], parts[1], true
	}
	return "", "", false
}

// parseWebsocketPath extracts the session id from /ws/sessions/{id}.
func parseWebsocketPath(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, "/ws/sessions/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
