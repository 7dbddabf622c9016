package server

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Notifier broadcasts that a session changed. Fire-and-forget, at-least-once;
// consumers re-read session state after a signal.
type Notifier interface {
	Notify(sessionID string)
}

// RedisNotifier publishes session-changed signals on a pub/sub channel so
// other nodes can fan them out to their own connected clients.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisNotifier(client *redis.Client, logger *zap.Logger) *RedisNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisNotifier{
		client:  client,
		channel: "fobbage:sessions",
		logger:  logger,
	}
}

func (n *RedisNotifier) Notify(sessionID string) {
	if err := n.client.Publish(context.Background(), n.channel, sessionID).Err(); err != nil {
		n.logger.Warn("publish session change", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// notifySessionChanged pushes the current snapshot to every connected client
// of the session and signals any external publisher. Runs after the session
// lock releases; the snapshot is always at least as new as the mutation that
// triggered it.
func (s *Server) notifySessionChanged(sessionID string) {
	var payload map[string]any
	ok := s.store.ViewSession(sessionID, func(session *Session) {
		payload = snapshot(session)
	})
	if !ok {
		return
	}
	s.ws.Broadcast(sessionID, payload)
	if s.publisher != nil {
		s.publisher.Notify(sessionID)
	}
}
