package server

import (
	"net/http"

	"fobbage/internal/config"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	store     *Store
	db        *gorm.DB
	ws        *wsHub
	cfg       config.Config
	logger    *zap.Logger
	publisher Notifier
}

func New(conn *gorm.DB, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:  NewStore(),
		db:     conn,
		ws:     newWSHub(),
		cfg:    cfg,
		logger: logger,
	}
}

// SetPublisher adds an external change notifier (e.g. Redis pub/sub) next to
// the built-in websocket broadcast.
func (s *Server) SetPublisher(publisher Notifier) {
	s.publisher = publisher
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/quizzes", s.handleCreateQuiz)
	mux.HandleFunc("GET /api/quizzes/", s.handleGetQuiz)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/", s.handleSessionSubroutes)
	mux.HandleFunc("POST /api/sessions/", s.handleSessionSubroutes)
	mux.HandleFunc("GET /ws/sessions/", s.handleWebsocket)
	return mux
}
