package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"

	"github.com/collablink/collab-server/internal/config"
	"github.com/collablink/collab-server/internal/database"
	"github.com/collablink/collab-server/internal/server"
)

type CollabApp struct {
	log            *log.Logger
	db             database.Repository
	mux            *http.Server
	cs             *server.ChatServer
	signingKey     []byte
	allowedOrigins []string
}

func NewCollabApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer, db database.Repository, cfg *config.Config) *CollabApp {
	s := &CollabApp{
		log:            logger,
		db:             db,
		cs:             cs,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.Handle("GET /api/chat/users", s.authMiddleware(s.listChatUsers))
	mux.Handle("GET /api/chat/history/{user_id}", s.authMiddleware(s.chatHistory))
	mux.Handle("PUT /api/chat/messages/{id}", s.authMiddleware(s.editMessage))
	mux.Handle("DELETE /api/chat/messages/{id}", s.authMiddleware(s.deleteMessage))
	mux.Handle("POST /api/projects", s.authMiddleware(s.createProject))
	mux.Handle("GET /api/projects", s.authMiddleware(s.listProjects))
	mux.Handle("GET /api/projects/{id}", s.authMiddleware(s.getProject))
	mux.Handle("POST /api/projects/{id}/applications", s.authMiddleware(s.createApplication))
	mux.Handle("POST /api/applications/{id}/hire", s.authMiddleware(s.hireApplication))
	mux.Handle("POST /api/applications/{id}/reject", s.authMiddleware(s.rejectApplication))
	mux.Handle("GET /api/notifications", s.authMiddleware(s.listNotifications))
	// the handshake authenticates itself from the token query parameter
	mux.HandleFunc("GET /ws/chat/{user_id}", s.serveChatWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *CollabApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *CollabApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
