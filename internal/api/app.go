package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/teris-io/shortid"

	"github.com/aurachat/aura/internal/config"
	"github.com/aurachat/aura/internal/database"
	"github.com/aurachat/aura/internal/signaling"
)

type AuraApp struct {
	log             *log.Logger
	db              database.AuraRepository
	mux             *http.Server
	gateway         *signaling.Gateway
	signingKey      []byte
	generateShortId func() (string, error)
}

func NewAuraApp(mux *http.ServeMux, logger *log.Logger, gw *signaling.Gateway, db database.AuraRepository, cfg *config.Config) *AuraApp {
	s := &AuraApp{
		log:             logger,
		db:              db,
		gateway:         gw,
		signingKey:      cfg.SigningKey,
		generateShortId: shortid.Generate,
	}

	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.Handle("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.HandleFunc("GET /api/csrf-token", s.csrfToken)
	mux.Handle("POST /api/servers", s.authMiddleware(s.csrfMiddleware(s.createServer)))
	mux.Handle("GET /api/servers", s.authMiddleware(s.listServers))
	mux.Handle("DELETE /api/servers", s.authMiddleware(s.csrfMiddleware(s.deleteServer)))
	mux.Handle("POST /api/channels", s.authMiddleware(s.csrfMiddleware(s.createChannel)))
	mux.Handle("GET /api/channels", s.authMiddleware(s.listChannels))
	mux.Handle("POST /api/messages", s.authMiddleware(s.csrfMiddleware(s.createMessage)))
	mux.Handle("GET /api/messages", s.authMiddleware(s.getMessages))
	mux.Handle("POST /api/invitations", s.authMiddleware(s.csrfMiddleware(s.createInvitation)))
	mux.Handle("POST /api/invitations/accept", s.authMiddleware(s.csrfMiddleware(s.acceptInvitation)))
	mux.Handle("POST /api/voice/join", s.authMiddleware(s.csrfMiddleware(s.joinVoice)))
	mux.Handle("POST /api/voice/leave", s.authMiddleware(s.csrfMiddleware(s.leaveVoice)))
	mux.Handle("POST /api/voice/state", s.authMiddleware(s.csrfMiddleware(s.updateVoiceState)))
	mux.Handle("GET /api/voice/users", s.authMiddleware(s.voiceUsers))
	mux.Handle("GET "+gw.Path(), s.authMiddleware(gw.ServeHTTP))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "X-CSRF-Token"}),
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

func (s *AuraApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *AuraApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
