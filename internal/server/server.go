package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/dygy/transcription-studio/internal/studio"
)

// Config holds server configuration
type Config struct {
	Port           int
	AllowedOrigins []string
	SessionTTL     time.Duration
}

// Server is the HTTP server
type Server struct {
	config   Config
	router   *chi.Mux
	logger   *slog.Logger
	shell    *studio.Shell
	sessions *SessionManager
}

// New creates a new server. A nil logger writes text logs to stdout.
func New(cfg Config, shell *studio.Shell, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}

	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		logger:   logger,
		shell:    shell,
		sessions: NewSessionManager(cfg.SessionTTL),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition"},
	}).Handler)

	r.Get("/health", s.handleHealth)

	// API
	r.Post("/upload", s.handleUpload)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.handleSession)
		r.Delete("/", s.handleDeleteSession)
		r.Put("/view", s.handleSelectView)
		r.Get("/audio", s.handleAudio)
		r.Get("/views/{view}", s.handleView)
		r.Get("/export/{format}", s.handleExport)
	})
}

// Handler exposes the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions exposes the session manager
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Run starts the server
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  2 * time.Minute, // large uploads
		WriteTimeout: 5 * time.Minute, // transcription round trip
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		s.logger.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", slog.Any("error", err))
		}
		s.sessions.Close()
		close(done)
	}()

	s.logger.Info("server starting", slog.Int("port", s.config.Port))
	fmt.Printf("\n  Transcription studio running at: http://localhost:%d\n\n", s.config.Port)

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	<-done
	return nil
}
