// Package api serves the journal session and the raw trade store over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"trading-journal-go/internal/session"
	"trading-journal-go/internal/store"
)

// APIServer provides an HTTP interface for the journal.
type APIServer struct {
	server *http.Server
	logger *zap.Logger
}

// NewAPIServer creates a server on port routing to the session and store.
func NewAPIServer(port int, sess *session.Session, st store.Store, logger *zap.Logger) *APIServer {
	logger = logger.Named("api-server")
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      NewRouter(sess, st, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &APIServer{
		server: server,
		logger: logger,
	}
}

// NewRouter builds the full route table behind the request middleware.
func NewRouter(sess *session.Session, st store.Store, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	h := NewHandler(sess, logger, time.Now())
	h.Register(mux)

	sh := NewStoreHandler(st, logger)
	sh.Register(mux)

	mux.HandleFunc("GET /health", healthHandler)

	return requestMiddleware(logger, mux)
}

// Start runs the HTTP server in a new goroutine.
func (s *APIServer) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *APIServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}
