package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quietpost/quietpost/internal/ledger"
)

// Server is the ops HTTP surface: health, metrics, and read-only ledger
// inspection. It is not part of the messaging transport.
type Server struct {
	server       *http.Server
	shuttingDown bool
	ledger       *ledger.Store
}

// NewServer ...
func NewServer(addr string, ledg *ledger.Store) (s *Server) {
	s = &Server{ledger: ledg}

	mux := http.NewServeMux()
	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	mux.HandleFunc("/api/feedback/peek", s.handleFeedbackPeek)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", s.handleHealth)
	return s
}

// Serve starts the HTTP server and blocks until shutdown.
func (s *Server) Serve() (err error) {
	slog.Info("Ops server started", "address", s.server.Addr)
	err = s.server.ListenAndServe()
	if s.shuttingDown {
		err = nil
	}
	return
}

// Shutdown ...
func (s *Server) Shutdown(ctx context.Context) (err error) {
	s.shuttingDown = true
	if err = s.server.Shutdown(ctx); err != nil {
		slog.Error("Shutting down ops server", "error", err)
		return
	}
	slog.Info("Ops server stopped")
	return
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
