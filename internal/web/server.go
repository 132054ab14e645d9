package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/raviprakash-14/scrapify/internal/catalog"
	"github.com/raviprakash-14/scrapify/internal/session"
	"github.com/raviprakash-14/scrapify/internal/valuation"
	"github.com/raviprakash-14/scrapify/internal/wizard"
	"github.com/rs/zerolog/log"
)

const (
	// MaxBodyBytes bounds every request body. A base64 data URI of the
	// largest accepted photo plus JSON framing fits.
	MaxBodyBytes = 15 * 1024 * 1024

	shutdownTimeout = 10 * time.Second
)

type (
	WizardRegistry  = session.Registry[string, *wizard.Wizard]
	ProfileRegistry = session.Registry[string, *catalog.ProfileSession]
)

// Server is the JSON API behind the browser UI.
type Server struct {
	estimator valuation.Estimator
	wizards   *WizardRegistry
	profiles  *ProfileRegistry
	router    *mux.Router
}

func NewServer(estimator valuation.Estimator, wizards *WizardRegistry, profiles *ProfileRegistry) *Server {
	s := &Server{
		estimator: estimator,
		wizards:   wizards,
		profiles:  profiles,
		router:    mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(recoverPanics, logRequests, limitBody(MaxBodyBytes))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/nav", s.handleNav).Methods("GET")
	api.HandleFunc("/dashboard", s.handleDashboard).Methods("GET")
	api.HandleFunc("/rewards", s.handleRewards).Methods("GET")
	api.HandleFunc("/profile", s.handleGetProfile).Methods("GET")
	api.HandleFunc("/profile", s.handleUpdateProfile).Methods("PUT")

	api.HandleFunc("/valuations", s.handleValuation).Methods("POST")

	api.HandleFunc("/estimate", s.handleEstimateView).Methods("GET")
	api.HandleFunc("/estimate/photo", s.handleGetPhoto).Methods("GET")
	api.HandleFunc("/estimate/photo", s.handleSetPhoto).Methods("PUT")
	api.HandleFunc("/estimate/description", s.handleSetDescription).Methods("PUT")
	api.HandleFunc("/estimate/input-mode", s.handleSetInputMode).Methods("PUT")
	api.HandleFunc("/estimate/submit", s.handleSubmit).Methods("POST")
	api.HandleFunc("/estimate/schedule", s.handleProceedToSchedule).Methods("POST")
	api.HandleFunc("/estimate/back", s.handleBackToResult).Methods("POST")
	api.HandleFunc("/estimate/pickup", s.handleSetPickup).Methods("PUT")
	api.HandleFunc("/estimate/confirm", s.handleConfirm).Methods("POST")
	api.HandleFunc("/estimate/reset", s.handleReset).Methods("POST")
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("stopping http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return ctx.Err()
	}
}
