package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/config"
	"github.com/alanyoungcy/polymarketbot/internal/domain"
)

// statusServer exposes a small read-only HTTP surface over the recent
// opportunity and trade tables, for an operator dashboard or curl-based
// health check. It never touches a venue adapter directly — everything it
// serves is already persisted by the orchestrator.
type statusServer struct {
	deps *Dependencies
	cfg  config.ServerConfig
	log  *slog.Logger
	srv  *http.Server
}

func newStatusServer(deps *Dependencies, cfg config.ServerConfig, log *slog.Logger) *statusServer {
	s := &statusServer{deps: deps, cfg: cfg, log: log.With(slog.String("component", "status_server"))}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /opportunities", s.handleOpportunities)
	mux.HandleFunc("GET /trades", s.handleTrades)

	s.srv = &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      s.withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// run starts the server and blocks until ctx is cancelled, at which point
// it shuts down gracefully with a bounded timeout.
func (s *statusServer) run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("status server listening", slog.String("addr", s.srv.Addr))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("status server shutdown error", slog.String("error", err.Error()))
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// withCORS sets Access-Control-Allow-Origin for origins in cfg.CORSOrigins,
// or "*" when the list contains a literal "*" entry.
func (s *statusServer) withCORS(next http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]bool, len(s.cfg.CORSOrigins))
	for _, o := range s.cfg.CORSOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowAll {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *statusServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *statusServer) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	opps, err := s.deps.Opportunities.ListRecent(r.Context(), domain.ListOpts{Limit: 100})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, opps)
}

func (s *statusServer) handleTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := s.deps.Trades.ListRecent(r.Context(), domain.ListOpts{Limit: 100})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, trades)
}

func (s *statusServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("status server encode failed", slog.String("error", err.Error()))
	}
}

func (s *statusServer) writeError(w http.ResponseWriter, err error) {
	s.log.Warn("status server query failed", slog.String("error", err.Error()))
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
