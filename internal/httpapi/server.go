package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rickgao/walletlink/internal/wallet"
)

// Session is the wallet surface served over HTTP. *wallet.Manager satisfies it.
type Session interface {
	State() wallet.SessionState
	Connect(ctx context.Context) (string, error)
	Disconnect(ctx context.Context)
	Balance(ctx context.Context, asset string) (string, error)
	Balances(ctx context.Context) ([]wallet.BalanceRecord, error)
	Subscribe(fn func(wallet.SessionState)) (unsubscribe func())
}

// Config holds server settings.
type Config struct {
	ConnectRPS   float64
	ConnectBurst int
	MetricsPath  string
	KeepAlive    time.Duration // Comment interval on /events (0 = 15s)
}

// HealthCheck reports the health of one dependency.
type HealthCheck func(ctx context.Context) error

type Server struct {
	cfg     Config
	session Session
	metrics http.Handler
	logger  *slog.Logger
	limiter *keyLimiter
	now     func() time.Time

	checkNames []string
	checks     map[string]HealthCheck
}

// NewServer creates a Server. A nil metrics handler disables the metrics
// route.
func NewServer(cfg Config, session Session, metrics http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = 15 * time.Second
	}
	return &Server{
		cfg:     cfg,
		session: session,
		metrics: metrics,
		logger:  logger,
		limiter: newKeyLimiter(cfg.ConnectRPS, cfg.ConnectBurst),
		now:     time.Now,
		checks:  make(map[string]HealthCheck),
	}
}

// AddHealthCheck registers a component reported by /health. Call it before
// serving.
func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	if _, ok := s.checks[name]; !ok {
		s.checkNames = append(s.checkNames, name)
	}
	s.checks[name] = check
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(s.logger), middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/state", s.handleState)
	r.With(s.rateLimit).Post("/connect", s.handleConnect)
	r.Post("/disconnect", s.handleDisconnect)
	r.Get("/balances", s.handleBalances)
	r.Get("/balances/{asset}", s.handleBalance)
	r.Get("/events", s.handleEvents)

	if s.metrics != nil && s.cfg.MetricsPath != "" {
		r.Method(http.MethodGet, s.cfg.MetricsPath, s.metrics)
	}

	return r
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientKey(r), s.now()) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many connection attempts")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	components := make(map[string]string, len(s.checkNames))
	for _, name := range s.checkNames {
		if err := s.checks[name](ctx); err != nil {
			status = "unhealthy"
			components[name] = err.Error()
			continue
		}
		components[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status":     status,
		"time":       s.now().UTC().Format(time.RFC3339),
		"session":    s.session.State().Status,
		"components": components,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	// The handshake outlives the request
	id, err := s.session.Connect(context.WithoutCancel(r.Context()))
	if err != nil {
		if errors.Is(err, wallet.ErrUserRejected) {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		s.logger.Error("connect failed", "error", err)
		writeError(w, http.StatusInternalServerError, "connect failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"identifier": id,
		"state":      s.session.State(),
	})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.session.Disconnect(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	records, err := s.session.Balances(r.Context())
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	if records == nil {
		records = []wallet.BalanceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")
	balance, err := s.session.Balance(r.Context(), asset)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet.BalanceRecord{Asset: asset, Balance: balance})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// Never block the registry; a slow client misses intermediate states
	updates := make(chan wallet.SessionState, 16)
	unsubscribe := s.session.Subscribe(func(st wallet.SessionState) {
		select {
		case updates <- st:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, s.session.State()); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(s.cfg.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case st := <-updates:
			if err := writeEvent(w, st); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, wallet.ErrNotConnected) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.logger.Error("session request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeEvent(w http.ResponseWriter, st wallet.SessionState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
	return err
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
