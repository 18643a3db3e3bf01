package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"rateAdjuster/internal/engine"
	"rateAdjuster/internal/model"
)

// CallerHeader carries the identity used to authorize configuration changes.
const CallerHeader = "X-Caller-Address"

const requestLimit = 1 << 16

// ChangeLister returns recently recorded configuration changes.
type ChangeLister interface {
	LatestChanges(ctx context.Context, limit int) ([]model.ConfigChangeRecord, error)
}

// Config captures the dependencies required to construct the server.
type Config struct {
	Engine *engine.Engine
	// Changes is optional; without it the change history route is not mounted.
	Changes ChangeLister
	// Metrics is optional; without it /metrics is not mounted.
	Metrics http.Handler
	Timeout time.Duration
	Logger  *zap.Logger
}

// Server exposes the engine over HTTP.
type Server struct {
	engine  *engine.Engine
	changes ChangeLister
	metrics http.Handler
	timeout time.Duration
	logger  *zap.Logger

	router http.Handler
}

// New constructs a configured HTTP router around cfg.Engine.
func New(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("engine is nil")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	srv := &Server{
		engine:  cfg.Engine,
		changes: cfg.Changes,
		metrics: cfg.Metrics,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
	srv.router = srv.buildRouter()
	return srv, nil
}

// Handler exposes the configured HTTP router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/config", func(cr chi.Router) {
		cr.Get("/", s.getConfig)
		if s.changes != nil {
			cr.Get("/changes", s.listChanges)
		}
		cr.Put("/{field}", s.putConfig)
	})

	r.Route("/pools/{pool}", func(pr chi.Router) {
		pr.Get("/rate", s.getRate)
		pr.Get("/utilization", s.getUtilization)
		pr.Post("/borrow-limit", s.postBorrowLimit)
	})

	r.Get("/credit-adjustment", s.getCreditAdjustment)
	r.Get("/term-adjustment", s.getTermAdjustment)
	r.Get("/limit-adjustment", s.getLimitAdjustment)

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(started)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

func (s *Server) context(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.timeout)
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrNoOracleBound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrCollaboratorUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, engine.ErrOverflow), errors.Is(err, engine.ErrInvalidLiquidRatio):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("engine call failed", zap.Int("status", status), zap.Error(err))
	}
	writeError(w, status, err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
