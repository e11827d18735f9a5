// Package api serves the tracker over a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/abhisek/studyplan/internal/metrics"
	"github.com/abhisek/studyplan/internal/progress"
	"github.com/abhisek/studyplan/internal/quiz"
	"github.com/abhisek/studyplan/internal/roster"
	"github.com/abhisek/studyplan/internal/tracker"
)

// maxImportBytes caps the size of an uploaded backup.
const maxImportBytes = 5 << 20

// Server holds the HTTP handlers.
type Server struct {
	tracker *tracker.Tracker
	metrics *metrics.Metrics
	log     *zap.Logger
	started time.Time
	checks  []healthCheck
}

type healthCheck struct {
	name  string
	check func(context.Context) error
}

// healthTimeout bounds each dependency check behind /healthz.
const healthTimeout = 2 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithHealthCheck adds a dependency checked on every /healthz request. A
// failing check turns the response into 503.
func WithHealthCheck(name string, check func(context.Context) error) Option {
	return func(s *Server) { s.checks = append(s.checks, healthCheck{name: name, check: check}) }
}

// New returns a Server. metrics may be nil.
func New(t *tracker.Tracker, m *metrics.Metrics, log *zap.Logger, opts ...Option) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{tracker: t, metrics: m, log: log, started: time.Now()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/users", s.listUsers)
		r.Post("/users/{id}/select", s.selectUser)
		r.Get("/me", s.me)

		r.Get("/stats", s.stats)
		r.Get("/grid", s.grid)
		r.Get("/topics", s.listTopics)
		r.Get("/topics/{id}", s.getTopic)
		r.Post("/topics/{id}/toggle", s.toggleTopic)

		r.Post("/quiz", s.startQuiz)
		r.Get("/quiz", s.currentQuiz)
		r.Post("/quiz/answer", s.answerQuiz)
		r.Post("/quiz/next", s.nextQuiz)
		r.Delete("/quiz", s.abandonQuiz)

		r.Get("/sync", s.syncStatus)
		r.Post("/sync/push", s.syncPush)
		r.Post("/sync/pull", s.syncPull)
		r.Post("/sync/connect", s.syncConnect)
		r.Post("/sync/create", s.syncCreate)
		r.Put("/sync/auto", s.syncAuto)
		r.Delete("/sync", s.syncDisconnect)

		r.Get("/export", s.export)
		r.Post("/import", s.importProgress)
		r.Post("/reset", s.reset)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}
	if ws, err := s.tracker.Active(); err == nil {
		resp["user"] = ws.User.ID
		resp["sync"] = ws.Sync.Status()
	}

	code := http.StatusOK
	if len(s.checks) > 0 {
		results := make(map[string]string, len(s.checks))
		for _, c := range s.checks {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			err := c.check(ctx)
			cancel()
			if err != nil {
				s.log.Warn("health check failed", zap.String("check", c.name), zap.Error(err))
				results[c.name] = err.Error()
				resp["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			results[c.name] = "ok"
		}
		resp["checks"] = results
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, tracker.ErrNoActiveUser),
		errors.Is(err, quiz.ErrNoSession),
		errors.Is(err, quiz.ErrAlreadyAnswered),
		errors.Is(err, quiz.ErrNotAnswered),
		errors.Is(err, quiz.ErrSessionFinished):
		return http.StatusConflict
	case errors.Is(err, roster.ErrUnknownUser),
		errors.Is(err, tracker.ErrUnknownTopic):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrManualToggleDisabled):
		return http.StatusForbidden
	case errors.Is(err, quiz.ErrInsufficientPool):
		return http.StatusUnprocessableEntity
	case errors.Is(err, progress.ErrInvalidImport),
		errors.Is(err, quiz.ErrInvalidOption):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
