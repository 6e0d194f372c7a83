// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/lantechdigital/sinilai/internal/adapters/repository"
	service "github.com/lantechdigital/sinilai/internal/app"
	"github.com/lantechdigital/sinilai/internal/domain/model"
	"github.com/lantechdigital/sinilai/internal/domain/rolegate"
	"github.com/lantechdigital/sinilai/internal/domain/scoring"
	"github.com/lantechdigital/sinilai/internal/domain/types"
	"github.com/lantechdigital/sinilai/internal/domain/workflow"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ResolveKey(ctx context.Context, secret string) (rolegate.Session, error)

	CreateEvent(ctx context.Context, name string) (model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	DeleteEvent(ctx context.Context, id string) error

	AddCriterion(ctx context.Context, c model.Criterion) (model.Criterion, error)
	ListCriteria(ctx context.Context, eventID string) ([]model.Criterion, error)
	RemoveCriterion(ctx context.Context, id string) error

	CreateStudent(ctx context.Context, s model.Student) (model.Student, error)
	CreateStudents(ctx context.Context, ss []model.Student) ([]model.Student, error)
	ListStudents(ctx context.Context, eventID string) ([]model.Student, error)
	DeleteStudent(ctx context.Context, id string) error

	CreateKey(ctx context.Context, k model.AccessKey) (model.AccessKey, error)
	ListKeys(ctx context.Context) ([]model.AccessKey, error)
	DeleteKey(ctx context.Context, id string) error

	UpsertScores(ctx context.Context, studentID, judgeID, judgeName string, raw map[string]float64) (map[string]float64, error)
	Scores(ctx context.Context, studentID, judgeID string) (map[string]float64, error)
	ScoreState(ctx context.Context, studentID string) (string, error)
	ComputeAverage(ctx context.Context, studentID string) (scoring.Breakdown, error)
	Finalize(ctx context.Context, studentID string) (float64, error)
	Unlock(ctx context.Context, studentID string) error

	Recap(ctx context.Context, eventID string, limit int) []types.RecapRow
	Refresh(ctx context.Context) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps  Dependencies
	stats StatsProvider
	auth  *authenticator

	corsOrigins []string

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	loginHandler  *LoginHandler
	eventsHandler *EventsHandler
	rosterHandler *RosterHandler
	keysHandler   *KeysHandler
	scoresHandler *ScoresHandler
	recapHandler  *RecapHandler
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithJWTSecret sets the token signing secret.
func WithJWTSecret(secret string) ServerOption {
	return func(s *Server) {
		if secret != "" {
			s.auth.secret = []byte(secret)
		}
	}
}

// WithSessionTTL bounds the validity of issued tokens.
func WithSessionTTL(ttl time.Duration) ServerOption {
	return func(s *Server) {
		if ttl > 0 {
			s.auth.ttl = ttl
		}
	}
}

// WithCORSAllowedOrigins sets the origins allowed to call the API.
func WithCORSAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		deps:        deps,
		stats:       statsProvider,
		auth:        newAuthenticator(deps),
		corsOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.loginHandler = NewLoginHandler(deps, s.auth)
	s.eventsHandler = NewEventsHandler(deps)
	s.rosterHandler = NewRosterHandler(deps)
	s.keysHandler = NewKeysHandler(deps)
	s.scoresHandler = NewScoresHandler(deps)
	s.recapHandler = NewRecapHandler(deps)

	return s
}

// Router builds the chi router with all routes attached.
func (s *Server) Router(_ context.Context) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", MetricsMiddleware(s.loginHandler.HandleLogin, "login"))

		// Recap is the coordinator's surface; admins pass everywhere.
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(rolegate.AreaRecap))
			r.Get("/recap", MetricsMiddleware(s.recapHandler.HandleGetRecap, "recap"))
			r.Post("/recap/refresh", MetricsMiddleware(s.recapHandler.HandleRefreshRecap, "recap"))
		})

		// Configuration surface: events, criteria, access keys.
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(rolegate.AreaConfiguration))

			r.Post("/events", MetricsMiddleware(s.eventsHandler.HandleCreateEvent, "events"))
			r.Delete("/events/{eventID}", MetricsMiddleware(s.eventsHandler.HandleDeleteEvent, "events"))

			r.Post("/criteria", MetricsMiddleware(s.eventsHandler.HandleAddCriterion, "criteria"))
			r.Delete("/criteria/{criterionID}", MetricsMiddleware(s.eventsHandler.HandleRemoveCriterion, "criteria"))

			r.Get("/keys", MetricsMiddleware(s.keysHandler.HandleListKeys, "keys"))
			r.Post("/keys", MetricsMiddleware(s.keysHandler.HandleCreateKey, "keys"))
			r.Delete("/keys/{keyID}", MetricsMiddleware(s.keysHandler.HandleDeleteKey, "keys"))
		})

		// Listings the jury room needs: events, criteria and the roster.
		// The judging area admits judges plus admins; coordinators read
		// the recap instead.
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(rolegate.AreaJudging))
			r.Get("/events", MetricsMiddleware(s.eventsHandler.HandleListEvents, "events"))
			r.Get("/criteria", MetricsMiddleware(s.eventsHandler.HandleListCriteria, "criteria"))
			r.Get("/students", MetricsMiddleware(s.rosterHandler.HandleListStudents, "students"))
		})

		// Roster surface.
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(rolegate.AreaRoster))

			r.Post("/students", MetricsMiddleware(s.rosterHandler.HandleCreateStudents, "students"))
			r.Delete("/students/{studentID}", MetricsMiddleware(s.rosterHandler.HandleDeleteStudent, "students"))
		})

		// Judging surface.
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(rolegate.AreaJudging))

			r.Get("/students/{studentID}/scores", MetricsMiddleware(s.scoresHandler.HandleGetScores, "scores"))
			r.Put("/students/{studentID}/scores", MetricsMiddleware(s.scoresHandler.HandleUpsertScores, "scores"))
			r.Post("/students/{studentID}/finalize", MetricsMiddleware(s.scoresHandler.HandleFinalize, "finalize"))
		})

		// Unlock is an administrative override on the roster surface.
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(rolegate.AreaRoster))
			r.Post("/students/{studentID}/unlock", MetricsMiddleware(s.scoresHandler.HandleUnlock, "unlock"))
		})
	})

	return r
}

// validate is the shared request validator.
var validate = validator.New()

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates service and store errors to HTTP responses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, rolegate.ErrUnknownRole):
		writeError(w, http.StatusForbidden, "unknown_role", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrLocked):
		writeError(w, http.StatusConflict, "locked", err)
	case errors.Is(err, workflow.ErrNotFinal):
		writeError(w, http.StatusConflict, "not_final", err)
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return WrapKind("api.decode", ErrBadRequest, err)
	}
	if err := validate.Struct(v); err != nil {
		return WrapKind("api.validate", ErrBadRequest, err)
	}
	return nil
}
