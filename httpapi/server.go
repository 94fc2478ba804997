package httpapi

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/library"
	"github.com/schoollibrary/circulation/shell"
)

// CorrelationIDHeader carries the correlation id of a request in both directions.
const CorrelationIDHeader = "X-Correlation-ID"

// ReadStore is what the server reads directly, next to the command and query handlers.
type ReadStore interface {
	library.Catalog
	library.NotificationStore
}

// Server routes the API requests to the handlers.
type Server struct {
	handlers Handlers
	store    ReadStore
	validate *validator.Validate
	logger   shell.ContextualLogger
	now      func() time.Time
	newID    func() uuid.UUID
	mux      *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for the request log.
func WithLogger(logger shell.ContextualLogger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithClock sets the source of the time commands are stamped with.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithIDGenerator sets the source of ids for records the client did not name.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *Server) {
		s.newID = newID
	}
}

// NewServer creates a Server and registers all routes.
func NewServer(handlers Handlers, store ReadStore, opts ...Option) *Server {
	s := &Server{
		handlers: handlers,
		store:    store,
		validate: newValidator(),
		now:      time.Now,
		newID:    uuid.New,
		mux:      http.NewServeMux(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.routes()

	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.healthz)

	s.mux.HandleFunc("POST /api/loans", s.createLoan)
	s.mux.HandleFunc("GET /api/loans", s.listLoans)
	s.mux.HandleFunc("GET /api/loans/overdue", s.overdueLoans)
	s.mux.HandleFunc("GET /api/loans/{id}", s.getLoan)
	s.mux.HandleFunc("POST /api/loans/{id}/return", s.returnLoan)
	s.mux.HandleFunc("POST /api/loans/{id}/renew", s.renewLoan)
	s.mux.HandleFunc("GET /api/loans/{id}/history", s.loanHistory)

	s.mux.HandleFunc("POST /api/books", s.addBook)
	s.mux.HandleFunc("GET /api/books", s.listBooks)
	s.mux.HandleFunc("GET /api/books/{id}", s.getBook)
	s.mux.HandleFunc("PUT /api/books/{id}/copies", s.setCopies)
	s.mux.HandleFunc("DELETE /api/books/{id}", s.removeBook)

	s.mux.HandleFunc("POST /api/students", s.registerStudent)
	s.mux.HandleFunc("GET /api/students", s.listStudents)
	s.mux.HandleFunc("POST /api/teachers", s.registerTeacher)
	s.mux.HandleFunc("GET /api/teachers", s.listTeachers)
	s.mux.HandleFunc("POST /api/classes", s.openClassGroup)
	s.mux.HandleFunc("GET /api/classes", s.listClassGroups)

	s.mux.HandleFunc("GET /api/reports", s.loanReport)

	s.mux.HandleFunc("GET /api/notifications", s.listNotifications)
	s.mux.HandleFunc("POST /api/notifications/{id}/read", s.markNotificationRead)
}

// ServeHTTP tags the request with a correlation id, logs it, and dispatches it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	correlationID, err := uuid.Parse(r.Header.Get(CorrelationIDHeader))
	if err != nil {
		correlationID = s.newID()
	}

	w.Header().Set(CorrelationIDHeader, correlationID.String())
	ctx := shell.WithCorrelationID(r.Context(), correlationID)

	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(recorder, r.WithContext(ctx))

	s.logRequest(ctx, r, recorder.status, time.Since(start))
}

func (s *Server) logRequest(ctx context.Context, r *http.Request, status int, duration time.Duration) {
	if s.logger == nil {
		return
	}

	args := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"duration_ms", duration.Milliseconds(),
	}

	switch {
	case status >= http.StatusInternalServerError:
		s.logger.ErrorContext(ctx, "request failed", args...)
	case status >= http.StatusBadRequest:
		s.logger.WarnContext(ctx, "request rejected", args...)
	default:
		s.logger.InfoContext(ctx, "request served", args...)
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]string{"status": StatusOK})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return validate
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, badRequest("invalid id %q", r.PathValue("id"))
	}

	return id, nil
}

// idOrNew parses an optional client supplied id, generating one when it is empty.
func (s *Server) idOrNew(raw string) uuid.UUID {
	if raw == "" {
		return s.newID()
	}

	return uuid.MustParse(raw)
}

// created answers 201 for a new record and 200 when the command was a repeat.
func created(result shell.HandlerResult) int {
	if result.Idempotent {
		return http.StatusOK
	}

	return http.StatusCreated
}
