package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/HDA-AWA/roomplan/pkg/buildinfo"
	apperrors "github.com/HDA-AWA/roomplan/pkg/errors"
	"github.com/HDA-AWA/roomplan/pkg/layout"
	"github.com/HDA-AWA/roomplan/pkg/optimize"
	"github.com/HDA-AWA/roomplan/pkg/pipeline"
	"github.com/HDA-AWA/roomplan/pkg/validate"
)

// maxRequestBody caps API request bodies at 1 MiB. Room descriptions are
// small; anything larger is a mistake.
const maxRequestBody = 1 << 20

// maxAPIAttempts caps the per-request attempt budget so a single call cannot
// monopolize the server.
const maxAPIAttempts = 1000

// apiServer holds the HTTP handler state.
type apiServer struct {
	runner *pipeline.Runner
	logger *log.Logger
}

// router builds the chi route tree.
func (s *apiServer) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.requestLog)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Post("/validate", s.handleValidate)
	})

	return r
}

// requestID tags every request with a UUID, echoed in the X-Request-ID
// header and attached to the request logger.
func (s *apiServer) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(
			withRequestLogger(r.Context(), s.logger.With("request_id", id))))
	})
}

// requestLog logs one line per request with method, path, status, and
// duration.
func (s *apiServer) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		requestLogger(r.Context()).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

// handleHealth reports liveness.
func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// optimizeRequest is the POST /v1/optimize body.
type optimizeRequest struct {
	Layout   json.RawMessage `json:"layout"`
	Attempts int             `json:"attempts,omitempty"`
	Formats  []string        `json:"formats,omitempty"`
}

// optimizeResponse is the POST /v1/optimize reply. Artifact bytes are
// base64-encoded by encoding/json.
type optimizeResponse struct {
	Layout     layout.Layout       `json:"layout"`
	LayoutHash string              `json:"layoutHash"`
	Placed     int                 `json:"placed"`
	Total      int                 `json:"total"`
	Report     validate.Report     `json:"report"`
	Summary    optimize.Summary    `json:"summary"`
	Unplaced   []optimize.Unplaced `json:"unplaced,omitempty"`
	Artifacts  map[string][]byte   `json:"artifacts,omitempty"`
	Cached     bool                `json:"cached"`
}

func (s *apiServer) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid request body: %v", err))
		return
	}

	in, err := layout.ReadLayout(bytes.NewReader(req.Layout))
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Attempts > maxAPIAttempts {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput,
			"attempts must be at most %d, got %d", maxAPIAttempts, req.Attempts))
		return
	}

	formats := req.Formats
	if len(formats) == 0 {
		formats = []string{pipeline.FormatJSON}
	}

	result, err := s.runner.Execute(r.Context(), in, pipeline.Options{
		Attempts: req.Attempts,
		Formats:  formats,
		Logger:   requestLogger(r.Context()),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, optimizeResponse{
		Layout:     result.Layout,
		LayoutHash: result.LayoutHash,
		Placed:     result.Placed,
		Total:      result.Total,
		Report:     result.Report,
		Summary:    result.Summary,
		Unplaced:   result.Unplaced,
		Artifacts:  result.Artifacts,
		Cached:     result.CacheInfo.OptimizeHit,
	})
}

// validateRequest is the POST /v1/validate body.
type validateRequest struct {
	Layout json.RawMessage `json:"layout"`
}

// validateResponse is the POST /v1/validate reply.
type validateResponse struct {
	Report validate.Report `json:"report"`
	Cached bool            `json:"cached"`
}

func (s *apiServer) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid request body: %v", err))
		return
	}

	l, err := layout.ReadLayout(bytes.NewReader(req.Layout))
	if err != nil {
		writeError(w, err)
		return
	}

	report, cached, err := s.runner.ValidateWithCacheInfo(r.Context(), l, pipeline.Options{
		Logger: requestLogger(r.Context()),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{Report: report, Cached: cached})
}

// =============================================================================
// Helpers
// =============================================================================

// decodeJSON decodes a size-capped JSON request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the error reply shape.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeError maps application error codes to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidLayout,
		apperrors.ErrCodeInvalidRoom, apperrors.ErrCodeInvalidOpening,
		apperrors.ErrCodeInvalidFurniture, apperrors.ErrCodeInvalidFormat,
		apperrors.ErrCodeInvalidRules:
		status = http.StatusBadRequest
	case apperrors.ErrCodeNoSolution:
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorResponse{
		Error: apperrors.UserMessage(err),
		Code:  string(apperrors.GetCode(err)),
	})
}

// =============================================================================
// Request Logger
// =============================================================================

// ctxKey is the type for context keys used in this package.
// Using a distinct type prevents collisions with other packages.
type ctxKey int

// requestLoggerKey is the context key for the per-request logger.
const requestLoggerKey ctxKey = 0

func withRequestLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, requestLoggerKey, l)
}

// requestLogger retrieves the per-request logger, falling back to the
// default logger when middleware did not run.
func requestLogger(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(requestLoggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
