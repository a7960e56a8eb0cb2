package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/yokie-karaoke/yokie-server/internal/apperr"
	"github.com/yokie-karaoke/yokie-server/internal/database"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// Options carries the settings handlers need to build responses
type Options struct {
	Protocol string
	Port     int
	APIRoot  string
	Version  string
}

// Handlers contains all HTTP handlers
type Handlers struct {
	db       *database.DB
	protocol string
	port     int
	apiRoot  string
	version  string
}

// New creates a new Handlers instance
func New(db *database.DB, opts Options) *Handlers {
	return &Handlers{
		db:       db,
		protocol: opts.Protocol,
		port:     opts.Port,
		apiRoot:  opts.APIRoot,
		version:  opts.Version,
	}
}

// listResponse is the envelope for feed and search results
type listResponse struct {
	Message string           `json:"message"`
	Result  *database.Result `json:"result"`
	Total   int              `json:"total"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind"`
}

// writeJSON sends a JSON response with the given status
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// jsonError maps err to its status and sends the error envelope
func (h *Handlers) jsonError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)

	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("Request failed")

	h.writeJSON(w, status, errorResponse{
		Error: apperr.PublicMessage(err),
		Kind:  apperr.KindOf(err),
	})
}

// decodeBody decodes an optional JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		return err
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.Validation("", "request body too large")
	}
	return apperr.Validation("", "invalid JSON body")
}

// NotFound answers unmatched routes with the JSON error envelope
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.jsonError(w, r, apperr.NotFound("route", "route not found"))
}

// MethodNotAllowed answers known routes called with the wrong method
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
		Error: "method not allowed",
		Kind:  apperr.KindValidation,
	})
}

// Banner identifies the server
func (h *Handlers) Banner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Yokie Server "+h.version)
}
