package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/eugenenazirov/androfit/internal/appconfig"
	"github.com/eugenenazirov/androfit/internal/metrics"
	"github.com/eugenenazirov/androfit/internal/toast"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const maxToastBodyBytes = 16 << 10

// ToastStore hands out a toast Sink bound to one request.
type ToastStore interface {
	Sink(w http.ResponseWriter, r *http.Request) toast.Sink
}

// Handler serves the JSON endpoints of the web front.
type Handler struct {
	toasts       ToastStore
	metrics      *metrics.Metrics
	toastOptions []toast.Option
	logger       *zap.Logger

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithMetrics records toast dispatches on m.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithLogger sets the logger used for internal errors.
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithToastOptions passes options to every toast dispatcher the handler builds.
func WithToastOptions(opts ...toast.Option) HandlerOption {
	return func(h *Handler) {
		h.toastOptions = append(h.toastOptions, opts...)
	}
}

// NewHandler constructs a Handler delivering toasts through toasts.
func NewHandler(toasts ToastStore, opts ...HandlerOption) *Handler {
	h := &Handler{
		toasts: toasts,
		logger: zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleConfig returns the configuration resolved for this request.
func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, appconfig.FromContext(r.Context()))
}

func (h *Handler) handleDisplayToast(w http.ResponseWriter, r *http.Request) {
	var req toastRequest
	body := http.MaxBytesReader(w, r.Body, maxToastBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Invalid request", "payload too large", "keep title and description under 16 KiB")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Invalid toast", "title is required")
		return
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Title)) > toast.MaxTitleRunes ||
		utf8.RuneCountInString(strings.TrimSpace(req.Description)) > toast.MaxDescriptionRunes {
		writeError(w, http.StatusBadRequest, "Invalid toast", "title or description too long",
			fmt.Sprintf("use at most %d characters for the title and %d for the description", toast.MaxTitleRunes, toast.MaxDescriptionRunes))
		return
	}

	dispatcher := toast.NewDispatcher(h.toasts.Sink(w, r), h.toastOptions...)
	shown, err := dispatcher.Dispatch(req.Title, req.Description)
	if err != nil {
		h.logger.Error("failed to display toast",
			zap.String("toast_id", string(shown.ID)),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeInternalError(w)
		return
	}
	h.metrics.ToastDisplayed()

	resp := toastResponse{
		ID:        string(shown.ID),
		ExpiresAt: shown.ExpiresAt(),
	}
	writeJSON(w, http.StatusCreated, resp)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type toastRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type toastResponse struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "Internal error", "unexpected server error")
}
