package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sapid/internal/consent/models"
	"sapid/internal/platform/metrics"
	"sapid/internal/platform/middleware"
	dErrors "sapid/pkg/domain-errors"
	"sapid/pkg/platform/httputil"
	"sapid/pkg/requestcontext"
)

// Service defines the interface for consent operations.
type Service interface {
	Get(ctx context.Context, visitorID string) (models.Snapshot, error)
	AcceptAll(ctx context.Context, visitorID string) (models.Snapshot, error)
	RejectAll(ctx context.Context, visitorID string) (models.Snapshot, error)
	OpenSettings(ctx context.Context, visitorID string) (models.Snapshot, error)
	ToggleCategory(ctx context.Context, visitorID string, category models.Category) (models.Snapshot, error)
	SavePreferences(ctx context.Context, visitorID string) (models.Snapshot, error)
	CloseSettings(ctx context.Context, visitorID string) (models.Snapshot, error)
}

// Handler handles consent endpoints.
type Handler struct {
	logger  *slog.Logger
	consent Service
	metrics *metrics.Metrics
	limit   func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithWriteLimiter throttles the endpoints that persist a decision.
func WithWriteLimiter(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.limit = mw
	}
}

// New creates a new consent Handler.
func New(consent Service, logger *slog.Logger, metrics *metrics.Metrics, opts ...Option) *Handler {
	h := &Handler{
		logger:  logger,
		consent: consent,
		metrics: metrics,
		limit:   func(next http.Handler) http.Handler { return next },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Response is the consent state as rendered by the prompt.
type Response struct {
	Preferences  models.Preferences `json:"preferences"`
	UIState      models.UIState     `json:"ui_state"`
	Recorded     bool               `json:"recorded"`
	ShowBanner   bool               `json:"show_banner"`
	ShowSettings bool               `json:"show_settings"`
}

func toResponse(s models.Snapshot) Response {
	return Response{
		Preferences:  s.Preferences,
		UIState:      s.UIState,
		Recorded:     s.Recorded,
		ShowBanner:   s.ShowBanner(),
		ShowSettings: s.ShowSettings(),
	}
}

// Register registers the consent routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/consent", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.LatencyMiddleware(h.metrics))

		r.Get("/", h.handleGet)
		r.With(h.limit).Post("/accept-all", h.handleAcceptAll)
		r.With(h.limit).Post("/reject-all", h.handleRejectAll)
		r.With(h.limit).Post("/save", h.handleSave)
		r.Post("/settings/open", h.handleOpenSettings)
		r.Post("/settings/close", h.handleCloseSettings)
		r.Post("/categories/{category}/toggle", h.handleToggle)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "get consent", h.consent.Get)
}

func (h *Handler) handleAcceptAll(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "accept all", h.consent.AcceptAll)
}

func (h *Handler) handleRejectAll(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "reject all", h.consent.RejectAll)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "save preferences", h.consent.SavePreferences)
}

func (h *Handler) handleOpenSettings(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "open settings", h.consent.OpenSettings)
}

func (h *Handler) handleCloseSettings(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "close settings", h.consent.CloseSettings)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category, err := models.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		h.logger.WarnContext(ctx, "invalid consent category",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, "toggle category", func(ctx context.Context, visitorID string) (models.Snapshot, error) {
		return h.consent.ToggleCategory(ctx, visitorID, category)
	})
}

func (h *Handler) respond(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	fn func(ctx context.Context, visitorID string) (models.Snapshot, error),
) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	// The visitor middleware always sets an ID; an empty one means it was not mounted.
	visitorID := requestcontext.VisitorID(ctx)
	if visitorID == "" {
		h.logger.ErrorContext(ctx, "visitor id missing from context",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "visitor context error"))
		return
	}

	snap, err := fn(ctx, visitorID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "consent operation failed",
				"request_id", requestID,
				"op", op,
				"error", err,
			)
		} else {
			h.logger.WarnContext(ctx, "consent operation rejected",
				"request_id", requestID,
				"op", op,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(snap))
}
