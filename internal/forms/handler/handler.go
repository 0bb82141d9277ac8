package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sapid/internal/forms/models"
	"sapid/internal/forms/service"
	"sapid/internal/forms/validation"
	"sapid/internal/platform/metrics"
	"sapid/internal/platform/middleware"
	dErrors "sapid/pkg/domain-errors"
	"sapid/pkg/platform/httputil"
)

// Service defines the interface for form operations.
type Service interface {
	Create(ctx context.Context, kind models.Kind) (models.Snapshot, error)
	Get(ctx context.Context, kind models.Kind, id string) (models.Snapshot, error)
	SetField(ctx context.Context, kind models.Kind, id, field string, value validation.Value) (models.Snapshot, error)
	ToggleOption(ctx context.Context, kind models.Kind, id, field, option string) (models.Snapshot, error)
	Validate(ctx context.Context, kind models.Kind, id string) (validation.Result, error)
	Submit(ctx context.Context, kind models.Kind, id string) (service.SubmitOutcome, error)
	Dispose(ctx context.Context, kind models.Kind, id string) error
}

// Handler handles form endpoints.
type Handler struct {
	logger  *slog.Logger
	forms   Service
	metrics *metrics.Metrics
	limit   func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithWriteLimiter throttles form creation and submission.
func WithWriteLimiter(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.limit = mw
	}
}

// New creates a new forms Handler.
func New(forms Service, logger *slog.Logger, metrics *metrics.Metrics, opts ...Option) *Handler {
	h := &Handler{
		logger:  logger,
		forms:   forms,
		metrics: metrics,
		limit:   func(next http.Handler) http.Handler { return next },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetFieldRequest overwrites one field.
type SetFieldRequest struct {
	Value *validation.Value `json:"value"`
}

// ToggleOptionRequest flips one entry of a multi-select field.
type ToggleOptionRequest struct {
	Option string `json:"option"`
}

// SchemaResponse describes a form's fields for rendering.
type SchemaResponse struct {
	Kind   models.Kind       `json:"kind"`
	Fields []models.FieldDef `json:"fields"`
}

// Register registers the form routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/forms/{kind}", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.LatencyMiddleware(h.metrics))

		r.Get("/", h.handleSchema)
		r.With(h.limit).Post("/", h.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Delete("/", h.handleDispose)
			r.Put("/fields/{field}", h.handleSetField)
			r.Post("/fields/{field}/toggle", h.handleToggleOption)
			r.Post("/validate", h.handleValidate)
			r.With(h.limit).Post("/submit", h.handleSubmit)
		})
	})
}

func (h *Handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	def, err := models.Lookup(kind)
	if err != nil {
		h.fail(w, r, "schema", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SchemaResponse{Kind: kind, Fields: def.Fields})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	snap, err := h.forms.Create(r.Context(), kind)
	if err != nil {
		h.fail(w, r, "create", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, snap)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	snap, err := h.forms.Get(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleDispose(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	if err := h.forms.Dispose(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "dispose", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetField(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	var req SetFieldRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "set field", err)
		return
	}
	if req.Value == nil {
		h.fail(w, r, "set field", dErrors.New(dErrors.CodeBadRequest, "value is required"))
		return
	}
	snap, err := h.forms.SetField(r.Context(), kind, chi.URLParam(r, "id"), chi.URLParam(r, "field"), *req.Value)
	if err != nil {
		h.fail(w, r, "set field", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleToggleOption(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	var req ToggleOptionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "toggle option", err)
		return
	}
	req.Option = strings.TrimSpace(req.Option)
	if req.Option == "" {
		h.fail(w, r, "toggle option", dErrors.New(dErrors.CodeBadRequest, "option is required"))
		return
	}
	snap, err := h.forms.ToggleOption(r.Context(), kind, chi.URLParam(r, "id"), chi.URLParam(r, "field"), req.Option)
	if err != nil {
		h.fail(w, r, "toggle option", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	res, err := h.forms.Validate(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "validate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	out, err := h.forms.Submit(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "submit", err)
		return
	}
	if !out.Result.Valid {
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, out.Result)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, out.Snapshot)
}

func (h *Handler) kind(w http.ResponseWriter, r *http.Request) (models.Kind, bool) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.fail(w, r, "parse kind", err)
		return "", false
	}
	return kind, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if de, ok := dErrors.As(err); ok && de.Code != dErrors.CodeInternal {
		h.logger.WarnContext(ctx, "form request rejected",
			"request_id", middleware.GetRequestID(ctx),
			"op", op,
			"error", err,
		)
	} else {
		h.logger.ErrorContext(ctx, "form request failed",
			"request_id", middleware.GetRequestID(ctx),
			"op", op,
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
