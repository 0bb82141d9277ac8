package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sapid/internal/consent/models"
	"sapid/internal/platform/metrics"
	"sapid/internal/platform/session"
	dErrors "sapid/pkg/domain-errors"
	"sapid/pkg/requestcontext"
)

const defaultSessionTTL = 30 * time.Minute

// HealthChecker is implemented by stores that can report reachability.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Service keeps one Manager per visitor and exposes its operations keyed by
// visitor ID. Managers are created and initialized on first use and evicted
// after sitting idle; the persisted blob outlives them.
type Service struct {
	store    Store
	sessions *session.Registry[*Manager]
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	ttl      time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithSessionTTL sets how long an untouched manager stays in memory.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer("sapid/internal/consent/service"),
		ttl:    defaultSessionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessions = session.NewRegistry[*Manager](s.ttl)
	return s
}

// Get returns the visitor's current consent state, loading it on first use.
func (s *Service) Get(ctx context.Context, visitorID string) (models.Snapshot, error) {
	ctx, span := s.start(ctx, "consent.Get", visitorID)
	defer span.End()
	m, err := s.manager(ctx, visitorID)
	if err != nil {
		return models.Snapshot{}, s.fail(span, err)
	}
	return m.Snapshot(), nil
}

func (s *Service) AcceptAll(ctx context.Context, visitorID string) (models.Snapshot, error) {
	return s.decide(ctx, visitorID, "accept_all", (*Manager).AcceptAll)
}

func (s *Service) RejectAll(ctx context.Context, visitorID string) (models.Snapshot, error) {
	return s.decide(ctx, visitorID, "reject_all", (*Manager).RejectAll)
}

func (s *Service) SavePreferences(ctx context.Context, visitorID string) (models.Snapshot, error) {
	return s.decide(ctx, visitorID, "custom", (*Manager).SavePreferences)
}

func (s *Service) decide(
	ctx context.Context,
	visitorID, decision string,
	op func(*Manager, context.Context) (models.Snapshot, error),
) (models.Snapshot, error) {
	ctx, span := s.start(ctx, "consent.Record", visitorID)
	defer span.End()
	span.SetAttributes(attribute.String("consent.decision", decision))

	m, err := s.manager(ctx, visitorID)
	if err != nil {
		return models.Snapshot{}, s.fail(span, err)
	}
	snap, err := op(m, ctx)
	if err != nil {
		s.metrics.IncConsentStoreError("save")
		s.logger.ErrorContext(ctx, "failed to record consent",
			"request_id", requestcontext.RequestID(ctx),
			"visitor_id", visitorID,
			"decision", decision,
			"error", err,
		)
		return snap, s.fail(span, err)
	}
	s.metrics.IncConsentDecision(decision)
	s.logger.InfoContext(ctx, "consent recorded",
		"request_id", requestcontext.RequestID(ctx),
		"visitor_id", visitorID,
		"decision", decision,
		"analytics", snap.Preferences.Analytics,
		"marketing", snap.Preferences.Marketing,
		"preferences", snap.Preferences.Preferences,
	)
	return snap, nil
}

func (s *Service) OpenSettings(ctx context.Context, visitorID string) (models.Snapshot, error) {
	ctx, span := s.start(ctx, "consent.OpenSettings", visitorID)
	defer span.End()
	m, err := s.manager(ctx, visitorID)
	if err != nil {
		return models.Snapshot{}, s.fail(span, err)
	}
	return m.OpenSettings(), nil
}

func (s *Service) ToggleCategory(ctx context.Context, visitorID string, category models.Category) (models.Snapshot, error) {
	ctx, span := s.start(ctx, "consent.ToggleCategory", visitorID)
	defer span.End()
	span.SetAttributes(attribute.String("consent.category", string(category)))
	m, err := s.manager(ctx, visitorID)
	if err != nil {
		return models.Snapshot{}, s.fail(span, err)
	}
	return m.ToggleCategory(category), nil
}

func (s *Service) CloseSettings(ctx context.Context, visitorID string) (models.Snapshot, error) {
	ctx, span := s.start(ctx, "consent.CloseSettings", visitorID)
	defer span.End()
	m, err := s.manager(ctx, visitorID)
	if err != nil {
		return models.Snapshot{}, s.fail(span, err)
	}
	return m.CloseSettingsWithoutSaving(), nil
}

// Ready reports whether the preference store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	hc, ok := s.store.(HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.Health(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "preference store unreachable")
	}
	return nil
}

// Sweep evicts idle managers and returns how many were dropped.
func (s *Service) Sweep() int {
	n := s.sessions.Sweep()
	s.metrics.SetActiveSessions("consent", s.sessions.Len())
	return n
}

// Janitor returns a background sweeper for the manager registry.
func (s *Service) Janitor(interval time.Duration) *session.Janitor {
	return session.NewJanitor(s.sessions, interval, func(evicted, remaining int) {
		s.metrics.SetActiveSessions("consent", remaining)
		if evicted > 0 {
			s.logger.Debug("evicted idle consent managers", "evicted", evicted, "remaining", remaining)
		}
	})
}

func (s *Service) manager(ctx context.Context, visitorID string) (*Manager, error) {
	if visitorID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "visitor id is required")
	}
	m, created := s.sessions.GetOrCreate(visitorID, func() *Manager {
		return NewManager(models.StorageKey(visitorID), s.store, s.logger)
	})
	if created {
		s.metrics.SetActiveSessions("consent", s.sessions.Len())
	}
	if m.EnsureInitialized(ctx) && m.Snapshot().ShowBanner() {
		s.metrics.IncConsentPrompt()
	}
	return m, nil
}

func (s *Service) start(ctx context.Context, name, visitorID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("visitor.id", visitorID)))
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
