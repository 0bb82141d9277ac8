package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sapid/internal/forms/models"
	"sapid/internal/forms/validation"
	"sapid/internal/platform/metrics"
	"sapid/internal/platform/scheduler"
	"sapid/internal/platform/session"
	dErrors "sapid/pkg/domain-errors"
	"sapid/pkg/requestcontext"
)

const defaultSessionTTL = 30 * time.Minute

// SubmitOutcome is the result of a submit call: the validation pass and the
// form state right after it.
type SubmitOutcome struct {
	Result   validation.Result
	Snapshot models.Snapshot
}

// Service owns every live form instance.
type Service struct {
	sessions *session.Registry[*Form]
	sched    scheduler.Scheduler
	timing   Timing
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	ttl      time.Duration
	newID    func() string
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

// WithScheduler replaces the wall-clock scheduler, for tests.
func WithScheduler(sched scheduler.Scheduler) Option {
	return func(s *Service) {
		s.sched = sched
	}
}

// WithTiming sets the simulated submit latency and success display time.
func WithTiming(t Timing) Option {
	return func(s *Service) {
		s.timing = t
	}
}

// WithSessionTTL sets how long an untouched form stays in memory.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithIDGenerator replaces uuid-based instance IDs, for tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

func New(opts ...Option) *Service {
	s := &Service{
		sched:  scheduler.Timer{},
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer("sapid/internal/forms/service"),
		ttl:    defaultSessionTTL,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.timing = s.timing.withDefaults()
	s.sessions = session.NewRegistry[*Form](s.ttl)
	return s
}

// Create starts a new, empty form instance.
func (s *Service) Create(ctx context.Context, kind models.Kind) (models.Snapshot, error) {
	ctx, span := s.start(ctx, "forms.Create", kind, "")
	defer span.End()

	def, err := models.Lookup(kind)
	if err != nil {
		return models.Snapshot{}, s.fail(span, err)
	}
	id := s.newID()
	form := NewForm(id, def, s.sched, s.timing, s.onPhase)
	s.sessions.Put(id, form)
	s.metrics.SetActiveSessions("form", s.sessions.Len())
	s.logger.DebugContext(ctx, "form created",
		"request_id", requestcontext.RequestID(ctx),
		"form_id", id,
		"form", string(kind),
	)
	return form.Snapshot(), nil
}

func (s *Service) Get(ctx context.Context, kind models.Kind, id string) (models.Snapshot, error) {
	_, span := s.start(ctx, "forms.Get", kind, id)
	defer span.End()
	form, err := s.form(kind, id)
	if err != nil {
		return models.Snapshot{}, s.fail(span, err)
	}
	return form.Snapshot(), nil
}

func (s *Service) SetField(ctx context.Context, kind models.Kind, id, field string, value validation.Value) (models.Snapshot, error) {
	_, span := s.start(ctx, "forms.SetField", kind, id)
	defer span.End()
	span.SetAttributes(attribute.String("form.field", field))
	form, err := s.form(kind, id)
	if err != nil {
		return models.Snapshot{}, s.fail(span, err)
	}
	snap, err := form.SetField(field, value)
	if err != nil {
		return models.Snapshot{}, s.fail(span, err)
	}
	return snap, nil
}

func (s *Service) ToggleOption(ctx context.Context, kind models.Kind, id, field, option string) (models.Snapshot, error) {
	_, span := s.start(ctx, "forms.ToggleOption", kind, id)
	defer span.End()
	span.SetAttributes(attribute.String("form.field", field))
	form, err := s.form(kind, id)
	if err != nil {
		return models.Snapshot{}, s.fail(span, err)
	}
	snap, err := form.ToggleOption(field, option)
	if err != nil {
		return models.Snapshot{}, s.fail(span, err)
	}
	return snap, nil
}

func (s *Service) Validate(ctx context.Context, kind models.Kind, id string) (validation.Result, error) {
	_, span := s.start(ctx, "forms.Validate", kind, id)
	defer span.End()
	form, err := s.form(kind, id)
	if err != nil {
		return validation.Result{}, s.fail(span, err)
	}
	res := form.Validate()
	if !res.Valid {
		s.metrics.IncFormValidationFailure(string(kind))
	}
	return res, nil
}

// Submit validates the form and, when valid, starts the simulated submission.
func (s *Service) Submit(ctx context.Context, kind models.Kind, id string) (SubmitOutcome, error) {
	ctx, span := s.start(ctx, "forms.Submit", kind, id)
	defer span.End()
	form, err := s.form(kind, id)
	if err != nil {
		return SubmitOutcome{}, s.fail(span, err)
	}
	res, snap, err := form.Submit()
	if err != nil {
		return SubmitOutcome{Snapshot: snap}, s.fail(span, err)
	}
	span.SetAttributes(attribute.Bool("form.valid", res.Valid))
	if !res.Valid {
		s.metrics.IncFormValidationFailure(string(kind))
		s.logger.InfoContext(ctx, "form submission rejected",
			"request_id", requestcontext.RequestID(ctx),
			"form_id", id,
			"form", string(kind),
			"fields", res.Fields(),
		)
		return SubmitOutcome{Result: res, Snapshot: snap}, nil
	}
	s.metrics.IncFormSubmission(string(kind))
	s.logger.InfoContext(ctx, "form submission started",
		"request_id", requestcontext.RequestID(ctx),
		"form_id", id,
		"form", string(kind),
	)
	return SubmitOutcome{Result: res, Snapshot: snap}, nil
}

// Dispose tears the instance down and cancels its pending transitions.
func (s *Service) Dispose(ctx context.Context, kind models.Kind, id string) error {
	_, span := s.start(ctx, "forms.Dispose", kind, id)
	defer span.End()
	if _, err := s.form(kind, id); err != nil {
		return s.fail(span, err)
	}
	s.sessions.Delete(id)
	s.metrics.SetActiveSessions("form", s.sessions.Len())
	return nil
}

// Sweep disposes forms idle past the TTL.
func (s *Service) Sweep() int {
	n := s.sessions.Sweep()
	s.metrics.SetActiveSessions("form", s.sessions.Len())
	return n
}

// Janitor returns a background sweeper for the form registry.
func (s *Service) Janitor(interval time.Duration) *session.Janitor {
	return session.NewJanitor(s.sessions, interval, func(evicted, remaining int) {
		s.metrics.SetActiveSessions("form", remaining)
		if evicted > 0 {
			s.logger.Debug("evicted idle forms", "evicted", evicted, "remaining", remaining)
		}
	})
}

// Close disposes every form.
func (s *Service) Close() {
	s.sessions.Close()
}

func (s *Service) form(kind models.Kind, id string) (*Form, error) {
	form, ok := s.sessions.Get(id)
	if !ok || form.Kind() != kind {
		return nil, dErrors.New(dErrors.CodeNotFound, "form not found")
	}
	return form, nil
}

func (s *Service) onPhase(id string, kind models.Kind, phase models.Phase) {
	s.logger.Debug("form phase changed",
		"form_id", id,
		"form", string(kind),
		"phase", string(phase),
	)
}

func (s *Service) start(ctx context.Context, name string, kind models.Kind, id string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("form.kind", string(kind)),
		attribute.String("form.id", id),
	))
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
