package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sapid/internal/consent/models"
	"sapid/internal/consent/store"
	"sapid/internal/platform/metrics"
	dErrors "sapid/pkg/domain-errors"
)

type unhealthyStore struct {
	*store.InMemoryStore
}

func (unhealthyStore) Health(context.Context) error { return errors.New("down") }

func newTestService(t *testing.T, st Store) (*Service, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	return New(st, WithMetrics(m)), m
}

func TestServiceKeepsVisitorsApart(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewInMemoryStore())

	_, err := svc.AcceptAll(ctx, "alice")
	require.NoError(t, err)

	bob, err := svc.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.UIBannerVisible, bob.UIState)

	alice, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.AllAccepted(), alice.Preferences)
}

func TestServiceRequiresVisitorID(t *testing.T) {
	svc, _ := newTestService(t, store.NewInMemoryStore())
	_, err := svc.Get(context.Background(), "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestServiceReloadsAfterEviction(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemoryStore()
	svc := New(st, WithSessionTTL(time.Nanosecond))

	_, err := svc.OpenSettings(ctx, "alice")
	require.NoError(t, err)
	_, err = svc.ToggleCategory(ctx, "alice", models.CategoryAnalytics)
	require.NoError(t, err)
	_, err = svc.SavePreferences(ctx, "alice")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return svc.Sweep() == 1 }, time.Second, time.Millisecond)

	snap, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.UIHidden, snap.UIState)
	assert.Equal(t, models.Preferences{Necessary: true, Analytics: true}, snap.Preferences)
}

func TestServiceMetrics(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService(t, store.NewInMemoryStore())

	_, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	_, err = svc.RejectAll(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConsentPromptsShown))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConsentDecisions.WithLabelValues("reject_all")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions.WithLabelValues("consent")))
}

func TestServiceRecordFailure(t *testing.T) {
	ctx := context.Background()
	st := &flakyStore{InMemoryStore: store.NewInMemoryStore(), saveErr: errors.New("timeout")}
	svc, m := newTestService(t, st)

	_, err := svc.AcceptAll(ctx, "alice")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConsentStoreErrors.WithLabelValues("save")))

	snap, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.UIBannerVisible, snap.UIState)
}

func TestServiceReady(t *testing.T) {
	ctx := context.Background()

	healthy, _ := newTestService(t, store.NewInMemoryStore())
	assert.NoError(t, healthy.Ready(ctx))

	down, _ := newTestService(t, unhealthyStore{store.NewInMemoryStore()})
	err := down.Ready(ctx)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}
