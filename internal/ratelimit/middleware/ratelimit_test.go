package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sapid/internal/ratelimit/models"
	"sapid/internal/ratelimit/store/bucket"
	"sapid/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (models.Result, error) {
	return models.Result{}, errors.New("store down")
}

func newRequest(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/consent/accept-all", nil)
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, "test"))
}

var noContent = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWritesThrottlesPerIP(t *testing.T) {
	m := New(bucket.NewInMemoryBucketStore(), discard(), WithLimit(2, time.Minute))
	h := m.Writes(noContent)

	for range 2 {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, newRequest("203.0.113.1"))
		require.Equal(t, http.StatusNoContent, w.Code)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, newRequest("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate_limit_exceeded","error_description":"Too many requests. Please try again later."}`, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, newRequest("203.0.113.2"))
	assert.Equal(t, http.StatusNoContent, w.Code, "other clients are unaffected")
}

func TestWritesDisabled(t *testing.T) {
	m := New(bucket.NewInMemoryBucketStore(), discard(), WithLimit(1, time.Minute), WithDisabled(true))
	h := m.Writes(noContent)
	for range 3 {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, newRequest("203.0.113.1"))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestWritesFailsOpen(t *testing.T) {
	h := New(failingStore{}, discard()).Writes(noContent)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, newRequest("203.0.113.1"))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
