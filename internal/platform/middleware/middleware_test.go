package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sapid/internal/platform/metrics"
	"sapid/pkg/requestcontext"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "abc-123", seen)
	})
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal_error"}`, w.Body.String())
}

func TestVisitor(t *testing.T) {
	var seen string
	h := Visitor(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.VisitorID(r.Context())
	}))

	t.Run("issues a cookie on first visit", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, VisitorCookieName, c.Name)
		assert.Equal(t, seen, c.Value)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	})

	t.Run("reuses a valid cookie", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: VisitorCookieName, Value: id})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, id, seen)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("replaces a forged cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: VisitorCookieName, Value: "../../etc"})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.NotEqual(t, "../../etc", seen)
		assert.Len(t, w.Result().Cookies(), 1)
	})
}

func TestClientIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.10"})
	require.NoError(t, err)

	cases := []struct {
		name    string
		header  map[string]string
		remote  string
		trusted []netip.Prefix
		want    string
	}{
		{name: "remote ipv4", remote: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "remote ipv6", remote: "[::1]:5555", want: "::1"},
		{
			name:   "forwarded headers ignored without trusted proxies",
			header: map[string]string{"X-Forwarded-For": "203.0.113.7", "X-Real-IP": "198.51.100.2"},
			remote: "198.51.100.99:80",
			want:   "198.51.100.99",
		},
		{
			name:    "forwarded headers ignored from an untrusted peer",
			header:  map[string]string{"X-Forwarded-For": "203.0.113.7"},
			remote:  "198.51.100.99:80",
			trusted: trusted,
			want:    "198.51.100.99",
		},
		{
			name:    "trusted proxy chain yields the first untrusted hop from the right",
			header:  map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.7, 10.0.0.2"},
			remote:  "10.0.0.1:80",
			trusted: trusted,
			want:    "203.0.113.7",
		},
		{
			name:    "spoofed leftmost hop cannot pick the key",
			header:  map[string]string{"X-Forwarded-For": "6.6.6.6, 203.0.113.7"},
			remote:  "192.0.2.10:443",
			trusted: trusted,
			want:    "203.0.113.7",
		},
		{
			name:    "garbage hop stops the walk",
			header:  map[string]string{"X-Forwarded-For": "203.0.113.7, not-an-ip, 10.0.0.3"},
			remote:  "10.0.0.1:80",
			trusted: trusted,
			want:    "10.0.0.3",
		},
		{
			name:    "real ip from a trusted proxy",
			header:  map[string]string{"X-Real-IP": " 198.51.100.2 "},
			remote:  "10.0.0.1:80",
			trusted: trusted,
			want:    "198.51.100.2",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, ClientIP(req, tc.trusted))
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := ParseTrustedProxies([]string{" 10.0.0.0/8 ", "", "192.0.2.10", "::1"})
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.10/32"),
		netip.MustParsePrefix("::1/128"),
	}, prefixes)

	_, err = ParseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"proxy.internal"})
	assert.Error(t, err)
}

func TestLatencyMiddlewareUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	r := chi.NewRouter()
	r.Use(LatencyMiddleware(m))
	r.Get("/api/forms/{kind}/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/forms/contact/123", nil))

	families, err := reg.Gather()
	require.NoError(t, err)
	labels := map[string]string{}
	for _, f := range families {
		if f.GetName() != "sapid_http_request_duration_seconds" {
			continue
		}
		require.Len(t, f.GetMetric(), 1)
		for _, lp := range f.GetMetric()[0].GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
	}
	assert.Equal(t, map[string]string{"route": "/api/forms/{kind}/{id}", "method": "GET", "status": "404"}, labels)
}
