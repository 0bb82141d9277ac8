package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"sapid/pkg/requestcontext"
)

// VisitorCookieName identifies a browser across visits.
const VisitorCookieName = "sapid_visitor"

const visitorCookieMaxAge = 365 * 24 * time.Hour

// Visitor reads the visitor cookie, issuing a fresh uuid when it is missing
// or not a uuid, and stores the ID in the request context.
func Visitor(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(VisitorCookieName); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     VisitorCookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(visitorCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithVisitorID(r.Context(), id)))
		})
	}
}
