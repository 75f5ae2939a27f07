package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
)

// MetricsAuthMiddleware guards /metrics with HTTP basic auth.
type MetricsAuthMiddleware struct {
	userHash [32]byte
	passHash [32]byte
	enabled  bool
}

// NewMetricsAuthMiddleware creates a new metrics auth middleware. With both
// username and password empty the endpoint is open.
func NewMetricsAuthMiddleware(username, password string) *MetricsAuthMiddleware {
	return &MetricsAuthMiddleware{
		userHash: sha256.Sum256([]byte(username)),
		passHash: sha256.Sum256([]byte(password)),
		enabled:  username != "" || password != "",
	}
}

// Handler requires matching credentials when enabled. Digests are compared
// so neither the values nor their lengths leak through timing.
func (m *MetricsAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled {
			next.ServeHTTP(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok {
			unauthorizedMetrics(w)
			return
		}

		u := sha256.Sum256([]byte(user))
		p := sha256.Sum256([]byte(pass))
		userMatch := subtle.ConstantTimeCompare(u[:], m.userHash[:])
		passMatch := subtle.ConstantTimeCompare(p[:], m.passHash[:])
		if userMatch&passMatch != 1 {
			unauthorizedMetrics(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func unauthorizedMetrics(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="fetch metrics"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
