package api

import (
	"net/http"
	"net/url"
	"strings"
)

// originAllowed accepts requests without an Origin header (curl, the CLI),
// origins on the server's own host and the configured CORS origins.
// Browser requests from any other site are refused, including ones that
// carry no Origin but announce themselves as cross-site.
func originAllowed(r *http.Request, allowed []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return r.Header.Get("Sec-Fetch-Site") != "cross-site"
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(strings.TrimRight(a, "/"), origin) {
			return true
		}
	}
	return false
}

// sameOrigin rejects cross-site requests. The API has no authentication, so
// a page in the user's browser must not be able to write data or spend the
// AI quota through it. Preflights are left to the CORS handler.
func sameOrigin(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodOptions && !originAllowed(r, allowed) {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "origin not allowed"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
