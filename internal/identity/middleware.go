package identity

import (
	"log/slog"
	"net/http"
	"strings"
)

// SectorHeader lets a shared station override the sector bound in its token.
const SectorHeader = "X-Station-Sector"

// Middleware rejects requests without a valid bearer token and stores the actor in the
// request context.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			actor, err := v.Parse(raw)
			if err != nil {
				slog.Warn("rejected token", "error", err)
				http.Error(w, "invalid token", http.StatusUnauthorized)

				return
			}

			if s := strings.TrimSpace(r.Header.Get(SectorHeader)); s != "" {
				actor.Sector = s
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}
