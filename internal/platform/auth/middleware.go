package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type AuthorizeFunc func(r *http.Request, identity Identity) error

type Middleware struct {
	Logger        *slog.Logger
	Authenticator Authenticator
	Authorize     AuthorizeFunc
	SkipPrefixes  []string
}

func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range m.SkipPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		identity, err := m.Authenticator.Authenticate(r.Context(), r)
		if err != nil {
			reason := "invalid_token"
			if errors.Is(err, ErrUnauthenticated) {
				reason = "unauthenticated"
			}
			m.logDeny(r, http.StatusUnauthorized, reason, err)
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error":      "unauthorized",
				"request_id": r.Header.Get("X-Request-Id"),
			})
			return
		}

		if m.Authorize != nil {
			if err := m.Authorize(r, identity); err != nil {
				m.logDeny(r, http.StatusForbidden, "forbidden", err, "subject", identity.Subject)
				writeJSON(w, http.StatusForbidden, map[string]any{
					"error":      "forbidden",
					"request_id": r.Header.Get("X-Request-Id"),
				})
				return
			}
		}

		r = r.WithContext(ContextWithIdentity(r.Context(), identity))
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) logDeny(r *http.Request, status int, reason string, err error, extra ...any) {
	if m.Logger == nil {
		return
	}
	fields := []any{
		"reason", reason,
		"status", status,
		"request_id", r.Header.Get("X-Request-Id"),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err.Error(),
	}
	fields = append(fields, extra...)
	m.Logger.Warn("auth deny", fields...)
}

// RequireRoleForWrites authorizes mutating methods only for callers holding
// the given role; reads pass through.
func RequireRoleForWrites(role string) AuthorizeFunc {
	return func(r *http.Request, identity Identity) error {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return nil
		}
		if HasRole(identity.Roles, role) {
			return nil
		}
		return ErrForbidden
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}
