package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dakgu/siack"
)

// TokenVerifier turns a bearer token into a Principal.
type TokenVerifier interface {
	Verify(token string) (siack.Principal, error)
}

// AuthenticationGate attaches the Principal of a valid bearer token to the
// request context. Requests without a token, with another scheme, or with a
// token that fails verification continue unauthenticated; the failure is
// only logged at debug. Enforcement is left to RequirePrincipal.
func AuthenticationGate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				slog.Debug("bearer token rejected", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(siack.WithPrincipal(r.Context(), principal)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequirePrincipal rejects requests that reached it without a Principal.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := siack.PrincipalFromContext(r.Context()); !ok {
			WriteError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ReadPathValidation rejects a "path" query parameter that is empty or
// contains traversal segments or control characters.
func ReadPathValidation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !siack.IsValidReadPath(r.URL.Query().Get("path")) {
			WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid path")
			return
		}

		next.ServeHTTP(w, r)
	})
}
