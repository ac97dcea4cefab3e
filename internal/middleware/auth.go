package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

type ctxKey int

const clientCtxKey ctxKey = iota

// publicPaths bypass auth and rate limiting so probes keep working.
var publicPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/readyz":  true,
}

type apiKey struct {
	client string
	secret []byte
}

// bearerToken accepts "Bearer <key>" (any case) or the bare key.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(rest)
	}
	return header
}

// APIKeyAuth lets through requests carrying one of keys, a client name to
// key map, and records the client name on the request context.
func APIKeyAuth(keys map[string]string) func(http.Handler) http.Handler {
	ring := make([]apiKey, 0, len(keys))
	for client, secret := range keys {
		ring = append(ring, apiKey{client: client, secret: []byte(secret)})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, "missing Authorization header")
				return
			}
			token := []byte(bearerToken(header))

			client := ""
			for _, k := range ring {
				// every key is compared, match or not
				if subtle.ConstantTimeCompare(token, k.secret) == 1 && client == "" {
					client = k.client
				}
			}
			if len(token) == 0 || client == "" {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientCtxKey, client)))
		})
	}
}

// GetClientFromContext is the client name APIKeyAuth matched, or "".
func GetClientFromContext(ctx context.Context) string {
	client, _ := ctx.Value(clientCtxKey).(string)
	return client
}
