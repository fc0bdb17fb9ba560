package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/mlmgis/isochrones/internal/api/models"
)

type clientIDKey struct{}

// APIKey authenticates requests with a static bearer key. The client ID
// stored in the context is a short digest of the key, never the key itself.
// With no keys configured every request passes.
func APIKey(keys []string) func(http.Handler) http.Handler {
	digests := make([][sha256.Size]byte, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(digests) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeUnauthorized(w, r, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
				writeUnauthorized(w, r, "invalid authorization header format")
				return
			}

			key := strings.TrimSpace(header[len(bearerPrefix):])
			if key == "" {
				writeUnauthorized(w, r, "missing api key")
				return
			}

			sum := sha256.Sum256([]byte(key))
			matched := 0
			for _, d := range digests {
				matched |= subtle.ConstantTimeCompare(sum[:], d[:])
			}
			if matched != 1 {
				writeUnauthorized(w, r, "invalid api key")
				return
			}

			ctx := context.WithValue(r.Context(), clientIDKey{}, "key_"+hex.EncodeToString(sum[:4]))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeUnauthorized is local to avoid an import cycle with the response package.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	problem := models.NewUnauthorized(GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	w.Header().Set("WWW-Authenticate", `Bearer realm="isochrones"`)
	problem.Write(w)
}

// GetClientID returns the authenticated client ID, or "" when the request
// was not authenticated.
func GetClientID(ctx context.Context) string {
	if id, ok := ctx.Value(clientIDKey{}).(string); ok {
		return id
	}
	return ""
}
