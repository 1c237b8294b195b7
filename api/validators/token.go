package validators

import (
	"net/http"
	"strings"
)

// BearerToken extracts the bearer credential from the Authorization
// header. Returns "" when the header is absent or malformed.
func BearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
