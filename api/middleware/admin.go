package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/worldtek/canteen-backend/api/responses"
	"github.com/worldtek/canteen-backend/pkg/config"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
	"github.com/worldtek/canteen-backend/pkg/logger"
)

const adminKeyHeader = "X-Admin-Key"

// AdminKey guards dashboard and catalog-management routes. Requests must
// carry the configured key; an unset key locks the surface entirely.
func AdminKey(cfg config.AdminConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.APIKey == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin access disabled"))
				return
			}

			provided := r.Header.Get(adminKeyHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.APIKey)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin access denied"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
