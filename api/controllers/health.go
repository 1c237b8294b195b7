package controllers

import (
	"net/http"

	"go.uber.org/multierr"

	"github.com/worldtek/canteen-backend/api/responses"
	"github.com/worldtek/canteen-backend/pkg/config"
	"github.com/worldtek/canteen-backend/pkg/db"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
	"github.com/worldtek/canteen-backend/pkg/logger"
	"github.com/worldtek/canteen-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Canteen-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when every backing dependency answers.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Canteen-Env", cfg.App.Env)

		var err error
		checks := map[string]string{}

		if dbP != nil {
			if pingErr := dbP.Ping(r.Context()); pingErr != nil {
				err = multierr.Append(err, pingErr)
				checks["database"] = "down"
			} else {
				checks["database"] = "up"
			}
		}
		if redisP != nil {
			if pingErr := redisP.Ping(r.Context()); pingErr != nil {
				err = multierr.Append(err, pingErr)
				checks["redis"] = "down"
			} else {
				checks["redis"] = "up"
			}
		}

		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "readiness check failed").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
