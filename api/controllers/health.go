package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mfigueroa-dev/clubcore-backend/api/responses"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/config"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/db"
	pkgerrors "github.com/mfigueroa-dev/clubcore-backend/pkg/errors"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/logger"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/redis"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/storage/gcs"
)

const readinessTimeout = 5 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ClubCore-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when every backing dependency answers.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger, gcsP gcs.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		probe := func(name string, ping func(context.Context) error) {
			if err := ping(ctx); err != nil {
				checks[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "health.check_failed", err)
				}
				return
			}
			checks[name] = "ok"
		}

		if dbP != nil {
			probe("database", dbP.Ping)
		} else {
			checks["database"] = "skipped"
		}
		if redisP != nil {
			probe("redis", redisP.Ping)
		} else {
			checks["redis"] = "skipped"
		}
		if gcsP != nil {
			probe("gcs", gcsP.Ping)
		} else {
			checks["gcs"] = "skipped"
		}

		w.Header().Set("X-ClubCore-Env", cfg.App.Env)
		if !healthy {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependency check failed").WithDetails(checks)
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
