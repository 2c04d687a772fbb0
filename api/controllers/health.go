package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/Gravender/boardgames-backend/api/responses"
	"github.com/Gravender/boardgames-backend/pkg/config"
	"github.com/Gravender/boardgames-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Boardgames-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and Redis before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, db pinger, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Boardgames-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		checks["db"] = checkDependency(ctx, db)
		checks["redis"] = checkDependency(ctx, cache)
		for name, status := range checks {
			if status != "ok" && status != "skipped" {
				healthy = false
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{"dependency": name, "status": status})
					logg.Warn(logCtx, "health.ready.dependency_failed")
				}
			}
		}

		status := http.StatusOK
		overall := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": overall,
			"checks": checks,
		})
	}
}

func checkDependency(ctx context.Context, dep pinger) string {
	if dep == nil {
		return "skipped"
	}
	if err := dep.Ping(ctx); err != nil {
		return err.Error()
	}
	return "ok"
}
