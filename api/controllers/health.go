package controllers

import (
	"context"
	"net/http"

	"github.com/davidcarrillo/adfactura-backend/api/responses"
	"github.com/davidcarrillo/adfactura-backend/pkg/config"
	pkgerrors "github.com/davidcarrillo/adfactura-backend/pkg/errors"
	"github.com/davidcarrillo/adfactura-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AdFactura-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, db pinger, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-AdFactura-Env", cfg.App.Env)

		checks := map[string]pinger{
			"database": db,
			"redis":    cache,
		}
		status := map[string]string{}
		for name, dep := range checks {
			if dep == nil {
				status[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unreachable"))
				return
			}
			status[name] = "ok"
		}
		status["status"] = "ready"
		responses.WriteSuccess(w, status)
	}
}
