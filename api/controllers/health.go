package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-cart/api/responses"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

const readinessTimeout = 2 * time.Second

const envHeader = "X-Storefront-Env"

// Pinger is implemented by the backing cart store clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready once the cart store answers and the catalog has
// been pulled at least once.
func HealthReady(cfg *config.Config, store Pinger, view CatalogView, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart store unreachable"))
				return
			}
		}
		if !view.Seeded() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotReady, "catalog not loaded yet"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
