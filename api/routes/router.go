package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-cart/api/controllers"
	"github.com/angelmondragon/storefront-cart/api/middleware"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

// RouterParams carries the handlers' dependencies.
type RouterParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	Store     controllers.Pinger
	Cart      controllers.CartService
	View      controllers.CatalogView
	Refresher controllers.Refresher
	Gatherer  prometheus.Gatherer
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.Store, p.View, logg))
	})

	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog", controllers.ListCatalog(p.View, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(p.Cart))
			r.Delete("/", controllers.ClearCart(p.Cart))
			r.Post("/refresh", controllers.RefreshCart(p.Cart, p.Refresher, logg))
			r.Post("/items", controllers.AddCartItem(p.Cart, p.View, logg))
			r.Get("/items/{productId}", controllers.GetCartItem(p.Cart, logg))
			r.Put("/items/{productId}", controllers.SetCartItemQuantity(p.Cart, logg))
			r.Delete("/items/{productId}", controllers.RemoveCartItem(p.Cart, logg))
		})
	})

	return r
}
