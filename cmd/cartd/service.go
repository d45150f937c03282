package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-cart/api/controllers"
	"github.com/angelmondragon/storefront-cart/api/routes"
	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/internal/catalog"
	"github.com/angelmondragon/storefront-cart/internal/push"
	"github.com/angelmondragon/storefront-cart/internal/refresh"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/db"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
	"github.com/angelmondragon/storefront-cart/pkg/migrate"
	"github.com/angelmondragon/storefront-cart/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

// app owns every long lived component of the cart daemon.
type app struct {
	cfg  *config.Config
	logg *logger.Logger

	cart      *cart.Service
	view      *catalog.View
	refresher *refresh.Service
	hub       *push.Hub
	server    *http.Server

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logg *logger.Logger) (a *app, err error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	a = &app{cfg: cfg, logg: logg}
	defer func() {
		if err != nil {
			err = multierr.Append(err, a.Close())
			a = nil
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cartMetrics := metrics.NewCartMetrics(registry)

	var redisClient *redis.Client
	if strings.EqualFold(cfg.Cart.StoreDriver, config.StoreDriverRedis) || cfg.Push.TransportKind() == config.PushTransportRedis {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		a.closers = append(a.closers, redisClient.Close)
	}

	store, pinger, err := a.buildStore(ctx, redisClient)
	if err != nil {
		return nil, err
	}

	a.cart, err = cart.NewService(ctx, cart.ServiceParams{
		Name:    cfg.Cart.Name,
		Store:   store,
		Logger:  logg,
		Metrics: cartMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create cart service: %w", err)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"cart_items": a.cart.TotalItemCount(),
		"cart_total": a.cart.TotalPrice().String(),
	}), "cart restored")

	source, err := catalog.NewHTTPSource(cfg.Catalog.BaseURL, catalog.WithTimeout(cfg.Catalog.Timeout))
	if err != nil {
		return nil, fmt.Errorf("create catalog source: %w", err)
	}
	a.view = catalog.NewView()

	a.refresher, err = refresh.NewService(refresh.ServiceParams{
		Logger:   logg,
		Source:   source,
		View:     a.view,
		Cart:     a.cart,
		Metrics:  cartMetrics,
		Interval: cfg.Refresh.Interval,
	})
	if err != nil {
		return nil, fmt.Errorf("create refresher: %w", err)
	}

	transport, err := newTransport(cfg, logg, redisClient)
	if err != nil {
		return nil, fmt.Errorf("create push transport: %w", err)
	}
	if transport != nil {
		a.hub, err = push.NewHub(push.HubParams{
			Transport: transport,
			Policy:    reconnectPolicy(cfg.Push),
			Logger:    logg,
			Metrics:   cartMetrics,
		})
		if err != nil {
			return nil, fmt.Errorf("create push hub: %w", err)
		}
	}

	a.server = &http.Server{
		Addr: ":" + cfg.App.Port,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:    cfg,
			Logger:    logg,
			Store:     pinger,
			Cart:      a.cart,
			View:      a.view,
			Refresher: a.refresher,
			Gatherer:  registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

func (a *app) buildStore(ctx context.Context, redisClient *redis.Client) (cart.Store, controllers.Pinger, error) {
	if strings.EqualFold(a.cfg.Cart.StoreDriver, config.StoreDriverRedis) {
		return cart.NewRedisStore(redisClient, a.cfg.Cart.Name), redisClient, nil
	}

	dbClient, err := db.New(ctx, a.cfg.DB, a.logg)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap database: %w", err)
	}
	a.closers = append(a.closers, dbClient.Close)

	if err := migrate.MaybeRun(ctx, a.cfg, a.logg, dbClient); err != nil {
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return cart.NewRepository(dbClient.DB(), a.cfg.Cart.Name), dbClient, nil
}

func reconnectPolicy(cfg config.PushConfig) push.ReconnectPolicy {
	policy := push.DefaultReconnectPolicy()
	if cfg.RetryDelay > 0 {
		policy.Delay = cfg.RetryDelay
	}
	return policy
}

// newTransport returns nil when push updates are disabled.
func newTransport(cfg *config.Config, logg *logger.Logger, redisClient *redis.Client) (push.Transport, error) {
	switch cfg.Push.TransportKind() {
	case config.PushTransportWebSocket:
		t, err := push.NewWebSocketTransport(cfg.Push.URL, logg)
		if err != nil {
			return nil, err
		}
		return t, nil
	case config.PushTransportRedis:
		t, err := push.NewRedisTransport(redisClient, cfg.Push.Channel, logg)
		if err != nil {
			return nil, err
		}
		return t, nil
	case config.PushTransportAMQP:
		t, err := push.NewAMQPTransport(cfg.AMQP.URL, cfg.Push.Channel, logg)
		if err != nil {
			return nil, err
		}
		return t, nil
	case config.PushTransportNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported push transport %q", cfg.Push.Transport)
	}
}

// Run serves the API, keeps the catalog fresh and listens for push updates
// until ctx is canceled or one of them fails.
func (a *app) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.server.Addr, err)
	}
	return a.serve(ctx, ln)
}

func (a *app) serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.refresher.Run(ctx)
	})

	if a.hub != nil {
		unsubscribe := a.hub.Subscribe(func(event catalog.Event) {
			a.refresher.OnEvent(ctx, event)
		})
		g.Go(func() error {
			defer unsubscribe()
			return a.hub.Run(ctx)
		})
	}

	g.Go(func() error {
		a.logg.Info(a.logg.WithField(ctx, "addr", ln.Addr().String()), "starting cart api")
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the store and transport clients.
func (a *app) Close() error {
	var errs error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, a.closers[i]())
	}
	a.closers = nil
	return errs
}
