package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
)

const (
	defaultInterval = time.Minute

	sourcePull = "pull"
	sourcePush = "push"
)

type reconciler interface {
	Reconcile(ctx context.Context, products []catalog.Product) cart.Outcome
}

// ServiceParams configure the refresher.
type ServiceParams struct {
	Logger   *logger.Logger
	Source   catalog.Source
	View     *catalog.View
	Cart     reconciler
	Metrics  *metrics.CartMetrics
	Interval time.Duration
}

// Service feeds catalog pulls and push events into the view and reconciles
// the cart against it.
type Service struct {
	logg     *logger.Logger
	source   catalog.Source
	view     *catalog.View
	cart     reconciler
	metrics  *metrics.CartMetrics
	interval time.Duration

	pullMu sync.Mutex
}

// NewService builds a refresher.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Source == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if params.View == nil {
		return nil, fmt.Errorf("catalog view required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		source:   params.Source,
		view:     params.View,
		cart:     params.Cart,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run pulls immediately and then on every tick until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if _, err := s.RefreshNow(ctx); err != nil {
		s.logFailure(ctx, err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "refresh loop context canceled")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RefreshNow(ctx); err != nil {
				s.logFailure(ctx, err)
			}
		}
	}
}

// RefreshNow pulls the full catalog, replaces the view and reconciles the
// cart. A failed pull, or one that returns no products, leaves both the view
// and the cart untouched.
func (s *Service) RefreshNow(ctx context.Context) (cart.Outcome, error) {
	s.pullMu.Lock()
	defer s.pullMu.Unlock()

	start := time.Now()
	products, err := s.source.FetchAll(ctx)
	duration := time.Since(start)
	s.metrics.ObserveRefresh(duration)
	logCtx := s.logg.WithField(ctx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.metrics.IncRefreshFailure()
		return cart.OutcomeUnchanged, err
	}
	if len(products) == 0 {
		s.logg.Warn(logCtx, "catalog pull returned no products, keeping cart")
		return cart.OutcomeUnchanged, nil
	}

	s.view.Replace(products)
	outcome := s.cart.Reconcile(ctx, s.view.Products())
	s.metrics.IncReconcile(sourcePull, string(outcome))
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"products": s.view.Len(),
		"outcome":  string(outcome),
	})
	s.logg.Debug(logCtx, "catalog refreshed")
	return outcome, nil
}

// OnEvent applies a push event to the view. The cart is reconciled only once
// a pull has seeded the view; before that the view holds partial data.
func (s *Service) OnEvent(ctx context.Context, event catalog.Event) cart.Outcome {
	if event.Kind != catalog.EventKindStockUpdate {
		return cart.OutcomeUnchanged
	}
	logCtx := s.logg.WithProductID(ctx, event.Product.ID)
	if !s.view.Apply(event) {
		return cart.OutcomeUnchanged
	}
	if !s.view.Seeded() {
		s.logg.Debug(logCtx, "push event held until the catalog is seeded")
		return cart.OutcomeUnchanged
	}
	outcome := s.cart.Reconcile(ctx, s.view.Products())
	s.metrics.IncReconcile(sourcePush, string(outcome))
	s.logg.Debug(s.logg.WithField(logCtx, "outcome", string(outcome)), "push event applied")
	return outcome
}

// logFailure keeps an unreachable backend at warn level; anything else is an
// error.
func (s *Service) logFailure(ctx context.Context, err error) {
	if pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "catalog backend unavailable, keeping cart")
		return
	}
	s.logg.Error(ctx, "catalog refresh failed", err)
}
