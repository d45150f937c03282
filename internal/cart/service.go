package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront-cart/internal/catalog"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
	"github.com/shopspring/decimal"
)

const (
	opAdd       = "add"
	opSet       = "set_quantity"
	opRemove    = "remove"
	opClear     = "clear"
	opReconcile = "reconcile"
)

// ServiceParams wires the reconciler dependencies.
type ServiceParams struct {
	Name    string
	Store   Store
	Logger  *logger.Logger
	Metrics *metrics.CartMetrics
}

// Service owns the cart and keeps it consistent with the catalog. All
// mutations are serialized by a single mutex and persist before returning.
type Service struct {
	mu      sync.Mutex
	cart    Cart
	name    string
	store   Store
	logg    *logger.Logger
	metrics *metrics.CartMetrics
}

// NewService loads the persisted cart. A failed or malformed load starts from
// an empty cart.
func NewService(ctx context.Context, params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		name = "storefront_cart"
	}

	svc := &Service{
		name:    name,
		store:   params.Store,
		logg:    logg,
		metrics: params.Metrics,
	}

	ctx = logg.WithCart(ctx, name)
	loaded, err := params.Store.Load(ctx)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "cart snapshot unreadable, starting empty")
		loaded = Cart{}
	}
	svc.cart = normalize(loaded)
	logg.Info(logg.WithField(ctx, "lines", len(svc.cart.Lines)), "cart loaded")
	return svc, nil
}

// Add increases the quantity of an existing line, or creates a new line,
// only when the resulting quantity fits the product's stock.
func (s *Service) Add(ctx context.Context, product catalog.Product, qty int) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" || qty <= 0 {
		return s.finish(ctx, opAdd, product.ID, OutcomeRejected)
	}

	next := s.cart.Clone()
	if idx := next.indexOf(product.ID); idx >= 0 {
		total := next.Lines[idx].Quantity + qty
		if total > product.Stock {
			return s.finish(ctx, opAdd, product.ID, OutcomeRejected)
		}
		next.Lines[idx] = Line{Product: product.Clone(), Quantity: total}
	} else {
		if qty > product.Stock {
			return s.finish(ctx, opAdd, product.ID, OutcomeRejected)
		}
		next.Lines = append(next.Lines, Line{Product: product.Clone(), Quantity: qty})
	}
	return s.commit(ctx, opAdd, product.ID, next)
}

// SetQuantity replaces the quantity of a line. Zero or less removes it; a
// quantity above the line's known stock is rejected.
func (s *Service) SetQuantity(ctx context.Context, productID string, qty int) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.cart.indexOf(productID)
	if idx < 0 {
		return s.finish(ctx, opSet, productID, OutcomeUnchanged)
	}
	next := s.cart.Clone()
	if qty <= 0 {
		next.Lines = append(next.Lines[:idx], next.Lines[idx+1:]...)
		return s.commit(ctx, opSet, productID, next)
	}
	if qty > next.Lines[idx].Product.Stock {
		return s.finish(ctx, opSet, productID, OutcomeRejected)
	}
	if qty == next.Lines[idx].Quantity {
		return s.finish(ctx, opSet, productID, OutcomeUnchanged)
	}
	next.Lines[idx].Quantity = qty
	return s.commit(ctx, opSet, productID, next)
}

// Remove deletes the line for productID.
func (s *Service) Remove(ctx context.Context, productID string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.cart.indexOf(productID)
	if idx < 0 {
		return s.finish(ctx, opRemove, productID, OutcomeUnchanged)
	}
	next := s.cart.Clone()
	next.Lines = append(next.Lines[:idx], next.Lines[idx+1:]...)
	return s.commit(ctx, opRemove, productID, next)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cart.Lines) == 0 {
		return s.finish(ctx, opClear, "", OutcomeUnchanged)
	}
	return s.commit(ctx, opClear, "", Cart{Lines: []Line{}})
}

// Reconcile drops lines whose product left the catalog, refreshes every
// other snapshot and clamps quantities down to stock. Quantities are never
// raised. Running it twice with the same catalog changes nothing the second
// time.
func (s *Service) Reconcile(ctx context.Context, products []catalog.Product) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	next := Cart{Lines: make([]Line, 0, len(s.cart.Lines))}
	for _, line := range s.cart.Lines {
		current, ok := byID[line.Product.ID]
		if !ok {
			continue
		}
		qty := line.Quantity
		if qty > current.Stock {
			qty = current.Stock
		}
		if qty <= 0 {
			continue
		}
		next.Lines = append(next.Lines, Line{Product: current.Clone(), Quantity: qty})
	}

	if next.Equal(s.cart) {
		return s.finish(ctx, opReconcile, "", OutcomeUnchanged)
	}
	return s.commit(ctx, opReconcile, "", next)
}

// Snapshot returns a deep copy of the cart.
func (s *Service) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

func (s *Service) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalPrice()
}

func (s *Service) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalItemCount()
}

// commit installs next as the current cart and persists it. Persistence
// failures are logged; the in-memory cart stays authoritative.
func (s *Service) commit(ctx context.Context, op, productID string, next Cart) Outcome {
	s.cart = next
	logCtx := s.logContext(ctx, op, productID)
	if err := s.store.Save(ctx, next.Clone()); err != nil {
		s.metrics.IncPersistFailure()
		s.logg.Error(logCtx, "cart persist failed", err)
	}
	return s.finish(ctx, op, productID, OutcomeApplied)
}

func (s *Service) finish(ctx context.Context, op, productID string, outcome Outcome) Outcome {
	s.metrics.IncMutation(op, string(outcome))
	if outcome != OutcomeUnchanged {
		logCtx := s.logContext(ctx, op, productID)
		s.logg.Debug(s.logg.WithField(logCtx, "outcome", string(outcome)), "cart operation")
	}
	return outcome
}

func (s *Service) logContext(ctx context.Context, op, productID string) context.Context {
	ctx = s.logg.WithCart(ctx, s.name)
	ctx = s.logg.WithField(ctx, "op", op)
	if productID != "" {
		ctx = s.logg.WithProductID(ctx, productID)
	}
	return ctx
}
