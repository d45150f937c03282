package refresh

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/shopspring/decimal"
)

type fakeSource struct {
	mu       sync.Mutex
	products []catalog.Product
	err      error
	calls    int
}

func (f *fakeSource) FetchAll(context.Context) ([]catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memoryStore struct {
	mu   sync.Mutex
	cart cart.Cart
}

func (m *memoryStore) Load(context.Context) (cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.Clone(), nil
}

func (m *memoryStore) Save(_ context.Context, c cart.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = c.Clone()
	return nil
}

func sweet(id string, stock int) catalog.Product {
	return catalog.Product{ID: id, Name: id, Price: decimal.NewFromInt(2), Stock: stock}
}

func (f *fakeSource) setProducts(products []catalog.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products = products
}

func newFixture(t *testing.T, source *fakeSource) (*Service, *cart.Service, *catalog.View) {
	t.Helper()
	return newFixtureWithLogger(t, source, logger.Nop())
}

func newFixtureWithLogger(t *testing.T, source *fakeSource, logg *logger.Logger) (*Service, *cart.Service, *catalog.View) {
	t.Helper()
	ctx := context.Background()
	cartSvc, err := cart.NewService(ctx, cart.ServiceParams{Name: "test", Store: &memoryStore{}})
	if err != nil {
		t.Fatalf("new cart: %v", err)
	}
	view := catalog.NewView()
	svc, err := NewService(ServiceParams{
		Logger:   logg,
		Source:   source,
		View:     view,
		Cart:     cartSvc,
		Interval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}
	return svc, cartSvc, view
}

func TestRefreshNowReconcilesCart(t *testing.T) {
	source := &fakeSource{products: []catalog.Product{sweet("A", 1)}}
	svc, cartSvc, view := newFixture(t, source)
	ctx := context.Background()
	cartSvc.Add(ctx, sweet("A", 5), 3)
	cartSvc.Add(ctx, sweet("B", 5), 1)

	outcome, err := svc.RefreshNow(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if outcome != cart.OutcomeApplied {
		t.Fatalf("expected applied, got %s", outcome)
	}
	if !view.Seeded() {
		t.Fatalf("expected seeded view")
	}
	snap := cartSvc.Snapshot()
	if len(snap.Lines) != 1 || snap.Lines[0].Quantity != 1 {
		t.Fatalf("unexpected cart %+v", snap.Lines)
	}
}

func TestRefreshNowSkipsOnFetchFailure(t *testing.T) {
	source := &fakeSource{err: errors.New("backend down")}
	svc, cartSvc, view := newFixture(t, source)
	ctx := context.Background()
	cartSvc.Add(ctx, sweet("A", 5), 3)

	if _, err := svc.RefreshNow(ctx); err == nil {
		t.Fatalf("expected error")
	}
	if view.Seeded() {
		t.Fatalf("failed pull must not seed the view")
	}
	if line, ok := cartSvc.Snapshot().Find("A"); !ok || line.Quantity != 3 {
		t.Fatalf("cart should be untouched, got %+v", line)
	}
}

func TestRefreshNowKeepsCartWhenCatalogIsEmpty(t *testing.T) {
	source := &fakeSource{products: []catalog.Product{sweet("A", 5)}}
	svc, cartSvc, view := newFixture(t, source)
	ctx := context.Background()
	cartSvc.Add(ctx, sweet("A", 5), 2)

	if _, err := svc.RefreshNow(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	source.setProducts([]catalog.Product{})
	outcome, err := svc.RefreshNow(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if outcome != cart.OutcomeUnchanged {
		t.Fatalf("expected unchanged, got %s", outcome)
	}
	if line, ok := cartSvc.Snapshot().Find("A"); !ok || line.Quantity != 2 {
		t.Fatalf("cart should keep A:2, got %+v", cartSvc.Snapshot().Lines)
	}
	if _, ok := view.Get("A"); !ok || view.Len() != 1 {
		t.Fatalf("view should keep the previous catalog")
	}
}

func TestRefreshNowEmptyFirstPullDoesNotSeed(t *testing.T) {
	source := &fakeSource{products: nil}
	svc, cartSvc, view := newFixture(t, source)
	ctx := context.Background()
	cartSvc.Add(ctx, sweet("A", 5), 1)

	if _, err := svc.RefreshNow(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if view.Seeded() {
		t.Fatalf("an empty pull must not seed the view")
	}
	if len(cartSvc.Snapshot().Lines) != 1 {
		t.Fatalf("cart should be untouched")
	}
}

func TestOnEventWaitsForSeededView(t *testing.T) {
	source := &fakeSource{products: []catalog.Product{sweet("A", 5), sweet("B", 5)}}
	svc, cartSvc, _ := newFixture(t, source)
	ctx := context.Background()
	cartSvc.Add(ctx, sweet("A", 5), 2)
	cartSvc.Add(ctx, sweet("B", 5), 2)

	event := catalog.Event{Kind: catalog.EventKindStockUpdate, Product: sweet("A", 1)}
	if outcome := svc.OnEvent(ctx, event); outcome != cart.OutcomeUnchanged {
		t.Fatalf("unseeded view must not reconcile, got %s", outcome)
	}
	if len(cartSvc.Snapshot().Lines) != 2 {
		t.Fatalf("a single delta must not drop other lines")
	}

	if _, err := svc.RefreshNow(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if outcome := svc.OnEvent(ctx, event); outcome != cart.OutcomeApplied {
		t.Fatalf("expected applied after seeding, got %s", outcome)
	}
	if line, _ := cartSvc.Snapshot().Find("A"); line.Quantity != 1 {
		t.Fatalf("expected clamp to 1, got %d", line.Quantity)
	}

	if outcome := svc.OnEvent(ctx, catalog.Event{Kind: catalog.EventKindStockUpdate, Product: catalog.Product{ID: "B"}, Deleted: true}); outcome != cart.OutcomeApplied {
		t.Fatalf("expected deletion to apply, got %s", outcome)
	}
	if _, ok := cartSvc.Snapshot().Find("B"); ok {
		t.Fatalf("deleted product should leave the cart")
	}
}

func TestOnEventIgnoresDuplicates(t *testing.T) {
	source := &fakeSource{products: []catalog.Product{sweet("A", 5)}}
	svc, _, _ := newFixture(t, source)
	ctx := context.Background()
	if _, err := svc.RefreshNow(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	event := catalog.Event{Kind: catalog.EventKindStockUpdate, Product: sweet("A", 5)}
	if outcome := svc.OnEvent(ctx, event); outcome != cart.OutcomeUnchanged {
		t.Fatalf("expected unchanged, got %s", outcome)
	}
}

func TestRunPullsImmediatelyAndOnTicks(t *testing.T) {
	source := &fakeSource{products: []catalog.Product{sweet("A", 5)}}
	svc, _, _ := newFixture(t, source)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for source.callCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected repeated pulls, got %d", source.callCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestNewServiceValidatesParams(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected error without logger")
	}
	if _, err := NewService(ServiceParams{Logger: logger.Nop()}); err == nil {
		t.Fatalf("expected error without source")
	}
}

func TestRunLogsBackendOutageAsWarning(t *testing.T) {
	source := &fakeSource{err: pkgerrors.New(pkgerrors.CodeDependency, "catalog request failed")}
	var buf bytes.Buffer
	svc, _, _ := newFixtureWithLogger(t, source, logger.New(logger.Options{ServiceName: "test", Output: &buf}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for source.callCount() < 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected a pull")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, "catalog backend unavailable") {
		t.Fatalf("expected a warning for the outage, got %s", out)
	}
	if strings.Contains(out, `"level":"error"`) {
		t.Fatalf("outage should not log at error level: %s", out)
	}
}
