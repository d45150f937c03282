package catalog

import (
	"sort"
	"sync"
)

// View keeps the latest known catalog keyed by product ID.
type View struct {
	mu       sync.RWMutex
	products map[string]Product
	seeded   bool
}

func NewView() *View {
	return &View{products: make(map[string]Product)}
}

// Replace swaps in a full catalog snapshot and marks the view as seeded.
func (v *View) Replace(products []Product) {
	next := make(map[string]Product, len(products))
	for _, p := range products {
		if p.ID == "" {
			continue
		}
		next[p.ID] = p.Clone()
	}
	v.mu.Lock()
	v.products = next
	v.seeded = true
	v.mu.Unlock()
}

// Apply upserts or deletes the product carried by the event. It reports
// whether the view changed.
func (v *View) Apply(event Event) bool {
	id := event.Product.ID
	if id == "" {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	current, ok := v.products[id]
	if event.Deleted {
		if !ok {
			return false
		}
		delete(v.products, id)
		return true
	}
	if ok && current.Equal(event.Product) {
		return false
	}
	v.products[id] = event.Product.Clone()
	return true
}

// Products returns the catalog sorted by product ID.
func (v *View) Products() []Product {
	v.mu.RLock()
	out := make([]Product, 0, len(v.products))
	for _, p := range v.products {
		out = append(out, p.Clone())
	}
	v.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *View) Get(id string) (Product, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	p, ok := v.products[id]
	if !ok {
		return Product{}, false
	}
	return p.Clone(), true
}

// Seeded reports whether a full pull has populated the view.
func (v *View) Seeded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.seeded
}

func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.products)
}
