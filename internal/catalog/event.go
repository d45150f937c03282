package catalog

// EventKindStockUpdate is the only event kind the reconciler reacts to.
const EventKindStockUpdate = "stock-update"

// Event is a single catalog change delivered over the push channel. A
// deleted event only carries the product ID.
type Event struct {
	Kind    string
	Product Product
	Deleted bool
}
