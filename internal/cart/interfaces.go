package cart

import "context"

// Store persists the cart under a fixed name.
type Store interface {
	Load(ctx context.Context) (Cart, error)
	Save(ctx context.Context, c Cart) error
}
