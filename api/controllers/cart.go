package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-cart/api/responses"
	"github.com/angelmondragon/storefront-cart/api/validators"
	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

// CartService is the reconciler surface used by the cart handlers.
type CartService interface {
	Add(ctx context.Context, product catalog.Product, qty int) cart.Outcome
	SetQuantity(ctx context.Context, productID string, qty int) cart.Outcome
	Remove(ctx context.Context, productID string) cart.Outcome
	Clear(ctx context.Context) cart.Outcome
	Snapshot() cart.Cart
}

// CatalogView is the read side of the catalog view.
type CatalogView interface {
	Get(id string) (catalog.Product, bool)
	Products() []catalog.Product
	Seeded() bool
}

// Refresher triggers a catalog pull.
type Refresher interface {
	RefreshNow(ctx context.Context) (cart.Outcome, error)
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"omitempty,min=1"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type cartLineResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	ImageURL  *string         `json:"image_url,omitempty"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	Lines      []cartLineResponse `json:"lines"`
	TotalPrice decimal.Decimal    `json:"total_price"`
	TotalItems int                `json:"total_items"`
}

type mutationResponse struct {
	Outcome cart.Outcome `json:"outcome"`
	Cart    cartResponse `json:"cart"`
}

func newCartLineResponse(line cart.Line) cartLineResponse {
	return cartLineResponse{
		ProductID: line.Product.ID,
		Name:      line.Product.Name,
		Category:  line.Product.Category,
		Price:     line.Product.Price,
		Stock:     line.Product.Stock,
		ImageURL:  line.Product.ImageURL,
		Quantity:  line.Quantity,
		Subtotal:  line.Subtotal(),
	}
}

func newCartResponse(c cart.Cart) cartResponse {
	lines := make([]cartLineResponse, 0, len(c.Lines))
	for _, line := range c.Lines {
		lines = append(lines, newCartLineResponse(line))
	}
	return cartResponse{
		Lines:      lines,
		TotalPrice: c.TotalPrice(),
		TotalItems: c.TotalItemCount(),
	}
}

func writeMutation(w http.ResponseWriter, svc CartService, outcome cart.Outcome) {
	responses.WriteSuccess(w, mutationResponse{
		Outcome: outcome,
		Cart:    newCartResponse(svc.Snapshot()),
	})
}

// GetCart returns the current lines and totals.
func GetCart(svc CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, newCartResponse(svc.Snapshot()))
	}
}

// GetCartItem returns a single line of the cart.
func GetCartItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		line, ok := svc.Snapshot().Find(productID)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart").
				WithDetails(map[string]any{"product_id": productID}))
			return
		}
		responses.WriteSuccess(w, newCartLineResponse(line))
	}
}

// AddCartItem adds a catalog product to the cart. Quantity defaults to 1. A
// stock rejection answers 200 with outcome "rejected".
func AddCartItem(svc CartService, view CatalogView, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, ok := view.Get(payload.ProductID)
		if !ok {
			if !view.Seeded() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotReady, "catalog not loaded yet"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": payload.ProductID}))
			return
		}

		qty := 1
		if payload.Quantity != nil {
			qty = *payload.Quantity
		}
		writeMutation(w, svc, svc.Add(r.Context(), product, qty))
	}
}

// SetCartItemQuantity replaces a line quantity; zero or less removes it.
func SetCartItemQuantity(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeMutation(w, svc, svc.SetQuantity(r.Context(), productID, *payload.Quantity))
	}
}

func RemoveCartItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeMutation(w, svc, svc.Remove(r.Context(), productID))
	}
}

func ClearCart(svc CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeMutation(w, svc, svc.Clear(r.Context()))
	}
}

// RefreshCart pulls the catalog and reconciles the cart against it.
func RefreshCart(svc CartService, refresher Refresher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcome, err := refresher.RefreshNow(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeMutation(w, svc, outcome)
	}
}
