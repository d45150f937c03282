package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-cart/api/responses"
	"github.com/angelmondragon/storefront-cart/api/validators"
	"github.com/angelmondragon/storefront-cart/internal/catalog"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

const maxCatalogLimit = 1000

type catalogResponse struct {
	Seeded   bool              `json:"seeded"`
	Total    int               `json:"total"`
	Products []catalog.Product `json:"products"`
}

// ListCatalog returns the current catalog view. An optional limit caps the
// number of products returned.
func ListCatalog(view CatalogView, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxCatalogLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products := view.Products()
		total := len(products)
		if limit > 0 && limit < total {
			products = products[:limit]
		}
		responses.WriteSuccess(w, catalogResponse{
			Seeded:   view.Seeded(),
			Total:    total,
			Products: products,
		})
	}
}
