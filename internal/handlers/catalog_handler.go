package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sleepoutside/backend/internal/models"
	"github.com/sleepoutside/backend/internal/services"
)

const (
	defaultSuggestionLimit = 5
	maxSuggestionLimit     = 50
)

type CatalogHandler struct {
	catalog *services.CatalogService
	logger  *zap.Logger
}

func NewCatalogHandler(catalog *services.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// products loads and filters the category named in the URL. On a catalog
// failure it writes the degraded response itself and returns false.
func (h *CatalogHandler) products(w http.ResponseWriter, r *http.Request) ([]models.Product, bool) {
	category := chi.URLParam(r, "category")
	products, err := h.catalog.Products(r.Context(), category)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, models.NewDegradedResponse(products, "Product catalog is unavailable"))
		return nil, false
	}
	return services.FilterProducts(products, r.URL.Query().Get("q"), nil), true
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, ok := h.products(w, r)
	if !ok {
		return
	}
	if key := r.URL.Query().Get("sort"); key != "" {
		products = services.SortProducts(products, key)
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(products))
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Product(r.Context(), chi.URLParam(r, "category"), chi.URLParam(r, "productId"))
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Product not found"))
			return
		}
		writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Product catalog is unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.ProductDetail{
		Product:         *product,
		PrimaryImageURL: product.PrimaryImage(),
		DiscountPercent: product.DiscountPercent(),
	}))
}

func (h *CatalogHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	products, err := h.catalog.Products(r.Context(), category)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, models.NewDegradedResponse([]string{}, "Product catalog is unavailable"))
		return
	}
	limit := min(max(intQuery(r, "limit", defaultSuggestionLimit), 1), maxSuggestionLimit)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(services.Suggestions(products, r.URL.Query().Get("q"), limit)))
}

func (h *CatalogHandler) PriceRange(w http.ResponseWriter, r *http.Request) {
	products, ok := h.products(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(services.GetPriceRange(products)))
}
