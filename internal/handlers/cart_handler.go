package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sleepoutside/backend/internal/models"
	"github.com/sleepoutside/backend/internal/services"
)

type CartHandler struct {
	cart    *services.CartManager
	catalog *services.CatalogService
	logger  *zap.Logger
}

func NewCartHandler(cart *services.CartManager, catalog *services.CatalogService, logger *zap.Logger) *CartHandler {
	return &CartHandler{cart: cart, catalog: catalog, logger: logger}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(h.cart.Summary()))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req models.AddToCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	line := req.Line
	if line == nil {
		product, err := h.catalog.Product(r.Context(), req.Category, req.ProductID)
		if err != nil {
			if errors.Is(err, services.ErrProductNotFound) {
				writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Product not found"))
				return
			}
			writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Product catalog is unavailable"))
			return
		}
		line = services.CartLineFromProduct(*product, req.ColorIndex)
	}

	if _, err := h.cart.AddLine(line); err != nil {
		persistError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(h.cart.Summary()))
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	var req models.SetQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if _, err := h.cart.UpdateLineQuantity(itemID, req.Quantity); err != nil {
		if errors.Is(err, services.ErrLineNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Item not in cart"))
			return
		}
		persistError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(h.cart.Summary()))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if _, err := h.cart.RemoveLine(chi.URLParam(r, "itemId")); err != nil {
		persistError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(h.cart.Summary()))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(); err != nil {
		persistError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(h.cart.Summary()))
}
