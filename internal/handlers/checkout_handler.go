package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sleepoutside/backend/internal/models"
	"github.com/sleepoutside/backend/internal/services"
	"github.com/sleepoutside/backend/internal/validation"
)

// OrderSender delivers order confirmations.
type OrderSender interface {
	Enabled() bool
	SendOrderConfirmation(ctx context.Context, order models.Order) error
}

type CheckoutHandler struct {
	cart      *services.CartManager
	validator *validation.Validator
	mailer    OrderSender
	now       func() time.Time
	logger    *zap.Logger
}

func NewCheckoutHandler(cart *services.CartManager, validator *validation.Validator, mailer OrderSender, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		cart:      cart,
		validator: validator,
		mailer:    mailer,
		now:       time.Now,
		logger:    logger,
	}
}

func (h *CheckoutHandler) ValidateField(w http.ResponseWriter, r *http.Request) {
	validateField(w, r, h.validator)
}

// Submit validates the whole checkout form, turns the cart into an order,
// sends the confirmation and empties the cart.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var form map[string]string
	if err := decodeJSON(w, r, &form); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	values := h.validator.ValuesFrom(form)
	result := h.validator.ValidateForm(values)
	if !result.IsValid {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(result.StringErrors()))
		return
	}

	summary := h.cart.Summary()
	if len(summary.Lines) == 0 {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Your cart is empty"))
		return
	}

	order := validation.NewOrder(uuid.New().String(), values, summary, h.now().UTC())

	if h.mailer != nil && h.mailer.Enabled() && order.Email != "" {
		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		err := h.mailer.SendOrderConfirmation(ctx, order)
		cancel()
		if err != nil {
			h.logger.Warn("order confirmation not sent", zap.String("order_id", order.ID), zap.Error(err))
		}
	}

	if err := h.cart.Clear(); err != nil {
		h.logger.Error("clear cart after checkout", zap.String("order_id", order.ID), zap.Error(err))
		persistError(w, err)
		return
	}

	h.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.Int("items", order.ItemCount),
		zap.Float64("total", order.OrderTotal))
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(order))
}
