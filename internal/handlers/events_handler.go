package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sleepoutside/backend/internal/events"
	"github.com/sleepoutside/backend/internal/models"
	"github.com/sleepoutside/backend/internal/services"
)

const (
	eventCart      = "cart"
	eventInventory = "inventory"
)

// CartChange is the payload of a "cart" stream event; ItemCount drives the
// header badge.
type CartChange struct {
	Op        services.CartOp   `json:"op"`
	Version   uint64            `json:"version"`
	Lines     []models.CartLine `json:"lines"`
	ItemCount int               `json:"itemCount"`
	Total     float64           `json:"total"`
}

// EventsHandler streams cart and inventory changes as server-sent events.
type EventsHandler struct {
	hub       *events.Hub
	cart      *services.CartManager
	keepalive time.Duration
	logger    *zap.Logger
}

func NewEventsHandler(hub *events.Hub, cart *services.CartManager, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		hub:       hub,
		cart:      cart,
		keepalive: 25 * time.Second,
		logger:    logger,
	}
}

// Attach subscribes the hub to the cart and every inventory manager. The
// returned func removes all subscriptions.
func (h *EventsHandler) Attach(managers map[models.Category]*services.InventoryManager) func() {
	var unsubs []func()
	unsubs = append(unsubs, h.cart.Subscribe(func(e services.CartEvent) {
		h.hub.Publish(eventCart, cartChange(e))
	}))
	for _, m := range managers {
		unsubs = append(unsubs, m.Subscribe(func(e services.InventoryEvent) {
			h.hub.Publish(eventInventory, e)
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Streaming unsupported"))
		return
	}

	messages, leave := h.hub.Join()
	defer leave()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Current state first so a new client can render its badge at once.
	summary := h.cart.Summary()
	initial, err := json.Marshal(CartChange{Op: services.CartOpSync, Lines: summary.Lines, ItemCount: summary.ItemCount, Total: summary.Total})
	if err == nil {
		writeEvent(w, eventCart, initial)
		flusher.Flush()
	}

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-messages:
			if !open {
				return
			}
			writeEvent(w, msg.Event, msg.Data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func cartChange(e services.CartEvent) CartChange {
	c := CartChange{Op: e.Op, Version: e.Version, Lines: e.Lines}
	for _, l := range e.Lines {
		c.ItemCount += l.Quantity
		c.Total += l.Subtotal()
	}
	return c
}

func writeEvent(w http.ResponseWriter, event string, data []byte) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
