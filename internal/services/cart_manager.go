package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sleepoutside/backend/internal/events"
	"github.com/sleepoutside/backend/internal/models"
	"github.com/sleepoutside/backend/internal/storage"
)

// CartKey is the persisted-collection key of the cart.
const CartKey = "so-cart"

var (
	ErrPersist      = errors.New("failed to save changes")
	ErrLineNotFound = errors.New("item not in cart")
)

// CartOp tags which operation produced a CartEvent.
type CartOp string

const (
	CartOpAdd            CartOp = "add"
	CartOpRemove         CartOp = "remove"
	CartOpUpdateQuantity CartOp = "updateQuantity"
	CartOpClear          CartOp = "clear"
	CartOpSync           CartOp = "sync"
)

// CartEvent carries the cart as persisted by one change. Version grows by
// one per event and events are delivered in version order.
type CartEvent struct {
	Op      CartOp            `json:"op"`
	Version uint64            `json:"version"`
	Lines   []models.CartLine `json:"lines"`
}

// CartManager owns the in-memory cart lines and keeps them in step with the
// store. Every mutation persists the whole collection before subscribers
// are told about it.
type CartManager struct {
	mu        sync.RWMutex
	store     storage.KVStore
	lines     []models.CartLine
	lastSaved string
	notifier  *events.Notifier[CartEvent]
	seq       events.Sequencer
	logger    *zap.Logger
}

// NewCartManager loads the cart from store. An unreadable or malformed
// persisted cart is logged and replaced by an empty one.
func NewCartManager(store storage.KVStore, logger *zap.Logger) *CartManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &CartManager{
		store:    store,
		notifier: events.NewNotifier[CartEvent](logger),
		logger:   logger.With(zap.String("collection", CartKey)),
	}
	m.lines, m.lastSaved = m.load()
	return m
}

func (m *CartManager) load() ([]models.CartLine, string) {
	raw, ok, err := m.store.Get(CartKey)
	if err != nil {
		m.logger.Error("load cart", zap.Error(err))
		return []models.CartLine{}, ""
	}
	if !ok {
		return []models.CartLine{}, ""
	}
	var lines []models.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		m.logger.Warn("discarding malformed cart", zap.Error(err))
		return []models.CartLine{}, raw
	}
	// Lines that break the quantity floor cannot exist.
	out := lines[:0]
	for _, l := range lines {
		if l.Quantity >= 1 {
			out = append(out, l)
		}
	}
	return out, raw
}

// Subscribe registers fn for every cart mutation, in registration order.
// fn may read the cart but must not mutate it.
func (m *CartManager) Subscribe(fn func(CartEvent)) (unsubscribe func()) {
	return m.notifier.Subscribe(fn)
}

// AddLine increments the quantity of the line with the same id, or inserts
// item with quantity 1. A nil item is a no-op.
func (m *CartManager) AddLine(item *models.CartLine) ([]models.CartLine, error) {
	if item == nil {
		return m.Lines(), nil
	}
	return m.mutate(CartOpAdd, func(lines []models.CartLine) ([]models.CartLine, error) {
		for i := range lines {
			if lines[i].ID == item.ID {
				lines[i].Quantity++
				return lines, nil
			}
		}
		line := *item
		line.Quantity = 1
		return append(lines, line), nil
	})
}

// RemoveLine deletes the line with id. Removing an absent id succeeds.
func (m *CartManager) RemoveLine(id string) ([]models.CartLine, error) {
	return m.mutate(CartOpRemove, func(lines []models.CartLine) ([]models.CartLine, error) {
		return removeLine(lines, id), nil
	})
}

// SetQuantity overwrites a line's quantity; qty <= 0 removes the line.
func (m *CartManager) SetQuantity(id string, qty int) ([]models.CartLine, error) {
	if qty <= 0 {
		return m.RemoveLine(id)
	}
	return m.mutate(CartOpUpdateQuantity, func(lines []models.CartLine) ([]models.CartLine, error) {
		for i := range lines {
			if lines[i].ID == id {
				lines[i].Quantity = qty
			}
		}
		return lines, nil
	})
}

// UpdateLineQuantity is SetQuantity for a line that must already be in the
// cart. The presence check and the write happen under one lock; an absent
// id returns ErrLineNotFound and writes nothing.
func (m *CartManager) UpdateLineQuantity(id string, qty int) ([]models.CartLine, error) {
	op := CartOpUpdateQuantity
	if qty <= 0 {
		op = CartOpRemove
	}
	return m.mutate(op, func(lines []models.CartLine) ([]models.CartLine, error) {
		for i := range lines {
			if lines[i].ID != id {
				continue
			}
			if qty <= 0 {
				return removeLine(lines, id), nil
			}
			lines[i].Quantity = qty
			return lines, nil
		}
		return nil, ErrLineNotFound
	})
}

func (m *CartManager) Clear() error {
	_, err := m.mutate(CartOpClear, func([]models.CartLine) ([]models.CartLine, error) {
		return []models.CartLine{}, nil
	})
	return err
}

// Total is the sum of unit price times quantity over all lines.
func (m *CartManager) Total() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cartTotal(m.lines)
}

// ItemCount is the sum of quantities, not the number of lines.
func (m *CartManager) ItemCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cartCount(m.lines)
}

func (m *CartManager) Lines() []models.CartLine {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyLines(m.lines)
}

func (m *CartManager) Line(id string) (models.CartLine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.lines {
		if l.ID == id {
			return l, true
		}
	}
	return models.CartLine{}, false
}

// Summary returns lines, total and count from one consistent snapshot.
func (m *CartManager) Summary() models.CartSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return models.CartSummary{
		Lines:     copyLines(m.lines),
		Total:     cartTotal(m.lines),
		ItemCount: cartCount(m.lines),
	}
}

// Reload re-reads the cart from the store after an external change. Only a
// serialization that differs from this manager's last write notifies.
func (m *CartManager) Reload() error {
	m.mu.Lock()
	raw, ok, err := m.store.Get(CartKey)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("reload cart: %w", err)
	}
	if !ok {
		raw = ""
	}
	if raw == m.lastSaved {
		m.mu.Unlock()
		return nil
	}
	m.lines, m.lastSaved = m.load()
	snapshot := copyLines(m.lines)
	ticket := m.seq.Next()
	m.mu.Unlock()

	m.logger.Info("cart changed externally", zap.Int("lines", len(snapshot)))
	m.publish(ticket, CartOpSync, snapshot)
	return nil
}

func (m *CartManager) publish(ticket uint64, op CartOp, lines []models.CartLine) {
	m.seq.Run(ticket, func() {
		m.notifier.Notify(CartEvent{Op: op, Version: ticket, Lines: lines})
	})
}

// mutate applies fn to a copy of the lines, persists the result and only
// then swaps it in and notifies. On an fn or store error nothing changes.
func (m *CartManager) mutate(op CartOp, fn func([]models.CartLine) ([]models.CartLine, error)) ([]models.CartLine, error) {
	m.mu.Lock()
	next, err := fn(copyLines(m.lines))
	if err != nil {
		current := copyLines(m.lines)
		m.mu.Unlock()
		return current, err
	}

	raw, err := json.Marshal(next)
	if err == nil {
		err = m.store.Set(CartKey, string(raw))
	}
	if err != nil {
		current := copyLines(m.lines)
		m.mu.Unlock()
		m.logger.Error("persist cart", zap.String("op", string(op)), zap.Error(err))
		return current, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	m.lines = next
	m.lastSaved = string(raw)
	snapshot := copyLines(next)
	ticket := m.seq.Next()
	m.mu.Unlock()

	m.publish(ticket, op, copyLines(snapshot))
	return snapshot, nil
}

// CartLineFromProduct builds a cart line for product using the colour at
// colorIndex when it exists.
func CartLineFromProduct(p models.Product, colorIndex int) *models.CartLine {
	line := &models.CartLine{
		ID:        p.ID,
		Name:      p.Name,
		UnitPrice: p.FinalPrice,
		Quantity:  1,
		ImageRef:  p.PrimaryImage(),
	}
	if colorIndex >= 0 && colorIndex < len(p.Colors) {
		line.ColorLabel = p.Colors[colorIndex].ColorName
	}
	return line
}

func removeLine(lines []models.CartLine, id string) []models.CartLine {
	out := lines[:0]
	for _, l := range lines {
		if l.ID != id {
			out = append(out, l)
		}
	}
	return out
}

func copyLines(lines []models.CartLine) []models.CartLine {
	out := make([]models.CartLine, len(lines))
	copy(out, lines)
	return out
}

func cartTotal(lines []models.CartLine) float64 {
	var total float64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}

func cartCount(lines []models.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
