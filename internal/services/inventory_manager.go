package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sleepoutside/backend/internal/events"
	"github.com/sleepoutside/backend/internal/models"
	"github.com/sleepoutside/backend/internal/storage"
)

var (
	ErrRecordNotFound   = errors.New("product not found")
	ErrInvalidImport    = errors.New("import data must be a JSON array")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrCategoryMismatch = errors.New("record category does not match inventory")
)

type InventoryOp string

const (
	InventoryOpAdd    InventoryOp = "add"
	InventoryOpUpdate InventoryOp = "update"
	InventoryOpDelete InventoryOp = "delete"
	InventoryOpImport InventoryOp = "import"
	InventoryOpSwitch InventoryOp = "switch"
	InventoryOpSync   InventoryOp = "sync"
)

// InventoryEvent carries the active collection after one change, delivered
// in Version order.
type InventoryEvent struct {
	Op       InventoryOp              `json:"op"`
	Version  uint64                   `json:"version"`
	Category models.Category          `json:"category"`
	Records  []models.InventoryRecord `json:"records"`
}

// InventoryManager owns the record list of one active category.
type InventoryManager struct {
	mu        sync.RWMutex
	store     storage.KVStore
	category  models.Category
	records   []models.InventoryRecord
	lastSaved string
	notifier  *events.Notifier[InventoryEvent]
	seq       events.Sequencer
	logger    *zap.Logger
	now       func() time.Time
}

func NewInventoryManager(store storage.KVStore, category models.Category, logger *zap.Logger) (*InventoryManager, error) {
	if _, ok := models.ParseCategory(string(category)); !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &InventoryManager{
		store:    store,
		category: category,
		notifier: events.NewNotifier[InventoryEvent](logger),
		logger:   logger,
		now:      time.Now,
	}
	m.records, m.lastSaved = m.load()
	return m, nil
}

// NewInventoryManagers builds one manager per category over a shared store.
func NewInventoryManagers(store storage.KVStore, logger *zap.Logger) map[models.Category]*InventoryManager {
	out := make(map[models.Category]*InventoryManager, len(models.Categories))
	for _, c := range models.Categories {
		m, _ := NewInventoryManager(store, c, logger)
		out[c] = m
	}
	return out
}

func (m *InventoryManager) load() ([]models.InventoryRecord, string) {
	key := m.category.StorageKey()
	raw, ok, err := m.store.Get(key)
	if err != nil {
		m.logger.Error("load inventory", zap.String("key", key), zap.Error(err))
		return []models.InventoryRecord{}, ""
	}
	if !ok {
		return []models.InventoryRecord{}, ""
	}
	var records []models.InventoryRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		m.logger.Warn("discarding malformed inventory", zap.String("key", key), zap.Error(err))
		return []models.InventoryRecord{}, raw
	}
	if records == nil {
		records = []models.InventoryRecord{}
	}
	return records, raw
}

// save persists records under the active key. Callers hold m.mu.
func (m *InventoryManager) save(records []models.InventoryRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := m.store.Set(m.category.StorageKey(), string(raw)); err != nil {
		m.logger.Error("persist inventory",
			zap.String("category", string(m.category)),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	m.records = records
	m.lastSaved = string(raw)
	return nil
}

// Subscribe registers fn for every change. fn may read the manager but must
// not mutate it.
func (m *InventoryManager) Subscribe(fn func(InventoryEvent)) (unsubscribe func()) {
	return m.notifier.Subscribe(fn)
}

func (m *InventoryManager) publish(ticket uint64, op InventoryOp, category models.Category, records []models.InventoryRecord) {
	m.seq.Run(ticket, func() {
		m.notifier.Notify(InventoryEvent{Op: op, Version: ticket, Category: category, Records: records})
	})
}

// AddRecord stamps a new id and creation time, appends and persists. If the
// store rejects the write the append is rolled back.
func (m *InventoryManager) AddRecord(req models.CreateRecordRequest) (*models.InventoryRecord, error) {
	m.mu.Lock()
	if req.Category != "" && req.Category != m.category {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s into %s", ErrCategoryMismatch, req.Category, m.category)
	}

	now := m.now().UTC()
	rec := models.InventoryRecord{
		ID:          NewRecordID(now),
		Name:        req.Name,
		Category:    m.category,
		Price:       req.Price,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		CreatedAt:   now,
	}

	next := append(copyRecords(m.records), rec)
	if err := m.save(next); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	category, snapshot := m.category, copyRecords(m.records)
	ticket := m.seq.Next()
	m.mu.Unlock()

	m.logger.Info("inventory record added", zap.String("id", rec.ID), zap.String("category", string(category)))
	m.publish(ticket, InventoryOpAdd, category, snapshot)
	return &rec, nil
}

// DeleteRecord removes the record with id, or returns ErrRecordNotFound
// without touching anything.
func (m *InventoryManager) DeleteRecord(id string) error {
	m.mu.Lock()
	i := m.indexOf(id)
	if i < 0 {
		m.mu.Unlock()
		return ErrRecordNotFound
	}

	next := copyRecords(m.records)
	next = append(next[:i], next[i+1:]...)
	if err := m.save(next); err != nil {
		m.mu.Unlock()
		return err
	}
	category, snapshot := m.category, copyRecords(m.records)
	ticket := m.seq.Next()
	m.mu.Unlock()

	m.publish(ticket, InventoryOpDelete, category, snapshot)
	return nil
}

// UpdateRecord merges patch over the record and stamps UpdatedAt.
func (m *InventoryManager) UpdateRecord(id string, patch models.UpdateRecordRequest) (*models.InventoryRecord, error) {
	m.mu.Lock()
	i := m.indexOf(id)
	if i < 0 {
		m.mu.Unlock()
		return nil, ErrRecordNotFound
	}

	next := copyRecords(m.records)
	rec := next[i]
	patch.Apply(&rec)
	updated := m.now().UTC()
	rec.UpdatedAt = &updated
	next[i] = rec

	if err := m.save(next); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	category, snapshot := m.category, copyRecords(m.records)
	ticket := m.seq.Next()
	m.mu.Unlock()

	m.publish(ticket, InventoryOpUpdate, category, snapshot)
	return &rec, nil
}

// SwitchCategory makes category active and reloads its records from the
// store. In-memory state of the previous category is discarded.
func (m *InventoryManager) SwitchCategory(category models.Category) error {
	if _, ok := models.ParseCategory(string(category)); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	m.mu.Lock()
	m.category = category
	m.records, m.lastSaved = m.load()
	snapshot := copyRecords(m.records)
	ticket := m.seq.Next()
	m.mu.Unlock()

	m.publish(ticket, InventoryOpSwitch, category, snapshot)
	return nil
}

func (m *InventoryManager) Category() models.Category {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.category
}

func (m *InventoryManager) GetAll() []models.InventoryRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyRecords(m.records)
}

func (m *InventoryManager) GetByID(id string) (*models.InventoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil, ErrRecordNotFound
	}
	rec := cloneRecord(m.records[i])
	return &rec, nil
}

func (m *InventoryManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Export serializes the active collection.
func (m *InventoryManager) Export() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, err := json.MarshalIndent(m.records, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Import replaces the active collection with payload, which must be a JSON
// array of records. Records are moved into the active category and missing
// ids or creation times are filled in.
func (m *InventoryManager) Import(payload string) (int, error) {
	trimmed := bytes.TrimSpace([]byte(payload))
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return 0, ErrInvalidImport
	}
	var records []models.InventoryRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	if records == nil {
		records = []models.InventoryRecord{}
	}

	m.mu.Lock()
	now := m.now().UTC()
	for i := range records {
		records[i].Category = m.category
		if records[i].ID == "" {
			records[i].ID = NewRecordID(now)
		}
		if records[i].CreatedAt.IsZero() {
			records[i].CreatedAt = now
		}
	}
	if err := m.save(records); err != nil {
		m.mu.Unlock()
		return 0, err
	}
	category, snapshot := m.category, copyRecords(m.records)
	ticket := m.seq.Next()
	m.mu.Unlock()

	m.logger.Info("inventory imported", zap.String("category", string(category)), zap.Int("records", len(snapshot)))
	m.publish(ticket, InventoryOpImport, category, snapshot)
	return len(snapshot), nil
}

// Reload re-reads the active collection after an external change.
func (m *InventoryManager) Reload() error {
	m.mu.Lock()
	raw, ok, err := m.store.Get(m.category.StorageKey())
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("reload inventory: %w", err)
	}
	if !ok {
		raw = ""
	}
	if raw == m.lastSaved {
		m.mu.Unlock()
		return nil
	}
	m.records, m.lastSaved = m.load()
	category, snapshot := m.category, copyRecords(m.records)
	ticket := m.seq.Next()
	m.mu.Unlock()

	m.publish(ticket, InventoryOpSync, category, snapshot)
	return nil
}

func (m *InventoryManager) indexOf(id string) int {
	for i, r := range m.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func copyRecords(records []models.InventoryRecord) []models.InventoryRecord {
	out := make([]models.InventoryRecord, len(records))
	for i, r := range records {
		out[i] = cloneRecord(r)
	}
	return out
}

func cloneRecord(r models.InventoryRecord) models.InventoryRecord {
	if r.UpdatedAt != nil {
		t := *r.UpdatedAt
		r.UpdatedAt = &t
	}
	return r
}
