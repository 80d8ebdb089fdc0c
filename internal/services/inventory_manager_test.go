package services

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleepoutside/backend/internal/models"
	"github.com/sleepoutside/backend/internal/storage"
)

func newTents(t *testing.T, store storage.KVStore) *InventoryManager {
	t.Helper()
	m, err := NewInventoryManager(store, models.CategoryTents, nil)
	require.NoError(t, err)
	m.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return m
}

func tentA() models.CreateRecordRequest {
	return models.CreateRecordRequest{
		Name:        "Tent A",
		Category:    models.CategoryTents,
		Price:       149.5,
		Description: "Two person tent",
		ImageURL:    "https://example.com/tent-a.jpg",
	}
}

func TestNewInventoryManager_RejectsUnknownCategory(t *testing.T) {
	_, err := NewInventoryManager(storage.NewMemoryStore(), models.Category("kayaks"), nil)
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestInventoryManager_AddDeleteDelete(t *testing.T) {
	store := storage.NewMemoryStore()
	inv := newTents(t, store)

	rec, err := inv.AddRecord(tentA())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, strings.ToUpper(rec.ID), rec.ID)
	assert.Equal(t, models.CategoryTents, rec.Category)
	assert.Equal(t, time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC), rec.CreatedAt)
	assert.Nil(t, rec.UpdatedAt)
	assert.Equal(t, 1, inv.Count())

	raw, ok, err := store.Get("so-inventory-tents")
	require.NoError(t, err)
	require.True(t, ok)
	var persisted []models.InventoryRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	require.Len(t, persisted, 1)
	assert.Equal(t, rec.ID, persisted[0].ID)

	require.NoError(t, inv.DeleteRecord(rec.ID))
	assert.Equal(t, 0, inv.Count())

	err = inv.DeleteRecord(rec.ID)
	require.ErrorIs(t, err, ErrRecordNotFound)
	assert.Contains(t, err.Error(), "not found")
	assert.Equal(t, 0, inv.Count())
}

func TestInventoryManager_AddRejectsOtherCategory(t *testing.T) {
	inv := newTents(t, storage.NewMemoryStore())
	req := tentA()
	req.Category = models.CategoryBackpacks

	_, err := inv.AddRecord(req)
	assert.ErrorIs(t, err, ErrCategoryMismatch)
	assert.Equal(t, 0, inv.Count())
}

func TestInventoryManager_Update(t *testing.T) {
	inv := newTents(t, storage.NewMemoryStore())
	rec, err := inv.AddRecord(tentA())
	require.NoError(t, err)

	name := "Tent A Deluxe"
	price := 199.0
	updated, err := inv.UpdateRecord(rec.ID, models.UpdateRecordRequest{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, price, updated.Price)
	assert.Equal(t, rec.Description, updated.Description)
	assert.Equal(t, rec.CreatedAt, updated.CreatedAt)
	require.NotNil(t, updated.UpdatedAt)

	got, err := inv.GetByID(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)

	_, err = inv.UpdateRecord("missing", models.UpdateRecordRequest{Name: &name})
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.Equal(t, 1, inv.Count())
}

func TestInventoryManager_GetByIDReturnsCopy(t *testing.T) {
	inv := newTents(t, storage.NewMemoryStore())
	rec, err := inv.AddRecord(tentA())
	require.NoError(t, err)

	got, err := inv.GetByID(rec.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := inv.GetByID(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tent A", again.Name)

	_, err = inv.GetByID("nope")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestInventoryManager_PersistFailureRollsBack(t *testing.T) {
	store := newFlakyStore()
	inv := newTents(t, store)
	rec, err := inv.AddRecord(tentA())
	require.NoError(t, err)

	notified := 0
	inv.Subscribe(func(InventoryEvent) { notified++ })

	store.fail(true)

	_, err = inv.AddRecord(tentA())
	require.ErrorIs(t, err, ErrPersist)
	assert.Equal(t, 1, inv.Count())

	name := "renamed"
	_, err = inv.UpdateRecord(rec.ID, models.UpdateRecordRequest{Name: &name})
	require.ErrorIs(t, err, ErrPersist)
	got, err := inv.GetByID(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tent A", got.Name)
	assert.Nil(t, got.UpdatedAt)

	require.ErrorIs(t, inv.DeleteRecord(rec.ID), ErrPersist)
	assert.Equal(t, 1, inv.Count())

	_, err = inv.Import(`[]`)
	require.ErrorIs(t, err, ErrPersist)
	assert.Equal(t, 1, inv.Count())

	assert.Zero(t, notified)
}

func TestInventoryManager_SwitchCategory(t *testing.T) {
	store := storage.NewMemoryStore()
	inv := newTents(t, store)
	_, err := inv.AddRecord(tentA())
	require.NoError(t, err)

	var got []InventoryEvent
	inv.Subscribe(func(e InventoryEvent) { got = append(got, e) })

	require.NoError(t, inv.SwitchCategory(models.CategoryBackpacks))
	assert.Equal(t, models.CategoryBackpacks, inv.Category())
	assert.Equal(t, 0, inv.Count())

	_, err = inv.AddRecord(models.CreateRecordRequest{Name: "Pack", Price: 89})
	require.NoError(t, err)
	_, ok, err := store.Get("so-inventory-backpacks")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, inv.SwitchCategory(models.CategoryTents))
	assert.Equal(t, 1, inv.Count())
	assert.Equal(t, "Tent A", inv.GetAll()[0].Name)

	assert.ErrorIs(t, inv.SwitchCategory("canoes"), ErrInvalidCategory)
	assert.Equal(t, models.CategoryTents, inv.Category())

	require.Len(t, got, 3)
	assert.Equal(t, InventoryOpSwitch, got[0].Op)
	assert.Equal(t, models.CategoryBackpacks, got[0].Category)
	assert.Equal(t, InventoryOpAdd, got[1].Op)
	assert.Equal(t, InventoryOpSwitch, got[2].Op)
}

func TestInventoryManager_ExportImport(t *testing.T) {
	src := newTents(t, storage.NewMemoryStore())
	_, err := src.AddRecord(tentA())
	require.NoError(t, err)
	second := tentA()
	second.Name = "Tent B"
	_, err = src.AddRecord(second)
	require.NoError(t, err)

	exported, err := src.Export()
	require.NoError(t, err)

	dst := newTents(t, storage.NewMemoryStore())
	n, err := dst.Import(exported)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, src.GetAll(), dst.GetAll())
}

func TestInventoryManager_ImportFillsMissingFields(t *testing.T) {
	inv := newTents(t, storage.NewMemoryStore())

	n, err := inv.Import(`[{"name":"Loose","category":"backpacks","price":12}]`)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	rec := inv.GetAll()[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, models.CategoryTents, rec.Category)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestInventoryManager_ImportRejectsNonArrays(t *testing.T) {
	inv := newTents(t, storage.NewMemoryStore())
	_, err := inv.AddRecord(tentA())
	require.NoError(t, err)

	for _, payload := range []string{``, `null`, `{"id":"X"}`, `"text"`, `42`, `[{"name":`} {
		_, err := inv.Import(payload)
		assert.ErrorIs(t, err, ErrInvalidImport, "payload %q", payload)
	}
	assert.Equal(t, 1, inv.Count())
}

func TestInventoryManager_ImportEmptyArrayClears(t *testing.T) {
	inv := newTents(t, storage.NewMemoryStore())
	_, err := inv.AddRecord(tentA())
	require.NoError(t, err)

	n, err := inv.Import(" [] ")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, inv.GetAll())
}

func TestInventoryManager_ReloadSync(t *testing.T) {
	store := storage.NewMemoryStore()
	inv := newTents(t, store)
	other := newTents(t, store)

	var got []InventoryEvent
	inv.Subscribe(func(e InventoryEvent) { got = append(got, e) })

	_, err := inv.AddRecord(tentA())
	require.NoError(t, err)
	got = nil
	require.NoError(t, inv.Reload())
	assert.Empty(t, got)

	require.NoError(t, other.Reload())
	_, err = other.AddRecord(models.CreateRecordRequest{Name: "Tent C", Price: 10})
	require.NoError(t, err)

	require.NoError(t, inv.Reload())
	require.Len(t, got, 1)
	assert.Equal(t, InventoryOpSync, got[0].Op)
	assert.Len(t, got[0].Records, 2)
	assert.Equal(t, 2, inv.Count())
}

func TestNewInventoryManagers(t *testing.T) {
	managers := NewInventoryManagers(storage.NewMemoryStore(), nil)
	require.Len(t, managers, len(models.Categories))
	for _, c := range models.Categories {
		require.Contains(t, managers, c)
		assert.Equal(t, c, managers[c].Category())
	}
}

func TestNewRecordID(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	a := NewRecordID(now)
	b := NewRecordID(now)

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "LOYW3V28"), a)
	assert.Len(t, a, len("LOYW3V28")+8)
	assert.Equal(t, strings.ToUpper(a), a)
}

func TestInventoryManager_ConcurrentEventsFollowPersistOrder(t *testing.T) {
	inv := newTents(t, storage.NewMemoryStore())

	var mu sync.Mutex
	var got []InventoryEvent
	inv.Subscribe(func(e InventoryEvent) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := inv.AddRecord(tentA())
			if !assert.NoError(t, err) {
				return
			}
			price := 10.0
			_, err = inv.UpdateRecord(rec.ID, models.UpdateRecordRequest{Price: &price})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 24)
	for i, e := range got {
		assert.Equal(t, uint64(i+1), e.Version, "events delivered out of order")
	}
	assert.Equal(t, inv.GetAll(), got[len(got)-1].Records)
}
