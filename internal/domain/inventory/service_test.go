package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu      sync.Mutex
	byID    map[string]Item
	applied map[string]struct{}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[string]Item{}, applied: map[string]struct{}{}}
}

func (f *fakeRepo) Create(_ context.Context, it Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[it.ID] = it
	return nil
}

func (f *fakeRepo) Update(_ context.Context, it Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[it.ID]; !ok {
		return ErrNotFound
	}
	f.byID[it.ID] = it
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.byID[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return it, nil
}

func (f *fakeRepo) ListByHousehold(_ context.Context, h string) ([]Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Item
	for _, it := range f.byID {
		if it.HouseholdID == h {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeRepo) AdjustQuantity(_ context.Context, id string, delta float64, key string, at time.Time) (Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.byID[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	if key != "" {
		if _, done := f.applied[key]; done {
			return it, nil
		}
	}
	if it.Quantity+delta < 0 {
		return Item{}, ErrInsufficientStock
	}
	it.Quantity += delta
	it.UpdatedAt = at
	f.byID[id] = it
	if key != "" {
		f.applied[key] = struct{}{}
	}
	return it, nil
}

func newTestService() *Service {
	svc := NewService(newFakeRepo())
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{HouseholdID: "h-1", MedicationName: "Apoquel", Quantity: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, CreateInput{MedicationName: "Apoquel"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	it, err := svc.Create(ctx, CreateInput{HouseholdID: "h-1", MedicationName: "Apoquel", Quantity: 30, LowStockThreshold: 5})
	require.NoError(t, err)
	assert.False(t, it.LowStock())
}

func TestUpdate_DeltaIdempotentByKey(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	it, err := svc.Create(ctx, CreateInput{HouseholdID: "h-1", MedicationName: "Gabapentina", Quantity: 10, LowStockThreshold: 8})
	require.NoError(t, err)

	delta := -3.0
	after, err := svc.Update(ctx, it.ID, UpdateInput{QuantityDelta: &delta, IdempotencyKey: "k-1"})
	require.NoError(t, err)
	assert.Equal(t, 7.0, after.Quantity)
	assert.True(t, after.LowStock())

	// Replay con la misma key: sin efecto.
	again, err := svc.Update(ctx, it.ID, UpdateInput{QuantityDelta: &delta, IdempotencyKey: "k-1"})
	require.NoError(t, err)
	assert.Equal(t, 7.0, again.Quantity)

	tooMuch := -100.0
	_, err = svc.Update(ctx, it.ID, UpdateInput{QuantityDelta: &tooMuch})
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestUpdate_RejectedDeltaLeavesFieldsUntouched(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	it, err := svc.Create(ctx, CreateInput{HouseholdID: "h-1", MedicationName: "Apoquel", Quantity: 2, Unit: "tab"})
	require.NoError(t, err)

	name, unit, tooMuch := "Apoquel 16mg", "comp", -5.0
	_, err = svc.Update(ctx, it.ID, UpdateInput{MedicationName: &name, Unit: &unit, QuantityDelta: &tooMuch, IdempotencyKey: "k-over"})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, err := svc.GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "Apoquel", got.MedicationName)
	assert.Equal(t, "tab", got.Unit)
	assert.Equal(t, 2.0, got.Quantity)

	// Campos y delta válidos se aplican juntos.
	ok := -1.0
	after, err := svc.Update(ctx, it.ID, UpdateInput{MedicationName: &name, QuantityDelta: &ok, IdempotencyKey: "k-ok"})
	require.NoError(t, err)
	assert.Equal(t, "Apoquel 16mg", after.MedicationName)
	assert.Equal(t, 1.0, after.Quantity)

	got, err = svc.GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, after, got)
}

func TestMarkAsInUse_Idempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	it, err := svc.Create(ctx, CreateInput{HouseholdID: "h-1", MedicationName: "Colirio"})
	require.NoError(t, err)

	first, err := svc.MarkAsInUse(ctx, it.ID)
	require.NoError(t, err)
	require.NotNil(t, first.InUseSince)

	svc.now = func() time.Time { return first.InUseSince.Add(time.Hour) }
	second, err := svc.MarkAsInUse(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.InUseSince, *second.InUseSince)

	_, err = svc.MarkAsInUse(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConsume(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	it, err := svc.Create(ctx, CreateInput{HouseholdID: "h-1", MedicationName: "Meloxicam", Quantity: 2})
	require.NoError(t, err)

	left, err := svc.Consume(ctx, it.ID, 0.5, "admin:k-1")
	require.NoError(t, err)
	assert.Equal(t, 1.5, left.Quantity)

	_, err = svc.Consume(ctx, it.ID, 0, "admin:k-2")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
