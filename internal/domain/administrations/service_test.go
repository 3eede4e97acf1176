package administrations

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-med-tracker/internal/domain/animals"
	"vet-med-tracker/internal/domain/due"
	"vet-med-tracker/internal/domain/inventory"
	"vet-med-tracker/internal/domain/regimens"
	"vet-med-tracker/internal/domain/schedule"
	"vet-med-tracker/internal/platform/metrics"
)

// -------------------------
// Fakes
// -------------------------

type fakeRepo struct {
	mu     sync.Mutex
	byID   map[string]Administration
	writes int

	// raceOnce simula que otra escritura con la misma key gana entre el lookup y el insert.
	raceOnce *Administration
}

func newFakeRepo() *fakeRepo { return &fakeRepo{byID: map[string]Administration{}} }

func (f *fakeRepo) Create(_ context.Context, a Administration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.raceOnce != nil {
		f.byID[f.raceOnce.ID] = *f.raceOnce
		f.raceOnce = nil
	}
	for _, existing := range f.byID {
		if existing.HouseholdID == a.HouseholdID && existing.IdempotencyKey == a.IdempotencyKey {
			return ErrDuplicate
		}
	}
	f.byID[a.ID] = a
	f.writes++
	return nil
}

func (f *fakeRepo) Update(_ context.Context, a Administration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[a.ID]; !ok {
		return ErrNotFound
	}
	f.byID[a.ID] = a
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (Administration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return Administration{}, ErrNotFound
	}
	return a, nil
}

func (f *fakeRepo) GetByIdempotencyKey(_ context.Context, householdID, key string) (Administration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.HouseholdID == householdID && a.IdempotencyKey == key {
			return a, nil
		}
	}
	return Administration{}, ErrNotFound
}

func (f *fakeRepo) list(match func(Administration) bool, filter ListFilter) []Administration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Administration, 0)
	for _, a := range f.byID {
		if !match(a) || (a.Voided && !filter.IncludeVoided) {
			continue
		}
		if len(filter.RegimenIDs) > 0 && a.RegimenID != filter.RegimenIDs[0] {
			continue
		}
		if filter.To != nil && a.AdministeredAt.After(*filter.To) {
			continue
		}
		if filter.From != nil && a.AdministeredAt.Before(*filter.From) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AdministeredAt.After(out[j].AdministeredAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

func (f *fakeRepo) ListByAnimal(_ context.Context, animalID string, filter ListFilter) ([]Administration, error) {
	return f.list(func(a Administration) bool { return a.AnimalID == animalID }, filter), nil
}

func (f *fakeRepo) ListByHousehold(_ context.Context, householdID string, filter ListFilter) ([]Administration, error) {
	return f.list(func(a Administration) bool { return a.HouseholdID == householdID }, filter), nil
}

type fakeRegimens map[string]regimens.Regimen

func (f fakeRegimens) GetByID(_ context.Context, id string) (regimens.Regimen, error) {
	r, ok := f[id]
	if !ok {
		return regimens.Regimen{}, regimens.ErrNotFound
	}
	return r, nil
}

type fakeAnimals map[string]animals.Animal

func (f fakeAnimals) GetByID(_ context.Context, id string) (animals.Animal, error) {
	a, ok := f[id]
	if !ok {
		return animals.Animal{}, animals.ErrNotFound
	}
	return a, nil
}

type fakeStock struct {
	calls []string
}

func (f *fakeStock) Consume(_ context.Context, itemID string, qty float64, key string) (inventory.Item, error) {
	f.calls = append(f.calls, itemID+"|"+key)
	return inventory.Item{ID: itemID}, nil
}

// -------------------------
// Setup
// -------------------------

var base = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	repo    *fakeRepo
	stock   *fakeStock
	metrics *metrics.Server
}

func newFixture(t *testing.T, trust bool) fixture {
	t.Helper()
	repo := newFakeRepo()
	stock := &fakeStock{}
	m := metrics.NewServer()

	regs := fakeRegimens{
		"reg-fixed": {
			ID: "reg-fixed", AnimalID: "animal-1", HouseholdID: "house-1", Active: true,
			Schedule:        schedule.Schedule{Kind: schedule.KindFixed, TimesLocal: []string{"08:00", "20:00"}},
			CutoffMinutes:   240,
			InventoryItemID: "item-1", DoseQuantity: 1,
		},
		"reg-risk": {
			ID: "reg-risk", AnimalID: "animal-1", HouseholdID: "house-1", Active: true,
			Schedule:       schedule.Schedule{Kind: schedule.KindPRN},
			HighRisk:       true,
			RequiresCosign: true,
		},
		"reg-interval": {
			ID: "reg-interval", AnimalID: "animal-1", HouseholdID: "house-1", Active: true,
			Schedule: schedule.Schedule{Kind: schedule.KindInterval, IntervalHours: 8},
		},
		"reg-off": {
			ID: "reg-off", AnimalID: "animal-1", Active: false,
			Schedule: schedule.Schedule{Kind: schedule.KindPRN},
		},
		"reg-neighbor": {
			ID: "reg-neighbor", AnimalID: "animal-2", HouseholdID: "house-2", Active: true,
			Schedule: schedule.Schedule{Kind: schedule.KindPRN},
		},
	}
	anims := fakeAnimals{
		"animal-1": {ID: "animal-1", HouseholdID: "house-1", Timezone: "UTC"},
		"animal-2": {ID: "animal-2", HouseholdID: "house-2", Timezone: "UTC"},
	}

	svc := NewService(repo, Deps{
		Regimens:          regs,
		Animals:           anims,
		Stock:             stock,
		Metrics:           m,
		TrustClientStatus: trust,
	})
	svc.now = func() time.Time { return base.Add(2 * time.Hour) }
	return fixture{svc: svc, repo: repo, stock: stock, metrics: m}
}

// -------------------------
// Tests
// -------------------------

func TestCreate_IdempotentByKey(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	in := CreateInput{RegimenID: "reg-fixed", AdministeredAt: base.Add(70 * time.Minute), IdempotencyKey: "key-1"}

	first, created, err := fx.svc.Create(ctx, "carer-1", in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, due.StatusLate, first.Status)
	require.NotNil(t, first.ScheduledFor)
	assert.Equal(t, base, *first.ScheduledFor)

	second, created, err := fx.svc.Create(ctx, "carer-1", in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, fx.repo.writes, "second call must not write")
	assert.Len(t, fx.stock.calls, 1, "stock consumed once")
	assert.Equal(t, "item-1|admin:key-1", fx.stock.calls[0])

	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.IdempotentReplays))
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.AdministrationsRecorded.WithLabelValues("LATE")))
}

func TestCreate_LosingRaceReturnsWinner(t *testing.T) {
	fx := newFixture(t, false)
	winner := Administration{ID: "winner", RegimenID: "reg-fixed", AnimalID: "animal-1", HouseholdID: "house-1", IdempotencyKey: "key-race", Status: due.StatusOnTime}
	fx.repo.raceOnce = &winner

	got, created, err := fx.svc.Create(context.Background(), "carer-1", CreateInput{
		RegimenID: "reg-fixed", AdministeredAt: base, IdempotencyKey: "key-race",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "winner", got.ID)
	assert.Empty(t, fx.stock.calls)
}

func TestCreate_KeyIsScopedToHousehold(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	mine, created, err := fx.svc.Create(ctx, "carer-1", CreateInput{RegimenID: "reg-fixed", AdministeredAt: base, IdempotencyKey: "shared"})
	require.NoError(t, err)
	require.True(t, created)

	// Misma key desde otro hogar: registro propio, nunca el del vecino.
	theirs, created, err := fx.svc.Create(ctx, "carer-9", CreateInput{RegimenID: "reg-neighbor", IdempotencyKey: "shared"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, mine.ID, theirs.ID)
	assert.Equal(t, "house-2", theirs.HouseholdID)
	assert.Equal(t, "carer-9", theirs.CaregiverID)
	assert.Equal(t, 2, fx.repo.writes)
	assert.Zero(t, testutil.ToFloat64(fx.metrics.IdempotentReplays))
}

func TestCreate_KeyReusedForOtherRegimenConflicts(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	_, _, err := fx.svc.Create(ctx, "carer-1", CreateInput{RegimenID: "reg-fixed", AdministeredAt: base, IdempotencyKey: "k"})
	require.NoError(t, err)

	_, created, err := fx.svc.Create(ctx, "carer-1", CreateInput{RegimenID: "reg-interval", AdministeredAt: base, IdempotencyKey: "k"})
	assert.ErrorIs(t, err, ErrKeyConflict)
	assert.False(t, created)
	assert.Equal(t, 1, fx.repo.writes)
}

func TestCreate_Validation(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	_, _, err := fx.svc.Create(ctx, "carer-1", CreateInput{RegimenID: "reg-fixed"})
	assert.ErrorIs(t, err, ErrInvalidInput, "missing key")

	_, _, err = fx.svc.Create(ctx, "carer-1", CreateInput{RegimenID: "nope", IdempotencyKey: "k"})
	assert.ErrorIs(t, err, regimens.ErrNotFound)

	_, _, err = fx.svc.Create(ctx, "carer-1", CreateInput{RegimenID: "reg-fixed", AnimalID: "other", IdempotencyKey: "k"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = fx.svc.Create(ctx, "carer-1", CreateInput{RegimenID: "reg-off", IdempotencyKey: "k"})
	assert.ErrorIs(t, err, ErrBadState)
}

func TestCreate_ClientStatusPolicy(t *testing.T) {
	veryLate := due.StatusVeryLate

	t.Run("re-derived by default", func(t *testing.T) {
		fx := newFixture(t, false)
		a, _, err := fx.svc.Create(context.Background(), "carer-1", CreateInput{
			RegimenID: "reg-fixed", AdministeredAt: base.Add(10 * time.Minute), IdempotencyKey: "k", ClientStatus: &veryLate,
		})
		require.NoError(t, err)
		assert.Equal(t, due.StatusOnTime, a.Status)
		assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.ClientStatusMismatches))
	})

	t.Run("trusted when configured", func(t *testing.T) {
		fx := newFixture(t, true)
		a, _, err := fx.svc.Create(context.Background(), "carer-1", CreateInput{
			RegimenID: "reg-fixed", AdministeredAt: base.Add(10 * time.Minute), IdempotencyKey: "k", ClientStatus: &veryLate,
		})
		require.NoError(t, err)
		assert.Equal(t, due.StatusVeryLate, a.Status)
		assert.Nil(t, a.ScheduledFor)
	})
}

func TestCreate_IntervalUsesPreviousDose(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	first, _, err := fx.svc.Create(ctx, "carer-1", CreateInput{RegimenID: "reg-interval", AdministeredAt: base, IdempotencyKey: "i-1"})
	require.NoError(t, err)
	assert.Equal(t, due.StatusOnTime, first.Status)
	assert.Nil(t, first.ScheduledFor)

	second, _, err := fx.svc.Create(ctx, "carer-1", CreateInput{
		RegimenID: "reg-interval", AdministeredAt: base.Add(8*time.Hour + 90*time.Minute), IdempotencyKey: "i-2",
	})
	require.NoError(t, err)
	assert.Equal(t, due.StatusLate, second.Status)
	require.NotNil(t, second.ScheduledFor)
	assert.Equal(t, base.Add(8*time.Hour), *second.ScheduledFor)
}

func TestCosign(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	a, _, err := fx.svc.Create(ctx, "carer-1", CreateInput{RegimenID: "reg-risk", IdempotencyKey: "risk-1"})
	require.NoError(t, err)
	assert.Equal(t, CosignPending, a.CosignStatus)
	assert.Equal(t, due.StatusPRN, a.Status)

	_, err = fx.svc.Cosign(ctx, a.ID, "carer-1")
	assert.ErrorIs(t, err, ErrForbidden, "recorder cannot cosign")

	signed, err := fx.svc.Cosign(ctx, a.ID, "carer-2")
	require.NoError(t, err)
	assert.Equal(t, CosignCompleted, signed.CosignStatus)
	assert.Equal(t, "carer-2", signed.CosignedBy)

	again, err := fx.svc.Cosign(ctx, a.ID, "carer-2")
	require.NoError(t, err)
	assert.Equal(t, signed.CosignedAt, again.CosignedAt)

	_, err = fx.svc.Cosign(ctx, a.ID, "carer-3")
	assert.ErrorIs(t, err, ErrBadState)

	plain, _, err := fx.svc.Create(ctx, "carer-1", CreateInput{RegimenID: "reg-fixed", AdministeredAt: base, IdempotencyKey: "plain"})
	require.NoError(t, err)
	_, err = fx.svc.Cosign(ctx, plain.ID, "carer-2")
	assert.ErrorIs(t, err, ErrBadState, "cosign not required")
}

func TestVoid_Idempotent(t *testing.T) {
	fx := newFixture(t, false)
	ctx := context.Background()

	a, _, err := fx.svc.Create(ctx, "carer-1", CreateInput{RegimenID: "reg-risk", IdempotencyKey: "v-1"})
	require.NoError(t, err)

	v1, err := fx.svc.Void(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, v1.Voided)
	v2, err := fx.svc.Void(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.VoidedAt, v2.VoidedAt)

	_, err = fx.svc.Cosign(ctx, a.ID, "carer-2")
	assert.ErrorIs(t, err, ErrBadState, "voided records cannot be cosigned")

	list, err := fx.svc.ListByAnimal(ctx, "animal-1", ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}
