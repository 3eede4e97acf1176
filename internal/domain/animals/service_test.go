package animals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	byID map[string]Animal
}

func (r *fakeRepo) Create(_ context.Context, a Animal) error { r.byID[a.ID] = a; return nil }
func (r *fakeRepo) Update(_ context.Context, a Animal) error {
	if _, ok := r.byID[a.ID]; !ok {
		return ErrNotFound
	}
	r.byID[a.ID] = a
	return nil
}
func (r *fakeRepo) GetByID(_ context.Context, id string) (Animal, error) {
	a, ok := r.byID[id]
	if !ok {
		return Animal{}, ErrNotFound
	}
	return a, nil
}
func (r *fakeRepo) ListByHousehold(_ context.Context, h string) ([]Animal, error) {
	var out []Animal
	for _, a := range r.byID {
		if a.HouseholdID == h {
			out = append(out, a)
		}
	}
	return out, nil
}

func TestCreate_DefaultsAndValidation(t *testing.T) {
	svc := NewService(&fakeRepo{byID: map[string]Animal{}})
	ctx := context.Background()

	a, err := svc.Create(ctx, "owner-1", CreateInput{Name: " Luna ", Species: "Cat"})
	require.NoError(t, err)
	assert.Equal(t, "Luna", a.Name)
	assert.Equal(t, SpeciesCat, a.Species)
	assert.Equal(t, "UTC", a.Timezone)
	assert.Equal(t, "owner-1", a.HouseholdID, "household falls back to the owner")
	assert.Equal(t, SexUnknown, a.Sex)

	_, err = svc.Create(ctx, "owner-1", CreateInput{Name: "Rex", Species: "dragon"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, "owner-1", CreateInput{Name: "Rex", Species: SpeciesDog, Timezone: "Mars/Olympus"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, "", CreateInput{Name: "Rex", Species: SpeciesDog})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateProfile_PatchSemantics(t *testing.T) {
	svc := NewService(&fakeRepo{byID: map[string]Animal{}})
	ctx := context.Background()

	bd := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	a, err := svc.Create(ctx, "owner-1", CreateInput{
		HouseholdID: "house-1", Name: "Rex", Species: SpeciesDog, BirthDate: &bd, Timezone: "America/New_York",
	})
	require.NoError(t, err)

	later := a.UpdatedAt.Add(time.Hour)
	svc.now = func() time.Time { return later }

	notes := "alergia a pollo"
	updated, err := svc.UpdateProfile(ctx, a.ID, UpdateProfileInput{
		Notes:     &notes,
		BirthDate: PatchDate{Present: true, Value: nil},
	})
	require.NoError(t, err)
	assert.Equal(t, "Rex", updated.Name)
	assert.Equal(t, notes, updated.Notes)
	assert.Nil(t, updated.BirthDate)
	assert.Equal(t, later, updated.UpdatedAt)

	bad := "Nowhere/City"
	_, err = svc.UpdateProfile(ctx, a.ID, UpdateProfileInput{Timezone: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateProfile(ctx, "missing", UpdateProfileInput{Notes: &notes})
	assert.ErrorIs(t, err, ErrNotFound)

	ref, err := svc.Ref(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "house-1", ref.HouseholdID)
	assert.Equal(t, "owner-1", ref.OwnerUserID)
}
