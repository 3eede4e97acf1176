package regimens

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-med-tracker/internal/domain/due"
	"vet-med-tracker/internal/domain/schedule"
)

type fakeRepo struct {
	byID map[string]Regimen
}

func newFakeRepo() *fakeRepo { return &fakeRepo{byID: map[string]Regimen{}} }

func (f *fakeRepo) Create(_ context.Context, r Regimen) error { f.byID[r.ID] = r; return nil }
func (f *fakeRepo) Update(_ context.Context, r Regimen) error {
	if _, ok := f.byID[r.ID]; !ok {
		return ErrNotFound
	}
	f.byID[r.ID] = r
	return nil
}
func (f *fakeRepo) GetByID(_ context.Context, id string) (Regimen, error) {
	r, ok := f.byID[id]
	if !ok {
		return Regimen{}, ErrNotFound
	}
	return r, nil
}
func (f *fakeRepo) ListByAnimal(_ context.Context, animalID string) ([]Regimen, error) {
	var out []Regimen
	for _, r := range f.byID {
		if r.AnimalID == animalID {
			out = append(out, r)
		}
	}
	return out, nil
}
func (f *fakeRepo) ListActiveByHousehold(_ context.Context, h string) ([]Regimen, error) {
	var out []Regimen
	for _, r := range f.byID {
		if r.HouseholdID == h && r.Active && !r.Deleted() {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	svc := NewService(repo)
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, repo
}

func TestCreate_ValidatesSchedule(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := map[string]schedule.Schedule{
		"fixed without times": {Kind: schedule.KindFixed},
		"fixed bad time":      {Kind: schedule.KindFixed, TimesLocal: []string{"25:00"}},
		"interval zero hours": {Kind: schedule.KindInterval},
		"unknown kind":        {Kind: "WEEKLY"},
	}
	for name, sc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, CreateInput{AnimalID: "a-1", MedicationName: "Meloxicam", Schedule: sc})
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreate_Defaults(t *testing.T) {
	svc, _ := newTestService()

	r, err := svc.Create(context.Background(), CreateInput{
		AnimalID:       "a-1",
		HouseholdID:    "h-1",
		MedicationName: "Fenobarbital",
		Schedule:       schedule.Schedule{Kind: schedule.KindFixed, TimesLocal: []string{" 08:00", "20:00 "}},
		HighRisk:       true,
	})
	require.NoError(t, err)

	assert.True(t, r.Active)
	assert.True(t, r.RequiresCosign, "high risk implies cosign")
	assert.Equal(t, due.DefaultCutoffMinutes, r.CutoffMinutes)
	assert.Equal(t, RouteOral, r.Route)
	assert.Equal(t, []string{"08:00", "20:00"}, r.Schedule.TimesLocal)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), r.StartDate)
}

func TestCreate_EndBeforeStartRejected(t *testing.T) {
	svc, _ := newTestService()
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	_, err := svc.Create(context.Background(), CreateInput{
		AnimalID: "a-1", MedicationName: "X",
		Schedule:  schedule.Schedule{Kind: schedule.KindPRN},
		StartDate: &start, EndDate: &end,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdate_HighRiskKeepsCosign(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	r, err := svc.Create(ctx, CreateInput{
		AnimalID: "a-1", MedicationName: "Insulina",
		Schedule: schedule.Schedule{Kind: schedule.KindInterval, IntervalHours: 12},
		HighRisk: true,
	})
	require.NoError(t, err)

	off := false
	updated, err := svc.Update(ctx, r.ID, UpdateInput{RequiresCosign: &off})
	require.NoError(t, err)
	assert.True(t, updated.RequiresCosign)

	updated, err = svc.Update(ctx, r.ID, UpdateInput{HighRisk: &off, RequiresCosign: &off})
	require.NoError(t, err)
	assert.False(t, updated.RequiresCosign)

	bad := schedule.Schedule{Kind: schedule.KindInterval}
	_, err = svc.Update(ctx, r.ID, UpdateInput{Schedule: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeactivate_SoftDeletes(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	r, err := svc.Create(ctx, CreateInput{
		AnimalID: "a-1", HouseholdID: "h-1", MedicationName: "Omeprazol",
		Schedule: schedule.Schedule{Kind: schedule.KindFixed, TimesLocal: []string{"07:00"}},
	})
	require.NoError(t, err)

	d, err := svc.Deactivate(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, d.Active)
	assert.NotNil(t, d.DeletedAt)
	assert.Contains(t, repo.byID, r.ID, "history is kept")

	active, err := svc.ListActiveByHousehold(ctx, "h-1")
	require.NoError(t, err)
	assert.Empty(t, active)

	in := d.DueInput("UTC")
	assert.True(t, in.Deleted)
	assert.False(t, in.Active)

	_, err = svc.Update(ctx, r.ID, UpdateInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}
