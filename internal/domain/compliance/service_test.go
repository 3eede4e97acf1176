package compliance

import (
	"context"
	"testing"
	"time"

	"vet-med-tracker/internal/domain/administrations"
	"vet-med-tracker/internal/domain/due"
	"vet-med-tracker/internal/domain/regimens"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegimens struct{ list []regimens.Regimen }

func (f fakeRegimens) ListByAnimal(context.Context, string) ([]regimens.Regimen, error) {
	return f.list, nil
}

type fakeAdmins struct {
	list []administrations.Administration
	got  administrations.ListFilter
}

func (f *fakeAdmins) ListByAnimal(_ context.Context, _ string, filter administrations.ListFilter) ([]administrations.Administration, error) {
	f.got = filter
	return f.list, nil
}

func TestSummarize(t *testing.T) {
	regs := []regimens.Regimen{
		{ID: "r-a", MedicationName: "Apoquel"},
		{ID: "r-b", MedicationName: "Gabapentina"},
		{ID: "r-c", MedicationName: "Sin dosis"},
	}
	admins := []administrations.Administration{
		{RegimenID: "r-a", Status: due.StatusOnTime},
		{RegimenID: "r-a", Status: due.StatusOnTime},
		{RegimenID: "r-a", Status: due.StatusOnTime},
		{RegimenID: "r-a", Status: due.StatusLate},
		{RegimenID: "r-a", Status: due.StatusMissed, Voided: true},
		{RegimenID: "r-b", Status: due.StatusPRN},
		{RegimenID: "r-b", Status: due.StatusPRN},
	}

	out := Summarize(regs, admins)
	require.Len(t, out, 3)

	a := out[0]
	assert.Equal(t, "r-a", a.RegimenID)
	assert.Equal(t, 4, a.Total)
	assert.Equal(t, 3, a.Counts[due.StatusOnTime])
	assert.Equal(t, 0, a.Counts[due.StatusMissed])
	require.NotNil(t, a.OnTimeRate)
	assert.InDelta(t, 0.75, *a.OnTimeRate, 1e-9)

	b := out[1]
	assert.Equal(t, 2, b.Total)
	assert.Equal(t, 2, b.PRN)
	assert.Nil(t, b.OnTimeRate)

	c := out[2]
	assert.Equal(t, "Sin dosis", c.MedicationName)
	assert.Zero(t, c.Total)
	assert.Nil(t, c.OnTimeRate)
}

func TestForAnimal_DefaultWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	adm := &fakeAdmins{}
	svc := NewService(fakeRegimens{}, adm)
	svc.now = func() time.Time { return now }

	report, err := svc.ForAnimal(context.Background(), "a-1", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, now, report.To)
	assert.Equal(t, now.Add(-DefaultWindow), report.From)
	require.NotNil(t, adm.got.From)
	assert.Equal(t, report.From, *adm.got.From)
}

func TestForAnimal_InvalidRange(t *testing.T) {
	svc := NewService(fakeRegimens{}, &fakeAdmins{})
	now := time.Now()

	_, err := svc.ForAnimal(context.Background(), "a-1", now, now.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrInvalidRange)
}
