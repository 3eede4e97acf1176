package due

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-med-tracker/internal/domain/schedule"
)

func fixed(times ...string) schedule.Schedule {
	return schedule.Schedule{Kind: schedule.KindFixed, TimesLocal: times}
}

func at(h, m int) time.Time {
	return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC)
}

func TestClassify_Monotonicity(t *testing.T) {
	cases := []struct {
		name       string
		at         time.Time
		want       Status
		pastCutoff bool
	}{
		{"30 early", at(7, 30), StatusOnTime, false},
		{"30 late", at(8, 30), StatusOnTime, false},
		{"exactly 60", at(9, 0), StatusOnTime, false},
		{"90 late", at(9, 30), StatusLate, false},
		{"exactly 180", at(11, 0), StatusLate, false},
		{"200 late", at(11, 20), StatusVeryLate, false},
		{"300 late", at(13, 0), StatusVeryLate, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Classify(ClassifyInput{
				AdministeredAt: tc.at,
				Schedule:       fixed("08:00"),
				CutoffMinutes:  240,
				Timezone:       "UTC",
			})
			assert.Equal(t, tc.want, res.Status)
			assert.Equal(t, tc.pastCutoff, res.PastCutoff)
			require.NotNil(t, res.ScheduledFor)
			assert.True(t, res.ScheduledFor.Equal(at(8, 0)))
		})
	}
}

func TestClassify_MatchesNearestSlot(t *testing.T) {
	res := Classify(ClassifyInput{
		AdministeredAt: at(19, 10),
		Schedule:       fixed("08:00", "20:00"),
		CutoffMinutes:  240,
		Timezone:       "UTC",
	})
	assert.Equal(t, StatusOnTime, res.Status)
	require.NotNil(t, res.ScheduledFor)
	assert.True(t, res.ScheduledFor.Equal(at(20, 0)))
}

func TestClassify_TieBreakPrefersEarlierTime(t *testing.T) {
	// 14:00 está a 6h de ambos slots; el orden configurado no importa.
	for _, times := range [][]string{{"20:00", "08:00"}, {"08:00", "20:00"}} {
		res := Classify(ClassifyInput{
			AdministeredAt: at(14, 0),
			Schedule:       fixed(times...),
			Timezone:       "UTC",
		})
		require.NotNil(t, res.ScheduledFor)
		assert.True(t, res.ScheduledFor.Equal(at(8, 0)), "times=%v", times)
		assert.Equal(t, StatusVeryLate, res.Status)
	}
}

func TestClassify_UsesAnimalTimezone(t *testing.T) {
	// 12:05Z = 08:05 en Nueva York (EDT desde el 9 de marzo de 2025).
	res := Classify(ClassifyInput{
		AdministeredAt: time.Date(2025, 3, 10, 12, 5, 0, 0, time.UTC),
		Schedule:       fixed("08:00", "20:00"),
		Timezone:       "America/New_York",
	})
	assert.Equal(t, StatusOnTime, res.Status)
	require.NotNil(t, res.ScheduledFor)
	assert.True(t, res.ScheduledFor.Equal(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)))
}

func TestClassify_PRNBypass(t *testing.T) {
	override := StatusLate
	for _, ts := range []time.Time{at(0, 0), at(13, 37), at(23, 59)} {
		res := Classify(ClassifyInput{
			AdministeredAt: ts,
			Schedule:       schedule.Schedule{Kind: schedule.KindPRN},
			Override:       &override,
		})
		assert.Equal(t, StatusPRN, res.Status)
		assert.Nil(t, res.ScheduledFor)
	}
}

func TestClassify_OverrideWins(t *testing.T) {
	override := StatusLate
	res := Classify(ClassifyInput{
		AdministeredAt: at(8, 0),
		Schedule:       fixed("08:00"),
		Override:       &override,
	})
	assert.Equal(t, StatusLate, res.Status)
	assert.Nil(t, res.ScheduledFor)

	bogus := Status("BOGUS")
	res = Classify(ClassifyInput{
		AdministeredAt: at(8, 0),
		Schedule:       fixed("08:00"),
		Override:       &bogus,
	})
	assert.Equal(t, StatusOnTime, res.Status)
	assert.NotNil(t, res.ScheduledFor)
}

func TestClassify_MalformedScheduleFallsBack(t *testing.T) {
	for _, s := range []schedule.Schedule{
		fixed("8am"),
		fixed(),
		{Kind: "WEEKLY"},
		{Kind: schedule.KindInterval},
	} {
		res := Classify(ClassifyInput{AdministeredAt: at(9, 0), Schedule: s, Timezone: "Nowhere/Land"})
		assert.Equal(t, StatusOnTime, res.Status)
		assert.Nil(t, res.ScheduledFor)
	}
}

func TestClassify_Interval(t *testing.T) {
	prev := at(0, 0)
	res := Classify(ClassifyInput{
		AdministeredAt: at(13, 30),
		Schedule:       schedule.Schedule{Kind: schedule.KindInterval, IntervalHours: 12},
		PreviousAt:     &prev,
	})
	assert.Equal(t, StatusLate, res.Status)
	require.NotNil(t, res.ScheduledFor)
	assert.True(t, res.ScheduledFor.Equal(at(12, 0)))

	res = Classify(ClassifyInput{
		AdministeredAt: at(13, 30),
		Schedule:       schedule.Schedule{Kind: schedule.KindInterval, IntervalHours: 12},
	})
	assert.Equal(t, StatusOnTime, res.Status)
	assert.Nil(t, res.ScheduledFor)
}
