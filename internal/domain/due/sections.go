package due

import (
	"sort"
	"time"

	"vet-med-tracker/internal/domain/schedule"
)

// Section agrupa regímenes por urgencia.
// @Enum due, upcoming, as_needed, not_applicable
type Section string

const (
	SectionDue           Section = "due"
	SectionUpcoming      Section = "upcoming"
	SectionAsNeeded      Section = "as_needed"
	SectionNotApplicable Section = "not_applicable"
)

func (s Section) rank() int {
	switch s {
	case SectionDue:
		return 0
	case SectionUpcoming:
		return 1
	case SectionAsNeeded:
		return 2
	default:
		return 3
	}
}

// DueInput es la vista mínima de un régimen que necesita el tablero.
type DueInput struct {
	RegimenID string
	AnimalID  string

	Schedule schedule.Schedule
	Timezone string

	StartDate time.Time
	EndDate   *time.Time
	Active    bool
	Deleted   bool

	// LastAdministeredAt: última dosis (pautas INTERVAL).
	LastAdministeredAt *time.Time

	// Covered: scheduledFor de administraciones recientes; esos slots ya no están pendientes.
	Covered []time.Time
}

type DueItem struct {
	RegimenID string
	AnimalID  string
	Section   Section

	// nil para as_needed o pautas malformadas.
	MinutesUntilDue *int
	NextDoseAt      *time.Time
}

// ComputeDueSections es determinista para el mismo now y el mismo conjunto de regímenes.
func ComputeDueSections(items []DueInput, now time.Time, includeUpcoming bool) []DueItem {
	out := make([]DueItem, 0, len(items))

	for _, in := range items {
		if !in.Active || in.Deleted {
			continue
		}
		loc := schedule.LoadLocation(in.Timezone)
		if !coversDate(in, now, loc) {
			continue
		}
		out = append(out, evaluate(in, now, loc, includeUpcoming))
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Section.rank() != b.Section.rank() {
			return a.Section.rank() < b.Section.rank()
		}
		switch {
		case a.MinutesUntilDue != nil && b.MinutesUntilDue != nil:
			if *a.MinutesUntilDue != *b.MinutesUntilDue {
				return *a.MinutesUntilDue < *b.MinutesUntilDue
			}
		case a.MinutesUntilDue != nil:
			return true
		case b.MinutesUntilDue != nil:
			return false
		}
		return a.RegimenID < b.RegimenID
	})

	return out
}

func evaluate(in DueInput, now time.Time, loc *time.Location, includeUpcoming bool) DueItem {
	item := DueItem{
		RegimenID: in.RegimenID,
		AnimalID:  in.AnimalID,
	}

	var next time.Time
	switch in.Schedule.Kind {
	case schedule.KindPRN:
		item.Section = SectionAsNeeded
		return item
	case schedule.KindFixed:
		occ, ok := nextFixedOccurrence(in, now, loc)
		if !ok {
			item.Section = SectionNotApplicable
			return item
		}
		next = occ
	case schedule.KindInterval:
		if in.Schedule.IntervalHours <= 0 {
			item.Section = SectionNotApplicable
			return item
		}
		next = now
		if in.LastAdministeredAt != nil {
			next = in.LastAdministeredAt.Add(in.Schedule.Interval())
		}
	default:
		item.Section = SectionNotApplicable
		return item
	}

	minutes := int(next.Sub(now) / time.Minute)
	item.MinutesUntilDue = &minutes
	item.NextDoseAt = &next

	switch {
	case minutes < OnTimeWindowMinutes && minutes > -LateWindowMinutes:
		item.Section = SectionDue
	case minutes >= OnTimeWindowMinutes && includeUpcoming:
		item.Section = SectionUpcoming
	default:
		item.Section = SectionNotApplicable
	}
	return item
}

// nextFixedOccurrence busca la ocurrencia más temprana todavía accionable
// (posterior a now-180m) que no esté cubierta por una administración.
func nextFixedOccurrence(in DueInput, now time.Time, loc *time.Location) (time.Time, bool) {
	slots, err := in.Schedule.Slots()
	if err != nil {
		return time.Time{}, false
	}

	floor := now.Add(-LateWindowMinutes * time.Minute)
	local := now.In(loc)

	var best time.Time
	found := false
	for offset := -1; offset <= 1; offset++ {
		day := local.AddDate(0, 0, offset)
		for _, m := range slots {
			occ := schedule.At(day, loc, m)
			if !occ.After(floor) {
				continue
			}
			if covered(occ, in.Covered) {
				continue
			}
			if !found || occ.Before(best) {
				best = occ
				found = true
			}
		}
	}
	return best, found
}

func covered(occ time.Time, given []time.Time) bool {
	for _, g := range given {
		d := occ.Sub(g)
		if d < 0 {
			d = -d
		}
		if d < time.Minute {
			return true
		}
	}
	return false
}

// coversDate compara contra la fecha local del animal. StartDate y EndDate son fechas
// de calendario (medianoche UTC) e inclusivas.
func coversDate(in DueInput, now time.Time, loc *time.Location) bool {
	today := now.In(loc).Format("2006-01-02")
	if !in.StartDate.IsZero() && in.StartDate.UTC().Format("2006-01-02") > today {
		return false
	}
	if in.EndDate != nil && in.EndDate.UTC().Format("2006-01-02") < today {
		return false
	}
	return true
}
