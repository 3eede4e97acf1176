package due

import (
	"time"

	"vet-med-tracker/internal/domain/schedule"
)

// Status es la clasificación de puntualidad de una administración.
// @Enum ON_TIME, LATE, VERY_LATE, MISSED, PRN
type Status string

const (
	StatusOnTime   Status = "ON_TIME"
	StatusLate     Status = "LATE"
	StatusVeryLate Status = "VERY_LATE"
	StatusMissed   Status = "MISSED"
	StatusPRN      Status = "PRN"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOnTime, StatusLate, StatusVeryLate, StatusMissed, StatusPRN:
		return true
	default:
		return false
	}
}

const (
	OnTimeWindowMinutes  = 60
	LateWindowMinutes    = 180
	DefaultCutoffMinutes = 240
)

type ClassifyInput struct {
	AdministeredAt time.Time
	Schedule       schedule.Schedule
	CutoffMinutes  int
	Timezone       string

	// Override: estado calculado por el cliente (p.ej. replay offline).
	// Si es válido reemplaza el cálculo y ScheduledFor queda nil.
	Override *Status

	// PreviousAt: última dosis registrada (solo pautas INTERVAL).
	PreviousAt *time.Time
}

type Result struct {
	Status       Status
	ScheduledFor *time.Time

	// PastCutoff indica que la dosis superó cutoffMinutes respecto del slot.
	// El motor no produce MISSED; eso lo decide otro proceso.
	PastCutoff bool
}

// Classify es puro: no hace I/O y nunca entra en pánico con datos malformados.
func Classify(in ClassifyInput) Result {
	if in.Schedule.Kind == schedule.KindPRN {
		return Result{Status: StatusPRN}
	}

	if in.Override != nil && in.Override.Valid() {
		return Result{Status: *in.Override}
	}

	cutoff := in.CutoffMinutes
	if cutoff <= 0 {
		cutoff = DefaultCutoffMinutes
	}

	switch in.Schedule.Kind {
	case schedule.KindFixed:
		return classifyFixed(in, cutoff)
	case schedule.KindInterval:
		return classifyInterval(in, cutoff)
	default:
		return Result{Status: StatusOnTime}
	}
}

func classifyFixed(in ClassifyInput, cutoff int) Result {
	slots, err := in.Schedule.Slots()
	if err != nil {
		// Lectura de listados: preferimos disponibilidad a precisión.
		return Result{Status: StatusOnTime}
	}

	loc := schedule.LoadLocation(in.Timezone)
	adminMinutes := schedule.MinutesOfDay(in.AdministeredAt, loc)

	matched := matchSlot(adminMinutes, slots)
	diff := adminMinutes - matched

	scheduledFor := schedule.At(in.AdministeredAt, loc, matched)
	return Result{
		Status:       statusForDiff(diff),
		ScheduledFor: &scheduledFor,
		PastCutoff:   diff > cutoff,
	}
}

func classifyInterval(in ClassifyInput, cutoff int) Result {
	if in.PreviousAt == nil || in.Schedule.IntervalHours <= 0 {
		return Result{Status: StatusOnTime}
	}

	scheduledFor := in.PreviousAt.Add(in.Schedule.Interval())
	diff := int(in.AdministeredAt.Sub(scheduledFor) / time.Minute)

	return Result{
		Status:       statusForDiff(diff),
		ScheduledFor: &scheduledFor,
		PastCutoff:   diff > cutoff,
	}
}

// matchSlot elige el slot más cercano por diferencia absoluta.
// En empate gana la hora más temprana del día, sin importar el orden configurado.
func matchSlot(adminMinutes int, slots []int) int {
	best := slots[0]
	bestDist := abs(adminMinutes - best)
	for _, s := range slots[1:] {
		d := abs(adminMinutes - s)
		if d < bestDist || (d == bestDist && s < best) {
			best = s
			bestDist = d
		}
	}
	return best
}

func statusForDiff(diff int) Status {
	switch {
	case diff <= OnTimeWindowMinutes:
		return StatusOnTime
	case diff <= LateWindowMinutes:
		return StatusLate
	default:
		return StatusVeryLate
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
