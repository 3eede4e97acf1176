package schedule

import (
	"errors"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zonas IANA embebidas; el contenedor puede no traer tzdata
)

var (
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
	ErrInvalidSchedule  = errors.New("invalid schedule")
)

// Kind define el tipo de pauta de un régimen.
// @Enum FIXED, INTERVAL, PRN
type Kind string

const (
	KindFixed    Kind = "FIXED"
	KindInterval Kind = "INTERVAL"
	KindPRN      Kind = "PRN"
)

// Schedule describe cuándo toca cada dosis.
// TimesLocal son horas "HH:MM" locales a la zona horaria del animal.
type Schedule struct {
	Kind          Kind
	TimesLocal    []string
	IntervalHours int
}

const minutesPerDay = 24 * 60

// ParseTimeOfDay convierte "HH:MM" en minutos desde medianoche.
func ParseTimeOfDay(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return 0, ErrInvalidTimeOfDay
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, ErrInvalidTimeOfDay
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, ErrInvalidTimeOfDay
	}
	return h*60 + m, nil
}

// FormatTimeOfDay es la inversa de ParseTimeOfDay.
func FormatTimeOfDay(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	h := minutes / 60
	m := minutes % 60
	return pad2(h) + ":" + pad2(m)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// MinutesOfDay devuelve los minutos desde medianoche de t en loc.
func MinutesOfDay(t time.Time, loc *time.Location) int {
	lt := t.In(loc)
	return lt.Hour()*60 + lt.Minute()
}

// At devuelve el instante absoluto de "minutes" en el día local de t.
func At(t time.Time, loc *time.Location, minutes int) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), minutes/60, minutes%60, 0, 0, loc)
}

// LoadLocation resuelve la zona horaria del animal.
// Zonas vacías o desconocidas caen a UTC: el cálculo de estado no debe fallar por esto.
func LoadLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ValidLocation indica si el nombre de zona existe (para validar entradas de usuario).
func ValidLocation(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// Slots parsea TimesLocal. Devuelve error si alguna hora es inválida o la lista está vacía.
func (s Schedule) Slots() ([]int, error) {
	if len(s.TimesLocal) == 0 {
		return nil, ErrInvalidSchedule
	}
	out := make([]int, 0, len(s.TimesLocal))
	for _, raw := range s.TimesLocal {
		m, err := ParseTimeOfDay(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Validate valida la pauta al crear o editar un régimen.
func (s Schedule) Validate() error {
	switch s.Kind {
	case KindFixed:
		_, err := s.Slots()
		return err
	case KindInterval:
		if s.IntervalHours <= 0 {
			return ErrInvalidSchedule
		}
		return nil
	case KindPRN:
		return nil
	default:
		return ErrInvalidSchedule
	}
}

// Interval devuelve la duración entre dosis para pautas INTERVAL.
func (s Schedule) Interval() time.Duration {
	return time.Duration(s.IntervalHours) * time.Hour
}
