package compliance

import (
	"context"
	"errors"
	"sort"
	"time"

	"vet-med-tracker/internal/domain/administrations"
	"vet-med-tracker/internal/domain/due"
	"vet-med-tracker/internal/domain/regimens"
)

const DefaultWindow = 30 * 24 * time.Hour

var ErrInvalidRange = errors.New("invalid range")

type RegimenSource interface {
	ListByAnimal(ctx context.Context, animalID string) ([]regimens.Regimen, error)
}

type AdministrationSource interface {
	ListByAnimal(ctx context.Context, animalID string, filter administrations.ListFilter) ([]administrations.Administration, error)
}

type Service struct {
	regimens RegimenSource
	admins   AdministrationSource
	now      func() time.Time
}

func NewService(r RegimenSource, a AdministrationSource) *Service {
	return &Service{regimens: r, admins: a, now: time.Now}
}

type RegimenSummary struct {
	RegimenID      string
	MedicationName string

	Counts map[due.Status]int
	Total  int
	PRN    int

	// OnTimeRate es nil si no hubo dosis programadas en la ventana.
	OnTimeRate *float64
}

type Report struct {
	AnimalID string
	From     time.Time
	To       time.Time
	Regimens []RegimenSummary
}

// ForAnimal resume las administraciones no anuladas en [from, to].
// from y to en cero equivalen a los últimos 30 días.
func (s *Service) ForAnimal(ctx context.Context, animalID string, from, to time.Time) (Report, error) {
	if to.IsZero() {
		to = s.now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-DefaultWindow)
	}
	if !from.Before(to) {
		return Report{}, ErrInvalidRange
	}

	regs, err := s.regimens.ListByAnimal(ctx, animalID)
	if err != nil {
		return Report{}, err
	}
	admins, err := s.admins.ListByAnimal(ctx, animalID, administrations.ListFilter{From: &from, To: &to})
	if err != nil {
		return Report{}, err
	}

	return Report{
		AnimalID: animalID,
		From:     from,
		To:       to,
		Regimens: Summarize(regs, admins),
	}, nil
}

// Summarize agrupa por régimen. Los regímenes sin dosis aparecen igual con conteos en cero.
func Summarize(regs []regimens.Regimen, admins []administrations.Administration) []RegimenSummary {
	byID := make(map[string]*RegimenSummary, len(regs))
	order := make([]string, 0, len(regs))

	get := func(id, name string) *RegimenSummary {
		if s, ok := byID[id]; ok {
			return s
		}
		s := &RegimenSummary{RegimenID: id, MedicationName: name, Counts: map[due.Status]int{}}
		byID[id] = s
		order = append(order, id)
		return s
	}

	for _, r := range regs {
		get(r.ID, r.MedicationName)
	}

	for _, a := range admins {
		if a.Voided {
			continue
		}
		s := get(a.RegimenID, "")
		s.Total++
		if a.Status == due.StatusPRN {
			s.PRN++
			continue
		}
		s.Counts[a.Status]++
	}

	sort.Strings(order)
	out := make([]RegimenSummary, 0, len(order))
	for _, id := range order {
		s := byID[id]
		scheduled := s.Counts[due.StatusOnTime] + s.Counts[due.StatusLate] +
			s.Counts[due.StatusVeryLate] + s.Counts[due.StatusMissed]
		if scheduled > 0 {
			rate := float64(s.Counts[due.StatusOnTime]) / float64(scheduled)
			s.OnTimeRate = &rate
		}
		out = append(out, *s)
	}
	return out
}
