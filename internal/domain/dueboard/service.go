package dueboard

import (
	"context"
	"time"

	"vet-med-tracker/internal/domain/administrations"
	"vet-med-tracker/internal/domain/animals"
	"vet-med-tracker/internal/domain/due"
	"vet-med-tracker/internal/domain/regimens"
	"vet-med-tracker/internal/domain/schedule"
)

// coveredWindow: administraciones más viejas no pueden cubrir ocurrencias accionables
// (ayer/hoy/mañana).
const coveredWindow = 48 * time.Hour

type AnimalSource interface {
	GetByID(ctx context.Context, id string) (animals.Animal, error)
	ListByHousehold(ctx context.Context, householdID string) ([]animals.Animal, error)
}

type RegimenSource interface {
	ListByAnimal(ctx context.Context, animalID string) ([]regimens.Regimen, error)
	ListActiveByHousehold(ctx context.Context, householdID string) ([]regimens.Regimen, error)
}

type AdministrationSource interface {
	ListByAnimal(ctx context.Context, animalID string, filter administrations.ListFilter) ([]administrations.Administration, error)
	ListByHousehold(ctx context.Context, householdID string, filter administrations.ListFilter) ([]administrations.Administration, error)
}

type Service struct {
	animals  AnimalSource
	regimens RegimenSource
	admins   AdministrationSource
	now      func() time.Time
}

func NewService(a AnimalSource, r RegimenSource, adm AdministrationSource) *Service {
	return &Service{animals: a, regimens: r, admins: adm, now: time.Now}
}

// Entry es un DueItem enriquecido para mostrar.
type Entry struct {
	due.DueItem
	AnimalName     string
	MedicationName string
	Dose           string
	DoseUnit       string
	HighRisk       bool
}

type Board struct {
	GeneratedAt time.Time
	Entries     []Entry
}

func (s *Service) ForAnimal(ctx context.Context, animalID string, includeUpcoming bool) (Board, error) {
	a, err := s.animals.GetByID(ctx, animalID)
	if err != nil {
		return Board{}, err
	}
	regs, err := s.regimens.ListByAnimal(ctx, a.ID)
	if err != nil {
		return Board{}, err
	}

	now := s.now()
	from := now.Add(-coveredWindow)
	recent, err := s.admins.ListByAnimal(ctx, a.ID, administrations.ListFilter{From: &from})
	if err != nil {
		return Board{}, err
	}

	return s.build(ctx, now, map[string]animals.Animal{a.ID: a}, regs, recent, includeUpcoming)
}

func (s *Service) ForHousehold(ctx context.Context, householdID string, includeUpcoming bool) (Board, error) {
	list, err := s.animals.ListByHousehold(ctx, householdID)
	if err != nil {
		return Board{}, err
	}
	byID := make(map[string]animals.Animal, len(list))
	for _, a := range list {
		byID[a.ID] = a
	}

	regs, err := s.regimens.ListActiveByHousehold(ctx, householdID)
	if err != nil {
		return Board{}, err
	}

	now := s.now()
	from := now.Add(-coveredWindow)
	recent, err := s.admins.ListByHousehold(ctx, householdID, administrations.ListFilter{From: &from})
	if err != nil {
		return Board{}, err
	}

	return s.build(ctx, now, byID, regs, recent, includeUpcoming)
}

func (s *Service) build(ctx context.Context, now time.Time, animalsByID map[string]animals.Animal, regs []regimens.Regimen, recent []administrations.Administration, includeUpcoming bool) (Board, error) {
	byRegimen := make(map[string]regimens.Regimen, len(regs))
	for _, r := range regs {
		if _, ok := animalsByID[r.AnimalID]; ok {
			byRegimen[r.ID] = r
		}
	}

	// recent viene ordenado desc: el primero de cada pauta es la última dosis.
	last := map[string]time.Time{}
	covered := map[string][]time.Time{}
	for _, adm := range recent {
		if _, ok := last[adm.RegimenID]; !ok {
			last[adm.RegimenID] = adm.AdministeredAt
		}
		if slot := coveredSlot(adm, byRegimen, animalsByID); slot != nil {
			covered[adm.RegimenID] = append(covered[adm.RegimenID], *slot)
		}
	}

	inputs := make([]due.DueInput, 0, len(regs))
	for _, r := range regs {
		a, ok := animalsByID[r.AnimalID]
		if !ok {
			continue
		}

		in := r.DueInput(a.Timezone)
		in.Covered = covered[r.ID]

		if t, ok := last[r.ID]; ok {
			in.LastAdministeredAt = &t
		} else if r.Schedule.Kind == schedule.KindInterval && r.Active && !r.Deleted() {
			// Intervalos largos: la última dosis puede ser anterior a la ventana.
			older, err := s.admins.ListByAnimal(ctx, r.AnimalID, administrations.ListFilter{
				RegimenIDs: []string{r.ID},
				Limit:      1,
			})
			if err != nil {
				return Board{}, err
			}
			if len(older) > 0 {
				t := older[0].AdministeredAt
				in.LastAdministeredAt = &t
			}
		}
		inputs = append(inputs, in)
	}

	items := due.ComputeDueSections(inputs, now, includeUpcoming)

	board := Board{GeneratedAt: now, Entries: make([]Entry, 0, len(items))}
	for _, it := range items {
		r := byRegimen[it.RegimenID]
		board.Entries = append(board.Entries, Entry{
			DueItem:        it,
			AnimalName:     animalsByID[it.AnimalID].Name,
			MedicationName: r.MedicationName,
			Dose:           r.Dose,
			DoseUnit:       r.DoseUnit,
			HighRisk:       r.HighRisk,
		})
	}
	return board, nil
}

// coveredSlot devuelve la ocurrencia que cubre la dosis. Con estado aceptado del cliente
// ScheduledFor viene vacío; en pautas FIXED se recupera desde el slot más cercano.
func coveredSlot(adm administrations.Administration, regs map[string]regimens.Regimen, animalsByID map[string]animals.Animal) *time.Time {
	if adm.ScheduledFor != nil {
		return adm.ScheduledFor
	}
	r, ok := regs[adm.RegimenID]
	if !ok || r.Schedule.Kind != schedule.KindFixed {
		return nil
	}
	return due.Classify(due.ClassifyInput{
		AdministeredAt: adm.AdministeredAt,
		Schedule:       r.Schedule,
		CutoffMinutes:  r.CutoffMinutes,
		Timezone:       animalsByID[r.AnimalID].Timezone,
	}).ScheduledFor
}
