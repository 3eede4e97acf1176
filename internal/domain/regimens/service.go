package regimens

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"vet-med-tracker/internal/domain/due"
	"vet-med-tracker/internal/domain/schedule"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("regimen not found")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	AnimalID    string
	HouseholdID string

	MedicationName string
	Dose           string
	DoseUnit       string
	Route          Route

	Schedule      schedule.Schedule
	CutoffMinutes int

	HighRisk       bool
	RequiresCosign bool

	InventoryItemID string
	DoseQuantity    float64

	StartDate *time.Time
	EndDate   *time.Time

	Notes string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Regimen, error) {
	if strings.TrimSpace(in.AnimalID) == "" || strings.TrimSpace(in.MedicationName) == "" {
		return Regimen{}, ErrInvalidInput
	}
	if err := in.Schedule.Validate(); err != nil {
		return Regimen{}, ErrInvalidInput
	}
	if in.CutoffMinutes < 0 || in.DoseQuantity < 0 {
		return Regimen{}, ErrInvalidInput
	}

	now := s.now()

	start := calendarDate(now)
	if in.StartDate != nil {
		start = calendarDate(*in.StartDate)
	}
	var end *time.Time
	if in.EndDate != nil {
		e := calendarDate(*in.EndDate)
		if e.Before(start) {
			return Regimen{}, ErrInvalidInput
		}
		end = &e
	}

	cutoff := in.CutoffMinutes
	if cutoff == 0 {
		cutoff = due.DefaultCutoffMinutes
	}

	route := in.Route
	if route == "" {
		route = RouteOral
	}

	r := Regimen{
		ID:              uuid.NewString(),
		AnimalID:        strings.TrimSpace(in.AnimalID),
		HouseholdID:     strings.TrimSpace(in.HouseholdID),
		MedicationName:  strings.TrimSpace(in.MedicationName),
		Dose:            strings.TrimSpace(in.Dose),
		DoseUnit:        strings.TrimSpace(in.DoseUnit),
		Route:           route,
		Schedule:        normalizeSchedule(in.Schedule),
		CutoffMinutes:   cutoff,
		HighRisk:        in.HighRisk,
		RequiresCosign:  in.RequiresCosign || in.HighRisk,
		InventoryItemID: strings.TrimSpace(in.InventoryItemID),
		DoseQuantity:    in.DoseQuantity,
		StartDate:       start,
		EndDate:         end,
		Active:          true,
		Notes:           strings.TrimSpace(in.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return Regimen{}, err
	}
	return r, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Regimen, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Regimen{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByAnimal(ctx context.Context, animalID string) ([]Regimen, error) {
	return s.repo.ListByAnimal(ctx, strings.TrimSpace(animalID))
}

func (s *Service) ListActiveByHousehold(ctx context.Context, householdID string) ([]Regimen, error) {
	householdID = strings.TrimSpace(householdID)
	if householdID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListActiveByHousehold(ctx, householdID)
}

// PatchDate distingue "no enviado" de "null".
type PatchDate struct {
	Present bool
	Value   *time.Time
}

type UpdateInput struct {
	MedicationName *string
	Dose           *string
	DoseUnit       *string
	Route          *Route

	Schedule      *schedule.Schedule
	CutoffMinutes *int

	HighRisk       *bool
	RequiresCosign *bool

	InventoryItemID *string
	DoseQuantity    *float64

	EndDate PatchDate
	Active  *bool
	Notes   *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Regimen, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return Regimen{}, err
	}
	if r.Deleted() {
		return Regimen{}, ErrNotFound
	}

	if in.MedicationName != nil {
		name := strings.TrimSpace(*in.MedicationName)
		if name == "" {
			return Regimen{}, ErrInvalidInput
		}
		r.MedicationName = name
	}
	if in.Dose != nil {
		r.Dose = strings.TrimSpace(*in.Dose)
	}
	if in.DoseUnit != nil {
		r.DoseUnit = strings.TrimSpace(*in.DoseUnit)
	}
	if in.Route != nil {
		r.Route = *in.Route
	}
	if in.Schedule != nil {
		if err := in.Schedule.Validate(); err != nil {
			return Regimen{}, ErrInvalidInput
		}
		r.Schedule = normalizeSchedule(*in.Schedule)
	}
	if in.CutoffMinutes != nil {
		if *in.CutoffMinutes <= 0 {
			return Regimen{}, ErrInvalidInput
		}
		r.CutoffMinutes = *in.CutoffMinutes
	}
	if in.HighRisk != nil {
		r.HighRisk = *in.HighRisk
	}
	if in.RequiresCosign != nil {
		r.RequiresCosign = *in.RequiresCosign
	}
	// Alto riesgo siempre exige co-firma.
	r.RequiresCosign = r.RequiresCosign || r.HighRisk

	if in.InventoryItemID != nil {
		r.InventoryItemID = strings.TrimSpace(*in.InventoryItemID)
	}
	if in.DoseQuantity != nil {
		if *in.DoseQuantity < 0 {
			return Regimen{}, ErrInvalidInput
		}
		r.DoseQuantity = *in.DoseQuantity
	}
	if in.EndDate.Present {
		r.EndDate = nil
		if in.EndDate.Value != nil {
			e := calendarDate(*in.EndDate.Value)
			if e.Before(r.StartDate) {
				return Regimen{}, ErrInvalidInput
			}
			r.EndDate = &e
		}
	}
	if in.Active != nil {
		r.Active = *in.Active
	}
	if in.Notes != nil {
		r.Notes = strings.TrimSpace(*in.Notes)
	}

	r.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, r); err != nil {
		return Regimen{}, err
	}
	return r, nil
}

// Deactivate es un borrado lógico: la pauta deja de listarse pero su historial queda.
func (s *Service) Deactivate(ctx context.Context, id string) (Regimen, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return Regimen{}, err
	}
	if r.Deleted() {
		return r, nil
	}

	now := s.now()
	r.Active = false
	r.DeletedAt = &now
	r.UpdatedAt = now

	if err := s.repo.Update(ctx, r); err != nil {
		return Regimen{}, err
	}
	return r, nil
}

// DueInput adapta la pauta al tablero de pendientes.
func (r Regimen) DueInput(timezone string) due.DueInput {
	return due.DueInput{
		RegimenID: r.ID,
		AnimalID:  r.AnimalID,
		Schedule:  r.Schedule,
		Timezone:  timezone,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Active:    r.Active,
		Deleted:   r.Deleted(),
	}
}

func normalizeSchedule(in schedule.Schedule) schedule.Schedule {
	out := schedule.Schedule{Kind: in.Kind}
	switch in.Kind {
	case schedule.KindFixed:
		out.TimesLocal = make([]string, 0, len(in.TimesLocal))
		for _, t := range in.TimesLocal {
			out.TimesLocal = append(out.TimesLocal, strings.TrimSpace(t))
		}
	case schedule.KindInterval:
		out.IntervalHours = in.IntervalHours
	}
	return out
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
