package animals

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"vet-med-tracker/internal/domain/schedule"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("animal not found")
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
	HouseholdID string
	Name        string
	Species     Species
	Breed       string
	Sex         Sex
	BirthDate   *time.Time
	Timezone    string
	Notes       string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Animal, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" || strings.TrimSpace(in.Name) == "" {
		return Animal{}, ErrInvalidInput
	}

	species := Species(strings.ToLower(strings.TrimSpace(string(in.Species))))
	if !species.Valid() {
		return Animal{}, ErrInvalidInput
	}

	sex := in.Sex
	if sex == "" {
		sex = SexUnknown
	}

	tz := strings.TrimSpace(in.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	if !schedule.ValidLocation(tz) {
		return Animal{}, ErrInvalidInput
	}

	household := strings.TrimSpace(in.HouseholdID)
	if household == "" {
		household = ownerUserID
	}

	now := s.now()
	a := Animal{
		ID:          uuid.NewString(),
		HouseholdID: household,
		OwnerUserID: ownerUserID,
		Name:        strings.TrimSpace(in.Name),
		Species:     species,
		Breed:       strings.TrimSpace(in.Breed),
		Sex:         sex,
		BirthDate:   in.BirthDate,
		Timezone:    tz,
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Animal{}, err
	}
	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Animal{}, ErrInvalidInput
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Animal{}, err
	}
	return a, nil
}

func (s *Service) ListByHousehold(ctx context.Context, householdID string) ([]Animal, error) {
	householdID = strings.TrimSpace(householdID)
	if householdID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByHousehold(ctx, householdID)
}

// PatchDate permite distinguir "no enviado" de "null" (limpiar).
type PatchDate struct {
	Present bool
	Value   *time.Time
}

type UpdateProfileInput struct {
	Name      *string
	Species   *Species
	Breed     *string
	Sex       *Sex
	BirthDate PatchDate
	Timezone  *string
	Notes     *string
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (Animal, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return Animal{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Animal{}, ErrInvalidInput
		}
		a.Name = name
	}
	if in.Species != nil {
		sp := Species(strings.ToLower(strings.TrimSpace(string(*in.Species))))
		if !sp.Valid() {
			return Animal{}, ErrInvalidInput
		}
		a.Species = sp
	}
	if in.Breed != nil {
		a.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Sex != nil {
		a.Sex = *in.Sex
	}
	if in.BirthDate.Present {
		a.BirthDate = in.BirthDate.Value
	}
	if in.Timezone != nil {
		tz := strings.TrimSpace(*in.Timezone)
		if !schedule.ValidLocation(tz) {
			return Animal{}, ErrInvalidInput
		}
		a.Timezone = tz
	}
	if in.Notes != nil {
		a.Notes = strings.TrimSpace(*in.Notes)
	}

	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return Animal{}, err
	}
	return a, nil
}
