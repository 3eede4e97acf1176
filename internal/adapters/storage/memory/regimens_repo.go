package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"vet-med-tracker/internal/domain/regimens"
)

type regimenRepo struct {
	mu   sync.RWMutex
	byID map[string]regimens.Regimen
}

func NewRegimenRepo() regimens.Repository {
	return &regimenRepo{
		byID: make(map[string]regimens.Regimen),
	}
}

func (r *regimenRepo) Create(ctx context.Context, reg regimens.Regimen) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(reg.ID) == "" {
		return errors.New("regimen id required")
	}
	if _, exists := r.byID[reg.ID]; exists {
		return errors.New("regimen already exists")
	}
	r.byID[reg.ID] = cloneRegimen(reg)
	return nil
}

func (r *regimenRepo) Update(ctx context.Context, reg regimens.Regimen) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[reg.ID]; !exists {
		return regimens.ErrNotFound
	}
	r.byID[reg.ID] = cloneRegimen(reg)
	return nil
}

func (r *regimenRepo) GetByID(ctx context.Context, id string) (regimens.Regimen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.byID[id]
	if !ok {
		return regimens.Regimen{}, regimens.ErrNotFound
	}
	return cloneRegimen(reg), nil
}

func (r *regimenRepo) ListByAnimal(ctx context.Context, animalID string) ([]regimens.Regimen, error) {
	return r.list(func(reg regimens.Regimen) bool { return reg.AnimalID == animalID }), nil
}

func (r *regimenRepo) ListActiveByHousehold(ctx context.Context, householdID string) ([]regimens.Regimen, error) {
	return r.list(func(reg regimens.Regimen) bool {
		return reg.HouseholdID == householdID && reg.Active && !reg.Deleted()
	}), nil
}

func (r *regimenRepo) list(match func(regimens.Regimen) bool) []regimens.Regimen {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]regimens.Regimen, 0)
	for _, reg := range r.byID {
		if match(reg) {
			out = append(out, cloneRegimen(reg))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func cloneRegimen(reg regimens.Regimen) regimens.Regimen {
	reg.Schedule.TimesLocal = append([]string(nil), reg.Schedule.TimesLocal...)
	return reg
}
