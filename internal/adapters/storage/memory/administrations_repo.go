package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"

	"vet-med-tracker/internal/domain/administrations"
)

type administrationRepo struct {
	mu    sync.RWMutex
	byID  map[string]administrations.Administration
	byKey map[string]string // household|key -> id
}

func NewAdministrationRepo() administrations.Repository {
	return &administrationRepo{
		byID:  make(map[string]administrations.Administration),
		byKey: make(map[string]string),
	}
}

func (r *administrationRepo) Create(ctx context.Context, a administrations.Administration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("administration id required")
	}
	if _, exists := r.byKey[householdKey(a.HouseholdID, a.IdempotencyKey)]; exists {
		return administrations.ErrDuplicate
	}
	if _, exists := r.byID[a.ID]; exists {
		return errors.New("administration already exists")
	}
	r.byID[a.ID] = a
	r.byKey[householdKey(a.HouseholdID, a.IdempotencyKey)] = a.ID
	return nil
}

func (r *administrationRepo) Update(ctx context.Context, a administrations.Administration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[a.ID]; !exists {
		return administrations.ErrNotFound
	}
	r.byID[a.ID] = a
	return nil
}

func (r *administrationRepo) GetByID(ctx context.Context, id string) (administrations.Administration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return administrations.Administration{}, administrations.ErrNotFound
	}
	return a, nil
}

func (r *administrationRepo) GetByIdempotencyKey(ctx context.Context, householdID, key string) (administrations.Administration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[householdKey(householdID, key)]
	if !ok {
		return administrations.Administration{}, administrations.ErrNotFound
	}
	return r.byID[id], nil
}

func householdKey(householdID, key string) string {
	return householdID + "|" + key
}

func (r *administrationRepo) ListByAnimal(ctx context.Context, animalID string, filter administrations.ListFilter) ([]administrations.Administration, error) {
	return r.list(func(a administrations.Administration) bool { return a.AnimalID == animalID }, filter), nil
}

func (r *administrationRepo) ListByHousehold(ctx context.Context, householdID string, filter administrations.ListFilter) ([]administrations.Administration, error) {
	return r.list(func(a administrations.Administration) bool { return a.HouseholdID == householdID }, filter), nil
}

func (r *administrationRepo) list(match func(administrations.Administration) bool, f administrations.ListFilter) []administrations.Administration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]administrations.Administration, 0)
	for _, a := range r.byID {
		if !match(a) {
			continue
		}
		if a.Voided && !f.IncludeVoided {
			continue
		}
		if len(f.RegimenIDs) > 0 && !slices.Contains(f.RegimenIDs, a.RegimenID) {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status) {
			continue
		}
		if f.From != nil && a.AdministeredAt.Before(*f.From) {
			continue
		}
		if f.To != nil && a.AdministeredAt.After(*f.To) {
			continue
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].AdministeredAt.Equal(out[j].AdministeredAt) {
			return out[i].AdministeredAt.After(out[j].AdministeredAt)
		}
		return out[i].ID > out[j].ID
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}
