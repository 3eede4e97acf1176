package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"vet-med-tracker/internal/domain/caregivers"
)

type grantRepo struct {
	mu   sync.RWMutex
	byID map[string]caregivers.Grant
}

func NewGrantRepo() caregivers.Repository {
	return &grantRepo{
		byID: make(map[string]caregivers.Grant),
	}
}

func (r *grantRepo) Create(ctx context.Context, g caregivers.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(g.ID) == "" {
		return errors.New("grant id required")
	}
	if _, exists := r.byID[g.ID]; exists {
		return errors.New("grant already exists")
	}
	r.byID[g.ID] = cloneGrant(g)
	return nil
}

func (r *grantRepo) Update(ctx context.Context, g caregivers.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[g.ID]; !exists {
		return caregivers.ErrNotFound
	}
	r.byID[g.ID] = cloneGrant(g)
	return nil
}

func (r *grantRepo) GetByID(ctx context.Context, id string) (caregivers.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byID[id]
	if !ok {
		return caregivers.Grant{}, caregivers.ErrNotFound
	}
	return cloneGrant(g), nil
}

func (r *grantRepo) ListByAnimal(ctx context.Context, animalID string) ([]caregivers.Grant, error) {
	return r.list(func(g caregivers.Grant) bool { return g.AnimalID == animalID }), nil
}

func (r *grantRepo) ListByGrantee(ctx context.Context, granteeUserID string) ([]caregivers.Grant, error) {
	return r.list(func(g caregivers.Grant) bool { return g.GranteeUserID == granteeUserID }), nil
}

func (r *grantRepo) GetActiveGrant(ctx context.Context, animalID, granteeUserID string) (caregivers.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, g := range r.byID {
		if g.AnimalID == animalID && g.GranteeUserID == granteeUserID && g.Status == caregivers.StatusActive {
			return cloneGrant(g), nil
		}
	}
	return caregivers.Grant{}, caregivers.ErrNotFound
}

func (r *grantRepo) list(match func(caregivers.Grant) bool) []caregivers.Grant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]caregivers.Grant, 0)
	for _, g := range r.byID {
		if match(g) {
			out = append(out, cloneGrant(g))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func cloneGrant(g caregivers.Grant) caregivers.Grant {
	g.Scopes = append([]caregivers.Scope(nil), g.Scopes...)
	return g
}
