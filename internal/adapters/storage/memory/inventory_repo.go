package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"vet-med-tracker/internal/domain/inventory"
)

type inventoryRepo struct {
	mu   sync.Mutex
	byID map[string]inventory.Item

	// applied: "itemID|key" de ajustes ya aplicados.
	applied map[string]struct{}
}

func NewInventoryRepo() inventory.Repository {
	return &inventoryRepo{
		byID:    make(map[string]inventory.Item),
		applied: make(map[string]struct{}),
	}
}

func (r *inventoryRepo) Create(ctx context.Context, it inventory.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(it.ID) == "" {
		return errors.New("inventory item id required")
	}
	if _, exists := r.byID[it.ID]; exists {
		return errors.New("inventory item already exists")
	}
	r.byID[it.ID] = it
	return nil
}

// Update no toca quantity: eso pasa solo por AdjustQuantity.
func (r *inventoryRepo) Update(ctx context.Context, it inventory.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.byID[it.ID]
	if !exists {
		return inventory.ErrNotFound
	}
	it.Quantity = cur.Quantity
	r.byID[it.ID] = it
	return nil
}

func (r *inventoryRepo) GetByID(ctx context.Context, id string) (inventory.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.byID[id]
	if !ok {
		return inventory.Item{}, inventory.ErrNotFound
	}
	return it, nil
}

func (r *inventoryRepo) ListByHousehold(ctx context.Context, householdID string) ([]inventory.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]inventory.Item, 0)
	for _, it := range r.byID {
		if it.HouseholdID == householdID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *inventoryRepo) AdjustQuantity(ctx context.Context, id string, delta float64, key string, at time.Time) (inventory.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.byID[id]
	if !ok {
		return inventory.Item{}, inventory.ErrNotFound
	}

	appliedKey := id + "|" + key
	if key != "" {
		if _, done := r.applied[appliedKey]; done {
			return it, nil
		}
	}

	next := it.Quantity + delta
	if next < 0 {
		return inventory.Item{}, inventory.ErrInsufficientStock
	}

	it.Quantity = next
	it.UpdatedAt = at
	r.byID[id] = it
	if key != "" {
		r.applied[appliedKey] = struct{}{}
	}
	return it, nil
}
