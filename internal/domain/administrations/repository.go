package administrations

import (
	"context"
	"time"

	"vet-med-tracker/internal/domain/due"
)

type Repository interface {
	// Create devuelve ErrDuplicate si la idempotency key ya existe en el hogar.
	Create(ctx context.Context, a Administration) error
	Update(ctx context.Context, a Administration) error
	GetByID(ctx context.Context, id string) (Administration, error)
	GetByIdempotencyKey(ctx context.Context, householdID, key string) (Administration, error)

	// Los listados vienen ordenados por administered_at descendente.
	ListByAnimal(ctx context.Context, animalID string, filter ListFilter) ([]Administration, error)
	ListByHousehold(ctx context.Context, householdID string, filter ListFilter) ([]Administration, error)
}

type ListFilter struct {
	RegimenIDs    []string
	Statuses      []due.Status
	From          *time.Time
	To            *time.Time
	IncludeVoided bool
	Limit         int
}
