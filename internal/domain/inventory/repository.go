package inventory

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, it Item) error
	Update(ctx context.Context, it Item) error
	GetByID(ctx context.Context, id string) (Item, error)
	ListByHousehold(ctx context.Context, householdID string) ([]Item, error)

	// AdjustQuantity suma delta de forma atómica. Si el resultado queda negativo devuelve
	// ErrInsufficientStock sin tocar nada. Si key no es vacía y ya se aplicó, no vuelve a sumar
	// y devuelve el item actual.
	AdjustQuantity(ctx context.Context, id string, delta float64, key string, at time.Time) (Item, error)
}
