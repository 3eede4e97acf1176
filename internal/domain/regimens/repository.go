package regimens

import "context"

type Repository interface {
	Create(ctx context.Context, r Regimen) error
	Update(ctx context.Context, r Regimen) error
	GetByID(ctx context.Context, id string) (Regimen, error)
	ListByAnimal(ctx context.Context, animalID string) ([]Regimen, error)

	// ListActiveByHousehold devuelve pautas activas y no borradas.
	ListActiveByHousehold(ctx context.Context, householdID string) ([]Regimen, error)
}
