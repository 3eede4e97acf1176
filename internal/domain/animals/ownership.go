package animals

import (
	"context"

	"vet-med-tracker/internal/domain/caregivers"
)

// Ref expone owner y hogar de un animal.
// Se usa para evitar ciclos de imports entre módulos (animals <-> caregivers).
func (s *Service) Ref(ctx context.Context, animalID string) (caregivers.AnimalRef, error) {
	a, err := s.GetByID(ctx, animalID)
	if err != nil {
		return caregivers.AnimalRef{}, err
	}
	return RefOf(a), nil
}

func RefOf(a Animal) caregivers.AnimalRef {
	return caregivers.AnimalRef{
		ID:          a.ID,
		OwnerUserID: a.OwnerUserID,
		HouseholdID: a.HouseholdID,
	}
}
