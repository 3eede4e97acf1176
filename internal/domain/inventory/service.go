package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("inventory item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
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
	HouseholdID       string
	MedicationName    string
	Quantity          float64
	Unit              string
	LowStockThreshold float64
	ExpiresAt         *time.Time
	Notes             string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Item, error) {
	if strings.TrimSpace(in.HouseholdID) == "" || strings.TrimSpace(in.MedicationName) == "" {
		return Item{}, ErrInvalidInput
	}
	if in.Quantity < 0 || in.LowStockThreshold < 0 {
		return Item{}, ErrInvalidInput
	}

	now := s.now()
	it := Item{
		ID:                uuid.NewString(),
		HouseholdID:       strings.TrimSpace(in.HouseholdID),
		MedicationName:    strings.TrimSpace(in.MedicationName),
		Quantity:          in.Quantity,
		Unit:              strings.TrimSpace(in.Unit),
		LowStockThreshold: in.LowStockThreshold,
		ExpiresAt:         in.ExpiresAt,
		Notes:             strings.TrimSpace(in.Notes),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, it); err != nil {
		return Item{}, err
	}
	return it, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Item{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByHousehold(ctx context.Context, householdID string) ([]Item, error) {
	householdID = strings.TrimSpace(householdID)
	if householdID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByHousehold(ctx, householdID)
}

type UpdateInput struct {
	// QuantityDelta no es naturalmente idempotente: IdempotencyKey evita doble aplicación en replays.
	QuantityDelta  *float64
	IdempotencyKey string

	MedicationName    *string
	Unit              *string
	LowStockThreshold *float64
	ExpiresAt         *time.Time
	Notes             *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Item, error) {
	it, err := s.GetByID(ctx, id)
	if err != nil {
		return Item{}, err
	}

	now := s.now()
	changed := false

	if in.MedicationName != nil {
		name := strings.TrimSpace(*in.MedicationName)
		if name == "" {
			return Item{}, ErrInvalidInput
		}
		it.MedicationName = name
		changed = true
	}
	if in.Unit != nil {
		it.Unit = strings.TrimSpace(*in.Unit)
		changed = true
	}
	if in.LowStockThreshold != nil {
		if *in.LowStockThreshold < 0 {
			return Item{}, ErrInvalidInput
		}
		it.LowStockThreshold = *in.LowStockThreshold
		changed = true
	}
	if in.ExpiresAt != nil {
		it.ExpiresAt = in.ExpiresAt
		changed = true
	}
	if in.Notes != nil {
		it.Notes = strings.TrimSpace(*in.Notes)
		changed = true
	}

	// El delta va primero: si lo rechaza el stock no se escribe nada. Si falla el Update
	// posterior, reintentar con la misma key no vuelve a sumar.
	if in.QuantityDelta != nil && *in.QuantityDelta != 0 {
		adjusted, err := s.repo.AdjustQuantity(ctx, it.ID, *in.QuantityDelta, strings.TrimSpace(in.IdempotencyKey), now)
		if err != nil {
			return Item{}, err
		}
		it.Quantity = adjusted.Quantity
		it.UpdatedAt = adjusted.UpdatedAt
	}

	if changed {
		it.UpdatedAt = now
		if err := s.repo.Update(ctx, it); err != nil {
			return Item{}, err
		}
	}
	return it, nil
}

// MarkAsInUse es naturalmente idempotente: marcar dos veces conserva InUseSince original.
func (s *Service) MarkAsInUse(ctx context.Context, id string) (Item, error) {
	it, err := s.GetByID(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if it.InUse {
		return it, nil
	}

	now := s.now()
	it.InUse = true
	it.InUseSince = &now
	it.UpdatedAt = now

	if err := s.repo.Update(ctx, it); err != nil {
		return Item{}, err
	}
	return it, nil
}

// Consume descuenta una dosis. key es la idempotency key de la administración.
func (s *Service) Consume(ctx context.Context, id string, qty float64, key string) (Item, error) {
	if qty <= 0 {
		return Item{}, ErrInvalidInput
	}
	return s.repo.AdjustQuantity(ctx, strings.TrimSpace(id), -qty, key, s.now())
}
