package administrations

import (
	"time"

	"vet-med-tracker/internal/domain/due"
)

// CosignStatus
// @Enum not_required, pending, cosigned
type CosignStatus string

const (
	CosignNotRequired CosignStatus = "not_required"
	CosignPending     CosignStatus = "pending"
	CosignCompleted   CosignStatus = "cosigned"
)

// Administration es una dosis registrada. IdempotencyKey es única por hogar: dos creaciones
// con la misma key en el mismo hogar resuelven al mismo registro.
type Administration struct {
	ID          string
	RegimenID   string
	AnimalID    string
	HouseholdID string
	CaregiverID string

	RecordedAt     time.Time
	AdministeredAt time.Time
	ScheduledFor   *time.Time

	Status     due.Status
	PastCutoff bool

	IdempotencyKey string
	Notes          string

	CosignStatus CosignStatus
	CosignedBy   string
	CosignedAt   *time.Time

	Voided   bool
	VoidedAt *time.Time
}
