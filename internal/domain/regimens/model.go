package regimens

import (
	"time"

	"vet-med-tracker/internal/domain/schedule"
)

// Route es la vía de administración.
// @Enum oral, topical, injection, ophthalmic, otic, inhaled, other
type Route string

const (
	RouteOral       Route = "oral"
	RouteTopical    Route = "topical"
	RouteInjection  Route = "injection"
	RouteOphthalmic Route = "ophthalmic"
	RouteOtic       Route = "otic"
	RouteInhaled    Route = "inhaled"
	RouteOther      Route = "other"
)

// Regimen es una pauta de medicación para un animal.
type Regimen struct {
	ID          string
	AnimalID    string
	HouseholdID string

	MedicationName string
	Dose           string // "2"
	DoseUnit       string // "ml", "mg", "tablet"
	Route          Route

	Schedule      schedule.Schedule
	CutoffMinutes int

	HighRisk       bool
	RequiresCosign bool

	// Stock que se descuenta por dosis (opcional).
	InventoryItemID string
	DoseQuantity    float64

	// Fechas de calendario, inclusivas.
	StartDate time.Time
	EndDate   *time.Time

	Active    bool
	DeletedAt *time.Time

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Regimen) Deleted() bool {
	return r.DeletedAt != nil
}
