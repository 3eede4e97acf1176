package inventory

import "time"

// Item es un stock de medicación del hogar.
type Item struct {
	ID          string
	HouseholdID string

	MedicationName string
	Quantity       float64
	Unit           string // "ml", "tablet", ...

	LowStockThreshold float64

	InUse      bool
	InUseSince *time.Time

	ExpiresAt *time.Time
	Notes     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LowStock: threshold 0 desactiva el aviso.
func (i Item) LowStock() bool {
	return i.LowStockThreshold > 0 && i.Quantity <= i.LowStockThreshold
}
