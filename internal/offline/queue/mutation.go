package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"vet-med-tracker/internal/domain/due"
)

// Kind es el tag persistido de cada mutación; mapea 1:1 con una operación remota.
type Kind string

const (
	KindCreateAdministration Kind = "admin.create"
	KindUpdateInventory      Kind = "inventory.update"
	KindMarkInventoryInUse   Kind = "inventory.markAsInUse"
)

var (
	// ErrUnknownMutationType: el texto llega a lastError y se muestra al usuario.
	ErrUnknownMutationType = errors.New("Unknown mutation type")
	ErrInvalidMutation     = errors.New("invalid mutation")
)

// Mutation es cerrada: solo los tipos de este paquete la implementan.
type Mutation interface {
	Kind() Kind
	validate() error
}

type CreateAdministration struct {
	AnimalID       string     `json:"animal_id"`
	RegimenID      string     `json:"regimen_id"`
	AdministeredAt time.Time  `json:"administered_at"`
	Notes          string     `json:"notes,omitempty"`
	Status         due.Status `json:"status,omitempty"` // calculado offline
}

func (CreateAdministration) Kind() Kind { return KindCreateAdministration }

func (m CreateAdministration) validate() error {
	if strings.TrimSpace(m.AnimalID) == "" || strings.TrimSpace(m.RegimenID) == "" {
		return fmt.Errorf("%w: animal_id and regimen_id are required", ErrInvalidMutation)
	}
	if m.AdministeredAt.IsZero() {
		return fmt.Errorf("%w: administered_at is required", ErrInvalidMutation)
	}
	return nil
}

type UpdateInventory struct {
	ItemID            string   `json:"item_id"`
	QuantityDelta     *float64 `json:"quantity_delta,omitempty"`
	MedicationName    *string  `json:"medication_name,omitempty"`
	Unit              *string  `json:"unit,omitempty"`
	LowStockThreshold *float64 `json:"low_stock_threshold,omitempty"`
	Notes             *string  `json:"notes,omitempty"`
}

func (UpdateInventory) Kind() Kind { return KindUpdateInventory }

func (m UpdateInventory) validate() error {
	if strings.TrimSpace(m.ItemID) == "" {
		return fmt.Errorf("%w: item_id is required", ErrInvalidMutation)
	}
	if m.QuantityDelta == nil && m.MedicationName == nil && m.Unit == nil &&
		m.LowStockThreshold == nil && m.Notes == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidMutation)
	}
	return nil
}

type MarkInventoryInUse struct {
	ItemID string `json:"item_id"`
}

func (MarkInventoryInUse) Kind() Kind { return KindMarkInventoryInUse }

func (m MarkInventoryInUse) validate() error {
	if strings.TrimSpace(m.ItemID) == "" {
		return fmt.Errorf("%w: item_id is required", ErrInvalidMutation)
	}
	return nil
}

// describe nombra la acción para los avisos al usuario.
func describe(kind Kind) string {
	switch kind {
	case KindCreateAdministration:
		return "Dose record"
	case KindUpdateInventory:
		return "Inventory update"
	case KindMarkInventoryInUse:
		return "Inventory in-use change"
	default:
		return fmt.Sprintf("Action %q", string(kind))
	}
}

// Encode valida y serializa el payload que se guarda y luego se reenvía tal cual.
func Encode(m Mutation) (Kind, json.RawMessage, error) {
	if m == nil {
		return "", nil, fmt.Errorf("%w: nil mutation", ErrInvalidMutation)
	}
	if err := m.validate(); err != nil {
		return "", nil, err
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", m.Kind(), err)
	}
	return m.Kind(), b, nil
}

// Decode reconstruye la mutación desde lo persistido. Un tag desconocido (p.ej. de otra
// versión del cliente) devuelve ErrUnknownMutationType.
func Decode(kind Kind, payload json.RawMessage) (Mutation, error) {
	var m Mutation
	switch kind {
	case KindCreateAdministration:
		var v CreateAdministration
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMutation, err)
		}
		m = v
	case KindUpdateInventory:
		var v UpdateInventory
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMutation, err)
		}
		m = v
	case KindMarkInventoryInUse:
		var v MarkInventoryInUse
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMutation, err)
		}
		m = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMutationType, kind)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}
