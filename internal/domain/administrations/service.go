package administrations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"vet-med-tracker/internal/domain/animals"
	"vet-med-tracker/internal/domain/due"
	"vet-med-tracker/internal/domain/inventory"
	"vet-med-tracker/internal/domain/regimens"
	"vet-med-tracker/internal/domain/schedule"
	"vet-med-tracker/internal/platform/logger"
	"vet-med-tracker/internal/platform/metrics"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("administration not found")
	ErrForbidden    = errors.New("forbidden")
	ErrBadState     = errors.New("invalid state")

	// ErrDuplicate lo devuelven los repositorios cuando la idempotency key ya existe.
	ErrDuplicate = errors.New("duplicate idempotency key")

	// ErrKeyConflict: la key ya se usó en el hogar para otra pauta.
	ErrKeyConflict = errors.New("idempotency key already used for a different regimen")
)

type RegimenLookup interface {
	GetByID(ctx context.Context, id string) (regimens.Regimen, error)
}

type AnimalLookup interface {
	GetByID(ctx context.Context, id string) (animals.Animal, error)
}

type StockConsumer interface {
	Consume(ctx context.Context, itemID string, qty float64, key string) (inventory.Item, error)
}

type Deps struct {
	Regimens RegimenLookup
	Animals  AnimalLookup

	// Opcionales
	Stock   StockConsumer
	Log     logger.Logger
	Metrics *metrics.Server

	// TrustClientStatus: acepta el estado calculado por el cliente tal cual.
	// Por defecto el servidor lo recalcula.
	TrustClientStatus bool
}

type Service struct {
	repo Repository
	deps Deps
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, deps Deps) *Service {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		deps: deps,
		log:  log.With(map[string]any{"component": "administrations"}),
		now:  time.Now,
	}
}

type CreateInput struct {
	RegimenID      string
	AnimalID       string // opcional; si viene debe coincidir con la pauta
	AdministeredAt time.Time
	IdempotencyKey string
	Notes          string

	// ClientStatus: estado calculado offline por el cliente (opcional).
	ClientStatus *due.Status
}

// Create es lookup-or-insert por idempotency key. created=false indica que se devolvió
// el registro existente sin escribir nada.
func (s *Service) Create(ctx context.Context, caregiverID string, in CreateInput) (Administration, bool, error) {
	caregiverID = strings.TrimSpace(caregiverID)
	key := strings.TrimSpace(in.IdempotencyKey)
	if caregiverID == "" || key == "" || strings.TrimSpace(in.RegimenID) == "" {
		return Administration{}, false, ErrInvalidInput
	}

	reg, err := s.deps.Regimens.GetByID(ctx, in.RegimenID)
	if err != nil {
		return Administration{}, false, err
	}
	if in.AnimalID != "" && in.AnimalID != reg.AnimalID {
		return Administration{}, false, ErrInvalidInput
	}

	animal, err := s.deps.Animals.GetByID(ctx, reg.AnimalID)
	if err != nil {
		return Administration{}, false, err
	}

	// El replay va antes del chequeo de estado: la pauta pudo pausarse después del
	// primer envío.
	if existing, err := s.replay(ctx, animal.HouseholdID, key, reg.ID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Administration{}, false, err
	}

	if !reg.Active || reg.Deleted() {
		return Administration{}, false, ErrBadState
	}

	now := s.now()
	at := in.AdministeredAt
	if at.IsZero() {
		at = now
	}

	result, err := s.classify(ctx, reg, animal, at, in.ClientStatus)
	if err != nil {
		return Administration{}, false, err
	}

	cosign := CosignNotRequired
	if reg.RequiresCosign {
		cosign = CosignPending
	}

	a := Administration{
		ID:             uuid.NewString(),
		RegimenID:      reg.ID,
		AnimalID:       reg.AnimalID,
		HouseholdID:    animal.HouseholdID,
		CaregiverID:    caregiverID,
		RecordedAt:     now,
		AdministeredAt: at,
		ScheduledFor:   result.ScheduledFor,
		Status:         result.Status,
		PastCutoff:     result.PastCutoff,
		IdempotencyKey: key,
		Notes:          strings.TrimSpace(in.Notes),
		CosignStatus:   cosign,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// Perdimos la carrera contra otra escritura con la misma key: devolvemos la ganadora.
			winner, gerr := s.replay(ctx, a.HouseholdID, key, reg.ID)
			if gerr != nil {
				return Administration{}, false, gerr
			}
			return winner, false, nil
		}
		return Administration{}, false, err
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.AdministrationsRecorded.WithLabelValues(string(a.Status)).Inc()
	}

	s.consumeStock(ctx, reg, key)

	return a, true, nil
}

// replay busca la key en el hogar. Si ya se usó para otra pauta devuelve ErrKeyConflict.
func (s *Service) replay(ctx context.Context, householdID, key, regimenID string) (Administration, error) {
	existing, err := s.repo.GetByIdempotencyKey(ctx, householdID, key)
	if err != nil {
		return Administration{}, err
	}
	if existing.RegimenID != regimenID {
		return Administration{}, ErrKeyConflict
	}
	s.replayed()
	return existing, nil
}

func (s *Service) classify(ctx context.Context, reg regimens.Regimen, animal animals.Animal, at time.Time, client *due.Status) (due.Result, error) {
	in := due.ClassifyInput{
		AdministeredAt: at,
		Schedule:       reg.Schedule,
		CutoffMinutes:  reg.CutoffMinutes,
		Timezone:       animal.Timezone,
	}

	if reg.Schedule.Kind == schedule.KindInterval {
		prev, err := s.repo.ListByAnimal(ctx, reg.AnimalID, ListFilter{
			RegimenIDs: []string{reg.ID},
			To:         &at,
			Limit:      1,
		})
		if err != nil {
			return due.Result{}, err
		}
		if len(prev) > 0 {
			p := prev[0].AdministeredAt
			in.PreviousAt = &p
		}
	}

	computed := due.Classify(in)
	if client == nil || !client.Valid() {
		return computed, nil
	}

	if s.deps.TrustClientStatus {
		in.Override = client
		return due.Classify(in), nil
	}

	if *client != computed.Status {
		s.log.Warn("client status differs from server classification", map[string]any{
			"regimen_id":    reg.ID,
			"client_status": string(*client),
			"server_status": string(computed.Status),
		})
		if s.deps.Metrics != nil {
			s.deps.Metrics.ClientStatusMismatches.Inc()
		}
	}
	return computed, nil
}

func (s *Service) consumeStock(ctx context.Context, reg regimens.Regimen, key string) {
	if s.deps.Stock == nil || reg.InventoryItemID == "" || reg.DoseQuantity <= 0 {
		return
	}
	if _, err := s.deps.Stock.Consume(ctx, reg.InventoryItemID, reg.DoseQuantity, "admin:"+key); err != nil {
		s.log.Warn("inventory consume failed", map[string]any{
			"regimen_id": reg.ID,
			"item_id":    reg.InventoryItemID,
			"err":        err,
		})
	}
}

func (s *Service) replayed() {
	if s.deps.Metrics != nil {
		s.deps.Metrics.IdempotentReplays.Inc()
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (Administration, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Administration{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByAnimal(ctx context.Context, animalID string, filter ListFilter) ([]Administration, error) {
	return s.repo.ListByAnimal(ctx, animalID, filter)
}

func (s *Service) ListByHousehold(ctx context.Context, householdID string, filter ListFilter) ([]Administration, error) {
	return s.repo.ListByHousehold(ctx, householdID, filter)
}

// Cosign completa la co-firma. Debe hacerla alguien distinto de quien registró la dosis.
func (s *Service) Cosign(ctx context.Context, id, cosignerID string) (Administration, error) {
	cosignerID = strings.TrimSpace(cosignerID)
	if cosignerID == "" {
		return Administration{}, ErrInvalidInput
	}

	a, err := s.GetByID(ctx, id)
	if err != nil {
		return Administration{}, err
	}
	if a.Voided {
		return Administration{}, ErrBadState
	}

	switch a.CosignStatus {
	case CosignCompleted:
		// Idempotente para el mismo co-firmante
		if a.CosignedBy == cosignerID {
			return a, nil
		}
		return Administration{}, ErrBadState
	case CosignPending:
	default:
		return Administration{}, ErrBadState
	}

	if a.CaregiverID == cosignerID {
		return Administration{}, ErrForbidden
	}

	now := s.now()
	a.CosignStatus = CosignCompleted
	a.CosignedBy = cosignerID
	a.CosignedAt = &now

	if err := s.repo.Update(ctx, a); err != nil {
		return Administration{}, err
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.CosignsCompleted.Inc()
	}
	return a, nil
}

// Void marca la administración como anulada (no se borra). Idempotente.
func (s *Service) Void(ctx context.Context, id string) (Administration, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return Administration{}, err
	}
	if a.Voided {
		return a, nil
	}

	now := s.now()
	a.Voided = true
	a.VoidedAt = &now

	if err := s.repo.Update(ctx, a); err != nil {
		return Administration{}, err
	}
	return a, nil
}
