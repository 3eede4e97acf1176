package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("queued mutation not found")

	// ErrQuotaExceeded: el almacenamiento local no acepta más mutaciones.
	ErrQuotaExceeded = errors.New("offline queue storage quota exceeded")
)

// Store es el almacenamiento durable de la cola.
type Store interface {
	// Put agrega al final. Un ID ya encolado es no-op.
	Put(ctx context.Context, m QueuedMutation) error
	Get(ctx context.Context, id string) (QueuedMutation, error)
	Update(ctx context.Context, m QueuedMutation) error
	Delete(ctx context.Context, id string) error

	// ListByHousehold devuelve en orden de encolado.
	ListByHousehold(ctx context.Context, householdID string) ([]QueuedMutation, error)
	Count(ctx context.Context, householdID string) (int, error)
	DeleteAll(ctx context.Context, householdID string) (int, error)

	// AcquireLease toma (o renueva) el lease de drenado del hogar. false si otro owner
	// tiene un lease vigente.
	AcquireLease(ctx context.Context, householdID, owner string, ttl time.Duration, now time.Time) (bool, error)
	ReleaseLease(ctx context.Context, householdID, owner string) error
}

type lease struct {
	owner     string
	expiresAt time.Time
}

// MemoryStore implementa Store en memoria. MaxItems es por hogar; <= 0 = sin límite.
type MemoryStore struct {
	MaxItems int

	mu     sync.Mutex
	items  []QueuedMutation
	leases map[string]lease
}

func NewMemoryStore(maxItems int) *MemoryStore {
	return &MemoryStore{
		MaxItems: maxItems,
		leases:   make(map[string]lease),
	}
}

func (s *MemoryStore) Put(ctx context.Context, m QueuedMutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(m.ID) >= 0 {
		return nil
	}
	if s.MaxItems > 0 && s.countLocked(m.HouseholdID) >= s.MaxItems {
		return ErrQuotaExceeded
	}
	s.items = append(s.items, clone(m))
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (QueuedMutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return QueuedMutation{}, ErrNotFound
	}
	return clone(s.items[i]), nil
}

func (s *MemoryStore) Update(ctx context.Context, m QueuedMutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(m.ID)
	if i < 0 {
		return ErrNotFound
	}
	s.items[i] = clone(m)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

func (s *MemoryStore) ListByHousehold(ctx context.Context, householdID string) ([]QueuedMutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]QueuedMutation, 0)
	for _, m := range s.items {
		if m.HouseholdID == householdID {
			out = append(out, clone(m))
		}
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, householdID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked(householdID), nil
}

func (s *MemoryStore) DeleteAll(ctx context.Context, householdID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	n := 0
	for _, m := range s.items {
		if m.HouseholdID == householdID {
			n++
			continue
		}
		kept = append(kept, m)
	}
	s.items = kept
	return n, nil
}

func (s *MemoryStore) AcquireLease(ctx context.Context, householdID, owner string, ttl time.Duration, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.leases[householdID]
	if ok && cur.owner != owner && now.Before(cur.expiresAt) {
		return false, nil
	}
	s.leases[householdID] = lease{owner: owner, expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *MemoryStore) ReleaseLease(ctx context.Context, householdID, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.leases[householdID]; ok && cur.owner == owner {
		delete(s.leases, householdID)
	}
	return nil
}

func (s *MemoryStore) countLocked(householdID string) int {
	n := 0
	for _, it := range s.items {
		if it.HouseholdID == householdID {
			n++
		}
	}
	return n
}

func (s *MemoryStore) indexOf(id string) int {
	for i, m := range s.items {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func clone(m QueuedMutation) QueuedMutation {
	m.Payload = append([]byte(nil), m.Payload...)
	if m.NextAttemptAt != nil {
		t := *m.NextAttemptAt
		m.NextAttemptAt = &t
	}
	return m
}
