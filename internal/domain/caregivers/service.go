package caregivers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"vet-med-tracker/internal/ports/auth"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrBadState     = errors.New("invalid state")
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

type InviteInput struct {
	AnimalID      string
	HouseholdID   string
	OwnerUserID   string
	GranteeUserID string
	Scopes        []Scope
}

func (s *Service) Invite(ctx context.Context, in InviteInput) (Grant, error) {
	animalID := strings.TrimSpace(in.AnimalID)
	ownerID := strings.TrimSpace(in.OwnerUserID)
	granteeID := strings.TrimSpace(in.GranteeUserID)

	if animalID == "" || ownerID == "" || granteeID == "" {
		return Grant{}, ErrInvalidInput
	}
	if ownerID == granteeID {
		return Grant{}, ErrInvalidInput
	}

	// Scopes: vacío => ver el animal y registrar dosis (el caso típico de un cuidador).
	var scopes []Scope
	var err error
	if len(in.Scopes) == 0 {
		scopes = []Scope{ScopeAnimalRead, ScopeAdministrationsCreate}
	} else {
		scopes, err = normalizeScopesStrict(in.Scopes)
		if err != nil {
			return Grant{}, err
		}
		if len(scopes) == 0 {
			return Grant{}, ErrInvalidInput
		}
	}

	now := s.now()

	existing, allMatches, err := s.findLatestMatch(ctx, animalID, ownerID, granteeID)
	if err == nil && existing.ID != "" && existing.Status != StatusRevoked {
		// Deduplicar: el más reciente gana y recibe los scopes nuevos.
		s.revokeOtherMatches(ctx, existing.ID, allMatches, now)

		existing.Scopes = scopes
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return Grant{}, err
		}
		return existing, nil
	}

	g := Grant{
		ID:            uuid.NewString(),
		AnimalID:      animalID,
		HouseholdID:   strings.TrimSpace(in.HouseholdID),
		OwnerUserID:   ownerID,
		GranteeUserID: granteeID,
		Scopes:        scopes,
		Status:        StatusInvited,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return Grant{}, err
	}
	return g, nil
}

func (s *Service) Accept(ctx context.Context, grantID, granteeUserID string) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	granteeUserID = strings.TrimSpace(granteeUserID)

	if grantID == "" || granteeUserID == "" {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, ErrNotFound
	}

	if g.GranteeUserID != granteeUserID {
		return Grant{}, ErrForbidden
	}
	if g.Status == StatusRevoked {
		return Grant{}, ErrBadState
	}

	// Idempotente
	if g.Status == StatusActive {
		return g, nil
	}
	if g.Status != StatusInvited {
		return Grant{}, ErrBadState
	}

	now := s.now()
	g.Status = StatusActive
	g.UpdatedAt = now

	if err := s.repo.Update(ctx, g); err != nil {
		return Grant{}, err
	}

	// Un solo grant vivo por (animal, owner, cuidador).
	if _, matches, err := s.findLatestMatch(ctx, g.AnimalID, g.OwnerUserID, g.GranteeUserID); err == nil {
		s.revokeOtherMatches(ctx, g.ID, matches, now)
	}
	return g, nil
}

func (s *Service) Revoke(ctx context.Context, grantID, ownerUserID string) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	ownerUserID = strings.TrimSpace(ownerUserID)

	if grantID == "" || ownerUserID == "" {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, ErrNotFound
	}

	if g.OwnerUserID != ownerUserID {
		return Grant{}, ErrForbidden
	}

	// Idempotente
	if g.Status == StatusRevoked {
		return g, nil
	}

	now := s.now()
	g.Status = StatusRevoked
	g.UpdatedAt = now
	g.RevokedAt = &now

	if err := s.repo.Update(ctx, g); err != nil {
		return Grant{}, err
	}
	return g, nil
}

func (s *Service) ListByAnimal(ctx context.Context, animalID string) ([]Grant, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByAnimal(ctx, animalID)
}

func (s *Service) GetActiveGrant(ctx context.Context, animalID, granteeUserID string) (Grant, error) {
	animalID = strings.TrimSpace(animalID)
	granteeUserID = strings.TrimSpace(granteeUserID)

	if animalID == "" || granteeUserID == "" {
		return Grant{}, ErrInvalidInput
	}
	g, err := s.repo.GetActiveGrant(ctx, animalID, granteeUserID)
	if err != nil {
		return Grant{}, ErrNotFound
	}
	return g, nil
}

func (s *Service) ListByGrantee(ctx context.Context, granteeUserID string) ([]Grant, error) {
	granteeUserID = strings.TrimSpace(granteeUserID)
	if granteeUserID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByGrantee(ctx, granteeUserID)
}

// IsHouseholdMember: el dueño y cualquier miembro del hogar del animal tienen acceso total.
func IsHouseholdMember(claims auth.Claims, a AnimalRef) bool {
	if claims.UserID == "" {
		return false
	}
	if a.OwnerUserID == claims.UserID {
		return true
	}
	return a.HouseholdID != "" && a.HouseholdID == claims.Household()
}

// Authorize aplica la regla de acceso: miembro del hogar, o grant activo con el scope.
func (s *Service) Authorize(ctx context.Context, claims auth.Claims, a AnimalRef, scope Scope) error {
	if IsHouseholdMember(claims, a) {
		return nil
	}
	g, err := s.GetActiveGrant(ctx, a.ID, claims.UserID)
	if err != nil || !HasScope(g, scope) {
		return ErrForbidden
	}
	return nil
}

// AuthorizeHousehold aplica la regla a recursos del hogar (p.ej. inventario): miembro del hogar,
// o algún grant activo sobre un animal de ese hogar con el scope.
func (s *Service) AuthorizeHousehold(ctx context.Context, claims auth.Claims, householdID string, scope Scope) error {
	if claims.UserID == "" {
		return ErrForbidden
	}
	if householdID != "" && householdID == claims.Household() {
		return nil
	}
	grants, err := s.ListByGrantee(ctx, claims.UserID)
	if err != nil {
		return ErrForbidden
	}
	for _, g := range grants {
		if g.Status == StatusActive && g.HouseholdID == householdID && HasScope(g, scope) {
			return nil
		}
	}
	return ErrForbidden
}

// HasScope valida si el grant incluye un scope.
func HasScope(g Grant, scope Scope) bool {
	for _, s := range g.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

func (s *Service) findLatestMatch(ctx context.Context, animalID, ownerID, granteeID string) (Grant, []Grant, error) {
	items, err := s.repo.ListByAnimal(ctx, animalID)
	if err != nil {
		return Grant{}, nil, err
	}

	matches := make([]Grant, 0)
	var winner Grant
	hasWinner := false

	for _, g := range items {
		if g.AnimalID != animalID || g.OwnerUserID != ownerID || g.GranteeUserID != granteeID {
			continue
		}
		matches = append(matches, g)

		if !hasWinner || g.UpdatedAt.After(winner.UpdatedAt) {
			winner = g
			hasWinner = true
		}
	}

	if !hasWinner {
		return Grant{}, matches, ErrNotFound
	}
	return winner, matches, nil
}

func (s *Service) revokeOtherMatches(ctx context.Context, winnerID string, matches []Grant, now time.Time) {
	for _, g := range matches {
		if g.ID == "" || g.ID == winnerID || g.Status == StatusRevoked {
			continue
		}
		g.Status = StatusRevoked
		g.UpdatedAt = now
		g.RevokedAt = &now
		_ = s.repo.Update(ctx, g) // best-effort
	}
}

func normalizeScopesStrict(in []Scope) ([]Scope, error) {
	allowed := map[Scope]struct{}{
		ScopeAnimalRead:            {},
		ScopeAnimalEditProfile:     {},
		ScopeRegimensManage:        {},
		ScopeAdministrationsCreate: {},
		ScopeAdministrationsCosign: {},
		ScopeInventoryWrite:        {},
	}

	seen := map[Scope]struct{}{}
	out := make([]Scope, 0, len(in))

	for _, raw := range in {
		s := Scope(strings.TrimSpace(string(raw)))
		if s == "" {
			continue
		}
		if _, ok := allowed[s]; !ok {
			return nil, ErrInvalidInput
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out, nil
}
