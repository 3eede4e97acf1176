package caregivers

import (
	"context"
	"errors"
	"testing"
	"time"

	"vet-med-tracker/internal/ports/auth"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]Grant
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Grant{}}
}

func (r *testRepo) Create(ctx context.Context, g Grant) error {
	if g.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[g.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[g.ID] = g
	return nil
}

func (r *testRepo) Update(ctx context.Context, g Grant) error {
	if _, ok := r.byID[g.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[g.ID] = g
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Grant, error) {
	g, ok := r.byID[id]
	if !ok {
		return Grant{}, errRepoNotFound
	}
	return g, nil
}

func (r *testRepo) ListByAnimal(ctx context.Context, animalID string) ([]Grant, error) {
	out := make([]Grant, 0)
	for _, g := range r.byID {
		if g.AnimalID == animalID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testRepo) ListByGrantee(ctx context.Context, granteeUserID string) ([]Grant, error) {
	out := make([]Grant, 0)
	for _, g := range r.byID {
		if g.GranteeUserID == granteeUserID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testRepo) GetActiveGrant(ctx context.Context, animalID, granteeUserID string) (Grant, error) {
	var winner Grant
	has := false
	for _, g := range r.byID {
		if g.AnimalID != animalID || g.GranteeUserID != granteeUserID || g.Status != StatusActive {
			continue
		}
		if !has || g.UpdatedAt.After(winner.UpdatedAt) {
			winner = g
			has = true
		}
	}
	if !has {
		return Grant{}, errRepoNotFound
	}
	return winner, nil
}

// -------------------------
// Tests
// -------------------------

func TestService_Invite_DefaultScopes_WhenEmpty(t *testing.T) {
	svc := NewService(newTestRepo())

	now := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	g, err := svc.Invite(context.Background(), InviteInput{
		AnimalID:      "animal-1",
		HouseholdID:   "house-1",
		OwnerUserID:   "owner-1",
		GranteeUserID: "sitter-1",
	})
	if err != nil {
		t.Fatalf("Invite returned error: %v", err)
	}
	if g.Status != StatusInvited {
		t.Fatalf("expected status invited, got %s", g.Status)
	}
	if g.CreatedAt != now || g.UpdatedAt != now {
		t.Fatalf("expected CreatedAt/UpdatedAt to be now")
	}
	if !HasScope(g, ScopeAnimalRead) || !HasScope(g, ScopeAdministrationsCreate) {
		t.Fatalf("expected default scopes animal:read + administrations:create, got %#v", g.Scopes)
	}
}

func TestService_Invite_StrictScopes_RejectsUnknown(t *testing.T) {
	svc := NewService(newTestRepo())

	_, err := svc.Invite(context.Background(), InviteInput{
		AnimalID:      "animal-1",
		OwnerUserID:   "owner-1",
		GranteeUserID: "sitter-1",
		Scopes:        []Scope{ScopeAnimalRead, Scope("bad:scope")},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_Invite_Dedup_UpdatesSameGrant(t *testing.T) {
	svc := NewService(newTestRepo())

	now1 := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	now2 := now1.Add(5 * time.Minute)

	svc.now = func() time.Time { return now1 }
	g1, err := svc.Invite(context.Background(), InviteInput{
		AnimalID:      "animal-1",
		OwnerUserID:   "owner-1",
		GranteeUserID: "sitter-1",
		Scopes:        []Scope{ScopeAnimalRead},
	})
	if err != nil {
		t.Fatalf("Invite #1 error: %v", err)
	}

	svc.now = func() time.Time { return now2 }
	g2, err := svc.Invite(context.Background(), InviteInput{
		AnimalID:      "animal-1",
		OwnerUserID:   "owner-1",
		GranteeUserID: "sitter-1",
		Scopes:        []Scope{ScopeAnimalRead, ScopeAdministrationsCosign},
	})
	if err != nil {
		t.Fatalf("Invite #2 error: %v", err)
	}

	if g2.ID != g1.ID {
		t.Fatalf("expected same grant ID (dedup), got %s vs %s", g1.ID, g2.ID)
	}
	if g2.UpdatedAt != now2 {
		t.Fatalf("expected UpdatedAt to change on reinvite")
	}
	if !HasScope(g2, ScopeAdministrationsCosign) {
		t.Fatalf("expected scopes updated, got %#v", g2.Scopes)
	}
}

func TestService_Accept_SetsActive_AndIdempotent(t *testing.T) {
	svc := NewService(newTestRepo())

	g, err := svc.Invite(context.Background(), InviteInput{
		AnimalID:      "animal-1",
		OwnerUserID:   "owner-1",
		GranteeUserID: "sitter-1",
	})
	if err != nil {
		t.Fatalf("Invite error: %v", err)
	}

	if _, err := svc.Accept(context.Background(), g.ID, "someone-else"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for other user, got %v", err)
	}

	accepted, err := svc.Accept(context.Background(), g.ID, "sitter-1")
	if err != nil {
		t.Fatalf("Accept error: %v", err)
	}
	if accepted.Status != StatusActive {
		t.Fatalf("expected active, got %s", accepted.Status)
	}

	accepted2, err := svc.Accept(context.Background(), g.ID, "sitter-1")
	if err != nil || accepted2.Status != StatusActive {
		t.Fatalf("expected idempotent accept, got %v / %s", err, accepted2.Status)
	}
}

func TestService_Accept_LeavesOnlyOneActive(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	now := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	// Datos sucios: dos invitaciones para el mismo (animal, owner, cuidador)
	for i, id := range []string{"g1", "g2"} {
		_ = repo.Create(context.Background(), Grant{
			ID:            id,
			AnimalID:      "animal-1",
			OwnerUserID:   "owner-1",
			GranteeUserID: "sitter-1",
			Scopes:        []Scope{ScopeAnimalRead},
			Status:        StatusInvited,
			CreatedAt:     now.Add(time.Duration(-10+i*5) * time.Minute),
			UpdatedAt:     now.Add(time.Duration(-10+i*5) * time.Minute),
		})
	}

	if _, err := svc.Accept(context.Background(), "g2", "sitter-1"); err != nil {
		t.Fatalf("Accept error: %v", err)
	}

	active := 0
	for _, g := range repo.byID {
		if g.Status == StatusActive {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly 1 active grant, got %d", active)
	}
	if repo.byID["g1"].Status != StatusRevoked {
		t.Fatalf("expected stale invite revoked, got %s", repo.byID["g1"].Status)
	}
}

func TestService_Revoke_OnlyOwner_Idempotent(t *testing.T) {
	svc := NewService(newTestRepo())

	g, _ := svc.Invite(context.Background(), InviteInput{
		AnimalID:      "animal-1",
		OwnerUserID:   "owner-1",
		GranteeUserID: "sitter-1",
	})

	if _, err := svc.Revoke(context.Background(), g.ID, "sitter-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	r1, err := svc.Revoke(context.Background(), g.ID, "owner-1")
	if err != nil || r1.Status != StatusRevoked || r1.RevokedAt == nil {
		t.Fatalf("expected revoked, got %v / %#v", err, r1)
	}
	if _, err := svc.Revoke(context.Background(), g.ID, "owner-1"); err != nil {
		t.Fatalf("expected idempotent revoke, got %v", err)
	}
	if _, err := svc.Accept(context.Background(), g.ID, "sitter-1"); !errors.Is(err, ErrBadState) {
		t.Fatalf("expected ErrBadState accepting revoked grant, got %v", err)
	}
}

func TestService_Authorize(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()
	animal := AnimalRef{ID: "animal-1", OwnerUserID: "owner-1", HouseholdID: "house-1"}

	// Owner y miembros del hogar siempre pasan.
	if err := svc.Authorize(ctx, auth.Claims{UserID: "owner-1"}, animal, ScopeInventoryWrite); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if err := svc.Authorize(ctx, auth.Claims{UserID: "partner", HouseholdID: "house-1"}, animal, ScopeRegimensManage); err != nil {
		t.Fatalf("household member: %v", err)
	}

	sitter := auth.Claims{UserID: "sitter-1"}
	if err := svc.Authorize(ctx, sitter, animal, ScopeAnimalRead); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden without grant, got %v", err)
	}

	g, _ := svc.Invite(ctx, InviteInput{AnimalID: "animal-1", OwnerUserID: "owner-1", GranteeUserID: "sitter-1"})
	if err := svc.Authorize(ctx, sitter, animal, ScopeAnimalRead); !errors.Is(err, ErrForbidden) {
		t.Fatalf("invited (not accepted) must not grant access, got %v", err)
	}
	_, _ = svc.Accept(ctx, g.ID, "sitter-1")

	if err := svc.Authorize(ctx, sitter, animal, ScopeAnimalRead); err != nil {
		t.Fatalf("expected access with active grant, got %v", err)
	}
	if err := svc.Authorize(ctx, sitter, animal, ScopeAdministrationsCosign); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for scope outside grant, got %v", err)
	}
}

func TestService_AuthorizeHousehold(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()

	if err := svc.AuthorizeHousehold(ctx, auth.Claims{UserID: "u", HouseholdID: "house-1"}, "house-1", ScopeInventoryWrite); err != nil {
		t.Fatalf("household member: %v", err)
	}

	g, _ := svc.Invite(ctx, InviteInput{
		AnimalID: "animal-1", HouseholdID: "house-1", OwnerUserID: "owner-1", GranteeUserID: "sitter-1",
		Scopes: []Scope{ScopeAnimalRead, ScopeInventoryWrite},
	})
	sitter := auth.Claims{UserID: "sitter-1"}
	if err := svc.AuthorizeHousehold(ctx, sitter, "house-1", ScopeInventoryWrite); !errors.Is(err, ErrForbidden) {
		t.Fatalf("pending invite must not authorize, got %v", err)
	}
	_, _ = svc.Accept(ctx, g.ID, "sitter-1")

	if err := svc.AuthorizeHousehold(ctx, sitter, "house-1", ScopeInventoryWrite); err != nil {
		t.Fatalf("expected access, got %v", err)
	}
	if err := svc.AuthorizeHousehold(ctx, sitter, "house-2", ScopeInventoryWrite); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden on other household, got %v", err)
	}
}
