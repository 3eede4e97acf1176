package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"vet-med-tracker/internal/domain/caregivers"
)

type GrantsRepo struct {
	db *sql.DB
}

func NewGrantsRepo(db *sql.DB) *GrantsRepo {
	return &GrantsRepo{db: db}
}

const grantColumns = `
	id, animal_id, household_id, owner_user_id, grantee_user_id,
	scopes, status,
	created_at, updated_at, revoked_at`

func (r *GrantsRepo) Create(ctx context.Context, g caregivers.Grant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO caregiver_grants (`+grantColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		g.ID,
		g.AnimalID,
		g.HouseholdID,
		g.OwnerUserID,
		g.GranteeUserID,
		scopesToTextArray(g.Scopes),
		string(g.Status),
		g.CreatedAt,
		g.UpdatedAt,
		toNullTime(g.RevokedAt),
	)
	return err
}

func (r *GrantsRepo) Update(ctx context.Context, g caregivers.Grant) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE caregiver_grants
		SET
			scopes = $2,
			status = $3,
			updated_at = $4,
			revoked_at = $5
		WHERE id = $1
	`,
		g.ID,
		scopesToTextArray(g.Scopes),
		string(g.Status),
		g.UpdatedAt,
		toNullTime(g.RevokedAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return caregivers.ErrNotFound
	}
	return nil
}

func (r *GrantsRepo) GetByID(ctx context.Context, id string) (caregivers.Grant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return caregivers.Grant{}, caregivers.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+grantColumns+` FROM caregiver_grants WHERE id = $1`, id)
}

func (r *GrantsRepo) GetActiveGrant(ctx context.Context, animalID, granteeUserID string) (caregivers.Grant, error) {
	return r.getOne(ctx, `
		SELECT `+grantColumns+`
		FROM caregiver_grants
		WHERE animal_id = $1 AND grantee_user_id = $2 AND status = $3
		ORDER BY updated_at DESC
		LIMIT 1
	`, strings.TrimSpace(animalID), strings.TrimSpace(granteeUserID), string(caregivers.StatusActive))
}

func (r *GrantsRepo) ListByAnimal(ctx context.Context, animalID string) ([]caregivers.Grant, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return nil, nil
	}
	return r.list(ctx, `
		SELECT `+grantColumns+`
		FROM caregiver_grants
		WHERE animal_id = $1
		ORDER BY created_at ASC
	`, animalID)
}

func (r *GrantsRepo) ListByGrantee(ctx context.Context, granteeUserID string) ([]caregivers.Grant, error) {
	granteeUserID = strings.TrimSpace(granteeUserID)
	if granteeUserID == "" {
		return nil, nil
	}
	return r.list(ctx, `
		SELECT `+grantColumns+`
		FROM caregiver_grants
		WHERE grantee_user_id = $1
		ORDER BY created_at ASC
	`, granteeUserID)
}

func (r *GrantsRepo) getOne(ctx context.Context, query string, args ...any) (caregivers.Grant, error) {
	g, err := scanGrant(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return caregivers.Grant{}, caregivers.ErrNotFound
		}
		return caregivers.Grant{}, err
	}
	return g, nil
}

func (r *GrantsRepo) list(ctx context.Context, query string, args ...any) ([]caregivers.Grant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]caregivers.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanGrant(s scanner) (caregivers.Grant, error) {
	var g caregivers.Grant
	var status string
	var scopes []string
	var revokedAt sql.NullTime

	if err := s.Scan(
		&g.ID,
		&g.AnimalID,
		&g.HouseholdID,
		&g.OwnerUserID,
		&g.GranteeUserID,
		textArray(&scopes),
		&status,
		&g.CreatedAt,
		&g.UpdatedAt,
		&revokedAt,
	); err != nil {
		return caregivers.Grant{}, err
	}

	g.Status = caregivers.Status(status)
	g.Scopes = textArrayToScopes(scopes)
	g.RevokedAt = fromNullTime(revokedAt)
	return g, nil
}

func scopesToTextArray(in []caregivers.Scope) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}

func textArrayToScopes(in []string) []caregivers.Scope {
	out := make([]caregivers.Scope, 0, len(in))
	for _, s := range in {
		out = append(out, caregivers.Scope(s))
	}
	return out
}
