package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"vet-med-tracker/internal/domain/administrations"
	"vet-med-tracker/internal/domain/due"
)

type AdministrationsRepo struct {
	db *sql.DB
}

func NewAdministrationsRepo(db *sql.DB) *AdministrationsRepo {
	return &AdministrationsRepo{db: db}
}

const administrationColumns = `
	id, regimen_id, animal_id, household_id, caregiver_id,
	recorded_at, administered_at, scheduled_for,
	status, past_cutoff, idempotency_key, notes,
	cosign_status, cosigned_by, cosigned_at,
	voided, voided_at`

func (r *AdministrationsRepo) Create(ctx context.Context, a administrations.Administration) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO administrations (`+administrationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		a.ID,
		a.RegimenID,
		a.AnimalID,
		a.HouseholdID,
		a.CaregiverID,
		a.RecordedAt,
		a.AdministeredAt,
		toNullTime(a.ScheduledFor),
		string(a.Status),
		a.PastCutoff,
		a.IdempotencyKey,
		a.Notes,
		string(a.CosignStatus),
		a.CosignedBy,
		toNullTime(a.CosignedAt),
		a.Voided,
		toNullTime(a.VoidedAt),
	)
	if isUniqueViolation(err) {
		return administrations.ErrDuplicate
	}
	return err
}

// Update solo cambia co-firma y anulación; el resto es inmutable.
func (r *AdministrationsRepo) Update(ctx context.Context, a administrations.Administration) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE administrations
		SET
			cosign_status = $2,
			cosigned_by = $3,
			cosigned_at = $4,
			voided = $5,
			voided_at = $6,
			notes = $7
		WHERE id = $1
	`,
		a.ID,
		string(a.CosignStatus),
		a.CosignedBy,
		toNullTime(a.CosignedAt),
		a.Voided,
		toNullTime(a.VoidedAt),
		a.Notes,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return administrations.ErrNotFound
	}
	return nil
}

func (r *AdministrationsRepo) GetByID(ctx context.Context, id string) (administrations.Administration, error) {
	return r.getOne(ctx, `SELECT `+administrationColumns+` FROM administrations WHERE id = $1`, strings.TrimSpace(id))
}

func (r *AdministrationsRepo) GetByIdempotencyKey(ctx context.Context, householdID, key string) (administrations.Administration, error) {
	householdID, key = strings.TrimSpace(householdID), strings.TrimSpace(key)
	if householdID == "" || key == "" {
		return administrations.Administration{}, administrations.ErrNotFound
	}
	a, err := scanAdministration(r.db.QueryRowContext(ctx,
		`SELECT `+administrationColumns+` FROM administrations WHERE household_id = $1 AND idempotency_key = $2`,
		householdID, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return administrations.Administration{}, administrations.ErrNotFound
		}
		return administrations.Administration{}, err
	}
	return a, nil
}

func (r *AdministrationsRepo) ListByAnimal(ctx context.Context, animalID string, filter administrations.ListFilter) ([]administrations.Administration, error) {
	return r.list(ctx, "animal_id", animalID, filter)
}

func (r *AdministrationsRepo) ListByHousehold(ctx context.Context, householdID string, filter administrations.ListFilter) ([]administrations.Administration, error) {
	return r.list(ctx, "household_id", householdID, filter)
}

func (r *AdministrationsRepo) getOne(ctx context.Context, query string, arg string) (administrations.Administration, error) {
	if arg == "" {
		return administrations.Administration{}, administrations.ErrNotFound
	}
	a, err := scanAdministration(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return administrations.Administration{}, administrations.ErrNotFound
		}
		return administrations.Administration{}, err
	}
	return a, nil
}

// list arma el WHERE con placeholders; column viene siempre de este paquete.
func (r *AdministrationsRepo) list(ctx context.Context, column, value string, f administrations.ListFilter) ([]administrations.Administration, error) {
	query, args := buildListQuery(column, value, f)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]administrations.Administration, 0)
	for rows.Next() {
		a, err := scanAdministration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func buildListQuery(column, value string, f administrations.ListFilter) (string, []any) {
	where := []string{column + " = $1"}
	args := []any{strings.TrimSpace(value)}

	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if !f.IncludeVoided {
		where = append(where, "NOT voided")
	}
	if len(f.RegimenIDs) > 0 {
		add("regimen_id = ANY($%d)", f.RegimenIDs)
	}
	if len(f.Statuses) > 0 {
		add("status = ANY($%d)", statusesToText(f.Statuses))
	}
	if f.From != nil {
		add("administered_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("administered_at <= $%d", *f.To)
	}

	query := `SELECT ` + administrationColumns + ` FROM administrations WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY administered_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}

func statusesToText(in []due.Status) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}

func scanAdministration(s scanner) (administrations.Administration, error) {
	var a administrations.Administration
	var status, cosign string
	var scheduledFor, cosignedAt, voidedAt sql.NullTime

	if err := s.Scan(
		&a.ID,
		&a.RegimenID,
		&a.AnimalID,
		&a.HouseholdID,
		&a.CaregiverID,
		&a.RecordedAt,
		&a.AdministeredAt,
		&scheduledFor,
		&status,
		&a.PastCutoff,
		&a.IdempotencyKey,
		&a.Notes,
		&cosign,
		&a.CosignedBy,
		&cosignedAt,
		&a.Voided,
		&voidedAt,
	); err != nil {
		return administrations.Administration{}, err
	}

	a.Status = due.Status(status)
	a.CosignStatus = administrations.CosignStatus(cosign)
	a.ScheduledFor = fromNullTime(scheduledFor)
	a.CosignedAt = fromNullTime(cosignedAt)
	a.VoidedAt = fromNullTime(voidedAt)
	return a, nil
}
