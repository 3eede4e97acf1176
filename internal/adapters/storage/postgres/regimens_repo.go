package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"vet-med-tracker/internal/domain/regimens"
	"vet-med-tracker/internal/domain/schedule"
)

type RegimensRepo struct {
	db *sql.DB
}

func NewRegimensRepo(db *sql.DB) *RegimensRepo {
	return &RegimensRepo{db: db}
}

const regimenColumns = `
	id, animal_id, household_id,
	medication_name, dose, dose_unit, route,
	schedule_kind, times_local, interval_hours, cutoff_minutes,
	high_risk, requires_cosign,
	inventory_item_id, dose_quantity,
	start_date, end_date, active, deleted_at,
	notes, created_at, updated_at`

func (r *RegimensRepo) Create(ctx context.Context, reg regimens.Regimen) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO regimens (`+regimenColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
	`,
		reg.ID,
		reg.AnimalID,
		reg.HouseholdID,
		reg.MedicationName,
		reg.Dose,
		reg.DoseUnit,
		string(reg.Route),
		string(reg.Schedule.Kind),
		timesOrEmpty(reg.Schedule.TimesLocal),
		reg.Schedule.IntervalHours,
		reg.CutoffMinutes,
		reg.HighRisk,
		reg.RequiresCosign,
		reg.InventoryItemID,
		reg.DoseQuantity,
		reg.StartDate,
		toNullTime(reg.EndDate),
		reg.Active,
		toNullTime(reg.DeletedAt),
		reg.Notes,
		reg.CreatedAt,
		reg.UpdatedAt,
	)
	return err
}

func (r *RegimensRepo) Update(ctx context.Context, reg regimens.Regimen) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE regimens
		SET
			medication_name = $2,
			dose = $3,
			dose_unit = $4,
			route = $5,
			schedule_kind = $6,
			times_local = $7,
			interval_hours = $8,
			cutoff_minutes = $9,
			high_risk = $10,
			requires_cosign = $11,
			inventory_item_id = $12,
			dose_quantity = $13,
			start_date = $14,
			end_date = $15,
			active = $16,
			deleted_at = $17,
			notes = $18,
			updated_at = $19
		WHERE id = $1
	`,
		reg.ID,
		reg.MedicationName,
		reg.Dose,
		reg.DoseUnit,
		string(reg.Route),
		string(reg.Schedule.Kind),
		timesOrEmpty(reg.Schedule.TimesLocal),
		reg.Schedule.IntervalHours,
		reg.CutoffMinutes,
		reg.HighRisk,
		reg.RequiresCosign,
		reg.InventoryItemID,
		reg.DoseQuantity,
		reg.StartDate,
		toNullTime(reg.EndDate),
		reg.Active,
		toNullTime(reg.DeletedAt),
		reg.Notes,
		reg.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return regimens.ErrNotFound
	}
	return nil
}

func (r *RegimensRepo) GetByID(ctx context.Context, id string) (regimens.Regimen, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return regimens.Regimen{}, regimens.ErrNotFound
	}

	reg, err := scanRegimen(r.db.QueryRowContext(ctx, `SELECT `+regimenColumns+` FROM regimens WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return regimens.Regimen{}, regimens.ErrNotFound
		}
		return regimens.Regimen{}, err
	}
	return reg, nil
}

func (r *RegimensRepo) ListByAnimal(ctx context.Context, animalID string) ([]regimens.Regimen, error) {
	return r.list(ctx, `
		SELECT `+regimenColumns+`
		FROM regimens
		WHERE animal_id = $1
		ORDER BY created_at ASC
	`, strings.TrimSpace(animalID))
}

func (r *RegimensRepo) ListActiveByHousehold(ctx context.Context, householdID string) ([]regimens.Regimen, error) {
	return r.list(ctx, `
		SELECT `+regimenColumns+`
		FROM regimens
		WHERE household_id = $1 AND active AND deleted_at IS NULL
		ORDER BY created_at ASC
	`, strings.TrimSpace(householdID))
}

func (r *RegimensRepo) list(ctx context.Context, query string, args ...any) ([]regimens.Regimen, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]regimens.Regimen, 0)
	for rows.Next() {
		reg, err := scanRegimen(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func scanRegimen(s scanner) (regimens.Regimen, error) {
	var reg regimens.Regimen
	var route, kind string
	var times []string
	var endDate, deletedAt sql.NullTime

	if err := s.Scan(
		&reg.ID,
		&reg.AnimalID,
		&reg.HouseholdID,
		&reg.MedicationName,
		&reg.Dose,
		&reg.DoseUnit,
		&route,
		&kind,
		textArray(&times),
		&reg.Schedule.IntervalHours,
		&reg.CutoffMinutes,
		&reg.HighRisk,
		&reg.RequiresCosign,
		&reg.InventoryItemID,
		&reg.DoseQuantity,
		&reg.StartDate,
		&endDate,
		&reg.Active,
		&deletedAt,
		&reg.Notes,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	); err != nil {
		return regimens.Regimen{}, err
	}

	reg.Route = regimens.Route(route)
	reg.Schedule.Kind = schedule.Kind(kind)
	if len(times) > 0 {
		reg.Schedule.TimesLocal = times
	}
	reg.EndDate = fromNullTime(endDate)
	reg.DeletedAt = fromNullTime(deletedAt)
	return reg, nil
}

func timesOrEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
