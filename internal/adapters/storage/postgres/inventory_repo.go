package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"vet-med-tracker/internal/domain/inventory"
)

type InventoryRepo struct {
	db *sql.DB
}

func NewInventoryRepo(db *sql.DB) *InventoryRepo {
	return &InventoryRepo{db: db}
}

const itemColumns = `
	id, household_id, medication_name,
	quantity, unit, low_stock_threshold,
	in_use, in_use_since, expires_at, notes,
	created_at, updated_at`

func (r *InventoryRepo) Create(ctx context.Context, it inventory.Item) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inventory_items (`+itemColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		it.ID,
		it.HouseholdID,
		it.MedicationName,
		it.Quantity,
		it.Unit,
		it.LowStockThreshold,
		it.InUse,
		toNullTime(it.InUseSince),
		toNullTime(it.ExpiresAt),
		it.Notes,
		it.CreatedAt,
		it.UpdatedAt,
	)
	return err
}

// Update no toca quantity: eso pasa solo por AdjustQuantity.
func (r *InventoryRepo) Update(ctx context.Context, it inventory.Item) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET
			medication_name = $2,
			unit = $3,
			low_stock_threshold = $4,
			in_use = $5,
			in_use_since = $6,
			expires_at = $7,
			notes = $8,
			updated_at = $9
		WHERE id = $1
	`,
		it.ID,
		it.MedicationName,
		it.Unit,
		it.LowStockThreshold,
		it.InUse,
		toNullTime(it.InUseSince),
		toNullTime(it.ExpiresAt),
		it.Notes,
		it.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return inventory.ErrNotFound
	}
	return nil
}

func (r *InventoryRepo) GetByID(ctx context.Context, id string) (inventory.Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return inventory.Item{}, inventory.ErrNotFound
	}
	it, err := scanItem(r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return inventory.Item{}, inventory.ErrNotFound
		}
		return inventory.Item{}, err
	}
	return it, nil
}

func (r *InventoryRepo) ListByHousehold(ctx context.Context, householdID string) ([]inventory.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM inventory_items
		WHERE household_id = $1
		ORDER BY created_at ASC
	`, strings.TrimSpace(householdID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]inventory.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *InventoryRepo) AdjustQuantity(ctx context.Context, id string, delta float64, key string, at time.Time) (inventory.Item, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return inventory.Item{}, err
	}
	defer func() { _ = tx.Rollback() }()

	it, err := scanItem(tx.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return inventory.Item{}, inventory.ErrNotFound
		}
		return inventory.Item{}, err
	}

	if key != "" {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO inventory_adjustments (item_id, idempotency_key, delta, applied_at)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (item_id, idempotency_key) DO NOTHING
		`, id, key, delta, at)
		if err != nil {
			return inventory.Item{}, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// ya aplicado
			return it, tx.Commit()
		}
	}

	if it.Quantity+delta < 0 {
		return inventory.Item{}, inventory.ErrInsufficientStock
	}

	it, err = scanItem(tx.QueryRowContext(ctx, `
		UPDATE inventory_items
		SET quantity = quantity + $2, updated_at = $3
		WHERE id = $1
		RETURNING `+itemColumns, id, delta, at))
	if err != nil {
		return inventory.Item{}, err
	}
	return it, tx.Commit()
}

func scanItem(s scanner) (inventory.Item, error) {
	var it inventory.Item
	var inUseSince, expiresAt sql.NullTime

	if err := s.Scan(
		&it.ID,
		&it.HouseholdID,
		&it.MedicationName,
		&it.Quantity,
		&it.Unit,
		&it.LowStockThreshold,
		&it.InUse,
		&inUseSince,
		&expiresAt,
		&it.Notes,
		&it.CreatedAt,
		&it.UpdatedAt,
	); err != nil {
		return inventory.Item{}, err
	}

	it.InUseSince = fromNullTime(inUseSince)
	it.ExpiresAt = fromNullTime(expiresAt)
	return it, nil
}
