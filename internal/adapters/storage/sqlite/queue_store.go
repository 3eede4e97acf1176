package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vet-med-tracker/internal/offline/queue"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS queued_mutations (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	id              TEXT NOT NULL UNIQUE,
	household_id    TEXT NOT NULL,
	type            TEXT NOT NULL,
	payload         BLOB NOT NULL,
	created_at      INTEGER NOT NULL,
	retries         INTEGER NOT NULL DEFAULT 0,
	max_retries     INTEGER NOT NULL,
	last_error      TEXT NOT NULL DEFAULT '',
	next_attempt_at INTEGER
);
CREATE INDEX IF NOT EXISTS queued_mutations_household_idx ON queued_mutations (household_id, seq);

CREATE TABLE IF NOT EXISTS drain_leases (
	household_id TEXT PRIMARY KEY,
	owner        TEXT NOT NULL,
	expires_at   INTEGER NOT NULL
);
`

// QueueStore persiste la cola offline en un archivo SQLite. Varios procesos pueden abrir
// el mismo archivo; el lease evita drenados simultáneos.
type QueueStore struct {
	db       *sql.DB
	maxItems int
}

// OpenQueueStore abre (o crea) el archivo. maxItems es por hogar; <= 0 = sin límite.
func OpenQueueStore(path string, maxItems int) (*QueueStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "medsync.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Una sola conexión: sqlite serializa escrituras igual y evita SQLITE_BUSY dentro del proceso.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create queue tables: %w", err)
	}
	return &QueueStore{db: db, maxItems: maxItems}, nil
}

func (s *QueueStore) Close() error {
	return s.db.Close()
}

func (s *QueueStore) Put(ctx context.Context, m queue.QueuedMutation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM queued_mutations WHERE id = ?`, m.ID).Scan(&exists); err != nil {
		return err
	}
	if exists > 0 {
		return nil
	}

	if s.maxItems > 0 {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM queued_mutations WHERE household_id = ?`, m.HouseholdID).Scan(&n); err != nil {
			return err
		}
		if n >= s.maxItems {
			return queue.ErrQuotaExceeded
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO queued_mutations (id, household_id, type, payload, created_at, retries, max_retries, last_error, next_attempt_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID,
		m.HouseholdID,
		string(m.Type),
		[]byte(m.Payload),
		m.Timestamp.UnixNano(),
		m.Retries,
		m.MaxRetries,
		m.LastError,
		toNullUnix(m.NextAttemptAt),
	); err != nil {
		if isFull(err) {
			return queue.ErrQuotaExceeded
		}
		return err
	}
	return tx.Commit()
}

func (s *QueueStore) Get(ctx context.Context, id string) (queue.QueuedMutation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+mutationColumns+` FROM queued_mutations WHERE id = ?`, id)
	m, err := scanMutation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return queue.QueuedMutation{}, queue.ErrNotFound
		}
		return queue.QueuedMutation{}, err
	}
	return m, nil
}

func (s *QueueStore) Update(ctx context.Context, m queue.QueuedMutation) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE queued_mutations
		SET retries = ?, last_error = ?, next_attempt_at = ?
		WHERE id = ?
	`, m.Retries, m.LastError, toNullUnix(m.NextAttemptAt), m.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return queue.ErrNotFound
	}
	return nil
}

func (s *QueueStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM queued_mutations WHERE id = ?`, id)
	return err
}

func (s *QueueStore) ListByHousehold(ctx context.Context, householdID string) ([]queue.QueuedMutation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+mutationColumns+`
		FROM queued_mutations
		WHERE household_id = ?
		ORDER BY seq ASC
	`, householdID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]queue.QueuedMutation, 0)
	for rows.Next() {
		m, err := scanMutation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *QueueStore) Count(ctx context.Context, householdID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM queued_mutations WHERE household_id = ?`, householdID).Scan(&n)
	return n, err
}

func (s *QueueStore) DeleteAll(ctx context.Context, householdID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queued_mutations WHERE household_id = ?`, householdID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// AcquireLease es un upsert condicionado: solo pisa un lease propio o vencido.
func (s *QueueStore) AcquireLease(ctx context.Context, householdID, owner string, ttl time.Duration, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO drain_leases (household_id, owner, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (household_id) DO UPDATE
		SET owner = excluded.owner, expires_at = excluded.expires_at
		WHERE drain_leases.owner = excluded.owner OR drain_leases.expires_at <= ?
	`, householdID, owner, now.Add(ttl).UnixNano(), now.UnixNano())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *QueueStore) ReleaseLease(ctx context.Context, householdID, owner string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM drain_leases WHERE household_id = ? AND owner = ?`, householdID, owner)
	return err
}

const mutationColumns = `id, household_id, type, payload, created_at, retries, max_retries, last_error, next_attempt_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanMutation(s scanner) (queue.QueuedMutation, error) {
	var m queue.QueuedMutation
	var kind string
	var payload []byte
	var createdAt int64
	var next sql.NullInt64

	if err := s.Scan(
		&m.ID,
		&m.HouseholdID,
		&kind,
		&payload,
		&createdAt,
		&m.Retries,
		&m.MaxRetries,
		&m.LastError,
		&next,
	); err != nil {
		return queue.QueuedMutation{}, err
	}

	m.Type = queue.Kind(kind)
	m.Payload = payload
	m.Timestamp = time.Unix(0, createdAt).UTC()
	if next.Valid {
		t := time.Unix(0, next.Int64).UTC()
		m.NextAttemptAt = &t
	}
	return m, nil
}

func toNullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

// isFull: SQLITE_FULL (disco lleno) se reporta como cuota excedida.
func isFull(err error) bool {
	return strings.Contains(err.Error(), "SQLITE_FULL") || strings.Contains(err.Error(), "database or disk is full")
}
