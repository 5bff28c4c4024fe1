package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/rsalab/internal/crypto"
	"github.com/udisondev/rsalab/internal/lab"
)

// HistoryRepository implements lab.History backed by PostgreSQL.
// Only public key parts are stored; the private exponent never reaches it.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// Compile-time check.
var _ lab.History = (*HistoryRepository)(nil)

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// SaveKey stores a public key once; later saves of the same fingerprint are
// no-ops, so the size recorded at generation time is kept.
func (r *HistoryRepository) SaveKey(ctx context.Context, pub crypto.PublicKey, size crypto.PrimeSize) error {
	fp := pub.Fingerprint()
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO lab_keys (fingerprint, prime_size, e, n)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (fingerprint) DO NOTHING`,
		fp, string(size), pub.E.String(), pub.N.String()); err != nil {
		return fmt.Errorf("insert key %s: %w", fp, err)
	}
	return nil
}

// SaveRun stores one operation. A zero ID or timestamp is filled in.
func (r *HistoryRepository) SaveRun(ctx context.Context, run lab.Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO lab_runs (id, operation, key_fingerprint, input, output, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, string(run.Operation), run.KeyFingerprint, run.Input, run.Output, run.CreatedAt); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// KeyRow is a stored public key.
type KeyRow struct {
	Fingerprint string
	PrimeSize   crypto.PrimeSize
	E, N        string
	CreatedAt   time.Time
}

// GetKey returns the stored key for fingerprint.
// Returns nil, nil if it does not exist.
func (r *HistoryRepository) GetKey(ctx context.Context, fingerprint string) (*KeyRow, error) {
	var row KeyRow
	var size string
	err := r.pool.QueryRow(ctx,
		`SELECT fingerprint, prime_size, e, n, created_at
		 FROM lab_keys WHERE fingerprint = $1`, fingerprint,
	).Scan(&row.Fingerprint, &size, &row.E, &row.N, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query key %s: %w", fingerprint, err)
	}
	row.PrimeSize = crypto.PrimeSize(size)
	return &row, nil
}

// RecentRuns returns up to limit runs, newest first.
func (r *HistoryRepository) RecentRuns(ctx context.Context, limit int) ([]lab.Run, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, operation, key_fingerprint, input, output, created_at
		 FROM lab_runs ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var result []lab.Run
	for rows.Next() {
		var run lab.Run
		var op string
		if err := rows.Scan(&run.ID, &op, &run.KeyFingerprint, &run.Input, &run.Output, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		run.Operation = lab.Operation(op)
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return result, nil
}
