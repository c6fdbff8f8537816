package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/labelproof/internal/model"
)

// Pool abstracts the pgx connection pool so tests can substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS verification_results (
	id                 TEXT PRIMARY KEY,
	brand_name         TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL,
	overall_confidence DOUBLE PRECISION NOT NULL,
	result             JSONB NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS item_failures (
	id         TEXT PRIMARY KEY,
	brand_name TEXT NOT NULL DEFAULT '',
	reason     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_results_status ON verification_results(status);
CREATE INDEX IF NOT EXISTS idx_results_brand ON verification_results(brand_name);
CREATE INDEX IF NOT EXISTS idx_failures_created ON item_failures(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, brandName string, result *model.VerificationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO verification_results (id, brand_name, status, overall_confidence, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		result.ID, brandName, string(result.Status), result.OverallConfidence, payload, result.Timestamp,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert result %s", result.ID)
	}
	return nil
}

func (s *PostgresStore) GetResult(ctx context.Context, id string) (*model.VerificationResult, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT result FROM verification_results WHERE id = $1`, id,
	).Scan(&payload)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get result %s", id)
	}

	var result model.VerificationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal result %s", id)
	}
	return &result, nil
}

func (s *PostgresStore) ListResults(ctx context.Context, filter ResultFilter) ([]ResultRecord, error) {
	query := `SELECT brand_name, result FROM verification_results`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ` + strconv.Itoa(filter.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	var records []ResultRecord
	for rows.Next() {
		var rec ResultRecord
		var payload []byte
		if err := rows.Scan(&rec.BrandName, &payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		if err := json.Unmarshal(payload, &rec.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate results")
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[model.VerificationStatus]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM verification_results GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count by status")
	}
	defer rows.Close()

	counts := make(map[model.VerificationStatus]int)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan count")
		}
		counts[model.VerificationStatus(status)] = int(n)
	}
	return counts, eris.Wrap(rows.Err(), "postgres: iterate counts")
}

func (s *PostgresStore) SaveFailure(ctx context.Context, failure *ItemFailure) error {
	if failure.ID == "" {
		failure.ID = uuid.New().String()
	}
	if failure.CreatedAt.IsZero() {
		failure.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO item_failures (id, brand_name, reason, created_at) VALUES ($1, $2, $3, $4)`,
		failure.ID, failure.BrandName, failure.Reason, failure.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert failure")
}

func (s *PostgresStore) ListFailures(ctx context.Context, limit int) ([]ItemFailure, error) {
	query := `SELECT id, brand_name, reason, created_at FROM item_failures ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(limit)
	}

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list failures")
	}
	defer rows.Close()

	var failures []ItemFailure
	for rows.Next() {
		var f ItemFailure
		if err := rows.Scan(&f.ID, &f.BrandName, &f.Reason, &f.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan failure")
		}
		failures = append(failures, f)
	}
	return failures, eris.Wrap(rows.Err(), "postgres: iterate failures")
}
