package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/labelproof/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS verification_results (
	id                 TEXT PRIMARY KEY,
	brand_name         TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL,
	overall_confidence REAL NOT NULL,
	result             TEXT NOT NULL,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS item_failures (
	id         TEXT PRIMARY KEY,
	brand_name TEXT NOT NULL DEFAULT '',
	reason     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_results_status ON verification_results(status);
CREATE INDEX IF NOT EXISTS idx_results_brand ON verification_results(brand_name);
CREATE INDEX IF NOT EXISTS idx_failures_created ON item_failures(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveResult(ctx context.Context, brandName string, result *model.VerificationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO verification_results (id, brand_name, status, overall_confidence, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		result.ID, brandName, string(result.Status), result.OverallConfidence, string(payload), result.Timestamp,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert result %s", result.ID)
	}
	return nil
}

func (s *SQLiteStore) GetResult(ctx context.Context, id string) (*model.VerificationResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM verification_results WHERE id = ?`, id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get result %s", id)
	}

	var result model.VerificationResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal result %s", id)
	}
	return &result, nil
}

func (s *SQLiteStore) ListResults(ctx context.Context, filter ResultFilter) ([]ResultRecord, error) {
	query := `SELECT brand_name, result FROM verification_results`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list results")
	}
	defer rows.Close()

	var records []ResultRecord
	for rows.Next() {
		var rec ResultRecord
		var payload string
		if err := rows.Scan(&rec.BrandName, &payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		if err := json.Unmarshal([]byte(payload), &rec.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate results")
}

func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[model.VerificationStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM verification_results GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by status")
	}
	defer rows.Close()

	counts := make(map[model.VerificationStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan count")
		}
		counts[model.VerificationStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: iterate counts")
}

func (s *SQLiteStore) SaveFailure(ctx context.Context, failure *ItemFailure) error {
	if failure.ID == "" {
		failure.ID = uuid.New().String()
	}
	if failure.CreatedAt.IsZero() {
		failure.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO item_failures (id, brand_name, reason, created_at) VALUES (?, ?, ?, ?)`,
		failure.ID, failure.BrandName, failure.Reason, failure.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert failure")
}

func (s *SQLiteStore) ListFailures(ctx context.Context, limit int) ([]ItemFailure, error) {
	query := `SELECT id, brand_name, reason, created_at FROM item_failures ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list failures")
	}
	defer rows.Close()

	var failures []ItemFailure
	for rows.Next() {
		var f ItemFailure
		if err := rows.Scan(&f.ID, &f.BrandName, &f.Reason, &f.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan failure")
		}
		failures = append(failures, f)
	}
	return failures, eris.Wrap(rows.Err(), "sqlite: iterate failures")
}
