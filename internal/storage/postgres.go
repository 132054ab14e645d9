package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/raviprakash-14/scrapify/internal/valuation"
)

// PostgresStore implements EstimateStore on PostgreSQL through the pgx
// database/sql driver.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS estimate_cache (
		request_key TEXT PRIMARY KEY,
		estimated_value DOUBLE PRECISION NOT NULL,
		material_composition TEXT NOT NULL,
		item_condition TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create estimate_cache table: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_estimate_cache_created_at ON estimate_cache(created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create estimate_cache index: %w", err)
	}
	return nil
}

// GetEstimate returns nil, nil if no entry exists.
func (s *PostgresStore) GetEstimate(ctx context.Context, key string) (*valuation.Result, error) {
	var res valuation.Result
	err := s.db.QueryRowContext(ctx,
		`SELECT estimated_value, material_composition, item_condition FROM estimate_cache WHERE request_key = $1`,
		key,
	).Scan(&res.EstimatedValue, &res.MaterialComposition, &res.Condition)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query estimate cache: %w", err)
	}
	return &res, nil
}

func (s *PostgresStore) PutEstimate(ctx context.Context, key string, result *valuation.Result) error {
	if err := checkResult(result); err != nil {
		return fmt.Errorf("failed to cache estimate: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO estimate_cache (request_key, estimated_value, material_composition, item_condition, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (request_key) DO UPDATE SET
			estimated_value = EXCLUDED.estimated_value,
			material_composition = EXCLUDED.material_composition,
			item_condition = EXCLUDED.item_condition,
			created_at = EXCLUDED.created_at
	`, key, result.EstimatedValue, result.MaterialComposition, result.Condition, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to cache estimate: %w", err)
	}
	return nil
}

func (s *PostgresStore) PruneEstimates(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	result, err := s.db.ExecContext(ctx, `DELETE FROM estimate_cache WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune estimate cache: %w", err)
	}
	return result.RowsAffected()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
