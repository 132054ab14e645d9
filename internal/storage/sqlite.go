package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/raviprakash-14/scrapify/internal/valuation"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements EstimateStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and creates if needed) the cache database at
// dbPath. ":memory:" gives a private in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Configure SQLite with WAL mode and busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	if dbPath != ":memory:" {
		if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
			db.Close()
			return nil, fmt.Errorf("failed to set database permissions: %w", err)
		}
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS estimate_cache (
		request_key TEXT PRIMARY KEY,
		estimated_value REAL NOT NULL,
		material_composition TEXT NOT NULL,
		item_condition TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to create estimate_cache table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_estimate_cache_created_at ON estimate_cache(created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create estimate_cache index: %w", err)
	}
	return nil
}

// GetEstimate retrieves a cached estimate. Returns nil, nil if no entry
// exists.
func (s *SQLiteStore) GetEstimate(ctx context.Context, key string) (*valuation.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res valuation.Result
	err := s.db.QueryRowContext(ctx,
		"SELECT estimated_value, material_composition, item_condition FROM estimate_cache WHERE request_key = ?",
		key,
	).Scan(&res.EstimatedValue, &res.MaterialComposition, &res.Condition)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query estimate cache: %w", err)
	}
	return &res, nil
}

// PutEstimate stores an estimate, replacing any previous entry for key.
func (s *SQLiteStore) PutEstimate(ctx context.Context, key string, result *valuation.Result) error {
	if err := checkResult(result); err != nil {
		return fmt.Errorf("failed to cache estimate: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO estimate_cache (request_key, estimated_value, material_composition, item_condition, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(request_key) DO UPDATE SET
			estimated_value = excluded.estimated_value,
			material_composition = excluded.material_composition,
			item_condition = excluded.item_condition,
			created_at = excluded.created_at
	`, key, result.EstimatedValue, result.MaterialComposition, result.Condition, time.Now().Unix())

	if err != nil {
		return fmt.Errorf("failed to cache estimate: %w", err)
	}
	return nil
}

// PruneEstimates removes estimates older than the given duration.
func (s *SQLiteStore) PruneEstimates(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan).Unix()
	result, err := s.db.ExecContext(ctx, `DELETE FROM estimate_cache WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune estimate cache: %w", err)
	}
	return result.RowsAffected()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
