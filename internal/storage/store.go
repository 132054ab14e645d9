package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raviprakash-14/scrapify/internal/valuation"
	"github.com/rs/zerolog/log"
)

// DefaultEstimateMaxAge is how long cached estimates are kept. Scrap prices
// move, so old estimates are dropped rather than served forever.
const DefaultEstimateMaxAge = 7 * 24 * time.Hour

// EstimateStore is a disposable cache of valuation results keyed by request
// digest. Nothing in it is user state.
type EstimateStore interface {
	valuation.Cache
	PruneEstimates(ctx context.Context, olderThan time.Duration) (int64, error)
	Close() error
}

// Open returns a Postgres store when databaseURL is set, otherwise a
// SQLite store at dbPath.
func Open(ctx context.Context, databaseURL, dbPath string) (EstimateStore, error) {
	if strings.TrimSpace(databaseURL) != "" {
		store, err := NewPostgresStore(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("estimate cache using postgres")
		return store, nil
	}
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", dbPath).Msg("estimate cache using sqlite")
	return store, nil
}

// RunPruner periodically removes estimates older than maxAge until ctx is
// cancelled.
func RunPruner(ctx context.Context, store EstimateStore, every, maxAge time.Duration) {
	log.Info().Dur("interval", every).Dur("maxAge", maxAge).Msg("starting estimate cache pruner")

	prune := func() {
		n, err := store.PruneEstimates(ctx, maxAge)
		if err != nil {
			log.Error().Err(err).Msg("failed to prune estimate cache")
			return
		}
		if n > 0 {
			log.Info().Int64("count", n).Msg("pruned old estimates")
		}
	}
	prune()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("estimate cache pruner stopped")
			return
		case <-ticker.C:
			prune()
		}
	}
}

func checkResult(result *valuation.Result) error {
	if result == nil {
		return fmt.Errorf("cannot cache nil estimate")
	}
	return result.Validate()
}
