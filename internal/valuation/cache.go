package valuation

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"hash"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"
)

// Cache stores successful estimates keyed by a digest of the request.
// Get returns nil, nil on a miss.
type Cache interface {
	GetEstimate(ctx context.Context, key string) (*Result, error)
	PutEstimate(ctx context.Context, key string, result *Result) error
}

// CachedEstimator wraps an Estimator with a result cache.
type CachedEstimator struct {
	inner Estimator
	cache Cache
	key   [32]byte
}

// NewCachedEstimator creates a cached estimator. The salt keys the request
// digest so separate deployments never share cache entries.
func NewCachedEstimator(inner Estimator, cache Cache, salt string) *CachedEstimator {
	return &CachedEstimator{
		inner: inner,
		cache: cache,
		key:   blake2b.Sum256([]byte(salt)),
	}
}

// requestKey hashes photo bytes and description with length prefixes to
// prevent boundary collisions.
func (c *CachedEstimator) requestKey(req Request) string {
	h, err := blake2b.New256(c.key[:])
	if err != nil {
		// Only possible for keys over 64 bytes.
		panic(err)
	}
	writeField(h, []byte(req.Photo.MIMEType))
	writeField(h, req.Photo.Data)
	writeField(h, []byte(req.Description))
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h hash.Hash, b []byte) {
	binary.Write(h, binary.LittleEndian, int64(len(b)))
	h.Write(b)
}

// Estimate implements the Estimator interface with caching.
func (c *CachedEstimator) Estimate(ctx context.Context, req Request) (*Estimation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	key := c.requestKey(req)

	if c.cache != nil {
		cached, err := c.cache.GetEstimate(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check estimate cache")
		} else if cached != nil {
			log.Debug().Str("key", key[:16]).Msg("estimate cache hit")
			return &Estimation{Result: cached, Cached: true}, nil
		}
	}

	estimation, err := c.inner.Estimate(ctx, req)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && estimation.Result != nil {
		if err := c.cache.PutEstimate(ctx, key, estimation.Result); err != nil {
			log.Warn().Err(err).Msg("failed to cache estimate")
		} else {
			log.Debug().Str("key", key[:16]).Msg("cached estimate")
		}
	}

	return estimation, nil
}
