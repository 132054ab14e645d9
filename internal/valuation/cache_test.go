package valuation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	entries map[string]*Result
	getErr  error
	puts    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*Result)}
}

func (m *mapCache) GetEstimate(ctx context.Context, key string) (*Result, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.entries[key], nil
}

func (m *mapCache) PutEstimate(ctx context.Context, key string, result *Result) error {
	m.puts++
	m.entries[key] = result
	return nil
}

func countingEstimator(calls *int, res *Result, err error) Estimator {
	return EstimatorFunc(func(ctx context.Context, req Request) (*Estimation, error) {
		*calls++
		if err != nil {
			return nil, err
		}
		return &Estimation{Result: res}, nil
	})
}

func TestCachedEstimator_HitSkipsInner(t *testing.T) {
	calls := 0
	want := &Result{EstimatedValue: 42.5, MaterialComposition: "Aluminum, plastic", Condition: "Fair"}
	cache := newMapCache()
	est := NewCachedEstimator(countingEstimator(&calls, want, nil), cache, "salt")

	req := testRequest(t, "old laptop")

	first, err := est.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := est.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, want, second.Result)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.puts)
}

func TestCachedEstimator_DifferentDescriptionMisses(t *testing.T) {
	calls := 0
	res := &Result{EstimatedValue: 1, MaterialComposition: "Steel", Condition: "Poor"}
	est := NewCachedEstimator(countingEstimator(&calls, res, nil), newMapCache(), "salt")

	_, err := est.Estimate(context.Background(), testRequest(t, "steel beam"))
	require.NoError(t, err)
	_, err = est.Estimate(context.Background(), testRequest(t, "steel beams"))
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestCachedEstimator_SaltChangesKey(t *testing.T) {
	req := testRequest(t, "copper wire")
	a := NewCachedEstimator(nil, nil, "one")
	b := NewCachedEstimator(nil, nil, "two")

	assert.NotEqual(t, a.requestKey(req), b.requestKey(req))
	assert.Equal(t, a.requestKey(req), NewCachedEstimator(nil, nil, "one").requestKey(req))
}

func TestCachedEstimator_FailuresNotCached(t *testing.T) {
	calls := 0
	cache := newMapCache()
	est := NewCachedEstimator(countingEstimator(&calls, nil, ErrEstimationFailed), cache, "salt")

	_, err := est.Estimate(context.Background(), testRequest(t, "old laptop"))
	assert.ErrorIs(t, err, ErrEstimationFailed)
	assert.Empty(t, cache.entries)
}

func TestCachedEstimator_CacheErrorFallsThrough(t *testing.T) {
	calls := 0
	res := &Result{EstimatedValue: 3, MaterialComposition: "Brass", Condition: "Good"}
	cache := newMapCache()
	cache.getErr = errors.New("disk I/O error")
	est := NewCachedEstimator(countingEstimator(&calls, res, nil), cache, "salt")

	out, err := est.Estimate(context.Background(), testRequest(t, "brass fittings"))
	require.NoError(t, err)
	assert.Equal(t, res, out.Result)
	assert.Equal(t, 1, calls)
}
