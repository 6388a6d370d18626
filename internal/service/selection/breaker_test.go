package selection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gobreaker "github.com/sony/gobreaker/v2"
)

func TestBreakerHistorySource_OpensAfterConsecutiveFailures(t *testing.T) {
	dbErr := errors.New("too many connections")
	next := &fakeHistory{err: dbErr}
	source := NewBreakerHistorySource(next, BreakerSettings{ConsecutiveFailures: 2, Timeout: time.Minute})
	ctx := context.Background()

	_, err := source.RecentHistory(ctx, 1, 1, 10)
	assert.True(t, errors.Is(err, dbErr))
	_, err = source.RecentHistory(ctx, 1, 1, 10)
	assert.True(t, errors.Is(err, dbErr))

	require.Equal(t, gobreaker.StateOpen, source.State())

	_, err = source.RecentHistory(ctx, 1, 1, 10)

	assert.True(t, errors.Is(err, ErrHistoryUnavailable))
	assert.Equal(t, int32(2), next.calls.Load(), "Разомкнутая цепь не обращается к источнику")
}

func TestBreakerHistorySource_PassesThroughHistory(t *testing.T) {
	expected := seenHistory(1, 2)
	source := NewBreakerHistorySource(&fakeHistory{history: expected}, BreakerSettings{})

	history, err := source.RecentHistory(context.Background(), 1, 1, 10)

	require.NoError(t, err)
	assert.Equal(t, expected, history)
	assert.Equal(t, gobreaker.StateClosed, source.State())
}

func TestBreakerHistorySource_CancellationDoesNotTrip(t *testing.T) {
	next := &fakeHistory{err: context.Canceled}
	source := NewBreakerHistorySource(next, BreakerSettings{ConsecutiveFailures: 1, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := source.RecentHistory(context.Background(), 1, 1, 10)
		assert.True(t, errors.Is(err, context.Canceled))
	}

	assert.Equal(t, gobreaker.StateClosed, source.State())
	assert.Equal(t, int32(3), next.calls.Load())
}

func TestEngine_OpenBreakerSelectsAsColdStart(t *testing.T) {
	next := &fakeHistory{err: errors.New("down")}
	source := NewBreakerHistorySource(next, BreakerSettings{ConsecutiveFailures: 1, Timeout: time.Minute})
	catalog := &fakeCatalog{items: balancedPool(3)}
	engine := newTestEngine(t, &Dependencies{Catalog: catalog, History: source}, 21)
	req := Request{CategoryID: 1, DesiredCount: 6, Algorithm: AlgorithmWeightedRandom, RequesterID: 1}

	for i := 0; i < 3; i++ {
		result, err := engine.Select(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 0, result.OverlapUsed)
	}

	assert.Equal(t, int32(1), next.calls.Load())
}
