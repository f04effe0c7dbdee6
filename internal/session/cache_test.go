package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f1nsight/telemetry/internal/session"
	"github.com/f1nsight/telemetry/internal/telemetry"
	"github.com/f1nsight/telemetry/internal/timeutil"
)

// countingLoader records how many times each key was loaded through.
type countingLoader struct {
	loads map[session.Key]int
	err   error
}

func newCountingLoader() *countingLoader {
	return &countingLoader{loads: make(map[session.Key]int)}
}

func (l *countingLoader) Load(_ context.Context, key session.Key) (*telemetry.SessionData, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.loads[key]++
	return &telemetry.SessionData{Info: telemetry.SessionInfo{
		Year: key.Year, EventName: key.Event, Session: key.Session,
	}}, nil
}

var testKey = session.Key{Year: 2024, Event: "Monaco", Session: "Q"}

func TestCacheLoad(t *testing.T) {
	t.Parallel()

	t.Run("second load within the TTL is served from cache", func(t *testing.T) {
		t.Parallel()
		loader := newCountingLoader()
		clock := timeutil.NewMockClock(time.Unix(1700000000, 0))
		cache := session.NewCache(loader, 10*time.Minute, clock)

		first, err := cache.Load(context.Background(), testKey)
		require.NoError(t, err)
		clock.Advance(9 * time.Minute)
		second, err := cache.Load(context.Background(), testKey)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, 1, loader.loads[testKey])
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("expired entry loads through again", func(t *testing.T) {
		t.Parallel()
		loader := newCountingLoader()
		clock := timeutil.NewMockClock(time.Unix(1700000000, 0))
		cache := session.NewCache(loader, 10*time.Minute, clock)

		_, err := cache.Load(context.Background(), testKey)
		require.NoError(t, err)
		clock.Advance(11 * time.Minute)
		_, err = cache.Load(context.Background(), testKey)
		require.NoError(t, err)

		assert.Equal(t, 2, loader.loads[testKey])
	})

	t.Run("zero TTL never expires", func(t *testing.T) {
		t.Parallel()
		loader := newCountingLoader()
		clock := timeutil.NewMockClock(time.Unix(1700000000, 0))
		cache := session.NewCache(loader, 0, clock)

		_, err := cache.Load(context.Background(), testKey)
		require.NoError(t, err)
		clock.Advance(1000 * time.Hour)
		_, err = cache.Load(context.Background(), testKey)
		require.NoError(t, err)

		assert.Equal(t, 1, loader.loads[testKey])
	})

	t.Run("failed loads are not cached", func(t *testing.T) {
		t.Parallel()
		loader := newCountingLoader()
		loader.err = errors.New("upstream down")
		cache := session.NewCache(loader, 10*time.Minute, nil)

		_, err := cache.Load(context.Background(), testKey)
		require.Error(t, err)
		assert.Zero(t, cache.Len())

		loader.err = nil
		_, err = cache.Load(context.Background(), testKey)
		require.NoError(t, err)
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()
		loader := newCountingLoader()
		cache := session.NewCache(loader, time.Minute, timeutil.NewMockClock(time.Unix(1700000000, 0)))

		other := session.Key{Year: 2024, Event: "Monza", Session: "R"}
		_, err := cache.Load(context.Background(), testKey)
		require.NoError(t, err)
		_, err = cache.Load(context.Background(), other)
		require.NoError(t, err)

		assert.Equal(t, 2, cache.Len())
		assert.Equal(t, 1, loader.loads[testKey])
		assert.Equal(t, 1, loader.loads[other])
	})
}

func TestCacheInvalidate(t *testing.T) {
	t.Parallel()

	loader := newCountingLoader()
	clock := timeutil.NewMockClock(time.Unix(1700000000, 0))
	cache := session.NewCache(loader, time.Hour, clock)

	other := session.Key{Year: 2023, Event: "Suzuka", Session: "R"}
	_, err := cache.Load(context.Background(), testKey)
	require.NoError(t, err)
	_, err = cache.Load(context.Background(), other)
	require.NoError(t, err)
	require.Equal(t, 2, cache.Len())

	cache.Invalidate(testKey)
	assert.Equal(t, 1, cache.Len())

	_, err = cache.Load(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, 2, loader.loads[testKey], "invalidated key loads through")
	assert.Equal(t, 1, loader.loads[other], "other key untouched")

	cache.InvalidateAll()
	assert.Zero(t, cache.Len())
}
