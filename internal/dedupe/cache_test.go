package dedupe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fxradar/internal/dedupe"
)

func TestObserveReportsDuplicates(t *testing.T) {
	cache := dedupe.NewCache(10, time.Minute)
	require.False(t, cache.Observe("alpha"))
	require.True(t, cache.Observe("alpha"))
	require.True(t, cache.IsSeen("alpha"))
}

func TestObserveTTLExpiry(t *testing.T) {
	cache := dedupe.NewCache(10, 20*time.Millisecond)
	require.False(t, cache.Observe("beta"))
	time.Sleep(25 * time.Millisecond)
	require.False(t, cache.IsSeen("beta"))
	require.False(t, cache.Observe("beta"))
}

func TestCapacityEvictsOldest(t *testing.T) {
	cache := dedupe.NewCache(1, time.Minute)
	require.False(t, cache.Observe("first"))
	require.False(t, cache.Observe("second"))
	require.False(t, cache.IsSeen("first"))
	require.True(t, cache.IsSeen("second"))
}
