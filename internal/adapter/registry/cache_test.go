package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/openplume/air-quality-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingDirectory struct {
	lookupCalls int
	result      domain.StationInfo
	err         error
}

func (m *countingDirectory) Lookup(_ context.Context, _ string) (domain.StationInfo, error) {
	m.lookupCalls++
	return m.result, m.err
}

// --- CachedDirectory tests ---

func TestCachedDirectory_CacheHit(t *testing.T) {
	inner := &countingDirectory{
		result: domain.StationInfo{Name: "Harbor East Rooftop", Zone: "industrial", Lat: 53.5, Lon: 9.9},
	}
	cached := NewCachedDirectory(inner, 10)

	r1, err := cached.Lookup(context.Background(), "station-7")
	require.NoError(t, err)
	assert.Equal(t, "Harbor East Rooftop", r1.Name)

	r2, err := cached.Lookup(context.Background(), "station-7")
	require.NoError(t, err)
	assert.Equal(t, "Harbor East Rooftop", r2.Name)

	assert.Equal(t, 1, inner.lookupCalls, "should only call inner once")
}

func TestCachedDirectory_DifferentStationsMiss(t *testing.T) {
	inner := &countingDirectory{
		result: domain.StationInfo{Name: "Somewhere", Zone: "urban"},
	}
	cached := NewCachedDirectory(inner, 10)

	_, _ = cached.Lookup(context.Background(), "station-1")
	_, _ = cached.Lookup(context.Background(), "station-2")

	assert.Equal(t, 2, inner.lookupCalls)
}

func TestCachedDirectory_EmptyRecordNotCached(t *testing.T) {
	inner := &countingDirectory{} // zero StationInfo: station not registered yet

	cached := NewCachedDirectory(inner, 10)

	_, err := cached.Lookup(context.Background(), "station-new")
	require.NoError(t, err)
	_, err = cached.Lookup(context.Background(), "station-new")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.lookupCalls, "misses must reach the registry each time")
}

func TestCachedDirectory_ErrorNotCached(t *testing.T) {
	inner := &countingDirectory{err: errors.New("registry down")}
	cached := NewCachedDirectory(inner, 10)

	_, err := cached.Lookup(context.Background(), "station-7")
	require.Error(t, err)
	_, err = cached.Lookup(context.Background(), "station-7")
	require.Error(t, err)

	assert.Equal(t, 2, inner.lookupCalls)
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", domain.StationInfo{Name: "A"})
	c.put("b", domain.StationInfo{Name: "B"})

	info, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", info.Name)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.StationInfo{Name: "A"})
	c.put("b", domain.StationInfo{Name: "B"})
	c.put("c", domain.StationInfo{Name: "C"}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	info, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, "B", info.Name)

	info, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", info.Name)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.StationInfo{Name: "A"})
	c.put("b", domain.StationInfo{Name: "B"})

	// Access "a" to promote it
	c.get("a")

	// Inserting "c" should evict "b" (LRU), not "a"
	c.put("c", domain.StationInfo{Name: "C"})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.StationInfo{Name: "A1"})
	c.put("a", domain.StationInfo{Name: "A2"})

	info, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", info.Name)
}
