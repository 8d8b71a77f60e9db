package nominatim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/supplier-compliance-service/internal/domain"
)

type countingGeocoder struct {
	calls  int
	coords domain.Coordinates
	err    error
}

func (m *countingGeocoder) Lookup(_ context.Context, _ string) (domain.Coordinates, error) {
	m.calls++
	if m.err != nil {
		return domain.Coordinates{}, m.err
	}
	return m.coords, nil
}

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{coords: domain.Coordinates{Lat: 51.2, Lon: 10.4}}
	cached := NewCachedGeocoder(inner, 10)

	first, err := cached.Lookup(context.Background(), "Germany")
	require.NoError(t, err)
	assert.Equal(t, 51.2, first.Lat)

	second, err := cached.Lookup(context.Background(), "Germany")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls, "second lookup served from cache")
}

func TestCachedGeocoder_KeyIsCaseInsensitive(t *testing.T) {
	inner := &countingGeocoder{coords: domain.Coordinates{Lat: 51.2, Lon: 10.4}}
	cached := NewCachedGeocoder(inner, 10)

	_, err := cached.Lookup(context.Background(), "Germany")
	require.NoError(t, err)
	_, err = cached.Lookup(context.Background(), "  GERMANY ")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoder_ErrorsNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("boom")}
	cached := NewCachedGeocoder(inner, 10)

	_, err := cached.Lookup(context.Background(), "Germany")
	require.Error(t, err)
	_, err = cached.Lookup(context.Background(), "Germany")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls, "failed lookups retry the inner geocoder")
}

func TestCachedGeocoder_EvictsLeastRecentlyUsed(t *testing.T) {
	inner := &countingGeocoder{coords: domain.Coordinates{Lat: 1, Lon: 2}}
	cached := NewCachedGeocoder(inner, 2)
	ctx := context.Background()

	_, _ = cached.Lookup(ctx, "Germany")
	_, _ = cached.Lookup(ctx, "France")
	// Touch Germany so France becomes the eviction candidate.
	_, _ = cached.Lookup(ctx, "Germany")
	_, _ = cached.Lookup(ctx, "Brazil")
	require.Equal(t, 3, inner.calls)

	_, _ = cached.Lookup(ctx, "Germany")
	assert.Equal(t, 3, inner.calls, "Germany survived eviction")

	_, _ = cached.Lookup(ctx, "France")
	assert.Equal(t, 4, inner.calls, "France was evicted")
}
