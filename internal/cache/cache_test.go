package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brlegal/captura-partes/internal/capture"
)

func TestPartyCacheGetSet(t *testing.T) {
	c := NewPartyCache(10, time.Minute)

	parties := []capture.PartyRecord{{PersonID: 1001, Name: "Maria Souza"}}
	c.Set(900042, parties)

	got, found := c.Get(900042)
	require.True(t, found)
	assert.Equal(t, parties, got)

	_, found = c.Get(900099)
	assert.False(t, found)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestPartyCacheClear(t *testing.T) {
	c := NewPartyCache(10, time.Minute)
	c.Set(900042, []capture.PartyRecord{{PersonID: 1001}})

	c.Clear()

	_, found := c.Get(900042)
	assert.False(t, found)
}

type countingFetcher struct {
	parties []capture.PartyRecord
	calls   int
}

func (f *countingFetcher) FetchParties(ctx context.Context, page *rod.Page, externalCaseID int64) ([]capture.PartyRecord, error) {
	f.calls++
	return f.parties, nil
}

func TestCachingFetcherFetchesOnce(t *testing.T) {
	inner := &countingFetcher{parties: []capture.PartyRecord{{PersonID: 1001, Name: "Maria Souza"}}}
	f := NewCachingFetcher(inner, NewPartyCache(10, time.Minute))

	first, err := f.FetchParties(context.Background(), nil, 900042)
	require.NoError(t, err)
	second, err := f.FetchParties(context.Background(), nil, 900042)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
}
