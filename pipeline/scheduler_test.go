package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xyths/nft-catalog/catalog"
)

func TestPartition(t *testing.T) {
	assert.Equal(t, []Window{{0, 3}, {3, 6}, {6, -1}}, Partition(10, 3))
	assert.Equal(t, []Window{{0, 4}, {4, 8}, {8, -1}}, Partition(11, 3))
	assert.Equal(t, []Window{{0, 0}, {0, 0}, {0, -1}}, Partition(1, 3))
	assert.Equal(t, []Window{{0, -1}}, Partition(7, 0))
}

func TestWindowString(t *testing.T) {
	assert.Equal(t, "[3:6)", Window{3, 6}.String())
	assert.Equal(t, "[6:]", Window{6, -1}.String())
	assert.Equal(t, "[0:]", All.String())
}

func TestRefreshWindow(t *testing.T) {
	store := catalog.NewMemStore()
	links := seedCatalog(store, "a", "b", "c", "d")
	batch := newRecordingBatcher()
	s := NewScheduler(store, batch, &syncDispatcher{}, nil)

	_, err := s.RefreshWindow(context.Background(), Window{1, 3})
	require.NoError(t, err)
	_, err = s.RefreshWindow(context.Background(), All)
	require.NoError(t, err)
	got := batch.Batches()
	assert.Equal(t, links[1:3], got["refresh [1:3)"])
	assert.Equal(t, links, got["refresh [0:]"])
}

func TestRefreshAuto(t *testing.T) {
	store := catalog.NewMemStore()
	links := seedCatalog(store, "a", "b", "c", "d", "e", "f", "g")
	batch := newRecordingBatcher()
	d := &syncDispatcher{}
	s := NewScheduler(store, batch, d, nil)

	windows, err := s.RefreshAuto(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Window{{0, 2}, {2, 4}, {4, -1}}, windows)
	assert.Equal(t, []string{"refresh [0:2)", "refresh [2:4)", "refresh [4:]"}, d.names)

	var all []string
	for _, w := range windows {
		all = append(all, batch.Batches()["refresh "+w.String()]...)
	}
	assert.Equal(t, links, all)
}

func TestSweepStale(t *testing.T) {
	store := catalog.NewMemStore()
	now := time.Date(2021, 9, 2, 12, 0, 0, 0, time.UTC)
	links := seedCatalog(store, "old", "fresh", "edge")
	store.SetUpdateTime(links[0], now.Add(-25*time.Hour))
	store.SetUpdateTime(links[1], now.Add(-23*time.Hour))
	store.SetUpdateTime(links[2], now.Add(-24*time.Hour))
	batch := newRecordingBatcher()
	s := NewScheduler(store, batch, &syncDispatcher{}, nil)
	s.Now = func() time.Time { return now }

	_, err := s.SweepStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{links[0]}, batch.Batches()["stale"])
}

func TestSweepScam(t *testing.T) {
	store := catalog.NewMemStore()
	links := seedCatalog(store, "warning: reported", "fine", "a warning")
	batch := newRecordingBatcher()

	_, err := NewScheduler(store, batch, &syncDispatcher{}, nil).SweepScam(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{links[0], links[2]}, batch.scam["scam"])
	assert.Empty(t, batch.Batches())
}
