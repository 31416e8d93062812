package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/xyths/nft-catalog/catalog"
)

const (
	DefaultPartitions = 3
	StaleAfter        = 24 * time.Hour
	// names of earlier scam detections carry this marker
	ScamMarker = "warning"
)

// Window is a range [Start, End) over the catalog in primary key order. End < 0 is open.
type Window struct {
	Start int64
	End   int64
}

// All covers the whole catalog.
var All = Window{Start: 0, End: -1}

func (w Window) String() string {
	if w.End < 0 {
		return fmt.Sprintf("[%d:]", w.Start)
	}
	return fmt.Sprintf("[%d:%d)", w.Start, w.End)
}

// Partition splits count records into parts windows of round(count/parts) records.
// The last window is open so nothing is lost to rounding.
func Partition(count int64, parts int) []Window {
	if parts <= 0 {
		parts = 1
	}
	size := int64(math.Round(float64(count) / float64(parts)))
	windows := make([]Window, 0, parts)
	for i := 0; i < parts; i++ {
		w := Window{Start: int64(i) * size, End: int64(i+1) * size}
		if i == parts-1 {
			w.End = -1
		}
		windows = append(windows, w)
	}
	return windows
}

// Scheduler selects catalog entries to process again.
type Scheduler struct {
	store      catalog.NftStore
	batch      Batcher
	dispatcher Dispatcher
	Sugar      *zap.SugaredLogger
	Partitions int
	Now        func() time.Time
}

func NewScheduler(store catalog.NftStore, batch Batcher, dispatcher Dispatcher, sugar *zap.SugaredLogger) *Scheduler {
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return &Scheduler{
		store:      store,
		batch:      batch,
		dispatcher: dispatcher,
		Sugar:      sugar,
		Partitions: DefaultPartitions,
		Now:        time.Now,
	}
}

// RefreshWindow extracts every link of w again.
func (s *Scheduler) RefreshWindow(ctx context.Context, w Window) (*Report, error) {
	links, err := s.store.Links(ctx, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("links %s: %w", w, err)
	}
	return s.batch.Run(ctx, "refresh "+w.String(), links)
}

// RefreshAuto dispatches one RefreshWindow per partition of the catalog and returns at once.
func (s *Scheduler) RefreshAuto(ctx context.Context) ([]Window, error) {
	count, err := s.store.CountNfts(ctx)
	if err != nil {
		return nil, err
	}
	windows := Partition(count, s.Partitions)
	s.Sugar.Infof("refresh %d nfts in %d windows", count, len(windows))
	for _, w := range windows {
		w := w
		s.dispatcher.Submit("refresh "+w.String(), func(ctx context.Context) error {
			_, err := s.RefreshWindow(ctx, w)
			return err
		})
	}
	return windows, nil
}

// SweepStale extracts the entries not updated within StaleAfter again.
func (s *Scheduler) SweepStale(ctx context.Context) (*Report, error) {
	links, err := s.store.LinksUpdatedBefore(ctx, s.Now().Add(-StaleAfter))
	if err != nil {
		return nil, err
	}
	return s.batch.Run(ctx, "stale", links)
}

// SweepScam runs the scam check on entries whose name carries the marker.
func (s *Scheduler) SweepScam(ctx context.Context) (*Report, error) {
	links, err := s.store.LinksNameContains(ctx, ScamMarker)
	if err != nil {
		return nil, err
	}
	return s.batch.RunScam(ctx, "scam", links)
}
