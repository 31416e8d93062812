package pipeline

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xyths/nft-catalog/opensea"
)

// DefaultMinSales is the exclusive lower bound of num_sales for an asset to be worth a profile.
const DefaultMinSales = 3

type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) step() int {
	if d == Backward {
		return -1
	}
	return 1
}

// AssetSource returns one page of the assets of a collection.
type AssetSource interface {
	Assets(ctx context.Context, collection, cursor string) (*opensea.ResponseAssets, error)
}

// Walker discovers NFT links collection by collection and feeds them to a Batcher.
type Walker struct {
	assets   AssetSource
	batch    Batcher
	Sugar    *zap.SugaredLogger
	MinSales int
	MaxPages int
}

func NewWalker(assets AssetSource, batch Batcher, sugar *zap.SugaredLogger) *Walker {
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return &Walker{
		assets:   assets,
		batch:    batch,
		Sugar:    sugar,
		MinSales: DefaultMinSales,
		MaxPages: opensea.DefaultMaxPages,
	}
}

// Walk starts at names[start] and moves one collection at a time in direction dir until it
// runs off either end of names. A collection that fails to list is recorded with its name as
// the link; the links gathered before the failure are still processed.
func (w *Walker) Walk(ctx context.Context, names []string, start int, dir Direction) (*Report, error) {
	last := len(names) - 1
	if dir == Backward {
		last = 0
	}
	return w.walk(ctx, names, start, last, dir)
}

// WalkSplit walks the first half of names forward and the second half backward, both at
// the same time.
func (w *Walker) WalkSplit(ctx context.Context, names []string) (*Report, error) {
	mid := len(names) / 2
	var (
		mu    sync.Mutex
		total = &Report{}
	)
	g, ctx := errgroup.WithContext(ctx)
	run := func(start, last int, dir Direction) {
		g.Go(func() error {
			report, err := w.walk(ctx, names, start, last, dir)
			mu.Lock()
			total.Merge(report)
			mu.Unlock()
			return err
		})
	}
	if mid > 0 {
		run(0, mid-1, Forward)
	}
	if len(names) > mid {
		run(len(names)-1, mid, Backward)
	}
	err := g.Wait()
	return total, err
}

// walk visits names[start] through names[last] inclusive.
func (w *Walker) walk(ctx context.Context, names []string, start, last int, dir Direction) (*Report, error) {
	total := &Report{}
	step := dir.step()
	for i := start; i >= 0 && i < len(names) && (i-last)*step <= 0; i += step {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		name := names[i]
		links, err := w.Links(ctx, name)
		if err != nil {
			w.Sugar.Errorf("walk collection %s error: %s", name, err)
			total.Fail(name, err)
		}
		if len(links) == 0 {
			continue
		}
		w.Sugar.Infof("collection %s (#%d): %d links", name, i, len(links))
		report, err := w.batch.Run(ctx, "walk "+name, links)
		total.Merge(report)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Links follows the asset cursor of one collection and keeps the permalinks of assets sold
// more than MinSales times. On error it returns what it gathered so far.
func (w *Walker) Links(ctx context.Context, collection string) ([]string, error) {
	maxPages := w.MaxPages
	if maxPages <= 0 {
		maxPages = opensea.DefaultMaxPages
	}
	var links []string
	seen := make(map[string]bool)
	cursor := ""
	for page := 0; ; page++ {
		if page >= maxPages {
			return links, fmt.Errorf("assets of %s: %w (%d)", collection, opensea.ErrTooManyPages, maxPages)
		}
		resp, err := w.assets.Assets(ctx, collection, cursor)
		if err != nil {
			return links, err
		}
		if resp == nil {
			return links, fmt.Errorf("assets of %s: empty response", collection)
		}
		for _, a := range resp.Assets {
			if a.NumSales > w.MinSales && a.Permalink != "" {
				links = append(links, a.Permalink)
			}
		}
		if resp.Next == nil || *resp.Next == "" {
			return links, nil
		}
		cursor = *resp.Next
		if seen[cursor] {
			return links, fmt.Errorf("assets of %s: %w: %s", collection, opensea.ErrCursorLoop, cursor)
		}
		seen[cursor] = true
	}
}
