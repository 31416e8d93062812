package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xyths/nft-catalog/catalog"
	"github.com/xyths/nft-catalog/extract"
	"github.com/xyths/nft-catalog/opensea"
)

func nftLink(i int) string {
	return fmt.Sprintf("https://opensea.io/assets/0x495f947276749ce646f68ac8c248420045cb7b5e/%d", i)
}

func okProfile(link, name string) extract.Result {
	return extract.Result{Kind: extract.KindProfile, Profile: &extract.Profile{
		Link:         link,
		Name:         name,
		Category:     extract.DefaultCategory,
		Offer:        extract.BuyNow,
		LastSaleDate: "2021-08-29T12:00:00",
		MinProfitPct: extract.Extreme{NoSales: true},
		MaxProfitPct: extract.Extreme{NoSales: true},
	}}
}

// fakeExtractor answers from maps; links absent from both maps fail.
type fakeExtractor struct {
	mu      sync.Mutex
	results map[string]extract.Result
	errs    map[string]error
	scams   map[string]bool
	seen    []string
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{
		results: make(map[string]extract.Result),
		errs:    make(map[string]error),
		scams:   make(map[string]bool),
	}
}

func (f *fakeExtractor) Extract(_ context.Context, link string) (extract.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, link)
	if err, ok := f.errs[link]; ok {
		return extract.Result{}, err
	}
	if res, ok := f.results[link]; ok {
		return res, nil
	}
	return extract.Result{}, errors.New("unknown link")
}

func (f *fakeExtractor) DetectScam(_ context.Context, link string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, link)
	if err, ok := f.errs[link]; ok {
		return false, err
	}
	return f.scams[link], nil
}

func (f *fakeExtractor) Seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

// recordingBatcher remembers every batch it was given.
type recordingBatcher struct {
	mu      sync.Mutex
	batches map[string][]string
	scam    map[string][]string
}

func newRecordingBatcher() *recordingBatcher {
	return &recordingBatcher{batches: make(map[string][]string), scam: make(map[string][]string)}
}

func (b *recordingBatcher) Run(_ context.Context, job string, links []string) (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batches[job] = append(b.batches[job], links...)
	return &Report{Total: len(links), Upserted: len(links)}, nil
}

func (b *recordingBatcher) RunScam(_ context.Context, job string, links []string) (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scam[job] = append(b.scam[job], links...)
	return &Report{Total: len(links)}, nil
}

func (b *recordingBatcher) Batches() map[string][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := make(map[string][]string, len(b.batches))
	for k, v := range b.batches {
		c[k] = v
	}
	return c
}

type countingObserver struct {
	mu       sync.Mutex
	items    map[string]int
	extracts int
	failures map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{items: make(map[string]int), failures: make(map[string]int)}
}

func (c *countingObserver) ItemProcessed(job, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[outcome]++
}

func (c *countingObserver) ExtractObserved(time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extracts++
}

func (c *countingObserver) BatchFailed(job string, failures int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[job] += failures
}

// syncDispatcher runs jobs on submit.
type syncDispatcher struct {
	names []string
	errs  []error
}

func (d *syncDispatcher) Submit(name string, job func(ctx context.Context) error) {
	d.names = append(d.names, name)
	d.errs = append(d.errs, job(context.Background()))
}

func seedCatalog(store *catalog.MemStore, names ...string) []string {
	var links []string
	for i, name := range names {
		l := nftLink(i)
		_ = store.UpsertNft(context.Background(), &catalog.Nft{OpenseaLink: l, Name: name})
		links = append(links, l)
	}
	return links
}

type assetPage struct {
	assets []opensea.RawAsset
	next   string
}

// fakeAssets serves pages by collection and cursor ("" is the first page).
type fakeAssets struct {
	mu    sync.Mutex
	pages map[string]map[string]assetPage
	errs  map[string]error
	calls map[string]int
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{
		pages: make(map[string]map[string]assetPage),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (f *fakeAssets) add(collection, cursor, next string, assets ...opensea.RawAsset) {
	if f.pages[collection] == nil {
		f.pages[collection] = make(map[string]assetPage)
	}
	f.pages[collection][cursor] = assetPage{assets: assets, next: next}
}

func (f *fakeAssets) Assets(_ context.Context, collection, cursor string) (*opensea.ResponseAssets, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[collection]++
	if err, ok := f.errs[collection+"|"+cursor]; ok {
		return nil, err
	}
	page, ok := f.pages[collection][cursor]
	if !ok {
		return &opensea.ResponseAssets{Assets: []opensea.RawAsset{}}, nil
	}
	resp := &opensea.ResponseAssets{Assets: page.assets}
	if page.next != "" {
		next := page.next
		resp.Next = &next
	}
	return resp, nil
}

func asset(permalink string, sales int) opensea.RawAsset {
	return opensea.RawAsset{Permalink: permalink, NumSales: sales}
}
