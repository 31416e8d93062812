package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xyths/nft-catalog/catalog"
	"github.com/xyths/nft-catalog/extract"
	"github.com/xyths/nft-catalog/pipeline"
)

const (
	tokenPath = "/assets/0x495f947276749ce646f68ac8c248420045cb7b5e/1"

	listing = `<html><body>
<section class="item--header"><div><a>Apes</a><i>verified</i></div><div><h1>Ape #12</h1></div></section>
<section class="item--counts"><div>10 owners</div><div><span>Art</span></div></section>
<div class="Price--main"><div class="Price--fiat-amount-secondary">$3,000</div></div>
<form class="TradeStation--main"><div>Sale ends soon</div><div><button>Buy now</button></div></form>
</body></html>`

	events = `{"asset_events":[
{"event_timestamp":"2021-08-29T12:00:00","total_price":"2000000000000000000",
 "payment_token":{"symbol":"WETH","decimals":18},
 "seller":{"address":"0x00000000000000000000000000000000000000bb"},
 "winner_account":{"address":"0x00000000000000000000000000000000000000cc"},
 "asset":{"image_url":"https://img/12.png","num_sales":5,"asset_contract":{"dev_seller_fee_basis_points":250}}},
{"event_timestamp":"2021-07-01T00:00:00","total_price":"1000000000000000000",
 "payment_token":{"symbol":"WETH","decimals":18},
 "seller":{"address":"0x00000000000000000000000000000000000000aa"},
 "winner_account":{"address":"0x00000000000000000000000000000000000000bb"},
 "asset":{"image_url":"https://img/12.png","num_sales":5,"asset_contract":{"dev_seller_fee_basis_points":250}}}
],"next":null}`
)

// marketplace serves one collection "apes" holding one token worth a profile.
func marketplace(t *testing.T) *httptest.Server {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case tokenPath:
			_, _ = w.Write([]byte(listing))
		case "/api/v1/events":
			_, _ = w.Write([]byte(events))
		case "/api/v1/assets":
			if r.URL.Query().Get("collection") != "apes" {
				_, _ = w.Write([]byte(`{"assets":[],"next":null}`))
				return
			}
			_, _ = w.Write([]byte(`{"assets":[
				{"token_id":"1","permalink":"` + srv.URL + tokenPath + `","num_sales":5},
				{"token_id":"2","permalink":"` + srv.URL + `/assets/0x495f947276749ce646f68ac8c248420045cb7b5e/2","num_sales":1}
			],"next":null}`))
		default:
			http.NotFound(w, r)
		}
	}))
	return srv
}

func newTestService(t *testing.T, baseURL string, store catalog.Store) *Service {
	file := filepath.Join(t.TempDir(), "collections.txt")
	require.NoError(t, os.WriteFile(file, []byte("apes\n\nunknown\n"), 0644))
	cfg := Config{CollectionsFile: file}
	cfg.OpenSea.BaseURL = baseURL
	s := New(cfg)
	require.NoError(t, s.wire(context.Background(), store))
	return s
}

func TestConfigNormalize(t *testing.T) {
	var cfg Config
	cfg.Schedule.Scam = "0 0 3 * * *"
	cfg.normalize()
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, pipeline.DefaultPartitions, cfg.Partitions)
	assert.Equal(t, pipeline.DefaultMinSales, cfg.Walker.MinSales)
	assert.Equal(t, "30s", cfg.OpenSea.Timeout)
	assert.Equal(t, "1m0s", cfg.RateLimitPause)
	assert.Equal(t, "collections.txt", cfg.CollectionsFile)
	assert.Equal(t, "@every 5m", cfg.Schedule.Registry)
	assert.Equal(t, "@every 10h", cfg.Schedule.TableWalk)
	assert.Equal(t, "@hourly", cfg.Schedule.Refresh)
	assert.Equal(t, "0 0 3 * * *", cfg.Schedule.Scam)

	_, _, err := parseDurations(cfg)
	assert.NoError(t, err)
	cfg.RateLimitPause = "soon"
	_, _, err = parseDurations(cfg)
	assert.Error(t, err)
}

func TestReadCollections(t *testing.T) {
	file := filepath.Join(t.TempDir(), "c.txt")
	require.NoError(t, os.WriteFile(file, []byte("doodles\r\n cool-cats \n\n"), 0644))
	names, err := readCollections(file)
	require.NoError(t, err)
	assert.Equal(t, []string{"doodles", "cool-cats"}, names)

	_, err = readCollections(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestWalkFile(t *testing.T) {
	srv := marketplace(t)
	defer srv.Close()
	store := catalog.NewMemStore()
	s := newTestService(t, srv.URL, store)
	ctx := context.Background()

	report, err := s.Walk(ctx, WalkOptions{Source: SourceFile})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Upserted)
	assert.Empty(t, report.Failures)

	nft, err := store.FindNft(ctx, srv.URL+tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "Ape #12", nft.Name)
	assert.Equal(t, "Buy now", nft.Offer)
	require.NotNil(t, nft.Price)
	assert.Equal(t, 3000.0, *nft.Price)
	assert.Equal(t, 5, nft.DealsNumber)
	assert.Equal(t, 1, store.Types())

	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `nftcatalog_items_total{job="walk",outcome="upserted"} 1`), body)
	assert.True(t, strings.Contains(body, `nftcatalog_api_pages_total{api="events"} 1`), body)
}

func TestWalkTable(t *testing.T) {
	srv := marketplace(t)
	defer srv.Close()
	store := catalog.NewMemStore()
	ctx := context.Background()
	_, err := store.UpsertCollection(ctx, &catalog.Collection{ID: "1", Name: "apes", Verified: true})
	require.NoError(t, err)
	_, err = store.UpsertCollection(ctx, &catalog.Collection{ID: "2", Name: "empty", Verified: true})
	require.NoError(t, err)

	report, err := newTestService(t, srv.URL, store).Walk(ctx, WalkOptions{Source: SourceTable})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
	n, err := store.CountNfts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestExtractAndSweeps(t *testing.T) {
	srv := marketplace(t)
	defer srv.Close()
	store := catalog.NewMemStore()
	s := newTestService(t, srv.URL, store)
	ctx := context.Background()

	res, err := s.Extract(ctx, srv.URL+tokenPath)
	require.NoError(t, err)
	require.Equal(t, extract.KindProfile, res.Kind)
	assert.Equal(t, 2.5, res.Profile.RoyaltyPct)

	report, err := s.Refresh(ctx, pipeline.All)
	require.NoError(t, err)
	assert.Zero(t, report.Total)

	require.NoError(t, store.UpsertNft(ctx, &catalog.Nft{OpenseaLink: srv.URL + tokenPath, Name: "warning"}))
	report, err = s.SweepScam(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Skipped)

	windows, err := s.RefreshAuto(ctx)
	require.NoError(t, err)
	assert.Len(t, windows, 3)
	require.NoError(t, s.pool.Wait())
	nft, err := store.FindNft(ctx, srv.URL+tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "Ape #12", nft.Name)
}

func TestHealth(t *testing.T) {
	s := newTestService(t, "http://127.0.0.1:1", catalog.NewMemStore())
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSchedule(t *testing.T) {
	s := newTestService(t, "http://127.0.0.1:1", catalog.NewMemStore())
	r := newCronRunner(context.Background(), s.Sugar)
	require.NoError(t, s.schedule(r))
	assert.Equal(t, 6, r.Entries())

	s.cfg.Schedule.Stale = "every now and then"
	assert.Error(t, s.schedule(newCronRunner(context.Background(), s.Sugar)))
}
