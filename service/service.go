package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xyths/hs"
	"go.uber.org/zap"

	"github.com/xyths/nft-catalog/catalog"
	"github.com/xyths/nft-catalog/extract"
	"github.com/xyths/nft-catalog/metrics"
	"github.com/xyths/nft-catalog/opensea"
	"github.com/xyths/nft-catalog/pipeline"
	"github.com/xyths/nft-catalog/pricecache"
	"github.com/xyths/nft-catalog/registry"
)

// Source says where the walker takes collection names from.
type Source int

const (
	SourceFile Source = iota
	SourceTable
)

type WalkOptions struct {
	Source   Source
	Start    int
	Backward bool
	// walk both halves at the same time, ignores Start and Backward
	Split bool
}

// Service wires the catalog pipeline together.
type Service struct {
	cfg Config

	Sugar    *zap.SugaredLogger
	store    catalog.Store
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	client    *opensea.Client
	cache     *pricecache.Cache
	extractor *extract.Extractor
	runner    *pipeline.Runner
	walker    *pipeline.Walker
	scheduler *pipeline.Scheduler
	syncer    *registry.Syncer
	pool      *pipeline.Pool
}

func New(cfg Config) *Service {
	cfg.normalize()
	return &Service{cfg: cfg}
}

func (s *Service) Init(ctx context.Context) error {
	l, err := hs.NewZapLogger(s.cfg.Log)
	if err != nil {
		return err
	}
	s.Sugar = l.Sugar()
	s.Sugar.Info("logger initialized")
	store, err := catalog.ConnectMongo(ctx, s.cfg.Mongo, s.Sugar)
	if err != nil {
		s.Sugar.Errorf("connect mongo error: %s", err)
		return err
	}
	s.Sugar.Info("database initialized")
	if err = s.wire(ctx, store); err != nil {
		_ = store.Close(ctx)
		return err
	}
	s.Sugar.Info("service initialized")
	return nil
}

// wire builds every component on top of store.
func (s *Service) wire(ctx context.Context, store catalog.Store) error {
	if s.Sugar == nil {
		s.Sugar = zap.NewNop().Sugar()
	}
	timeout, pause, err := parseDurations(s.cfg)
	if err != nil {
		s.Sugar.Errorf("config duration format error: %s", err)
		return err
	}
	s.store = store
	s.registry = prometheus.NewRegistry()
	s.metrics = metrics.New(s.registry)

	httpClient := &http.Client{Timeout: timeout}
	s.client = opensea.NewClient(s.cfg.OpenSea, httpClient, s.Sugar)
	s.client.Observer = s.metrics

	s.cache = pricecache.New(store, pricecache.NewCryptoCompare(s.cfg.History, httpClient), s.Sugar)
	s.cache.Observer = s.metrics

	s.extractor = extract.NewExtractor(s.client, s.client, s.cache, s.cfg.Ledger.MaxPages)

	s.runner = pipeline.NewRunner(s.extractor, catalog.NewReconciler(store, s.Sugar), s.Sugar)
	s.runner.Observer = s.metrics
	s.runner.RateLimitPause = pause

	s.walker = pipeline.NewWalker(s.client, s.runner, s.Sugar)
	s.walker.MinSales = s.cfg.Walker.MinSales
	s.walker.MaxPages = s.cfg.Walker.MaxPages

	s.pool = pipeline.NewPool(ctx, s.cfg.Workers, s.Sugar)
	s.scheduler = pipeline.NewScheduler(store, s.runner, s.pool, s.Sugar)
	s.scheduler.Partitions = s.cfg.Partitions

	s.syncer = registry.NewSyncer(s.cfg.Blockdaemon, httpClient, store, s.Sugar)
	return nil
}

func (s *Service) Close(ctx context.Context) {
	if s.pool != nil {
		if err := s.pool.Wait(); err != nil {
			s.Sugar.Errorf("dispatched job error: %s", err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(ctx); err != nil {
			s.Sugar.Errorf("db close error: %s", err)
		}
	}
	s.Sugar.Info("service closed")
}

// SyncCollections pulls the verified collection feed into the registry.
func (s *Service) SyncCollections(ctx context.Context) (int, error) {
	return s.syncer.Sync(ctx)
}

// Walk discovers links collection by collection and extracts them.
func (s *Service) Walk(ctx context.Context, opt WalkOptions) (*pipeline.Report, error) {
	if opt.Source == SourceTable {
		return s.walkTable(ctx)
	}
	names, err := readCollections(s.cfg.CollectionsFile)
	if err != nil {
		return nil, err
	}
	s.Sugar.Infof("walk %d collections from %s", len(names), s.cfg.CollectionsFile)
	if opt.Split {
		return s.walker.WalkSplit(ctx, names)
	}
	dir := pipeline.Forward
	if opt.Backward {
		dir = pipeline.Backward
	}
	return s.walker.Walk(ctx, names, opt.Start, dir)
}

// walkTable walks the registry page by page, each page from its last name backward.
func (s *Service) walkTable(ctx context.Context) (*pipeline.Report, error) {
	total := &pipeline.Report{}
	for offset := int64(0); ; offset += registryPageSize {
		names, err := s.store.CollectionNames(ctx, offset, registryPageSize)
		if err != nil {
			return total, err
		}
		if len(names) == 0 {
			return total, nil
		}
		report, err := s.walker.Walk(ctx, names, len(names)-1, pipeline.Backward)
		total.Merge(report)
		if err != nil {
			return total, err
		}
		if len(names) < registryPageSize {
			return total, nil
		}
	}
}

// Extract runs the extractor for one link without touching the catalog.
func (s *Service) Extract(ctx context.Context, link string) (extract.Result, error) {
	return s.extractor.Extract(ctx, link)
}

func (s *Service) Refresh(ctx context.Context, w pipeline.Window) (*pipeline.Report, error) {
	return s.scheduler.RefreshWindow(ctx, w)
}

// RefreshAuto dispatches the partitions; Close waits for them.
func (s *Service) RefreshAuto(ctx context.Context) ([]pipeline.Window, error) {
	return s.scheduler.RefreshAuto(ctx)
}

func (s *Service) SweepStale(ctx context.Context) (*pipeline.Report, error) {
	return s.scheduler.SweepStale(ctx)
}

func (s *Service) SweepScam(ctx context.Context) (*pipeline.Report, error) {
	return s.scheduler.SweepScam(ctx)
}

// Serve runs every job on its schedule and serves the metrics until ctx is done.
func (s *Service) Serve(ctx context.Context) error {
	runner := newCronRunner(ctx, s.Sugar)
	if err := s.schedule(runner); err != nil {
		return err
	}
	srv := &http.Server{Addr: s.cfg.MetricsAddr, Handler: s.router()}
	errCh := make(chan error, 1)
	go func() {
		s.Sugar.Infof("metrics listen on %s", s.cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	runner.Start()
	defer runner.Stop()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		s.Sugar.Errorf("metrics server error: %s", err)
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Service) schedule(r *cronRunner) error {
	sc := s.cfg.Schedule
	jobs := []struct {
		name, spec string
		job        func(context.Context) error
	}{
		{"collection sync", sc.Registry, func(ctx context.Context) error {
			_, err := s.SyncCollections(ctx)
			return err
		}},
		{"table walk", sc.TableWalk, func(ctx context.Context) error {
			_, err := s.Walk(ctx, WalkOptions{Source: SourceTable})
			return err
		}},
		{"refresh", sc.Refresh, func(ctx context.Context) error {
			_, err := s.Refresh(ctx, pipeline.All)
			return err
		}},
		{"auto refresh", sc.AutoRefresh, func(ctx context.Context) error {
			_, err := s.RefreshAuto(ctx)
			return err
		}},
		{"stale sweep", sc.Stale, func(ctx context.Context) error {
			_, err := s.SweepStale(ctx)
			return err
		}},
		{"scam sweep", sc.Scam, func(ctx context.Context) error {
			_, err := s.SweepScam(ctx)
			return err
		}},
	}
	for _, j := range jobs {
		if _, err := r.Add(j.name, j.spec, j.job); err != nil {
			return fmt.Errorf("schedule %s %q: %w", j.name, j.spec, err)
		}
	}
	return nil
}

// readCollections returns the non-empty lines of file.
func readCollections(file string) ([]string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
