package service

import (
	"time"

	"github.com/xyths/hs"

	"github.com/xyths/nft-catalog/opensea"
	"github.com/xyths/nft-catalog/pipeline"
	"github.com/xyths/nft-catalog/pricecache"
	"github.com/xyths/nft-catalog/registry"
)

type WalkerConfig struct {
	MinSales int `json:"minSales"`
	MaxPages int `json:"maxPages"`
}

type LedgerConfig struct {
	MaxPages int `json:"maxPages"`
}

// Schedule holds cron specs, with an optional seconds field.
type Schedule struct {
	Registry    string `json:"registry"`
	TableWalk   string `json:"tableWalk"`
	Refresh     string `json:"refresh"`
	AutoRefresh string `json:"autoRefresh"`
	Stale       string `json:"stale"`
	Scam        string `json:"scam"`
}

type Config struct {
	Mongo       hs.MongoConf
	Log         hs.LogConf
	OpenSea     opensea.ClientConfig
	History     pricecache.CryptoCompareConfig
	Blockdaemon registry.Config
	Walker      WalkerConfig
	Ledger      LedgerConfig

	// concurrent dispatched jobs
	Workers    int
	Partitions int
	// pause after a 429, like "1m"
	RateLimitPause string `json:"rateLimitPause"`

	CollectionsFile string `json:"collectionsFile"`
	MetricsAddr     string `json:"metricsAddr"`
	Schedule        Schedule
}

const (
	defaultTimeout         = "30s"
	defaultWorkers         = 3
	defaultCollectionsFile = "collections.txt"
	defaultMetricsAddr     = ":9090"
	registryPageSize       = 100
)

var defaultSchedule = Schedule{
	Registry:    "@every 5m",
	TableWalk:   "@every 10h",
	Refresh:     "@hourly",
	AutoRefresh: "@daily",
	Stale:       "@daily",
	Scam:        "@daily",
}

func (c *Config) normalize() {
	if c.OpenSea.Timeout == "" {
		c.OpenSea.Timeout = defaultTimeout
	}
	if c.Walker.MinSales <= 0 {
		c.Walker.MinSales = pipeline.DefaultMinSales
	}
	if c.Walker.MaxPages <= 0 {
		c.Walker.MaxPages = opensea.DefaultMaxPages
	}
	if c.Ledger.MaxPages <= 0 {
		c.Ledger.MaxPages = opensea.DefaultMaxPages
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.Partitions <= 0 {
		c.Partitions = pipeline.DefaultPartitions
	}
	if c.RateLimitPause == "" {
		c.RateLimitPause = pipeline.DefaultRateLimitPause.String()
	}
	if c.CollectionsFile == "" {
		c.CollectionsFile = defaultCollectionsFile
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = defaultMetricsAddr
	}
	s := &c.Schedule
	for _, f := range []struct {
		v   *string
		def string
	}{
		{&s.Registry, defaultSchedule.Registry},
		{&s.TableWalk, defaultSchedule.TableWalk},
		{&s.Refresh, defaultSchedule.Refresh},
		{&s.AutoRefresh, defaultSchedule.AutoRefresh},
		{&s.Stale, defaultSchedule.Stale},
		{&s.Scam, defaultSchedule.Scam},
	} {
		if *f.v == "" {
			*f.v = f.def
		}
	}
}

func parseDurations(c Config) (timeout, pause time.Duration, err error) {
	if timeout, err = time.ParseDuration(c.OpenSea.Timeout); err != nil {
		return
	}
	pause, err = time.ParseDuration(c.RateLimitPause)
	return
}
