package pricecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xyths/nft-catalog/catalog"
)

const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Lookup asks an external service for the USD price of one unit of fsym at a unix time.
type Lookup interface {
	HistoricalUSD(ctx context.Context, fsym string, unix int64) (float64, error)
}

// Observer counts cache results.
type Observer interface {
	PriceLookup(result string)
}

// Cache keeps one USD price per (ticker, UTC day). A miss stores a zero placeholder first,
// so a concurrent caller of the same key reads 0 instead of calling out a second time.
type Cache struct {
	store    catalog.HistoryPriceStore
	lookup   Lookup
	Sugar    *zap.SugaredLogger
	Observer Observer
}

func New(store catalog.HistoryPriceStore, lookup Lookup, sugar *zap.SugaredLogger) *Cache {
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return &Cache{store: store, lookup: lookup, Sugar: sugar}
}

// PriceUSD returns the USD price of ticker on the UTC day of asOf; unix is what is sent
// to the external lookup on a miss.
func (c *Cache) PriceUSD(ctx context.Context, ticker string, unix int64, asOf time.Time) (float64, error) {
	ticker = catalog.NormalizeTicker(ticker)
	day := catalog.Day(asOf)

	hp, err := c.store.FindHistoryPrice(ctx, ticker, day)
	if err == nil {
		c.observe(ResultHit)
		return hp.Price, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		c.observe(ResultError)
		return 0, err
	}

	err = c.store.CreateHistoryPrice(ctx, &catalog.HistoryPrice{Ticker: ticker, Date: day, Price: 0})
	if errors.Is(err, catalog.ErrDuplicate) {
		// someone else is already fetching this day
		if hp, err = c.store.FindHistoryPrice(ctx, ticker, day); err != nil {
			c.observe(ResultError)
			return 0, err
		}
		c.observe(ResultHit)
		return hp.Price, nil
	} else if err != nil {
		c.observe(ResultError)
		return 0, err
	}

	price, err := c.lookup.HistoricalUSD(ctx, ticker, unix)
	if err != nil {
		c.observe(ResultError)
		if derr := c.store.DeleteHistoryPrice(ctx, ticker, day); derr != nil {
			c.Sugar.Errorf("remove placeholder %s %s error: %s", ticker, day.Format("2006-01-02"), derr)
		}
		return 0, fmt.Errorf("lookup %s: %w", ticker, err)
	}
	if err = c.store.UpdateHistoryPrice(ctx, ticker, day, price); err != nil {
		c.observe(ResultError)
		return 0, err
	}
	c.observe(ResultMiss)
	c.Sugar.Debugf("%s on %s is %v USD", ticker, day.Format("2006-01-02"), price)
	return price, nil
}

func (c *Cache) observe(result string) {
	if c.Observer != nil {
		c.Observer.PriceLookup(result)
	}
}
