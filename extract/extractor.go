package extract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xyths/nft-catalog/opensea"
)

// ErrZeroFirstPrice means neither the oldest nor the second-oldest sale has a price.
var ErrZeroFirstPrice = errors.New("first sale price is zero")

const daysPerMonth = 30

// PageFetcher downloads a listing page.
type PageFetcher interface {
	FetchPage(ctx context.Context, link string) ([]byte, error)
}

// PriceConverter returns the USD price of one token unit on a given day.
type PriceConverter interface {
	PriceUSD(ctx context.Context, ticker string, unix int64, asOf time.Time) (float64, error)
}

// Extractor derives NFT profiles. It keeps no state between calls, so one Extractor
// serves any number of concurrent extractions.
type Extractor struct {
	pages    PageFetcher
	events   opensea.EventSource
	prices   PriceConverter
	maxPages int
	now      func() time.Time
}

func NewExtractor(pages PageFetcher, events opensea.EventSource, prices PriceConverter, maxPages int) *Extractor {
	return &Extractor{
		pages:    pages,
		events:   events,
		prices:   prices,
		maxPages: maxPages,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for the monthly ROI.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// DetectScam only looks at the listing page.
func (e *Extractor) DetectScam(ctx context.Context, link string) (bool, error) {
	page, err := e.fetchPage(ctx, link)
	if err != nil {
		return false, err
	}
	return page.Scam, nil
}

// Extract builds the profile of the NFT at link.
func (e *Extractor) Extract(ctx context.Context, link string) (Result, error) {
	contract, tokenId, err := opensea.ParseLink(link)
	if err != nil {
		return Result{}, err
	}
	page, err := e.fetchPage(ctx, link)
	if err != nil {
		return Result{}, err
	}
	p := &Profile{
		Link:         link,
		Name:         page.Name,
		Category:     page.Category,
		ListingPrice: page.ListingPrice,
		Scam:         page.Scam,
		Offer:        page.Offer,
	}
	if page.Scam {
		return Result{Kind: KindScam, Profile: p}, nil
	}
	if page.Offer == NoOffers {
		return Result{Kind: KindNoData, Profile: p}, nil
	}

	ledger, err := opensea.FetchLedger(ctx, e.events, contract, tokenId, e.maxPages)
	if err != nil {
		return Result{}, err
	}
	if len(ledger) == 0 {
		return Result{Kind: KindNoData, Profile: p}, nil
	}
	if err = e.fill(ctx, p, ledger); err != nil {
		return Result{}, fmt.Errorf("%s: %w", link, err)
	}
	return Result{Kind: KindProfile, Profile: p}, nil
}

func (e *Extractor) fetchPage(ctx context.Context, link string) (*Page, error) {
	html, err := e.pages.FetchPage(ctx, link)
	if err != nil {
		return nil, err
	}
	page, err := ParsePage(html)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", link, err)
	}
	return page, nil
}

func (e *Extractor) fill(ctx context.Context, p *Profile, ledger opensea.Ledger) error {
	newest, oldest := ledger.Newest(), ledger.Oldest()

	p.ImageURL = newest.Asset.ImageUrl
	p.DealsNumber = newest.Asset.NumSales
	p.LastSaleDate = newest.EventTimestamp

	royalty, err := cutValue(strconv.Itoa(oldest.Asset.AssetContract.DevSellerFeeBasisPoints), 2)
	if err != nil {
		return err
	}
	p.RoyaltyPct, _ = royalty.Float64()

	first := oldest
	if isZeroPrice(first.TotalPrice) && len(ledger) > 1 {
		first = &ledger[len(ledger)-2]
	}
	firstPrice, err := cutValue(first.TotalPrice, first.PaymentToken.Decimals)
	if err != nil {
		return err
	}
	p.FirstSalePrice, _ = firstPrice.Float64()
	if p.FirstSaleDate, err = opensea.ParseTimestamp(first.EventTimestamp); err != nil {
		return err
	}

	lastPrice, err := cutValue(newest.TotalPrice, newest.PaymentToken.Decimals)
	if err != nil {
		return err
	}
	if p.ListingPrice == nil {
		usd, err := e.toUSD(ctx, lastPrice, newest)
		if err != nil {
			return err
		}
		p.ListingPrice = &usd
	}
	if firstPrice.IsZero() {
		return ErrZeroFirstPrice
	}
	total := lastPrice.Div(firstPrice).Mul(hundred).Sub(hundred)
	p.TotalProfitPct = roundFloat(total, 5)
	p.MonthlyROI = p.TotalProfitPct / float64(MonthsSince(p.FirstSaleDate, e.now()))

	if p.AverageSaleDuration, p.AverageHoldDuration, err = Durations(ledger); err != nil {
		return err
	}
	if p.MinProfitPct, p.MaxProfitPct, err = ProfitExtremes(ledger); err != nil {
		return err
	}
	return nil
}

func (e *Extractor) toUSD(ctx context.Context, amount decimal.Decimal, event *opensea.SaleEvent) (float64, error) {
	at, err := opensea.ParseTimestamp(event.EventTimestamp)
	if err != nil {
		return 0, err
	}
	rate, err := e.prices.PriceUSD(ctx, event.PaymentToken.Symbol, at.Unix(), at)
	if err != nil {
		return 0, fmt.Errorf("historical %s price: %w", event.PaymentToken.Symbol, err)
	}
	usd, _ := amount.Mul(decimal.NewFromFloat(rate)).Float64()
	return usd, nil
}

// MonthsSince counts started 30-day months between first and now, at least 1.
func MonthsSince(first, now time.Time) int {
	days := int(math.Floor(now.Sub(first).Hours() / 24))
	months := floorDiv(days, daysPerMonth) + 1
	if months < 1 {
		months = 1
	}
	return months
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func isZeroPrice(price string) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(price))
	return err == nil && d.IsZero()
}
