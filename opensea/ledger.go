package opensea

import (
	"context"
	"errors"
	"fmt"
)

// DefaultMaxPages bounds cursor chains of one fetch.
const DefaultMaxPages = 100

var (
	ErrTooManyPages = errors.New("too many pages")
	ErrCursorLoop   = errors.New("cursor repeats")
)

// EventSource returns one page of successful sale events.
type EventSource interface {
	Events(ctx context.Context, contract, tokenId, cursor string) (*ResponseEvents, error)
}

// Ledger is the sale history of one token.
// Index 0 is the newest event, higher indices are strictly older, no gaps.
type Ledger []SaleEvent

// Newest returns the event at index 0.
func (l Ledger) Newest() *SaleEvent {
	if len(l) == 0 {
		return nil
	}
	return &l[0]
}

// Oldest returns the event at the highest index.
func (l Ledger) Oldest() *SaleEvent {
	if len(l) == 0 {
		return nil
	}
	return &l[len(l)-1]
}

// FetchLedger follows the `next` cursor until it is exhausted and appends every page after
// the previous one. A token without sales yields an empty, non-nil ledger.
func FetchLedger(ctx context.Context, src EventSource, contract, tokenId string, maxPages int) (Ledger, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	ledger := Ledger{}
	seen := make(map[string]bool)
	cursor := ""
	for page := 0; ; page++ {
		if page >= maxPages {
			return nil, fmt.Errorf("events of %s/%s: %w (%d)", contract, tokenId, ErrTooManyPages, maxPages)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := src.Events(ctx, contract, tokenId, cursor)
		if err != nil {
			return nil, err
		}
		if resp == nil {
			return nil, fmt.Errorf("events of %s/%s: empty response", contract, tokenId)
		}
		ledger = append(ledger, resp.AssetEvents...)
		if resp.Next == nil || *resp.Next == "" {
			return ledger, nil
		}
		cursor = *resp.Next
		if seen[cursor] {
			return nil, fmt.Errorf("events of %s/%s: %w: %s", contract, tokenId, ErrCursorLoop, cursor)
		}
		seen[cursor] = true
	}
}
