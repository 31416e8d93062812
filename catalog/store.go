package catalog

import (
	"context"
	"time"
)

// NftStore persists catalog records. Links are returned in primary key order.
type NftStore interface {
	// GetOrCreateType looks a type up by name and creates it if absent.
	GetOrCreateType(ctx context.Context, name string) (*NftType, error)
	// UpsertNft writes nft by its OpenseaLink and stamps UpdateTime.
	UpsertNft(ctx context.Context, nft *Nft) error
	// DeleteNft reports whether a record was removed.
	DeleteNft(ctx context.Context, link string) (bool, error)
	FindNft(ctx context.Context, link string) (*Nft, error)
	CountNfts(ctx context.Context) (int64, error)
	// Links returns the links in [start, end); end < 0 means up to the last record.
	Links(ctx context.Context, start, end int64) ([]string, error)
	LinksUpdatedBefore(ctx context.Context, t time.Time) ([]string, error)
	LinksNameContains(ctx context.Context, s string) ([]string, error)
}

// HistoryPriceStore keeps at most one price per (ticker, date).
type HistoryPriceStore interface {
	FindHistoryPrice(ctx context.Context, ticker string, date time.Time) (*HistoryPrice, error)
	// CreateHistoryPrice returns ErrDuplicate when the key already exists.
	CreateHistoryPrice(ctx context.Context, hp *HistoryPrice) error
	UpdateHistoryPrice(ctx context.Context, ticker string, date time.Time, price float64) error
	DeleteHistoryPrice(ctx context.Context, ticker string, date time.Time) error
}

// CollectionStore is the verified collection registry.
type CollectionStore interface {
	UpsertCollection(ctx context.Context, c *Collection) (created bool, err error)
	CollectionNames(ctx context.Context, offset, limit int64) ([]string, error)
}

type Store interface {
	NftStore
	HistoryPriceStore
	CollectionStore
	Close(ctx context.Context) error
}
