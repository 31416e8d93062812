package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemStore keeps everything in process memory. It backs dry runs and tests.
type MemStore struct {
	mu          sync.Mutex
	Now         func() time.Time
	nfts        []*Nft
	types       map[string]*NftType
	prices      map[string]*HistoryPrice
	collections map[string]*Collection
}

func NewMemStore() *MemStore {
	return &MemStore{
		Now:         time.Now,
		types:       make(map[string]*NftType),
		prices:      make(map[string]*HistoryPrice),
		collections: make(map[string]*Collection),
	}
}

func (m *MemStore) Close(context.Context) error { return nil }

func (m *MemStore) GetOrCreateType(_ context.Context, name string) (*NftType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.types[name]
	if !ok {
		t = &NftType{ID: primitive.NewObjectID(), Name: name}
		m.types[name] = t
	}
	c := *t
	return &c, nil
}

// Types returns the number of distinct types.
func (m *MemStore) Types() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.types)
}

func (m *MemStore) UpsertNft(_ context.Context, nft *Nft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *nft
	c.UpdateTime = m.Now()
	for i, existing := range m.nfts {
		if existing.OpenseaLink == nft.OpenseaLink {
			c.ID = existing.ID
			m.nfts[i] = &c
			return nil
		}
	}
	c.ID = primitive.NewObjectID()
	m.nfts = append(m.nfts, &c)
	return nil
}

// SetUpdateTime backdates a record.
func (m *MemStore) SetUpdateTime(link string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.nfts {
		if n.OpenseaLink == link {
			n.UpdateTime = t
		}
	}
}

func (m *MemStore) DeleteNft(_ context.Context, link string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.nfts {
		if n.OpenseaLink == link {
			m.nfts = append(m.nfts[:i], m.nfts[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) FindNft(_ context.Context, link string) (*Nft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.nfts {
		if n.OpenseaLink == link {
			c := *n
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) CountNfts(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.nfts)), nil
}

func (m *MemStore) Links(_ context.Context, start, end int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.nfts))
	if start < 0 {
		start = 0
	}
	if end < 0 || end > n {
		end = n
	}
	var links []string
	for i := start; i < end; i++ {
		links = append(links, m.nfts[i].OpenseaLink)
	}
	return links, nil
}

func (m *MemStore) LinksUpdatedBefore(_ context.Context, t time.Time) ([]string, error) {
	return m.filter(func(n *Nft) bool { return n.UpdateTime.Before(t) }), nil
}

func (m *MemStore) LinksNameContains(_ context.Context, s string) ([]string, error) {
	return m.filter(func(n *Nft) bool { return strings.Contains(n.Name, s) }), nil
}

func (m *MemStore) filter(keep func(*Nft) bool) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var links []string
	for _, n := range m.nfts {
		if keep(n) {
			links = append(links, n.OpenseaLink)
		}
	}
	return links
}

func priceKey(ticker string, date time.Time) string {
	return NormalizeTicker(ticker) + "|" + Day(date).Format("2006-01-02")
}

func (m *MemStore) FindHistoryPrice(_ context.Context, ticker string, date time.Time) (*HistoryPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hp, ok := m.prices[priceKey(ticker, date)]
	if !ok {
		return nil, ErrNotFound
	}
	c := *hp
	return &c, nil
}

func (m *MemStore) CreateHistoryPrice(_ context.Context, hp *HistoryPrice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := priceKey(hp.Ticker, hp.Date)
	if _, ok := m.prices[key]; ok {
		return ErrDuplicate
	}
	m.prices[key] = &HistoryPrice{Ticker: NormalizeTicker(hp.Ticker), Date: Day(hp.Date), Price: hp.Price}
	return nil
}

func (m *MemStore) UpdateHistoryPrice(_ context.Context, ticker string, date time.Time, price float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hp, ok := m.prices[priceKey(ticker, date)]
	if !ok {
		return ErrNotFound
	}
	hp.Price = price
	return nil
}

func (m *MemStore) DeleteHistoryPrice(_ context.Context, ticker string, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.prices, priceKey(ticker, date))
	return nil
}

func (m *MemStore) UpsertCollection(_ context.Context, c *Collection) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	cp.Timestamp = m.Now()
	_, exists := m.collections[c.ID]
	m.collections[c.ID] = &cp
	return !exists, nil
}

func (m *MemStore) CollectionNames(_ context.Context, offset, limit int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.collections))
	for id := range m.collections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if offset < 0 {
		offset = 0
	}
	var names []string
	for i := offset; i < int64(len(ids)); i++ {
		if limit > 0 && int64(len(names)) >= limit {
			break
		}
		names = append(names, m.collections[ids[i]].Name)
	}
	return names, nil
}

// FindCollection is used to inspect the registry.
func (m *MemStore) FindCollection(id string) (*Collection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[id]
	if !ok {
		return nil, false
	}
	cp := *c
	return &cp, true
}
