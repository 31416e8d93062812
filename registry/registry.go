package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xyths/nft-catalog/catalog"
)

const (
	DefaultBaseURL  = "https://svc.blockdaemon.com"
	DefaultPageSize = 100
	DefaultMaxPages = 1000
)

type Config struct {
	ApiKey   string `json:"apiKey"`
	BaseURL  string `json:"baseURL"`
	PageSize int    `json:"pageSize"`
	MaxPages int    `json:"maxPages"`
}

// ResponseCollections is one page of the Blockdaemon verified collection list.
type ResponseCollections struct {
	Data []RawCollection `json:"data"`
	Meta struct {
		Paging struct {
			NextPageToken string `json:"next_page_token"`
		} `json:"paging"`
	} `json:"meta"`
}

type RawCollection struct {
	Id        string      `json:"id"`
	Name      string      `json:"name"`
	Logo      string      `json:"logo"`
	Contracts interface{} `json:"contracts"`
}

// Syncer copies the verified collections of Blockdaemon into the registry.
type Syncer struct {
	cfg   Config
	http  *http.Client
	store catalog.CollectionStore
	Sugar *zap.SugaredLogger
}

func NewSyncer(cfg Config, httpClient *http.Client, store catalog.CollectionStore, sugar *zap.SugaredLogger) *Syncer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return &Syncer{cfg: cfg, http: httpClient, store: store, Sugar: sugar}
}

// Sync runs once over every page of the feed and returns the number of new collections.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	s.Sugar.Info("sync collections start")
	defer s.Sugar.Info("sync collections finish")
	created := 0
	token := ""
	for page := 0; ; page++ {
		if page >= s.cfg.MaxPages {
			return created, fmt.Errorf("collections: more than %d pages", s.cfg.MaxPages)
		}
		if err := ctx.Err(); err != nil {
			return created, err
		}
		resp, err := s.RetrieveCollections(ctx, token)
		if err != nil {
			s.Sugar.Errorf("retrieve collections error: %s", err)
			return created, err
		}
		for _, raw := range resp.Data {
			c := Normalize(raw)
			isNew, err := s.store.UpsertCollection(ctx, &c)
			if err != nil {
				s.Sugar.Errorf("save collection %s error: %s", c.ID, err)
				return created, err
			}
			if isNew {
				created++
			}
		}
		s.Sugar.Infof("page %d: %d collections, %d new so far", page, len(resp.Data), created)
		next := resp.Meta.Paging.NextPageToken
		if next == "" || next == token {
			return created, nil
		}
		token = next
	}
}

// Normalize lower-cases the name and replaces spaces with dashes, which gives the
// marketplace collection slug.
func Normalize(raw RawCollection) catalog.Collection {
	return catalog.Collection{
		ID:        raw.Id,
		Name:      strings.ReplaceAll(strings.ToLower(raw.Name), " ", "-"),
		Logo:      raw.Logo,
		Contracts: raw.Contracts,
		Verified:  true,
	}
}

// RetrieveCollections requests one page.
// Request like this:
// curl --request GET \
//     --url 'https://svc.blockdaemon.com/nft/v1/ethereum/mainnet/collections?sort_by=name&page_size=100&verified=true' \
//     --header 'authorization: Bearer ...'
func (s *Syncer) RetrieveCollections(ctx context.Context, token string) (*ResponseCollections, error) {
	q := url.Values{}
	q.Set("sort_by", "name")
	q.Set("page_size", strconv.Itoa(s.cfg.PageSize))
	q.Set("verified", "true")
	if token != "" {
		q.Set("page_token", token)
	}
	u := s.cfg.BaseURL + "/nft/v1/ethereum/mainnet/collections?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.ApiKey)
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("GET %s: unexpected status %d", u, resp.StatusCode)
	}
	var collections ResponseCollections
	decoder := json.NewDecoder(resp.Body)
	if err = decoder.Decode(&collections); err != nil {
		return nil, err
	}
	return &collections, nil
}
