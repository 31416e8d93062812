package opensea

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.opensea.io"

	// PageLimit is the page size of both `/events` and `/assets`.
	PageLimit = 200

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/109.0"

	ApiEvents = "events"
	ApiAssets = "assets"
	ApiPage   = "page"
)

type ClientConfig struct {
	ApiKey    string `json:"apiKey"`
	BaseURL   string `json:"baseURL"`
	UserAgent string `json:"userAgent"`
	Timeout   string `json:"timeout"`
}

// PageObserver is notified once per fetched page or document.
type PageObserver interface {
	PageFetched(api string)
}

// StatusError is returned for any non-2xx answer of the marketplace.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// IsRateLimited reports whether err was caused by a 429 answer.
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests
}

// Client talks to the OpenSea website and its v1 API.
// It carries no per-NFT state and is safe for concurrent use.
type Client struct {
	cfg      ClientConfig
	http     *http.Client
	Sugar    *zap.SugaredLogger
	Observer PageObserver
}

func NewClient(cfg ClientConfig, httpClient *http.Client, sugar *zap.SugaredLogger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return &Client{cfg: cfg, http: httpClient, Sugar: sugar}
}

// FetchPage downloads the HTML of a listing page.
func (c *Client) FetchPage(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	body, err := c.do(req, ApiPage)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

// Events requests one page of successful sale events of a token.
// Request like this:
// curl --request GET \
//     --url 'https://api.opensea.io/api/v1/events?only_opensea=true&token_id=1&asset_contract_address=0x..&limit=200&event_type=successful'
func (c *Client) Events(ctx context.Context, contract, tokenId, cursor string) (*ResponseEvents, error) {
	q := url.Values{}
	q.Set("only_opensea", "true")
	q.Set("token_id", tokenId)
	q.Set("asset_contract_address", contract)
	q.Set("limit", strconv.Itoa(PageLimit))
	q.Set("event_type", "successful")
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var resp ResponseEvents
	if err := c.getJSON(ctx, c.cfg.BaseURL+"/api/v1/events?"+q.Encode(), ApiEvents, &resp); err != nil {
		return nil, err
	}
	if resp.AssetEvents == nil {
		return nil, fmt.Errorf("events of %s/%s: response has no asset_events", contract, tokenId)
	}
	if len(resp.AssetEvents) > 0 {
		e := resp.AssetEvents[0]
		if e.Seller != nil && e.WinnerAccount != nil {
			c.Sugar.Debugf("events of %s/%s: %d, newest %s -> %s at %s",
				contract, tokenId, len(resp.AssetEvents), e.Seller, e.WinnerAccount, e.EventTimestamp)
		}
	}
	return &resp, nil
}

// Assets requests one page of assets of a collection (by slug).
func (c *Client) Assets(ctx context.Context, collection, cursor string) (*ResponseAssets, error) {
	q := url.Values{}
	q.Set("collection", collection)
	q.Set("limit", strconv.Itoa(PageLimit))
	q.Set("format", "json")
	q.Set("include_orders", "false")
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var resp ResponseAssets
	if err := c.getJSON(ctx, c.cfg.BaseURL+"/api/v1/assets?"+q.Encode(), ApiAssets, &resp); err != nil {
		return nil, err
	}
	if resp.Assets == nil {
		return nil, fmt.Errorf("assets of %s: response has no assets", collection)
	}
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, u, api string, v interface{}) error {
	c.Sugar.Debugf("request: %s", u)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.ApiKey != "" {
		req.Header.Set("X-API-KEY", c.cfg.ApiKey)
	}
	body, err := c.do(req, api)
	if err != nil {
		return err
	}
	defer body.Close()
	decoder := json.NewDecoder(body)
	if err = decoder.Decode(v); err != nil {
		return fmt.Errorf("decode %s response: %w", api, err)
	}
	return nil
}

func (c *Client) do(req *http.Request, api string) (io.ReadCloser, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}
	if c.Observer != nil {
		c.Observer.PageFetched(api)
	}
	return resp.Body, nil
}
