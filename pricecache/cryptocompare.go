package pricecache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const DefaultCryptoCompareURL = "https://min-api.cryptocompare.com"

type CryptoCompareConfig struct {
	BaseURL string `json:"baseURL"`
	ApiKey  string `json:"apiKey"`
}

// CryptoCompare is the historical price endpoint of min-api.cryptocompare.com.
type CryptoCompare struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewCryptoCompare(cfg CryptoCompareConfig, httpClient *http.Client) *CryptoCompare {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultCryptoCompareURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &CryptoCompare{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.ApiKey,
		http:    httpClient,
	}
}

// HistoricalUSD calls /data/pricehistorical. A good answer looks like {"ETH":{"USD":3209.52}},
// a bad one like {"Response":"Error","Message":"..."}.
func (c *CryptoCompare) HistoricalUSD(ctx context.Context, fsym string, unix int64) (float64, error) {
	q := url.Values{}
	q.Set("fsym", fsym)
	q.Set("tsyms", "USD")
	q.Set("ts", strconv.FormatInt(unix, 10))
	u := c.baseURL + "/data/pricehistorical?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Apikey "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return 0, fmt.Errorf("GET %s: unexpected status %d", u, resp.StatusCode)
	}

	var raw map[string]json.RawMessage
	if err = json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return 0, fmt.Errorf("decode price response: %w", err)
	}
	if status, ok := raw["Response"]; ok {
		var s string
		_ = json.Unmarshal(status, &s)
		if s == "Error" {
			var msg string
			_ = json.Unmarshal(raw["Message"], &msg)
			return 0, fmt.Errorf("cryptocompare: %s", msg)
		}
	}
	body, ok := raw[fsym]
	if !ok {
		return 0, fmt.Errorf("cryptocompare: no price for %s", fsym)
	}
	var prices map[string]float64
	if err = json.Unmarshal(body, &prices); err != nil {
		return 0, fmt.Errorf("decode %s prices: %w", fsym, err)
	}
	usd, ok := prices["USD"]
	if !ok {
		return 0, fmt.Errorf("cryptocompare: no USD price for %s", fsym)
	}
	return usd, nil
}
