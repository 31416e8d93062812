package opensea

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver map[string]int

func (c countingObserver) PageFetched(api string) { c[api]++ }

func TestClientEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/events", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		q := r.URL.Query()
		assert.Equal(t, "successful", q.Get("event_type"))
		assert.Equal(t, "200", q.Get("limit"))
		assert.Equal(t, "0xc", q.Get("asset_contract_address"))
		assert.Equal(t, "42", q.Get("token_id"))
		if q.Get("cursor") == "" {
			_, _ = w.Write([]byte(`{"asset_events":[{"total_price":"1000","event_timestamp":"2021-08-28T09:44:43",
				"payment_token":{"symbol":"ETH","decimals":18},"seller":{"address":"0xa"},"winner_account":{"address":"0xb"},
				"asset":{"image_url":"img","num_sales":5,"asset_contract":{"dev_seller_fee_basis_points":250}}}],"next":"abc"}`))
			return
		}
		assert.Equal(t, "abc", q.Get("cursor"))
		_, _ = w.Write([]byte(`{"asset_events":[],"next":null}`))
	}))
	defer srv.Close()

	obs := countingObserver{}
	c := NewClient(ClientConfig{ApiKey: "secret", BaseURL: srv.URL}, srv.Client(), nil)
	c.Observer = obs

	ledger, err := FetchLedger(context.Background(), c, "0xc", "42", 0)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	e := ledger[0]
	assert.Equal(t, "1000", e.TotalPrice)
	assert.Equal(t, 18, e.PaymentToken.Decimals)
	assert.Equal(t, "0xa", AddressOf(e.Seller))
	assert.Equal(t, 250, e.Asset.AssetContract.DevSellerFeeBasisPoints)
	assert.Nil(t, e.ListingTime)
	assert.Equal(t, 2, obs[ApiEvents])
}

func TestClientRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL}, srv.Client(), nil)
	_, err := c.Assets(context.Background(), "doodles", "")
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))

	_, err = c.FetchPage(context.Background(), srv.URL+"/assets/0xc/1")
	assert.True(t, IsRateLimited(err))
}

func TestClientMalformedAssets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"detail":"oops"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL}, srv.Client(), nil)
	_, err := c.Assets(context.Background(), "doodles", "")
	require.Error(t, err)
	assert.False(t, IsRateLimited(err))
}

func TestAccountString(t *testing.T) {
	a := Account{Address: "0x00000000000000000000000000000000000000bb"}
	assert.NotEmpty(t, a.String())
	a.User.Username = "bob"
	assert.True(t, strings.HasPrefix(a.String(), "bob("))
	assert.Equal(t, "", AddressOf(nil))
	assert.Equal(t, a.Address, AddressOf(&a))
}
