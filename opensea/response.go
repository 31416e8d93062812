package opensea

import (
	"fmt"

	"github.com/xyths/hs/convert"
)

// ResponseEvents is the response of `/events` API, filtered to successful sales.
type ResponseEvents struct {
	AssetEvents []SaleEvent `json:"asset_events"`
	// Next is the cursor of the next page, nil on the last page.
	Next *string `json:"next"`
}

// SaleEvent is one `successful` event of a single token.
type SaleEvent struct {
	Asset EventAsset `json:"asset"`

	// "2021-08-28T09:44:43"
	EventTimestamp string `json:"event_timestamp"`
	// only present when the sale came from a listing
	ListingTime *string `json:"listing_time"`

	// integer string in minor units of PaymentToken
	TotalPrice string `json:"total_price"`

	Seller        *Account `json:"seller"`
	WinnerAccount *Account `json:"winner_account"`

	PaymentToken PaymentToken `json:"payment_token"`
}

// EventAsset is the asset snapshot attached to an event.
type EventAsset struct {
	TokenId       string        `json:"token_id"`
	Name          string        `json:"name"`
	ImageUrl      string        `json:"image_url"`
	NumSales      int           `json:"num_sales"`
	AssetContract AssetContract `json:"asset_contract"`
}

type AssetContract struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	// royalty in basis points
	DevSellerFeeBasisPoints int `json:"dev_seller_fee_basis_points"`
}

type Account struct {
	User          User   `json:"user"`
	ProfileImgUrl string `json:"profile_img_url"`
	Address       string `json:"address"`
	Config        string `json:"config"`
}

func (a Account) String() string {
	addr := convert.ShortAddress(a.Address)
	if a.User.Username != "" {
		return fmt.Sprintf("%s(%s)", a.User.Username, addr)
	} else {
		return addr
	}
}

// AddressOf returns the account address, or "" for a missing account.
func AddressOf(a *Account) string {
	if a == nil {
		return ""
	}
	return a.Address
}

type User struct {
	Username string `json:"username"`
}

type PaymentToken struct {
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// ResponseAssets is response of `/assets` API for one collection.
type ResponseAssets struct {
	Assets []RawAsset `json:"assets"`
	Next   *string    `json:"next"`
}

// RawAsset is the `asset` structure in ResponseAssets.
type RawAsset struct {
	TokenId   string `json:"token_id"`
	Name      string `json:"name"`
	Permalink string `json:"permalink"`
	NumSales  int    `json:"num_sales"`
}
