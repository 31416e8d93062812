package extract

import (
	"encoding/json"
	"strconv"
	"time"
)

type OfferStatus string

const (
	BuyNow         OfferStatus = "Buy now"
	OnAuction      OfferStatus = "On auction"
	OfferAvailable OfferStatus = "Offer available"
	NoOffers       OfferStatus = "No offers"
)

// DefaultCategory is used when the page has no category label.
const DefaultCategory = "General"

// NoSales is the printed value of an Extreme without any resale.
const NoSales = "no sales"

// Extreme is a profit extreme in percent, or "no sales".
type Extreme struct {
	Value   float64
	NoSales bool
}

func (e Extreme) String() string {
	if e.NoSales {
		return NoSales
	}
	return strconv.FormatFloat(e.Value, 'f', -1, 64)
}

// Ptr returns nil for "no sales".
func (e Extreme) Ptr() *float64 {
	if e.NoSales {
		return nil
	}
	v := e.Value
	return &v
}

func (e Extreme) MarshalJSON() ([]byte, error) {
	if e.NoSales {
		return json.Marshal(NoSales)
	}
	return json.Marshal(e.Value)
}

// Profile is the financial summary of one NFT.
type Profile struct {
	Link     string      `json:"link"`
	Name     string      `json:"name"`
	ImageURL string      `json:"imageUrl"`
	Category string      `json:"category"`
	Offer    OfferStatus `json:"offer"`
	Scam     bool        `json:"scam"`

	// USD; nil when neither a listing nor a sale gives a price
	ListingPrice *float64 `json:"listingPrice"`

	FirstSalePrice float64   `json:"firstSalePrice"`
	FirstSaleDate  time.Time `json:"firstSaleDate"`
	// raw event_timestamp of the newest sale
	LastSaleDate string `json:"lastSaleDate"`

	TotalProfitPct float64 `json:"totalProfitPct"`
	MonthlyROI     float64 `json:"monthlyRoi"`
	DealsNumber    int     `json:"dealsNumber"`
	MaxProfitPct   Extreme `json:"maxProfitPct"`
	MinProfitPct   Extreme `json:"minProfitPct"`

	// humanized, "" when it cannot be computed
	AverageSaleDuration string `json:"averageSaleDuration"`
	AverageHoldDuration string `json:"averageHoldDuration"`

	RoyaltyPct float64 `json:"royaltyPct"`
}

type Kind int

const (
	// KindProfile carries a complete Profile to upsert.
	KindProfile Kind = iota
	// KindScam means the page carries a warning marker: delete, never upsert.
	KindScam
	// KindNoData means there is nothing to compute profitability from.
	KindNoData
)

func (k Kind) String() string {
	switch k {
	case KindProfile:
		return "profile"
	case KindScam:
		return "scam"
	case KindNoData:
		return "no-data"
	default:
		return "unknown"
	}
}

// Result is the outcome of one extraction. Profile is always set; for KindScam and
// KindNoData it only holds what the page gave.
type Result struct {
	Kind    Kind
	Profile *Profile
}
