package catalog

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Nft is one catalog record, keyed by OpenseaLink.
type Nft struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OpenseaLink string             `bson:"openseaLink" json:"openseaLink"`
	BuyLink     string             `bson:"buyLink" json:"buyLink"`
	Name        string             `bson:"name" json:"name"`
	ImageURL    string             `bson:"imageUrl" json:"imageUrl"`
	TypeID      primitive.ObjectID `bson:"typeId" json:"typeId"`
	Offer       string             `bson:"offer" json:"offer"`

	Price          *float64  `bson:"price" json:"price"`
	FirstSalePrice float64   `bson:"firstSalePrice" json:"firstSalePrice"`
	FirstSaleDate  time.Time `bson:"firstSaleDate" json:"firstSaleDate"`
	LastSaleDate   time.Time `bson:"lastSaleDate" json:"lastSaleDate"`
	TotalProfit    float64   `bson:"totalProfit" json:"totalProfit"`
	MonthlyROI     float64   `bson:"monthlyRoi" json:"monthlyRoi"`
	DealsNumber    int       `bson:"dealsNumber" json:"dealsNumber"`
	// nil means "no sales"
	MaxProfitPerSale *float64 `bson:"maxProfitPerSale" json:"maxProfitPerSale"`
	MinProfitPerSale *float64 `bson:"minProfitPerSale" json:"minProfitPerSale"`

	AverageSaleDuration Duration `bson:"averageSaleDuration" json:"averageSaleDuration"`
	AverageHoldDuration Duration `bson:"averageHoldDuration" json:"averageHoldDuration"`

	Royalty float64 `bson:"royalty" json:"royalty"`

	// set by the store on every write
	UpdateTime time.Time `bson:"updateTime" json:"updateTime"`
}

// NftType is a category label, unique by Name.
type NftType struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
}

// HistoryPrice is the USD price of one ticker on one day.
type HistoryPrice struct {
	Ticker string    `bson:"ticker"`
	Date   time.Time `bson:"date"`
	Price  float64   `bson:"price"`
}

// Collection is one entry of the verified collection registry.
type Collection struct {
	ID        string      `bson:"_id" json:"id"`
	Name      string      `bson:"name" json:"name"`
	Logo      string      `bson:"logo" json:"logo"`
	Contracts interface{} `bson:"contracts" json:"contracts"`
	Timestamp time.Time   `bson:"timestamp" json:"timestamp"`
	Verified  bool        `bson:"verified" json:"verified"`
}

// NormalizeTicker maps wrapped ether to ether.
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "WETH" {
		return "ETH"
	}
	return t
}

// Day truncates t to its UTC date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
