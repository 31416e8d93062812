package extract

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xyths/nft-catalog/opensea"
)

var hundred = decimal.NewFromInt(100)

// ProfitExtremes pairs every receiver B with every sender A where B's winner later
// sold as A's seller, and returns the smallest and largest percent gain of those flips.
//
// "Later" is decided on naive timestamps ("2006-01-02T15:04:05", no zone), unlike the
// zone-aware parsing used for dates elsewhere; an event with any other timestamp
// format fails the comparison.
func ProfitExtremes(ledger opensea.Ledger) (lowest, highest Extreme, err error) {
	var gains []float64
	for i := range ledger {
		receiver := &ledger[i]
		receiverValue, err := cutValue(receiver.TotalPrice, receiver.PaymentToken.Decimals)
		if err != nil {
			return Extreme{}, Extreme{}, err
		}
		winner := opensea.AddressOf(receiver.WinnerAccount)
		for j := range ledger {
			sender := &ledger[j]
			if !opensea.SameAddress(winner, opensea.AddressOf(sender.Seller)) {
				continue
			}
			later, err := naiveAfter(sender.EventTimestamp, receiver.EventTimestamp)
			if err != nil {
				return Extreme{}, Extreme{}, err
			}
			if !later || !receiverValue.IsPositive() {
				continue
			}
			senderValue, err := cutValue(sender.TotalPrice, sender.PaymentToken.Decimals)
			if err != nil {
				return Extreme{}, Extreme{}, err
			}
			gain := senderValue.Sub(receiverValue).Div(receiverValue).Mul(hundred)
			gains = append(gains, roundFloat(gain, 2))
		}
	}
	return extremes(gains)
}

func extremes(gains []float64) (lowest, highest Extreme, err error) {
	switch len(gains) {
	case 0:
		return Extreme{NoSales: true}, Extreme{NoSales: true}, nil
	case 1:
		return Extreme{Value: gains[0]}, Extreme{Value: gains[0]}, nil
	}
	sort.Float64s(gains)
	return Extreme{Value: gains[0]}, Extreme{Value: gains[len(gains)-1]}, nil
}

func naiveAfter(a, b string) (bool, error) {
	ta, err := opensea.ParseNaiveTimestamp(a)
	if err != nil {
		return false, fmt.Errorf("resale chain: %w", err)
	}
	tb, err := opensea.ParseNaiveTimestamp(b)
	if err != nil {
		return false, fmt.Errorf("resale chain: %w", err)
	}
	return ta.After(tb), nil
}

// Durations returns the humanized mean gap between consecutive sales (hold) and the
// mean time from listing to sale over all events (sale). Hold is "" for fewer than two
// events; both are "" for an empty ledger.
func Durations(ledger opensea.Ledger) (sale, hold string, err error) {
	if len(ledger) == 0 {
		return "", "", nil
	}
	var gaps []float64
	var listed float64
	for i := range ledger {
		at, err := opensea.ParseTimestamp(ledger[i].EventTimestamp)
		if err != nil {
			return "", "", err
		}
		if i+1 < len(ledger) {
			older, err := opensea.ParseTimestamp(ledger[i+1].EventTimestamp)
			if err != nil {
				return "", "", err
			}
			gaps = append(gaps, at.Sub(older).Seconds())
		}
		if lt := ledger[i].ListingTime; lt != nil && *lt != "" {
			listedAt, err := opensea.ParseTimestamp(*lt)
			if err != nil {
				return "", "", err
			}
			listed += at.Sub(listedAt).Seconds()
		}
	}
	sale = Humanize(listed / float64(len(ledger)))
	if len(gaps) > 0 {
		var sum float64
		for _, g := range gaps {
			sum += g
		}
		hold = Humanize(sum / float64(len(gaps)))
	}
	return sale, hold, nil
}
