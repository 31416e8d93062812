package extract

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tradeBuyNow  = `<form class="TradeStation--main"><div>Sale ends soon</div><div><button>Buy now</button><button>Make offer</button></div></form>`
	tradeAuction = `<div class="TradeStation--main"><div><button>Place bid</button></div><div><button>Make offer</button></div></div>`
	tradeOffer   = `<form class="TradeStation--main"><div><button>Make offer</button></div></form>`
)

func listingHTML(price, category, icon, trade string) []byte {
	priceBlock := ""
	if price != "" {
		priceBlock = fmt.Sprintf(`<div class="Price--main"><div class="Price--fiat-amount-secondary">%s</div></div>`, price)
	}
	counts := ""
	if category != "" {
		counts = fmt.Sprintf(`<section class="item--counts"><div>10 owners</div><div><span>%s</span></div></section>`, category)
	}
	return []byte(fmt.Sprintf(`<html><body>
<section class="item--header"><div><a>Some Collection</a><i>%s</i></div><div><h1>Ape #12</h1></div></section>
%s%s%s
</body></html>`, icon, counts, priceBlock, trade))
}

func TestParsePage(t *testing.T) {
	p, err := ParsePage(listingHTML("$1,234.50", "Art", "verified", tradeBuyNow))
	require.NoError(t, err)
	assert.Equal(t, "Ape #12", p.Name)
	assert.Equal(t, "Art", p.Category)
	require.NotNil(t, p.ListingPrice)
	assert.Equal(t, 1234.5, *p.ListingPrice)
	assert.False(t, p.Scam)
	assert.Equal(t, BuyNow, p.Offer)
}

func TestParsePageOffers(t *testing.T) {
	tests := []struct {
		trade string
		want  OfferStatus
	}{
		{tradeBuyNow, BuyNow},
		{tradeAuction, OnAuction},
		{tradeOffer, OfferAvailable},
		{"", NoOffers},
	}
	for _, tt := range tests {
		p, err := ParsePage(listingHTML("", "", "", tt.trade))
		require.NoError(t, err)
		assert.Equal(t, tt.want, p.Offer)
		assert.Nil(t, p.ListingPrice)
		assert.Equal(t, DefaultCategory, p.Category)
	}
}

func TestParsePageScam(t *testing.T) {
	p, err := ParsePage(listingHTML("$10", "Art", "warning", tradeBuyNow))
	require.NoError(t, err)
	assert.True(t, p.Scam)
	assert.Equal(t, OfferStatus(""), p.Offer)
}

func TestParsePageCategoryWithoutLabel(t *testing.T) {
	html := []byte(`<section class="item--header"><div></div><div><h1>X</h1></div></section>
<section class="item--counts"><div>10 owners</div></section>`)
	p, err := ParsePage(html)
	require.NoError(t, err)
	assert.Equal(t, DefaultCategory, p.Category)
}

func TestParsePageWithoutHeader(t *testing.T) {
	_, err := ParsePage([]byte(`<html><body><p>Just a moment...</p></body></html>`))
	assert.True(t, errors.Is(err, ErrMalformedPage))
}
