package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var ErrMalformedPage = errors.New("malformed listing page")

const warningMarker = "warning"

// Page is what the listing page of one NFT tells us.
type Page struct {
	Name     string
	Category string
	// nil when the item is not listed
	ListingPrice *float64
	Scam         bool
	Offer        OfferStatus
}

// ParsePage extracts the documented fields from a listing page. A missing price or
// category is not an error; a page without the item header is.
func ParsePage(html []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPage, err)
	}
	p := &Page{
		ListingPrice: parseFiat(doc.Find("div.Price--fiat-amount-secondary").First()),
		Category:     parseCategory(doc.Find("section.item--counts").First()),
	}

	header := doc.Find("section.item--header").First()
	if header.Length() == 0 {
		return nil, fmt.Errorf("%w: no item header", ErrMalformedPage)
	}
	p.Name = strings.TrimSpace(header.ChildrenFiltered("div").Eq(1).Find("h1").First().Text())

	header.Find("i").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) == warningMarker {
			p.Scam = true
		}
		return !p.Scam
	})
	if p.Scam {
		return p, nil
	}

	trade := doc.Find("form.TradeStation--main").First()
	if trade.Length() == 0 {
		trade = doc.Find("div.TradeStation--main").First()
	}
	p.Offer = classifyOffer(trade)
	return p, nil
}

func parseFiat(s *goquery.Selection) *float64 {
	if s.Length() == 0 {
		return nil
	}
	text := strings.NewReplacer("$", "", " ", "", ",", "").Replace(s.Text())
	text = strings.TrimSpace(text)
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseCategory(section *goquery.Selection) string {
	if section.Length() == 0 {
		return DefaultCategory
	}
	span := section.Find("div").Last().Find("span").First()
	if span.Length() == 0 {
		return DefaultCategory
	}
	if label := strings.TrimSpace(span.Text()); label != "" {
		return label
	}
	return DefaultCategory
}

func classifyOffer(trade *goquery.Selection) OfferStatus {
	if trade.Length() == 0 {
		return NoOffers
	}
	primary := trade.ChildrenFiltered("div").Last().Find("button").First()
	if strings.TrimSpace(primary.Text()) == "Buy now" {
		return BuyNow
	}
	auction := false
	trade.Find("button").EachWithBreak(func(_ int, b *goquery.Selection) bool {
		auction = strings.Contains(b.Text(), "Place bid")
		return !auction
	})
	if auction {
		return OnAuction
	}
	return OfferAvailable
}
