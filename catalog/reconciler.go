package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xyths/nft-catalog/extract"
	"github.com/xyths/nft-catalog/opensea"
)

type Outcome string

const (
	OutcomeUpserted Outcome = "upserted"
	OutcomeDeleted  Outcome = "deleted"
	// scam, but there was nothing to delete
	OutcomeScamAbsent Outcome = "scam-absent"
	OutcomeSkipped    Outcome = "skipped"
)

// Reconciler writes extraction results into the catalog.
type Reconciler struct {
	store NftStore
	Sugar *zap.SugaredLogger
}

func NewReconciler(store NftStore, sugar *zap.SugaredLogger) *Reconciler {
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return &Reconciler{store: store, Sugar: sugar}
}

// Reconcile deletes scams, skips results without data and upserts everything else
// by link.
func (r *Reconciler) Reconcile(ctx context.Context, link string, res extract.Result) (Outcome, error) {
	switch res.Kind {
	case extract.KindScam:
		deleted, err := r.store.DeleteNft(ctx, link)
		if err != nil {
			return "", fmt.Errorf("delete %s: %w", link, err)
		}
		if !deleted {
			return OutcomeScamAbsent, nil
		}
		r.Sugar.Infof("deleted scam %s", link)
		return OutcomeDeleted, nil
	case extract.KindNoData:
		r.Sugar.Debugf("no data for %s", link)
		return OutcomeSkipped, nil
	}

	p := res.Profile
	if p == nil {
		return "", fmt.Errorf("%s: empty profile", link)
	}
	nftType, err := r.store.GetOrCreateType(ctx, p.Category)
	if err != nil {
		return "", fmt.Errorf("nft type %q: %w", p.Category, err)
	}
	nft, err := toNft(link, p)
	if err != nil {
		return "", err
	}
	nft.TypeID = nftType.ID
	if err = r.store.UpsertNft(ctx, nft); err != nil {
		return "", fmt.Errorf("upsert %s: %w", link, err)
	}
	return OutcomeUpserted, nil
}

func toNft(link string, p *extract.Profile) (*Nft, error) {
	lastSale, err := opensea.ParseTimestamp(p.LastSaleDate)
	if err != nil {
		return nil, fmt.Errorf("%s: last sale date: %w", link, err)
	}
	return &Nft{
		OpenseaLink:         link,
		BuyLink:             link,
		Name:                p.Name,
		ImageURL:            p.ImageURL,
		Offer:               string(p.Offer),
		Price:               p.ListingPrice,
		FirstSalePrice:      p.FirstSalePrice,
		FirstSaleDate:       p.FirstSaleDate.UTC(),
		LastSaleDate:        lastSale.UTC(),
		TotalProfit:         p.TotalProfitPct,
		MonthlyROI:          p.MonthlyROI,
		DealsNumber:         p.DealsNumber,
		MaxProfitPerSale:    p.MaxProfitPct.Ptr(),
		MinProfitPerSale:    p.MinProfitPct.Ptr(),
		AverageSaleDuration: ParseDuration(p.AverageSaleDuration),
		AverageHoldDuration: ParseDuration(p.AverageHoldDuration),
		Royalty:             p.RoyaltyPct,
	}, nil
}
