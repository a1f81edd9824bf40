package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
)

// UnitPriceFor resolves the per-unit price for the requested quantity.
//
// Tiers are scanned in descending MOQ order and the first tier whose MOQ the
// quantity reaches wins. A quantity below every tier MOQ falls through to the
// smallest tier so bulk-listed products still quote a tier price. Products
// without tiers quote their base price.
func UnitPriceFor(product *models.Product, quantity int) decimal.Decimal {
	if product == nil {
		return decimal.Zero
	}
	if len(product.PricingTiers) == 0 {
		return product.Price
	}

	tiers := make([]models.PricingTier, len(product.PricingTiers))
	copy(tiers, product.PricingTiers)
	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].MOQ > tiers[j].MOQ
	})

	for _, tier := range tiers {
		if quantity >= tier.MOQ {
			return tier.Price
		}
	}
	return tiers[len(tiers)-1].Price
}

// TierFor reports which tier applied for the quantity, or nil when the base
// price was used.
func TierFor(product *models.Product, quantity int) *models.PricingTier {
	if product == nil || len(product.PricingTiers) == 0 {
		return nil
	}

	tiers := make([]models.PricingTier, len(product.PricingTiers))
	copy(tiers, product.PricingTiers)
	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].MOQ > tiers[j].MOQ
	})

	for i := range tiers {
		if quantity >= tiers[i].MOQ {
			return &tiers[i]
		}
	}
	return &tiers[len(tiers)-1]
}

// LineTotal is the resolved unit price times quantity.
func LineTotal(product *models.Product, quantity int) decimal.Decimal {
	return UnitPriceFor(product, quantity).Mul(decimal.NewFromInt(int64(quantity)))
}
