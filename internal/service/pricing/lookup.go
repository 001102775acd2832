package pricing

import "github.com/tourello/quotesync/internal/domain/models"

// LookupPricePoint finds the per-person price for an exact (tier, nights)
// combination within one period. A missing combination is a coverage gap
// in the authored matrix, never silently defaulted.
func LookupPricePoint(period *models.PricingPeriod, tierIndex, nights int) (models.Price, bool) {
	for _, point := range period.Prices {
		if point.TierIndex == tierIndex && point.Nights == nights {
			return point.Price, true
		}
	}
	return models.Price{}, false
}
