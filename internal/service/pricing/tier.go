package pricing

import "github.com/tourello/quotesync/internal/domain/models"

// TierMatch pairs a resolved tier with its position in the package's tier
// list. The index is what the price matrix is keyed on.
type TierMatch struct {
	Index int
	Tier  models.GroupSizeTier
}

// ResolveTier returns the first tier, in declaration order, whose
// inclusive [min, max] range contains the group size. Tiers may overlap;
// first match wins. There is no clamping: a group size outside every tier
// is simply not covered.
func ResolveTier(numberOfPeople int, tiers []models.GroupSizeTier) (TierMatch, bool) {
	for i, tier := range tiers {
		if tier.Contains(numberOfPeople) {
			return TierMatch{Index: i, Tier: tier}, true
		}
	}
	return TierMatch{}, false
}
