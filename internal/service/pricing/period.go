package pricing

import (
	"strings"
	"time"

	"github.com/tourello/quotesync/internal/domain/models"
)

// ResolvePeriod maps an arrival date to a pricing period. Special periods
// represent negotiated exceptions (holiday weeks, peak season) and always
// win over the blanket monthly rate, even though both contain the date:
//
//  1. the first special period whose inclusive date range contains the
//     arrival date, in declaration order;
//  2. otherwise the month period whose label is the arrival month's name;
//  3. otherwise no match.
//
// Only the arrival date matters; a stay spanning a period boundary is
// priced entirely by its arrival period.
func ResolvePeriod(arrivalDate time.Time, periods []models.PricingPeriod) (*models.PricingPeriod, bool) {
	for i := range periods {
		if periods[i].Type == models.PeriodTypeSpecial && periods[i].ContainsDate(arrivalDate) {
			return &periods[i], true
		}
	}

	monthName := arrivalDate.UTC().Month().String()
	for i := range periods {
		if periods[i].Type == models.PeriodTypeMonth && strings.EqualFold(periods[i].Period, monthName) {
			return &periods[i], true
		}
	}

	return nil, false
}
