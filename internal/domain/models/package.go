package models

import (
	"fmt"
	"time"
)

// PeriodType distinguishes blanket monthly rates from explicitly
// date-ranged special periods.
type PeriodType string

const (
	PeriodTypeMonth   PeriodType = "month"
	PeriodTypeSpecial PeriodType = "special"
)

// GroupSizeTier is a named, inclusive range of group sizes with its own
// price column in the matrix.
type GroupSizeTier struct {
	Label     string `bson:"label" json:"label"`
	MinPeople int    `bson:"min_people" json:"min_people"`
	MaxPeople int    `bson:"max_people" json:"max_people"`
}

// Contains reports whether the tier covers the given group size. Both
// bounds are inclusive.
func (t GroupSizeTier) Contains(people int) bool {
	return people >= t.MinPeople && people <= t.MaxPeople
}

// PricePoint is the per-person price for one (tier, duration) pair within
// one period.
type PricePoint struct {
	TierIndex int   `bson:"tier_index" json:"tier_index"`
	Nights    int   `bson:"nights" json:"nights"`
	Price     Price `bson:"price" json:"price"`
}

// PricingPeriod is a span of time a price column applies to: an ordinary
// calendar month matched by name, or a special period matched by an
// inclusive date range.
type PricingPeriod struct {
	Period    string       `bson:"period" json:"period"`
	Type      PeriodType   `bson:"period_type" json:"period_type"`
	StartDate *time.Time   `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate   *time.Time   `bson:"end_date,omitempty" json:"end_date,omitempty"`
	Prices    []PricePoint `bson:"prices" json:"prices"`
}

// ContainsDate reports whether a special period's inclusive range covers
// the given day. Comparison is at calendar-day granularity; month periods
// never match by range.
func (p PricingPeriod) ContainsDate(day time.Time) bool {
	if p.Type != PeriodTypeSpecial || p.StartDate == nil || p.EndDate == nil {
		return false
	}
	d := DayOf(day)
	return !d.Before(DayOf(*p.StartDate)) && !d.After(DayOf(*p.EndDate))
}

// DayOf truncates a timestamp to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TravelPackage is the immutable-per-version pricing aggregate. The core
// only ever reads a specific version snapshot.
type TravelPackage struct {
	ID        string          `bson:"package_id" json:"package_id"`
	Name      string          `bson:"name" json:"name"`
	Version   int             `bson:"version" json:"version"`
	Currency  string          `bson:"currency" json:"currency"`
	Tiers     []GroupSizeTier `bson:"tiers" json:"tiers"`
	Durations []int           `bson:"durations" json:"durations"`
	Periods   []PricingPeriod `bson:"periods" json:"periods"`
}

// HasDuration reports whether nights is one of the package's allowed
// duration options.
func (p *TravelPackage) HasDuration(nights int) bool {
	for _, d := range p.Durations {
		if d == nights {
			return true
		}
	}
	return false
}

// Validate checks structural integrity of the matrix. Failures here mean
// malformed authoring data, not a missing price: overlap between tiers or
// special periods is deliberately not rejected (first match wins).
func (p *TravelPackage) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("package id must not be empty")
	}
	if len(p.Tiers) == 0 {
		return fmt.Errorf("package %s: at least one group-size tier is required", p.ID)
	}
	for i, tier := range p.Tiers {
		if tier.MinPeople < 1 {
			return fmt.Errorf("package %s: tier %d min_people must be >= 1", p.ID, i)
		}
		if tier.MaxPeople < tier.MinPeople {
			return fmt.Errorf("package %s: tier %d max_people %d below min_people %d", p.ID, i, tier.MaxPeople, tier.MinPeople)
		}
	}
	if len(p.Durations) == 0 {
		return fmt.Errorf("package %s: at least one duration option is required", p.ID)
	}
	for _, nights := range p.Durations {
		if nights < 1 {
			return fmt.Errorf("package %s: duration %d must be a positive night count", p.ID, nights)
		}
	}
	if len(p.Periods) == 0 {
		return fmt.Errorf("package %s: at least one pricing period is required", p.ID)
	}
	for i, period := range p.Periods {
		switch period.Type {
		case PeriodTypeMonth:
		case PeriodTypeSpecial:
			if period.StartDate == nil || period.EndDate == nil {
				return fmt.Errorf("package %s: special period %q needs start and end dates", p.ID, period.Period)
			}
			if DayOf(*period.EndDate).Before(DayOf(*period.StartDate)) {
				return fmt.Errorf("package %s: special period %q ends before it starts", p.ID, period.Period)
			}
		default:
			return fmt.Errorf("package %s: period %d has unknown type %q", p.ID, i, period.Type)
		}
		for _, point := range period.Prices {
			if point.TierIndex < 0 || point.TierIndex >= len(p.Tiers) {
				return fmt.Errorf("package %s: period %q references tier index %d out of range", p.ID, period.Period, point.TierIndex)
			}
		}
	}
	return nil
}
