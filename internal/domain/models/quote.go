package models

import (
	"fmt"
	"time"
)

// SyncState is the relationship between a quote's displayed price and what
// the linked package matrix would currently compute.
type SyncState string

const (
	SyncStateSynced      SyncState = "synced"
	SyncStateCalculating SyncState = "calculating"
	SyncStateCustom      SyncState = "custom"
	SyncStateOutOfSync   SyncState = "out_of_sync"
	SyncStateError       SyncState = "error"
	SyncStateUnlinked    SyncState = "unlinked"
)

// HistoryReason records why a price history entry was appended.
type HistoryReason string

const (
	ReasonPackageSelection HistoryReason = "package_selection"
	ReasonRecalculation    HistoryReason = "recalculation"
	ReasonManualOverride   HistoryReason = "manual_override"
)

// QuoteParameters is the live, operator-editable triple owned by an
// editing session.
type QuoteParameters struct {
	NumberOfPeople int       `bson:"number_of_people" json:"number_of_people"`
	NumberOfNights int       `bson:"number_of_nights" json:"number_of_nights"`
	ArrivalDate    time.Time `bson:"arrival_date" json:"arrival_date"`
}

// Validate rejects out-of-domain input before any resolution starts.
func (q QuoteParameters) Validate() error {
	if q.NumberOfPeople < 1 {
		return fmt.Errorf("number of people must be positive, got %d", q.NumberOfPeople)
	}
	if q.NumberOfNights < 1 {
		return fmt.Errorf("number of nights must be positive, got %d", q.NumberOfNights)
	}
	if q.ArrivalDate.IsZero() {
		return fmt.Errorf("arrival date is required")
	}
	return nil
}

// SelectedTier captures which tier a calculation resolved to.
type SelectedTier struct {
	TierIndex int    `bson:"tier_index" json:"tier_index"`
	TierLabel string `bson:"tier_label" json:"tier_label"`
}

// LinkedPackageSnapshot is the quote-owned copy of package-derived data,
// created when a package is linked and kept in sync thereafter.
type LinkedPackageSnapshot struct {
	PackageID          string       `bson:"package_id" json:"package_id"`
	PackageName        string       `bson:"package_name" json:"package_name"`
	PackageVersion     int          `bson:"package_version" json:"package_version"`
	SelectedTier       SelectedTier `bson:"selected_tier" json:"selected_tier"`
	SelectedNights     int          `bson:"selected_nights" json:"selected_nights"`
	SelectedPeriod     string       `bson:"selected_period" json:"selected_period"`
	CalculatedPrice    Price        `bson:"calculated_price" json:"calculated_price"`
	PriceWasOnRequest  bool         `bson:"price_was_on_request" json:"price_was_on_request"`
	CustomPriceApplied bool         `bson:"custom_price_applied,omitempty" json:"custom_price_applied,omitempty"`
	LastRecalculatedAt *time.Time   `bson:"last_recalculated_at,omitempty" json:"last_recalculated_at,omitempty"`
}

// PriceHistoryEntry is an append-only audit record attached to the quote.
// Entries are never mutated or deleted.
type PriceHistoryEntry struct {
	ID        string        `bson:"entry_id" json:"entry_id"`
	Price     Price         `bson:"price" json:"price"`
	Reason    HistoryReason `bson:"reason" json:"reason"`
	Timestamp time.Time     `bson:"timestamp" json:"timestamp"`
	UserID    string        `bson:"user_id" json:"user_id"`
}

// Quote is the persisted quote document as the quote store sees it. The
// core only writes the pricing-related fields; everything else on the
// document belongs to other subsystems.
type Quote struct {
	ID            string                 `bson:"_id" json:"quote_id"`
	Price         *Price                 `bson:"price,omitempty" json:"price,omitempty"`
	Parameters    QuoteParameters        `bson:"parameters" json:"parameters"`
	LinkedPackage *LinkedPackageSnapshot `bson:"linked_package,omitempty" json:"linked_package,omitempty"`
	SyncState     SyncState              `bson:"sync_state" json:"sync_state"`
	PriceHistory  []PriceHistoryEntry    `bson:"price_history" json:"price_history"`
	UpdatedAt     time.Time              `bson:"updated_at" json:"updated_at"`
}
