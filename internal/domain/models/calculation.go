package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FailureCode classifies why a calculation could not produce a price.
type FailureCode string

const (
	FailureNoTier            FailureCode = "NO_TIER"
	FailureInvalidDuration   FailureCode = "INVALID_DURATION"
	FailureNoPeriod          FailureCode = "NO_PERIOD"
	FailureNoPricePoint      FailureCode = "NO_PRICE_POINT"
	FailurePackageNotFound   FailureCode = "PACKAGE_NOT_FOUND"
	FailureInvalidParameters FailureCode = "INVALID_PARAMETERS"
)

// CalculationError is the typed, recoverable failure a calculation returns
// when the parameters are well-formed but the matrix does not cover them,
// or when the input itself is out of domain.
type CalculationError struct {
	Code    FailureCode `json:"error_code"`
	Message string      `json:"message"`
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewCalculationError builds a typed calculation failure.
func NewCalculationError(code FailureCode, format string, args ...any) *CalculationError {
	return &CalculationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// TierUsed identifies the tier a calculation resolved to.
type TierUsed struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// PeriodUsed identifies the period a calculation resolved to.
type PeriodUsed struct {
	Period string     `json:"period"`
	Type   PeriodType `json:"period_type"`
}

// CalculationResult is the successful outcome of a price calculation.
// On-request is a success carrying no numeric amounts.
type CalculationResult struct {
	IsOnRequest    bool             `json:"is_on_request"`
	PricePerPerson *decimal.Decimal `json:"price_per_person,omitempty"`
	NumberOfPeople int              `json:"number_of_people"`
	TotalPrice     *decimal.Decimal `json:"total_price,omitempty"`
	TierUsed       TierUsed         `json:"tier_used"`
	PeriodUsed     PeriodUsed       `json:"period_used"`
}

// Price returns the result as the tagged price type.
func (r *CalculationResult) Price() Price {
	if r.IsOnRequest || r.TotalPrice == nil {
		return PriceOnRequest()
	}
	return NewPrice(*r.TotalPrice)
}
