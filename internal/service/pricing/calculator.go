package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tourello/quotesync/internal/domain/models"
)

// ErrPackageNotFound is returned by package sources when no package exists
// for the requested id/version.
var ErrPackageNotFound = errors.New("package not found")

// PackageSource supplies read-only package version snapshots. Version 0
// requests the latest version.
type PackageSource interface {
	GetPackage(ctx context.Context, packageID string, version int) (*models.TravelPackage, error)
}

// Calculator resolves a (people, nights, arrival date) triple against a
// package's price matrix. Calculate is pure: fixed inputs always produce
// the same output.
type Calculator struct {
	logger *zap.Logger
}

// NewCalculator wires a calculator instance.
func NewCalculator(logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{logger: logger}
}

// Calculate runs tier resolution, duration validation, period resolution
// and the price-point lookup, short-circuiting on the first failure with a
// typed *models.CalculationError. An on-request price point is a success,
// not a failure. Malformed package data surfaces as a plain error.
func (c *Calculator) Calculate(pkg *models.TravelPackage, params models.QuoteParameters) (*models.CalculationResult, error) {
	if err := params.Validate(); err != nil {
		return nil, models.NewCalculationError(models.FailureInvalidParameters, "%s", err.Error())
	}
	if err := pkg.Validate(); err != nil {
		return nil, fmt.Errorf("malformed package data: %w", err)
	}

	tierMatch, ok := ResolveTier(params.NumberOfPeople, pkg.Tiers)
	if !ok {
		return nil, models.NewCalculationError(models.FailureNoTier,
			"no group-size tier covers %d people", params.NumberOfPeople)
	}

	if !pkg.HasDuration(params.NumberOfNights) {
		return nil, models.NewCalculationError(models.FailureInvalidDuration,
			"%d nights is not an offered duration", params.NumberOfNights)
	}

	period, ok := ResolvePeriod(params.ArrivalDate, pkg.Periods)
	if !ok {
		return nil, models.NewCalculationError(models.FailureNoPeriod,
			"no pricing period covers arrival date %s", params.ArrivalDate.Format("2006-01-02"))
	}

	price, ok := LookupPricePoint(period, tierMatch.Index, params.NumberOfNights)
	if !ok {
		return nil, models.NewCalculationError(models.FailureNoPricePoint,
			"period %q has no price for tier %d and %d nights", period.Period, tierMatch.Index, params.NumberOfNights)
	}

	result := &models.CalculationResult{
		NumberOfPeople: params.NumberOfPeople,
		TierUsed:       models.TierUsed{Index: tierMatch.Index, Label: tierMatch.Tier.Label},
		PeriodUsed:     models.PeriodUsed{Period: period.Period, Type: period.Type},
	}

	if price.IsOnRequest() {
		result.IsOnRequest = true
		c.logger.Debug("resolved on-request price",
			zap.String("package_id", pkg.ID),
			zap.String("period", period.Period),
			zap.Int("tier_index", tierMatch.Index))
		return result, nil
	}

	perPerson := price.Amount()
	total := perPerson.Mul(decimal.NewFromInt(int64(params.NumberOfPeople)))
	result.PricePerPerson = &perPerson
	result.TotalPrice = &total

	c.logger.Debug("resolved price",
		zap.String("package_id", pkg.ID),
		zap.String("period", period.Period),
		zap.Int("tier_index", tierMatch.Index),
		zap.String("total", total.String()))

	return result, nil
}

// Service combines a package source with the calculator to serve the
// calculation API: resolve the package, then delegate.
type Service struct {
	source PackageSource
	calc   *Calculator
	logger *zap.Logger
}

// NewService wires a calculation service instance.
func NewService(source PackageSource, calc *Calculator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if calc == nil {
		calc = NewCalculator(logger)
	}
	return &Service{source: source, calc: calc, logger: logger}
}

// Calculator exposes the underlying pure calculator.
func (s *Service) Calculator() *Calculator {
	return s.calc
}

// GetPackage fetches a package snapshot, mapping a missing package to the
// PACKAGE_NOT_FOUND failure code.
func (s *Service) GetPackage(ctx context.Context, packageID string, version int) (*models.TravelPackage, error) {
	pkg, err := s.source.GetPackage(ctx, packageID, version)
	if err != nil {
		if errors.Is(err, ErrPackageNotFound) {
			return nil, models.NewCalculationError(models.FailurePackageNotFound,
				"package %s not found", packageID)
		}
		return nil, fmt.Errorf("fetch package %s: %w", packageID, err)
	}
	return pkg, nil
}

// CalculateForPackage resolves the package then runs the calculation.
func (s *Service) CalculateForPackage(ctx context.Context, packageID string, version int, params models.QuoteParameters) (*models.CalculationResult, error) {
	pkg, err := s.GetPackage(ctx, packageID, version)
	if err != nil {
		return nil, err
	}
	return s.calc.Calculate(pkg, params)
}
