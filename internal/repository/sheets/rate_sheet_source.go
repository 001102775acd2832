package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/tourello/quotesync/internal/config"
	"github.com/tourello/quotesync/internal/domain/models"
	"github.com/tourello/quotesync/internal/service/pricing"
)

const (
	packagesRange  = "Packages!A2:D"
	tiersRange     = "Tiers!A2:D"
	durationsRange = "Durations!A2:B"
	periodsRange   = "Periods!A2:E"
	pricesRange    = "Prices!A2:E"

	dateLayout = "2006-01-02"
)

// RateSheetSource loads package price matrices from the operator's Google
// Sheets rate workbook. The workbook only carries the current version of
// each package, so requesting any other version is a miss.
type RateSheetSource struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewRateSheetSource builds a read-only Google Sheets backed package source.
func NewRateSheetSource(ctx context.Context, cfg config.RateSheetConfig, logger *zap.Logger) (*RateSheetSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &RateSheetSource{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// GetPackage assembles a package from the workbook tabs. Rows that fail to
// parse are skipped; a missing package id maps to pricing.ErrPackageNotFound.
func (r *RateSheetSource) GetPackage(ctx context.Context, packageID string, version int) (*models.TravelPackage, error) {
	pkg, err := r.findPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}

	if version > 0 && version != pkg.Version {
		r.logger.Warn("rate sheet does not carry requested package version",
			zap.String("package_id", packageID),
			zap.Int("requested", version),
			zap.Int("available", pkg.Version))
		return nil, fmt.Errorf("package %s version %d: %w", packageID, version, pricing.ErrPackageNotFound)
	}

	if pkg.Tiers, err = r.loadTiers(ctx, packageID); err != nil {
		return nil, err
	}
	if pkg.Durations, err = r.loadDurations(ctx, packageID); err != nil {
		return nil, err
	}
	if pkg.Periods, err = r.loadPeriods(ctx, packageID); err != nil {
		return nil, err
	}
	if err = r.attachPrices(ctx, pkg); err != nil {
		return nil, err
	}

	return pkg, nil
}

func (r *RateSheetSource) findPackage(ctx context.Context, packageID string) (*models.TravelPackage, error) {
	rows, err := r.readRange(ctx, packagesRange)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if len(row) < 4 || cell(row, 0) != packageID {
			continue
		}

		version, err := parseInt(cell(row, 2))
		if err != nil {
			r.logger.Debug("skip package row with invalid version", zap.Any("value", row[2]), zap.Error(err))
			continue
		}

		return &models.TravelPackage{
			ID:       packageID,
			Name:     cell(row, 1),
			Version:  version,
			Currency: cell(row, 3),
		}, nil
	}

	return nil, fmt.Errorf("package %s: %w", packageID, pricing.ErrPackageNotFound)
}

func (r *RateSheetSource) loadTiers(ctx context.Context, packageID string) ([]models.GroupSizeTier, error) {
	rows, err := r.readRange(ctx, tiersRange)
	if err != nil {
		return nil, err
	}

	var tiers []models.GroupSizeTier
	for _, row := range rows {
		if len(row) < 4 || cell(row, 0) != packageID {
			continue
		}

		minPeople, errMin := parseInt(cell(row, 2))
		maxPeople, errMax := parseInt(cell(row, 3))
		if errMin != nil || errMax != nil {
			r.logger.Debug("skip tier row with invalid bounds", zap.Any("row", row))
			continue
		}

		tiers = append(tiers, models.GroupSizeTier{
			Label:     cell(row, 1),
			MinPeople: minPeople,
			MaxPeople: maxPeople,
		})
	}
	return tiers, nil
}

func (r *RateSheetSource) loadDurations(ctx context.Context, packageID string) ([]int, error) {
	rows, err := r.readRange(ctx, durationsRange)
	if err != nil {
		return nil, err
	}

	var durations []int
	for _, row := range rows {
		if len(row) < 2 || cell(row, 0) != packageID {
			continue
		}

		nights, err := parseInt(cell(row, 1))
		if err != nil {
			r.logger.Debug("skip duration row with invalid nights", zap.Any("value", row[1]), zap.Error(err))
			continue
		}
		durations = append(durations, nights)
	}
	return durations, nil
}

func (r *RateSheetSource) loadPeriods(ctx context.Context, packageID string) ([]models.PricingPeriod, error) {
	rows, err := r.readRange(ctx, periodsRange)
	if err != nil {
		return nil, err
	}

	var periods []models.PricingPeriod
	for _, row := range rows {
		if len(row) < 3 || cell(row, 0) != packageID {
			continue
		}

		period := models.PricingPeriod{
			Period: cell(row, 1),
			Type:   models.PeriodType(strings.ToLower(cell(row, 2))),
		}

		if period.Type == models.PeriodTypeSpecial {
			start, errStart := parseDate(cell(row, 3))
			end, errEnd := parseDate(cell(row, 4))
			if errStart != nil || errEnd != nil {
				r.logger.Debug("skip special period row with invalid dates", zap.Any("row", row))
				continue
			}
			period.StartDate = &start
			period.EndDate = &end
		}

		periods = append(periods, period)
	}
	return periods, nil
}

func (r *RateSheetSource) attachPrices(ctx context.Context, pkg *models.TravelPackage) error {
	rows, err := r.readRange(ctx, pricesRange)
	if err != nil {
		return err
	}

	byPeriod := make(map[string]int, len(pkg.Periods))
	for i, period := range pkg.Periods {
		byPeriod[period.Period] = i
	}

	for _, row := range rows {
		if len(row) < 5 || cell(row, 0) != pkg.ID {
			continue
		}

		periodIdx, ok := byPeriod[cell(row, 1)]
		if !ok {
			r.logger.Debug("skip price row for unknown period", zap.Any("value", row[1]))
			continue
		}

		tierIndex, errTier := parseInt(cell(row, 2))
		nights, errNights := parseInt(cell(row, 3))
		if errTier != nil || errNights != nil {
			r.logger.Debug("skip price row with invalid indices", zap.Any("row", row))
			continue
		}

		price, err := parsePrice(cell(row, 4))
		if err != nil {
			r.logger.Debug("skip price row with invalid amount", zap.Any("value", row[4]), zap.Error(err))
			continue
		}

		pkg.Periods[periodIdx].Prices = append(pkg.Periods[periodIdx].Prices, models.PricePoint{
			TierIndex: tierIndex,
			Nights:    nights,
			Price:     price,
		})
	}
	return nil
}

// readRange fetches a rectangular data range from the workbook.
func (r *RateSheetSource) readRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}
	return resp.Values, nil
}

func cell(row []interface{}, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[idx]))
}

func parseInt(value string) (int, error) {
	return strconv.Atoi(value)
}

func parseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, value)
}

func parsePrice(value string) (models.Price, error) {
	if strings.EqualFold(value, models.OnRequestSentinel) {
		return models.PriceOnRequest(), nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return models.Price{}, err
	}
	return models.NewPrice(amount), nil
}
