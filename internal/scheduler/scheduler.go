package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tourello/quotesync/internal/config"
	"github.com/tourello/quotesync/internal/repository/mongodb"
	"github.com/tourello/quotesync/internal/service/pricing"
)

// Scheduler runs the periodic price-drift audit: every linked quote's
// price is recomputed from the current package matrix and compared with
// what the quote stored. The audit never mutates quotes; editing sessions
// keep the package version they linked until explicitly relinked.
type Scheduler struct {
	cron    *cron.Cron
	quotes  mongodb.Repository
	pricing *pricing.Service
	cfg     config.AuditConfig
	logger  *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.AuditConfig, quotes mongodb.Repository, pricingSvc *pricing.Service, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []cron.Option{}
	if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
		opts = append(opts, cron.WithLocation(loc))
	} else {
		logger.Warn("unknown audit timezone, using local time", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	return &Scheduler{
		cron:    cron.New(opts...),
		quotes:  quotes,
		pricing: pricingSvc,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.auditPrices); err != nil {
		s.logger.Error("failed to schedule price audit", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) auditPrices() {
	s.logger.Info("running price drift audit")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	quotes, err := s.quotes.ListLinked(ctx)
	if err != nil {
		s.logger.Error("failed to list linked quotes", zap.Error(err))
		return
	}

	var drifted, failed int
	for _, quote := range quotes {
		snapshot := quote.LinkedPackage
		if snapshot == nil {
			continue
		}

		pkg, err := s.pricing.GetPackage(ctx, snapshot.PackageID, snapshot.PackageVersion)
		if err != nil {
			failed++
			s.logger.Warn("audit could not fetch package",
				zap.String("quote_id", quote.ID),
				zap.String("package_id", snapshot.PackageID),
				zap.Error(err))
			continue
		}

		result, err := s.pricing.Calculator().Calculate(pkg, quote.Parameters)
		if err != nil {
			failed++
			s.logger.Warn("audit calculation failed",
				zap.String("quote_id", quote.ID),
				zap.Error(err))
			continue
		}

		if !result.Price().Equal(snapshot.CalculatedPrice) {
			drifted++
			s.logger.Warn("quote price drifted from current matrix",
				zap.String("quote_id", quote.ID),
				zap.String("package_id", snapshot.PackageID),
				zap.String("stored", snapshot.CalculatedPrice.String()),
				zap.String("current", result.Price().String()))
		}
	}

	s.logger.Info("price drift audit finished",
		zap.Int("audited", len(quotes)),
		zap.Int("drifted", drifted),
		zap.Int("failed", failed))
}
