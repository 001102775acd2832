package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/tourello/quotesync/internal/config"
	"github.com/tourello/quotesync/internal/repository/mongodb"
	"github.com/tourello/quotesync/internal/repository/sheets"
	"github.com/tourello/quotesync/internal/scheduler"
	"github.com/tourello/quotesync/internal/server/handlers"
	"github.com/tourello/quotesync/internal/server/router"
	"github.com/tourello/quotesync/internal/service/pricing"
	"github.com/tourello/quotesync/internal/service/quotesync"
	"github.com/tourello/quotesync/pkg/clients/packagestore"
	"github.com/tourello/quotesync/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.Env))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	quoteRepo, err := mongodb.NewQuoteRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init quote repository", zap.Error(err))
	}
	defer func() {
		if err := quoteRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	var source pricing.PackageSource
	switch cfg.PackageSource {
	case config.PackageSourceSheet:
		source, err = sheets.NewRateSheetSource(context.Background(), cfg.RateSheet, baseLogger.Named("repo.ratesheet"))
		if err != nil {
			baseLogger.Fatal("failed to init rate sheet source", zap.Error(err))
		}
	default:
		source = packagestore.NewClient(cfg.PackageAPI)
	}

	calculator := pricing.NewCalculator(baseLogger.Named("svc.pricing"))
	pricingSvc := pricing.NewService(source, calculator, baseLogger.Named("svc.pricing"))
	sessions := quotesync.NewManager(calculator, quoteRepo, cfg.Sync.Debounce, baseLogger.Named("svc.quotesync"))

	calcHandler := handlers.NewCalculationHandler(pricingSvc, baseLogger.Named("handlers.calculations"))
	quoteHandler := handlers.NewQuoteHandler(sessions, pricingSvc, baseLogger.Named("handlers.quotes"))
	engine := router.New(calcHandler, quoteHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Audit, quoteRepo, pricingSvc, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
