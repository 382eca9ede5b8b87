package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/LeonCort/jamfor-bostader-sub000/config"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/api"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/cache"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/database"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/finance"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/geocoding"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/processor"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/queue"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/routing"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/scheduler"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "jamfor",
		Short: "Residence comparison backend: derived housing costs and commute times",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(resyncCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the commute workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func resyncCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "resync",
		Short: "Fetch every missing or stale commute time once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResync(cmd.Context(), timeout)
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 10*time.Minute, "give up waiting for workers after this long")
	return cmd
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

// app holds the wired components shared by both commands.
type app struct {
	cfg       *config.Config
	logger    *logrus.Logger
	db        *database.Database
	queue     *queue.CommuteQueue
	provider  routing.Provider
	processor *processor.CommuteProcessor
	scheduler *scheduler.CommuteScheduler
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Server.LogLevel)

	logger.Infof("Using database at: %s", cfg.Database.Path)
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	var provider routing.Provider
	if cfg.Routing.Mock {
		logger.Info("Routing in mock mode, commute times are estimated from distance")
		geocoder := geocoding.NewGeocoder(logger, cfg.Geocoder.CacheDir, cfg.Geocoder.Country)
		provider = routing.NewEstimator(geocoder)
	} else {
		if cfg.Routing.APIKey == "" {
			logger.Error("ROUTING_API_KEY is not set, commute tasks will fail until it is configured")
		}
		provider = routing.NewClient(nil, routing.Config{
			APIKey:   cfg.Routing.APIKey,
			BaseURL:  cfg.Routing.BaseURL,
			Timeout:  cfg.Routing.Timeout,
			Location: cfg.Location(),
		}, logger)
	}

	q := queue.NewCommuteQueue(cfg.Commute.QueueSize, logger)
	return &app{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		queue:     q,
		provider:  provider,
		processor: processor.NewCommuteProcessor(db, provider, q, cfg, logger),
		scheduler: scheduler.NewCommuteScheduler(db, q, cfg, logger),
	}, nil
}

func runServe(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.db.Close()
	cfg, logger := a.cfg, a.logger

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	a.processor.Start(workerCtx)
	a.scheduler.Start(workerCtx)

	gin.SetMode(cfg.Server.GinMode)
	handler := api.NewHandler(api.Deps{
		DB:        a.db,
		Scheduler: a.scheduler,
		Provider:  a.provider,
		Cache:     cache.NewCommuteCache(cfg.Commute.CacheFile, cfg.Commute.CacheTTL, logger),
		Defaults: models.FinanceSettings{
			DownPaymentRate:    cfg.Finance.DownPaymentRate,
			InterestRateAnnual: cfg.Finance.InterestRateAnnual,
		},
		Options: finance.Options{ImputeOperatingCost: cfg.Finance.ImputeOperatingCost},
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("Server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}

	a.scheduler.Stop()
	cancelWorkers()
	a.processor.Stop()
	logger.Info("Shutdown complete")
	return nil
}

func runResync(ctx context.Context, timeout time.Duration) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.db.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	a.processor.Start(ctx)
	defer a.processor.Stop()

	n, err := a.scheduler.ResyncAll(ctx)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		a.queue.Drain()
		close(done)
	}()

	select {
	case <-done:
		a.logger.WithField("enqueued", n).Info("Resync finished")
	case <-ctx.Done():
		a.logger.WithError(ctx.Err()).Warn("Resync interrupted before all tasks finished")
	}
	return nil
}
