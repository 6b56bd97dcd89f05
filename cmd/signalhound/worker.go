package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mwhitfield/signalhound/internal/classifier"
	"github.com/mwhitfield/signalhound/internal/config"
	"github.com/mwhitfield/signalhound/internal/observability"
	"github.com/mwhitfield/signalhound/internal/skipcache"
	"github.com/mwhitfield/signalhound/internal/store"
	"github.com/mwhitfield/signalhound/internal/worker"
	"github.com/mwhitfield/signalhound/pkg/log"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the classification worker loop",
	Long: `Polls the job store for unprocessed postings and classifies each one with
Gemini, consulting the skip-cache first so already-identified companies never
cost an API call. Runs until interrupted; SIGINT/SIGTERM stop the loop after
the in-flight job finishes.`,
	RunE: runWorker,
}

var workerVerbose bool

func init() {
	workerCmd.Flags().BoolVarP(&workerVerbose, "verbose", "v", false, "Print a run summary on exit")

	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required to run the worker")
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	gemini, err := classifier.NewGeminiClient(ctx, cfg.GeminiAPIKey, classifier.DefaultModel)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer gemini.Close() //nolint:errcheck
	clf := classifier.New(gemini, logger)

	cache := skipcache.New(cfg.FreshnessWindow, logger)
	if err := cache.Refresh(ctx, db); err != nil {
		return fmt.Errorf("failed to prime skip-cache: %w", err)
	}
	logger.Infow("skip-cache primed", "companies", cache.Len())

	// Periodic refresh picks up registry rows written by other pipeline
	// instances; in-process detections are inserted directly.
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.RefreshSpec, func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := cache.Refresh(refreshCtx, db); err != nil {
			logger.Warnw("skip-cache refresh failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid CACHE_REFRESH_SPEC %q: %w", cfg.RefreshSpec, err)
	}
	sched.Start()
	defer sched.Stop()

	w := worker.New(db, db, clf, cache, worker.Options{
		BatchSize:       cfg.BatchSize,
		ClassifyTimeout: cfg.ClassifyTimeout,
		Retry: worker.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryBaseDelay,
		},
		CallDelay:      cfg.CallDelay,
		IdleBackoffMin: cfg.IdleBackoffMin,
		IdleBackoffMax: cfg.IdleBackoffMax,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

		g.Go(func() error {
			logger.Infow("metrics listener started", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()

	if workerVerbose {
		observability.NewPrinter(os.Stdout).PrintWorkerStats(w.Stats())
	}
	return err
}

// newLogger builds the command logger, falling back to info on a bad level.
func newLogger(level string) *zap.SugaredLogger {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return log.InitLogs()
	}
	return log.InitLog(lvl).Sugar()
}
