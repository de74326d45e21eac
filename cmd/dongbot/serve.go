package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CafeDonggua/c-dong-bot/internal/agenda"
	"github.com/CafeDonggua/c-dong-bot/internal/channels"
	"github.com/CafeDonggua/c-dong-bot/internal/channels/console"
	"github.com/CafeDonggua/c-dong-bot/internal/channels/telegram"
	"github.com/CafeDonggua/c-dong-bot/internal/cleanup"
	"github.com/CafeDonggua/c-dong-bot/internal/config"
	"github.com/CafeDonggua/c-dong-bot/internal/cron"
	"github.com/CafeDonggua/c-dong-bot/internal/dispatch"
	"github.com/CafeDonggua/c-dong-bot/internal/logger"
	"github.com/CafeDonggua/c-dong-bot/internal/metrics"
	"github.com/CafeDonggua/c-dong-bot/internal/version"
	cronv3 "github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var (
	serveConfigPath string
	serveLogLevel   string
	serveDryRun     bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Dongbot daemon (main command)",
	Long: `Start the Dongbot delivery daemon with the specified configuration.
This initializes the stores, the delivery dispatcher and the polling
loop, and handles graceful shutdown.

The serve command is the main entry point for running Dongbot.`,
	Run: serveHandler,
}

func serveHandler(cmd *cobra.Command, args []string) {
	// Load .env file if it exists
	if err := config.LoadEnvOptional("./.env"); err != nil {
		fmt.Printf("❌ Failed to load .env file: %v\n", err)
		os.Exit(1)
	}

	configPath := serveConfigPath
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("❌ Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Override log level if flag is set
	if serveLogLevel != "" {
		cfg.Logging.Level = serveLogLevel
	}

	if errors := cfg.Validate(); len(errors) > 0 {
		fmt.Printf("❌ Configuration validation failed:\n")
		for _, e := range errors {
			fmt.Printf("  - %v\n", e)
		}
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Printf("❌ Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	log.Info("🚀 "+version.FormatStartupMessage(),
		logger.Field{Key: "git_commit", Value: GitCommit},
		logger.Field{Key: "config", Value: configPath},
		logger.Field{Key: "workspace", Value: cfg.Workspace.Path},
		logger.Field{Key: "poll_interval_seconds", Value: cfg.Polling.IntervalSeconds},
	)

	if err := os.MkdirAll(cfg.Workspace.Path, 0755); err != nil {
		log.Error("Failed to create workspace directory", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Stores
	tasks := cron.NewStore(cfg.Workspace.Path, log)
	runs := cron.NewRunStore(cfg.Workspace.Path, log)
	events := agenda.NewEventStore(cfg.Workspace.Path, log)
	reminders := agenda.NewReminderStore(cfg.Workspace.Path, log)

	// Metrics
	var m *metrics.PrometheusMetrics
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		m = metrics.InitPrometheusMetrics("dongbot", nil)
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}
		go func() {
			log.Info("📊 Metrics listener started",
				logger.Field{Key: "listen", Value: cfg.Metrics.Listen})
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("Metrics listener failed", err)
			}
		}()
	}

	// Delivery channel
	var deliverer channels.Deliverer
	switch {
	case serveDryRun:
		deliverer = console.New()
		log.Info("🖥️ Console deliverer selected (dry run)")
	case cfg.Channels.Telegram.Enabled:
		deliverer, err = telegram.New(cfg.Channels.Telegram, log)
		if err != nil {
			log.Error("Failed to initialize telegram deliverer", err)
			os.Exit(1)
		}
		log.Info("📱 Telegram deliverer initialized")
	default:
		deliverer = console.New()
		log.Warn("Telegram channel is disabled, delivering to console")
	}

	dispatcher := dispatch.New(events, reminders, tasks, runs, log, m)

	runner := cleanup.NewRunner(cleanup.Config{
		ReminderRetentionDays: cfg.Polling.CleanupRetentionDays,
		RunRetentionDays:      cfg.Polling.CleanupRetentionDays,
	}, reminders, runs, log)

	// Single logical poller: one cron entry collects and delivers, one
	// entry runs the retention cleanup.
	poller := cronv3.New()
	pollSpec := fmt.Sprintf("@every %ds", cfg.Polling.IntervalSeconds)
	if _, err := poller.AddFunc(pollSpec, func() {
		pollOnce(ctx, dispatcher, deliverer, log)
	}); err != nil {
		log.Error("Failed to register poll entry", err)
		os.Exit(1)
	}
	if _, err := poller.AddFunc(cfg.Polling.CleanupSpec, func() {
		runner.Run(time.Now())
	}); err != nil {
		log.Error("Failed to register cleanup entry", err,
			logger.Field{Key: "spec", Value: cfg.Polling.CleanupSpec})
		os.Exit(1)
	}
	poller.Start()

	log.Info("✅ Dongbot is running")

	sig := <-sigChan
	log.Info("⏳ Received shutdown signal",
		logger.Field{Key: "signal", Value: sig.String()})

	log.Info("🛑 Shutting down Dongbot...")
	cancel()

	// Let an in-progress poll finish before exiting.
	stopCtx := poller.Stop()
	<-stopCtx.Done()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to stop metrics listener", err)
		}
	}

	log.Info("👋 Dongbot stopped gracefully")
	os.Exit(0)
}

// pollOnce runs one delivery cycle: collect everything due, deliver
// each payload, and record the outcome.
func pollOnce(ctx context.Context, dispatcher *dispatch.Dispatcher, deliverer channels.Deliverer, log *logger.Logger) {
	due := dispatcher.CollectDue(time.Now())
	for _, payload := range due {
		if ctx.Err() != nil {
			return
		}
		if err := deliverer.Deliver(ctx, payload.DeliveryChatID(), payload.DeliveryMessage()); err != nil {
			log.Error("Delivery failed", err,
				logger.Field{Key: "channel", Value: deliverer.Name()},
				logger.Field{Key: "chat_id", Value: payload.DeliveryChatID()})
			dispatcher.MarkFailed(payload, err.Error(), time.Now())
			continue
		}
		dispatcher.MarkSent(payload, time.Now())
	}
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to configuration file (default: ./config.toml)")
	serveCmd.Flags().StringVarP(&serveLogLevel, "log-level", "l", "", "Override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveDryRun, "dry-run", false, "Deliver to the console instead of telegram")
}
