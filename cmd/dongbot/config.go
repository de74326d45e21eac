package main

import (
	"fmt"
	"os"

	"github.com/CafeDonggua/c-dong-bot/internal/config"
	"github.com/CafeDonggua/c-dong-bot/internal/logger"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "./config.toml"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Validate and inspect Dongbot configuration.`,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file and check for errors.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		log, err := logger.New(logger.Config{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
			os.Exit(1)
		}

		configPath := defaultConfigPath
		if len(args) > 0 {
			configPath = args[0]
		}

		log.Info("Validating configuration", logger.Field{Key: "path", Value: configPath})

		cfg, err := config.Load(configPath)
		if err != nil {
			log.Error("Failed to load config", err)
			os.Exit(1)
		}

		errors := cfg.Validate()
		if len(errors) > 0 {
			log.Error("Config validation failed", fmt.Errorf("%d errors", len(errors)))
			for _, e := range errors {
				log.Error("Validation error", e)
			}
			os.Exit(1)
		}

		log.Info("Configuration is valid")
	},
}

// configShowCmd prints the effective configuration after defaults and
// env expansion, with the telegram token masked.
var configShowCmd = &cobra.Command{
	Use:   "show [config-file]",
	Short: "Show effective configuration",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configPath := defaultConfigPath
		if len(args) > 0 {
			configPath = args[0]
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("workspace.path: %s\n", cfg.Workspace.Path)
		fmt.Printf("polling.interval_seconds: %d\n", cfg.Polling.IntervalSeconds)
		fmt.Printf("polling.cleanup_spec: %s\n", cfg.Polling.CleanupSpec)
		fmt.Printf("polling.cleanup_retention_days: %d\n", cfg.Polling.CleanupRetentionDays)
		fmt.Printf("logging: level=%s format=%s output=%s\n",
			cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
		fmt.Printf("metrics: enabled=%t listen=%s\n", cfg.Metrics.Enabled, cfg.Metrics.Listen)
		fmt.Printf("channels.telegram: enabled=%t token=%s retry_attempts=%d\n",
			cfg.Channels.Telegram.Enabled,
			config.MaskTelegramToken(cfg.Channels.Telegram.Token),
			cfg.Channels.Telegram.RetryAttempts)
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}
