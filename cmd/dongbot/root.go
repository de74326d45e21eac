package main

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dongbot",
	Short: "Dongbot - cron and reminder scheduling bot",
	Long: `Dongbot is a self-hosted scheduling bot: recurring /cron tasks,
one-off event reminders, and a polling delivery loop over Telegram
or the console.`,
	Version: Version,
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}
