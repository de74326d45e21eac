// Package cleanup prunes consumed reminders and aged run history so the
// JSON stores do not grow without bound. A daily cron entry in the
// daemon drives Run.
package cleanup

import (
	"time"

	"github.com/CafeDonggua/c-dong-bot/internal/agenda"
	"github.com/CafeDonggua/c-dong-bot/internal/cron"
	"github.com/CafeDonggua/c-dong-bot/internal/logger"
)

// Stats holds statistics about one cleanup run.
type Stats struct {
	RemindersPruned int
	RunsPruned      int
	Duration        time.Duration
}

// Config holds retention settings. Zero retention disables pruning for
// that store.
type Config struct {
	ReminderRetentionDays int
	RunRetentionDays      int
}

// Runner performs cleanup over the reminder and run stores.
type Runner struct {
	config    Config
	reminders *agenda.ReminderStore
	runs      *cron.RunStore
	logger    *logger.Logger
}

// NewRunner creates a cleanup runner.
func NewRunner(cfg Config, reminders *agenda.ReminderStore, runs *cron.RunStore, log *logger.Logger) *Runner {
	return &Runner{config: cfg, reminders: reminders, runs: runs, logger: log}
}

// Run prunes everything older than the configured retention, measured
// from now.
func (r *Runner) Run(now time.Time) Stats {
	started := time.Now()
	stats := Stats{}

	if r.config.ReminderRetentionDays > 0 {
		cutoff := now.AddDate(0, 0, -r.config.ReminderRetentionDays)
		stats.RemindersPruned = r.reminders.PruneConsumed(cutoff)
	}
	if r.config.RunRetentionDays > 0 {
		cutoff := now.AddDate(0, 0, -r.config.RunRetentionDays)
		stats.RunsPruned = r.runs.Prune(cutoff)
	}

	stats.Duration = time.Since(started)
	if stats.RemindersPruned > 0 || stats.RunsPruned > 0 {
		r.logger.Info("cleanup finished",
			logger.Field{Key: "reminders_pruned", Value: stats.RemindersPruned},
			logger.Field{Key: "runs_pruned", Value: stats.RunsPruned},
			logger.Field{Key: "duration", Value: stats.Duration.String()})
	}
	return stats
}
