package cron

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CafeDonggua/c-dong-bot/internal/logger"
	"github.com/CafeDonggua/c-dong-bot/internal/schedule"
	"github.com/CafeDonggua/c-dong-bot/internal/storage"
)

// RunsFilename is the file holding the delivery-attempt log.
const RunsFilename = "runs.json"

// RunRecord is one immutable delivery-attempt entry.
type RunRecord struct {
	RunID          string
	TaskID         string
	TriggeredAt    time.Time
	DeliveryTarget string
	Result         RunResult
	ErrorMessage   string
}

type runRecordJSON struct {
	RunID          string `json:"run_id"`
	TaskID         string `json:"task_id"`
	TriggeredAt    string `json:"triggered_at"`
	DeliveryTarget string `json:"delivery_target"`
	Result         string `json:"result"`
	ErrorMessage   string `json:"error_message"`
}

// RunStore is the append-only run history log, persisted with the same
// atomic-write discipline as the task store.
type RunStore struct {
	path   string
	logger *logger.Logger
}

// NewRunStore creates a run history store rooted at dataDir.
func NewRunStore(dataDir string, log *logger.Logger) *RunStore {
	return &RunStore{
		path:   filepath.Join(dataDir, RunsFilename),
		logger: log,
	}
}

// Create appends a new record with a generated id and returns it.
func (s *RunStore) Create(taskID, deliveryTarget string, result RunResult, errorMessage string, triggeredAt time.Time) (RunRecord, error) {
	record := RunRecord{
		RunID:          strings.ReplaceAll(uuid.NewString(), "-", ""),
		TaskID:         taskID,
		TriggeredAt:    triggeredAt,
		DeliveryTarget: deliveryTarget,
		Result:         result,
		ErrorMessage:   errorMessage,
	}
	if err := s.Append(record); err != nil {
		return RunRecord{}, err
	}
	return record, nil
}

// Append adds record to the log.
func (s *RunStore) Append(record RunRecord) error {
	records := s.load()
	records = append(records, record)
	if err := s.save(records); err != nil {
		return fmt.Errorf("failed to persist run record: %w", err)
	}
	return nil
}

// List returns records ordered by triggered_at descending, optionally
// restricted to one task and capped at limit (limit < 0 means no cap).
func (s *RunStore) List(taskID string, limit int) []RunRecord {
	records := s.load()
	if taskID != "" {
		filtered := records[:0]
		for _, record := range records {
			if record.TaskID == taskID {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TriggeredAt.After(records[j].TriggeredAt)
	})
	if limit >= 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}

// Prune removes run records triggered before cutoff. It returns the
// number of records removed.
func (s *RunStore) Prune(cutoff time.Time) int {
	records := s.load()
	kept := records[:0]
	removed := 0
	for _, record := range records {
		if record.TriggeredAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, record)
	}
	if removed > 0 {
		if err := s.save(kept); err != nil {
			s.logger.Error("failed to persist pruned run records", err)
			return 0
		}
	}
	return removed
}

// Latest returns the most recent record for the task, if any.
func (s *RunStore) Latest(taskID string) (RunRecord, bool) {
	records := s.List(taskID, 1)
	if len(records) == 0 {
		return RunRecord{}, false
	}
	return records[0], true
}

func (s *RunStore) load() []RunRecord {
	raw, skipped := storage.LoadArray[runRecordJSON](s.path)
	if skipped > 0 {
		s.logger.Warn("skipped unreadable run records",
			logger.Field{Key: "file", Value: s.path},
			logger.Field{Key: "skipped", Value: skipped})
	}
	records := make([]RunRecord, 0, len(raw))
	for _, r := range raw {
		if r.RunID == "" || r.TaskID == "" {
			continue
		}
		triggeredAt, ok := schedule.ParseInstant(r.TriggeredAt)
		if !ok {
			continue
		}
		result := RunResult(r.Result)
		if result != RunOK && result != RunError {
			result = RunOK
		}
		records = append(records, RunRecord{
			RunID:          r.RunID,
			TaskID:         r.TaskID,
			TriggeredAt:    triggeredAt,
			DeliveryTarget: r.DeliveryTarget,
			Result:         result,
			ErrorMessage:   r.ErrorMessage,
		})
	}
	return records
}

func (s *RunStore) save(records []RunRecord) error {
	raw := make([]runRecordJSON, 0, len(records))
	for _, record := range records {
		raw = append(raw, runRecordJSON{
			RunID:          record.RunID,
			TaskID:         record.TaskID,
			TriggeredAt:    record.TriggeredAt.Format(schedule.TimeLayout),
			DeliveryTarget: record.DeliveryTarget,
			Result:         string(record.Result),
			ErrorMessage:   record.ErrorMessage,
		})
	}
	return storage.SaveArray(s.path, raw)
}
