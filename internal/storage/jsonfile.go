// Package storage provides the shared persistence discipline for the
// engine's stores: one JSON array per file, atomic replace-on-write, and
// tolerant reads that skip unreadable entries instead of failing.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// LoadArray reads a JSON array of records from path. A missing file
// degrades to empty; an element that does not decode into T is skipped;
// a file that is not a JSON array at all degrades to empty and counts
// as one skipped record, so the loss is never silent. Availability of
// the scheduler is prioritized over strict consistency of a damaged
// record. The skipped count is reported so callers can log it.
func LoadArray[T any](path string) (records []T, skipped int) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 1
	}
	for _, element := range raw {
		var record T
		if err := json.Unmarshal(element, &record); err != nil {
			skipped++
			continue
		}
		records = append(records, record)
	}
	return records, skipped
}

// SaveArray writes records as an indented JSON array using write-to-temp
// plus rename, so a crash mid-write never leaves a corrupt file behind.
func SaveArray[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
