package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/coppinaphil/job-scraper/pkg/models"
	"github.com/spf13/afero"
)

// ErrNoResults is returned by Load when no result file exists yet.
var ErrNoResults = errors.New("no results file")

// ResultLog is the ordered, append-only list of processed rows together with
// the file it is checkpointed to. Every Append rewrites the whole file, so
// the file always holds the longest prefix computed so far.
type ResultLog struct {
	mu      sync.Mutex
	fs      afero.Fs
	path    string
	records []models.JobRecord
}

// NewResultLog creates an empty log that checkpoints to path on fs.
func NewResultLog(fs afero.Fs, path string) *ResultLog {
	return &ResultLog{
		fs:      fs,
		path:    path,
		records: []models.JobRecord{},
	}
}

// Path returns the checkpoint file location.
func (l *ResultLog) Path() string {
	return l.path
}

// Append adds rec and checkpoints. The record is kept in memory even when the
// checkpoint write fails; the error is returned so the caller can log it.
func (l *ResultLog) Append(rec models.JobRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, rec)
	return l.saveLocked()
}

// Records returns a copy of the records appended so far.
func (l *ResultLog) Records() []models.JobRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.JobRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *ResultLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

func (l *ResultLog) saveLocked() error {
	data, err := json.MarshalIndent(l.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := l.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create results directory: %w", err)
		}
	}

	// Write next to the target and rename so readers never see a partial file.
	tmp := l.path + ".tmp"
	if err := afero.WriteFile(l.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := l.fs.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", l.path, err)
	}
	return nil
}

// Load reads a result file written by ResultLog.
func Load(fs afero.Fs, path string) ([]models.JobRecord, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoResults, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []models.JobRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}
