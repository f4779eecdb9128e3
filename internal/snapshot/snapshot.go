// Package snapshot keeps a best-effort copy of the last fetched repository
// list on disk, used when the Local Store cannot be read.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Kamar-Folarin/repo-tracker/internal/models"
)

// File is the on-disk document
type File struct {
	Username     string              `json:"username"`
	FetchedAt    time.Time           `json:"fetched_at"`
	Repositories []models.Repository `json:"repositories"`
}

// Writer saves and reads the snapshot at a fixed path
type Writer struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewWriter(path string) *Writer {
	return &Writer{path: path, now: time.Now}
}

func (w *Writer) Path() string {
	return w.path
}

// Save replaces the snapshot with repos. The file is written to a temporary
// sibling and renamed, so a crash never leaves a truncated snapshot.
func (w *Writer) Save(username string, repos []models.Repository) error {
	if repos == nil {
		repos = []models.Repository{}
	}
	data, err := json.MarshalIndent(File{
		Username:     username,
		FetchedAt:    w.now().UTC(),
		Repositories: repos,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(w.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot. A missing file returns (nil, nil).
func (w *Writer) Load() (*File, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := os.ReadFile(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &f, nil
}
