package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MaxRecent bounds the recent-documents list.
const MaxRecent = 20

// Record is one recently opened document.
type Record struct {
	Path     string    `json:"path"`
	Title    string    `json:"title"`
	OpenedAt time.Time `json:"opened_at"`
}

// RecentStore remembers recently opened documents in a JSON file so
// `drilldown edit` can reopen the last one.
type RecentStore struct {
	mu   sync.RWMutex
	path string
}

// NewRecentStore returns a store backed by dir/recent.json. If dir is
// empty, defaults to ~/.config/drilldown/.
func NewRecentStore(dir string) (*RecentStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".config", "drilldown")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	return &RecentStore{path: filepath.Join(dir, "recent.json")}, nil
}

// Path returns the backing file.
func (r *RecentStore) Path() string { return r.path }

// List returns the records, most recent first. A missing file is an empty
// list.
func (r *RecentStore) List() ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.read()
}

// Last returns the most recently opened document.
func (r *RecentStore) Last() (Record, bool, error) {
	recs, err := r.List()
	if err != nil || len(recs) == 0 {
		return Record{}, false, err
	}
	return recs[0], true, nil
}

// Touch moves path to the front of the list, adding it if needed.
func (r *RecentStore) Touch(path, title string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	recs, err := r.read()
	if err != nil {
		return err
	}
	out := []Record{{Path: abs, Title: title, OpenedAt: time.Now().UTC()}}
	for _, rec := range recs {
		if rec.Path != abs && len(out) < MaxRecent {
			out = append(out, rec)
		}
	}
	return r.write(out)
}

// Forget removes path from the list.
func (r *RecentStore) Forget(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	recs, err := r.read()
	if err != nil {
		return err
	}
	out := recs[:0]
	for _, rec := range recs {
		if rec.Path != abs {
			out = append(out, rec)
		}
	}
	return r.write(out)
}

func (r *RecentStore) read() ([]Record, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read recent file: %w", err)
	}
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse recent file: %w", err)
	}
	return recs, nil
}

func (r *RecentStore) write(recs []Record) error {
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal recent: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("write recent file: %w", err)
	}
	return nil
}
