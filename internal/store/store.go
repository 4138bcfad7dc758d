// Package store persists located NFC records as a JSON array keyed by
// marketing name.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"nfc-locator/internal/pipeline"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store is the record database file. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	path    string
	records []pipeline.Record
	names   map[string]struct{}
}

// Open loads the database at path. A missing file yields an empty store
// that is created on Save.
func Open(path string) (*Store, error) {
	s := &Store{path: path, names: make(map[string]struct{})}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read database: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.records); err != nil {
			return nil, fmt.Errorf("failed to parse database %s: %w", path, err)
		}
	}
	for _, r := range s.records {
		s.names[r.MarketingName] = struct{}{}
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether a record with this marketing name is stored.
func (s *Store) Exists(marketingName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.names[marketingName]
	return ok
}

// Append adds the records whose marketing name is not yet stored. Existing
// records are never overwritten; of duplicates within records the first
// wins. It returns the number of records added.
func (s *Store) Append(records ...pipeline.Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, r := range records {
		if _, ok := s.names[r.MarketingName]; ok {
			continue
		}
		if r.ModelNames == nil {
			r.ModelNames = []string{}
		}
		s.records = append(s.records, r)
		s.names[r.MarketingName] = struct{}{}
		added++
	}
	return added
}

// Records returns a copy of the stored records in insertion order.
func (s *Store) Records() []pipeline.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pipeline.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Save writes the database back to its file, creating parent directories.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.records
	if records == nil {
		records = []pipeline.Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode database: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Write to a temp file first so a crash never truncates the database
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write database: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace database: %w", err)
	}
	return nil
}
