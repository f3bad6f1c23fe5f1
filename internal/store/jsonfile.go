package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"shipdocs/internal/domain"
	"shipdocs/internal/port"
)

// fileFormat is the on-disk layout: every record keyed by ID plus bookkeeping
// timestamps.
type fileFormat struct {
	Records     map[string]port.StoredRecord `json:"records"`
	CreatedAt   time.Time                    `json:"created_at"`
	LastUpdated time.Time                    `json:"last_updated"`
}

// JSONFileStore implements port.RecordStore over a single JSON file. The file
// is loaded once at construction and rewritten on every mutation; a mutex
// serializes access so concurrent requests cannot interleave writes.
type JSONFileStore struct {
	path string
	mu   sync.RWMutex
	data fileFormat
}

// NewJSONFileStore opens (or creates) the store file at path. A corrupt file
// is logged and replaced with an empty store rather than failing startup.
func NewJSONFileStore(path string) (*JSONFileStore, error) {
	s := &JSONFileStore{path: path}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.data = emptyFile()
	case err != nil:
		return nil, fmt.Errorf("reading store file %s: %w", path, err)
	default:
		if jsonErr := json.Unmarshal(raw, &s.data); jsonErr != nil {
			log.Printf("store.NewJSONFileStore: corrupt store file %s (%v), starting empty", path, jsonErr)
			s.data = emptyFile()
		}
		if s.data.Records == nil {
			s.data.Records = make(map[string]port.StoredRecord)
		}
	}
	return s, nil
}

func emptyFile() fileFormat {
	now := time.Now().UTC()
	return fileFormat{
		Records:   make(map[string]port.StoredRecord),
		CreatedAt: now,
	}
}

// Save persists a record. A record with an ID replaces the stored copy under
// that ID, keeping its original creation time; a record without one is
// assigned a fresh uuid.
func (s *JSONFileStore) Save(_ context.Context, rec *port.StoredRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	id := rec.Record.ID
	if id == "" {
		id = uuid.New().String()
		rec.Record.ID = id
		if rec.Record.CreatedAt.IsZero() {
			rec.Record.CreatedAt = now
		}
	} else if existing, ok := s.data.Records[id]; ok {
		rec.Record.CreatedAt = existing.Record.CreatedAt
	}
	rec.Record.UpdatedAt = now

	s.data.Records[id] = *rec
	if err := s.flush(); err != nil {
		return "", err
	}
	return id, nil
}

// Get returns the record with the given ID.
func (s *JSONFileStore) Get(_ context.Context, id string) (*port.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data.Records[id]
	if !ok {
		return nil, fmt.Errorf("%w: record %s", domain.ErrNotFound, id)
	}
	return &rec, nil
}

// List returns all records ordered by creation time, oldest first.
func (s *JSONFileStore) List(_ context.Context) ([]port.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]port.StoredRecord, 0, len(s.data.Records))
	for _, rec := range s.data.Records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Record.CreatedAt.Equal(out[j].Record.CreatedAt) {
			return out[i].Record.CreatedAt.Before(out[j].Record.CreatedAt)
		}
		return out[i].Record.ID < out[j].Record.ID
	})
	return out, nil
}

// Delete removes the record with the given ID.
func (s *JSONFileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Records[id]; !ok {
		return fmt.Errorf("%w: record %s", domain.ErrNotFound, id)
	}
	delete(s.data.Records, id)
	return s.flush()
}

// FindByDocumentKeys returns the ID of the first record (by creation time)
// whose document keys overlap the given set, or "" when none matches.
func (s *JSONFileStore) FindByDocumentKeys(_ context.Context, keys []string) (string, error) {
	if len(keys) == 0 {
		return "", nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}

	var matchID string
	var matchCreated time.Time
	for id, rec := range s.data.Records {
		for _, k := range rec.DocumentKeys {
			if !wanted[k] {
				continue
			}
			if matchID == "" || rec.Record.CreatedAt.Before(matchCreated) {
				matchID = id
				matchCreated = rec.Record.CreatedAt
			}
			break
		}
	}
	return matchID, nil
}

// flush writes the store atomically: serialize to a temp file in the same
// directory, then rename over the target. Callers hold the write lock.
func (s *JSONFileStore) flush() error {
	s.data.LastUpdated = time.Now().UTC()

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".records-*.json")
	if err != nil {
		return fmt.Errorf("creating temp store file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing store file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing store file: %w", err)
	}
	return nil
}

var _ port.RecordStore = (*JSONFileStore)(nil)
