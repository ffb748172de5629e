package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tasktracker/internal/service"
)

// Record is what survives between processes: the display copy of the user
// and the refresh credential. The access token is never part of it.
type Record struct {
	User         *service.User `json:"user,omitempty"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	SavedAt      time.Time     `json:"saved_at"`
}

// Store persists a Record.
type Store interface {
	Load() (Record, error)
	Save(rec Record) error
	Clear() error
}

// FileStore keeps the Record in a JSON file with mode 0600.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the record. A missing file yields an empty record.
func (s *FileStore) Load() (Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, nil
		}
		return Record{}, fmt.Errorf("read session: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("parse session: %w", err)
	}
	return rec, nil
}

// Save writes the record, creating the directory with mode 0700.
func (s *FileStore) Save(rec Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Clear removes the record. Clearing an absent record is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
