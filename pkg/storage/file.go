package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/matzehuels/kintree/pkg/errors"
)

// File stores each record as an indented JSON file in a directory.
type File struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFile creates a file store rooted at baseDir.
// If baseDir is empty, defaults to ~/.config/kintree/trees/
func NewFile(baseDir string) (*File, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "kintree", "trees")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create tree dir")
	}
	return &File{baseDir: baseDir}, nil
}

func (s *File) recordPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *File) Save(_ context.Context, r Record) error {
	if err := validateID(r.ID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write then rename so readers never see a partial file.
	tmp := s.recordPath(r.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write tree %s", r.ID)
	}
	if err := os.Rename(tmp, s.recordPath(r.ID)); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeStorage, err, "write tree %s", r.ID)
	}
	return nil
}

func (s *File) Load(_ context.Context, id string) (Record, error) {
	if err := validateID(id); err != nil {
		return Record{}, NotFound(id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.recordPath(id), id)
}

func (s *File) read(path, id string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, NotFound(id)
		}
		return Record{}, errors.Wrap(errors.ErrCodeStorage, err, "read tree %s", id)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, errors.Wrap(errors.ErrCodeStorage, err, "parse tree %s", id)
	}
	return r, nil
}

func (s *File) Delete(_ context.Context, id string) error {
	if err := validateID(id); err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.recordPath(id)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeStorage, err, "remove tree %s", id)
	}
	return nil
}

func (s *File) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read tree dir")
	}

	out := []Summary{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		r, err := s.read(filepath.Join(s.baseDir, entry.Name()), id)
		if err != nil {
			continue
		}
		out = append(out, r.Summarize())
	}
	sortSummaries(out)
	return out, nil
}

func (s *File) Close() error { return nil }

// Path returns the base directory for tree files.
func (s *File) Path() string { return s.baseDir }

var _ Store = (*File)(nil)
