package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DiskStore writes records as JSON files. With no directory configured a
// temp directory is created on first use.
type DiskStore struct {
	mu  sync.Mutex
	dir string
}

// NewDiskStore returns a store rooted at dir, or at a lazily created temp
// directory when dir is empty.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// Dir returns the directory records are written to, creating it if needed.
func (s *DiskStore) Dir() (string, error) {
	return s.ensureDir()
}

// Save writes rec to <dir>/<id>.json.
func (s *DiskStore) Save(rec *Record) error {
	if err := validID(rec.ID); err != nil {
		return err
	}
	dir, err := s.ensureDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling record %s: %w", rec.ID, err)
	}
	path := filepath.Join(dir, rec.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing record %s: %w", rec.ID, err)
	}
	return nil
}

// Load reads the record with the given id.
func (s *DiskStore) Load(id string) (*Record, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	dir, err := s.ensureDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, id+".json"))
	if err != nil {
		return nil, fmt.Errorf("reading record %s: %w", id, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshalling record %s: %w", id, err)
	}
	return &rec, nil
}

// List returns every stored record, oldest first.
func (s *DiskStore) List() ([]*Record, error) {
	dir, err := s.ensureDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	var out []*Record
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		rec, err := s.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Started.Before(out[j].Started)
	})
	return out, nil
}

func (s *DiskStore) ensureDir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return "", fmt.Errorf("creating history directory: %w", err)
		}
		return s.dir, nil
	}
	dir, err := os.MkdirTemp("", "steward-history-*")
	if err != nil {
		return "", fmt.Errorf("creating history directory: %w", err)
	}
	s.dir = dir
	return dir, nil
}

func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid record id %q", id)
	}
	return nil
}
