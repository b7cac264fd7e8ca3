// Package props is the key/value system property store the tracker
// publishes operator and time information into.
package props

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v2"
)

// Property keys.
const (
	OperatorAlpha      = "gsm.operator.alpha"
	OperatorNumeric    = "gsm.operator.numeric"
	OperatorISOCountry = "gsm.operator.iso-country"
	OperatorIsRoaming  = "gsm.operator.isroaming"
	SIMOperatorAlpha   = "gsm.sim.operator.alpha"
	NetworkTime        = "gsm.nitz.time"
	IgnoreNetworkTime  = "gsm.ignore-nitz"
	TimeZone           = "persist.sys.timezone"
)

// Store reads and writes string properties.
type Store interface {
	Get(key, def string) string
	Set(key, value string) error
}

// MemStore keeps properties in memory. The zero value is ready to use.
type MemStore struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemStore returns a store seeded with initial.
func NewMemStore(initial map[string]string) *MemStore {
	s := &MemStore{m: make(map[string]string, len(initial))}
	for k, v := range initial {
		s.m[k] = v
	}
	return s
}

func (s *MemStore) Get(key, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.m[key]; ok {
		return v
	}
	return def
}

func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[string]string)
	}
	s.m[key] = value
	return nil
}

// Snapshot returns a copy of every property.
func (s *MemStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.m))
	for k, v := range s.m {
		out[k] = v
	}
	return out
}

// FileStore is a MemStore persisted as a YAML map. Every Set rewrites the
// file atomically.
type FileStore struct {
	MemStore
	path    string
	writeMu sync.Mutex
}

// OpenFileStore loads path if it exists and returns a store writing back to it.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{MemStore: MemStore{m: make(map[string]string)}, path: path}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &s.m); err != nil {
			return nil, fmt.Errorf("failed to parse property file %s: %w", path, err)
		}
		if s.m == nil {
			s.m = make(map[string]string)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read property file %s: %w", path, err)
	}

	return s, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Set(key, value string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.MemStore.Set(key, value); err != nil {
		return err
	}
	return s.flush()
}

func (s *FileStore) flush() error {
	snap := s.Snapshot()

	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make(yaml.MapSlice, 0, len(keys))
	for _, k := range keys {
		ordered = append(ordered, yaml.MapItem{Key: k, Value: snap[k]})
	}

	data, err := yaml.Marshal(ordered)
	if err != nil {
		return fmt.Errorf("failed to encode properties: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create property directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".props-*")
	if err != nil {
		return fmt.Errorf("failed to create temp property file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write properties: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp property file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace property file: %w", err)
	}
	return nil
}

// Bool interprets a property as a boolean the way the radio stack writes them.
func Bool(s Store, key string) bool {
	switch s.Get(key, "") {
	case "true", "yes", "1":
		return true
	}
	return false
}
