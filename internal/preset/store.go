package preset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/quasilyte/gdata/v2"
	"go.uber.org/zap"
)

// Store loads and saves the whole preset collection at once.
type Store interface {
	Load() (Records, error)
	Save(Records) error
}

// FileStore keeps presets in one JSON file. Writes go to a temporary file in
// the same directory and are renamed into place.
type FileStore struct {
	path    string
	logger  *zap.Logger
	retries uint64
	backoff func() backoff.BackOff
}

// NewFileStore returns a store for path. logger may be nil.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{
		path:    path,
		logger:  logger,
		retries: 3,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxElapsedTime = 2 * time.Second
			return b
		},
	}
}

// Path returns the file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the file. A missing file is an empty store; an undecodable one
// is an empty store plus ErrCorrupt.
func (s *FileStore) Load() (Records, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Records{}, nil
		}
		return Records{}, fmt.Errorf("failed to read presets: %w", err)
	}
	rs, err := decode(data)
	if err != nil {
		return Records{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	return rs, nil
}

// Save writes rs atomically, retrying transient failures.
func (s *FileStore) Save(rs Records) error {
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}
	op := func() error { return writeAtomic(s.path, data) }
	notify := func(err error, d time.Duration) {
		s.logger.Warn("preset save failed, retrying", zap.String("path", s.path), zap.Duration("in", d), zap.Error(err))
	}
	if err := backoff.RetryNotify(op, backoff.WithMaxRetries(s.backoff(), s.retries), notify); err != nil {
		return fmt.Errorf("failed to save presets: %w", err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

const (
	gdataObject   = "presets"
	gdataProperty = "all"
)

// GDataStore keeps presets in the platform's per-app storage. With a nil
// manager it keeps them in memory only.
type GDataStore struct {
	manager *gdata.Manager

	mu      sync.Mutex
	records Records
}

// NewGDataStore wraps m, which may be nil.
func NewGDataStore(m *gdata.Manager) *GDataStore {
	return &GDataStore{manager: m, records: Records{}}
}

// OpenGDataStore opens app storage for appName.
func OpenGDataStore(appName string) (*GDataStore, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("failed to open app storage: %w", err)
	}
	return NewGDataStore(m), nil
}

// Load reads the stored collection.
func (s *GDataStore) Load() (Records, error) {
	if s.manager == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.records.clone(), nil
	}
	if !s.manager.ObjectPropExists(gdataObject, gdataProperty) {
		return Records{}, nil
	}
	data, err := s.manager.LoadObjectProp(gdataObject, gdataProperty)
	if err != nil {
		return Records{}, fmt.Errorf("failed to load presets: %w", err)
	}
	rs, err := decode(data)
	if err != nil {
		return Records{}, fmt.Errorf("%w: app storage: %v", ErrCorrupt, err)
	}
	return rs, nil
}

// Save replaces the stored collection.
func (s *GDataStore) Save(rs Records) error {
	if s.manager == nil {
		s.mu.Lock()
		s.records = rs.clone()
		s.mu.Unlock()
		return nil
	}
	data, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}
	if err := s.manager.SaveObjectProp(gdataObject, gdataProperty, data); err != nil {
		return fmt.Errorf("failed to save presets: %w", err)
	}
	return nil
}
