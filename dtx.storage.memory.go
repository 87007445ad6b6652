package dtx

import (
	"context"
	"sync"
)

// MemoryStorage is an in-memory implementation of SettingsStorage.
// It is primarily intended for testing and development.
// All data is lost when the process terminates.
type MemoryStorage struct {
	mu       sync.RWMutex
	settings *Settings
	alerts   []*AccessAlert
	seen     map[string]struct{}
	closed   bool
}

// MemoryStorageDriver is the driver for creating MemoryStorage instances.
type MemoryStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameMemory, &MemoryStorageDriver{})
}

// Open creates a new MemoryStorage instance.
// The connection string is ignored for memory storage.
func (d *MemoryStorageDriver) Open(connectionString string) (SettingsStorage, error) {
	return NewMemoryStorage(), nil
}

// NewMemoryStorage creates a new in-memory settings storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		settings: DefaultSettings(),
		seen:     make(map[string]struct{}),
	}
}

// Load returns a copy of the stored settings.
func (s *MemoryStorage) Load(ctx context.Context) (*Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	return s.settings.Clone(), nil
}

// Save replaces the stored settings.
func (s *MemoryStorage) Save(ctx context.Context, settings *Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if settings == nil {
		return &StorageError{Message: ErrMsgStorageNilSettings}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}
	stored := settings.Clone()
	stored.UpdatedAt = timeNow()
	s.settings = stored
	return nil
}

// RecordAlert stores alert once per domain and key.
func (s *MemoryStorage) RecordAlert(ctx context.Context, alert *AccessAlert) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, NewStorageClosedError()
	}
	key := alert.DedupKey()
	if _, dup := s.seen[key]; dup {
		return false, nil
	}
	s.seen[key] = struct{}{}
	stored := *alert
	s.alerts = append(s.alerts, &stored)
	return true, nil
}

// ListAlerts returns copies of the stored alerts, oldest first.
func (s *MemoryStorage) ListAlerts(ctx context.Context) ([]*AccessAlert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	out := make([]*AccessAlert, 0, len(s.alerts))
	for _, a := range s.alerts {
		c := *a
		out = append(out, &c)
	}
	return out, nil
}

// ClearAlerts removes every alert.
func (s *MemoryStorage) ClearAlerts(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}
	s.alerts = nil
	s.seen = make(map[string]struct{})
	return nil
}

// Close marks the storage as closed.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
