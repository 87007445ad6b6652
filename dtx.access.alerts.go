package dtx

import (
	"context"
	"sync"
)

// AlertRecorder receives access-denied alerts. Implementations keep at most
// one alert per domain and key and must be safe for concurrent use.
type AlertRecorder interface {
	RecordAccessDenied(ctx context.Context, alert *AccessAlert) error
}

// NoOpAlerts discards every alert.
type NoOpAlerts struct{}

// RecordAccessDenied does nothing.
func (NoOpAlerts) RecordAccessDenied(ctx context.Context, alert *AccessAlert) error {
	return nil
}

// MemoryAlerts keeps de-duplicated alerts in memory.
// Useful for testing and for single-process deployments.
type MemoryAlerts struct {
	mu     sync.RWMutex
	seen   map[string]struct{}
	alerts []*AccessAlert
	limit  int
}

// NewMemoryAlerts creates an in-memory recorder.
// If limit > 0, only the most recent alerts are kept.
func NewMemoryAlerts(limit int) *MemoryAlerts {
	return &MemoryAlerts{
		seen:  make(map[string]struct{}),
		limit: limit,
	}
}

// RecordAccessDenied stores alert unless an alert for the same domain and
// key was already recorded.
func (m *MemoryAlerts) RecordAccessDenied(ctx context.Context, alert *AccessAlert) error {
	if alert == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := alert.DedupKey()
	if _, dup := m.seen[key]; dup {
		return nil
	}
	m.seen[key] = struct{}{}
	m.alerts = append(m.alerts, alert)

	if m.limit > 0 && len(m.alerts) > m.limit {
		dropped := m.alerts[0]
		delete(m.seen, dropped.DedupKey())
		m.alerts = m.alerts[1:]
	}
	return nil
}

// Alerts returns a copy of the stored alerts, oldest first.
func (m *MemoryAlerts) Alerts() []*AccessAlert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*AccessAlert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// Count returns the number of stored alerts.
func (m *MemoryAlerts) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.alerts)
}

// Clear removes all alerts.
func (m *MemoryAlerts) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = make(map[string]struct{})
	m.alerts = nil
}

// StorageAlerts persists alerts through a SettingsStorage.
type StorageAlerts struct {
	storage SettingsStorage
}

// NewStorageAlerts creates a recorder backed by storage.
func NewStorageAlerts(storage SettingsStorage) *StorageAlerts {
	return &StorageAlerts{storage: storage}
}

// RecordAccessDenied persists alert; duplicates are ignored by the storage.
func (s *StorageAlerts) RecordAccessDenied(ctx context.Context, alert *AccessAlert) error {
	if alert == nil {
		return nil
	}
	_, err := s.storage.RecordAlert(ctx, alert)
	return err
}
