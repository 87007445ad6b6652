package dtx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FilesystemStorage stores settings and alerts as YAML files in a directory.
//
// Directory structure:
//
//	<root>/
//	  settings.yaml
//	  alerts.yaml
type FilesystemStorage struct {
	mu     sync.RWMutex
	root   string
	closed bool
}

// filesystemAlertData is the structure of alerts.yaml.
type filesystemAlertData struct {
	Alerts []*AccessAlert `yaml:"alerts"`
}

// FilesystemStorageDriver is the driver for creating FilesystemStorage instances.
type FilesystemStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameFilesystem, &FilesystemStorageDriver{})
}

// Open creates a new FilesystemStorage instance.
// The connection string is the root directory path.
func (d *FilesystemStorageDriver) Open(connectionString string) (SettingsStorage, error) {
	return NewFilesystemStorage(connectionString)
}

// Filesystem storage error messages
const (
	ErrMsgInvalidStorageRoot = "storage root directory is empty"
	ErrMsgCreateStorageDir   = "failed to create storage directory"
)

// NewFilesystemStorage creates a new filesystem-based settings storage.
// The root directory will be created if it doesn't exist.
func NewFilesystemStorage(root string) (*FilesystemStorage, error) {
	if root == "" {
		return nil, &StorageError{Message: ErrMsgInvalidStorageRoot}
	}

	if err := os.MkdirAll(root, FilesystemDirPermissions); err != nil {
		return nil, &StorageError{
			Message: ErrMsgCreateStorageDir,
			Name:    root,
			Cause:   err,
		}
	}

	return &FilesystemStorage{
		root: root,
	}, nil
}

// Load reads settings.yaml. A missing file yields DefaultSettings.
func (s *FilesystemStorage) Load(ctx context.Context) (*Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	settings := DefaultSettings()
	found, err := s.readYAML(FilesystemSettingsFile, settings)
	if err != nil {
		return nil, err
	}
	if !found {
		return DefaultSettings(), nil
	}
	settings.ScanStatus = ParseScanStatus(string(settings.ScanStatus))
	return settings, nil
}

// Save writes settings.yaml.
func (s *FilesystemStorage) Save(ctx context.Context, settings *Settings) error {
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
	return s.writeYAML(FilesystemSettingsFile, stored)
}

// RecordAlert appends alert to alerts.yaml unless its domain and key are present.
func (s *FilesystemStorage) RecordAlert(ctx context.Context, alert *AccessAlert) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, NewStorageClosedError()
	}

	var data filesystemAlertData
	if _, err := s.readYAML(FilesystemAlertsFile, &data); err != nil {
		return false, err
	}
	key := alert.DedupKey()
	for _, existing := range data.Alerts {
		if existing.DedupKey() == key {
			return false, nil
		}
	}
	data.Alerts = append(data.Alerts, alert)
	if err := s.writeYAML(FilesystemAlertsFile, &data); err != nil {
		return false, err
	}
	return true, nil
}

// ListAlerts reads alerts.yaml.
func (s *FilesystemStorage) ListAlerts(ctx context.Context) ([]*AccessAlert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	var data filesystemAlertData
	if _, err := s.readYAML(FilesystemAlertsFile, &data); err != nil {
		return nil, err
	}
	if data.Alerts == nil {
		return []*AccessAlert{}, nil
	}
	return data.Alerts, nil
}

// ClearAlerts removes alerts.yaml.
func (s *FilesystemStorage) ClearAlerts(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	path := filepath.Join(s.root, FilesystemAlertsFile)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return NewStorageIOError(ErrMsgStorageWrite, path, err)
	}
	return nil
}

// Close marks the storage as closed.
func (s *FilesystemStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// readYAML decodes a file into out. A missing file is not an error.
func (s *FilesystemStorage) readYAML(name string, out any) (bool, error) {
	path := filepath.Join(s.root, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, NewStorageIOError(ErrMsgStorageRead, path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return false, NewStorageIOError(ErrMsgStorageDecode, path, err)
	}
	return true, nil
}

// writeYAML replaces a file atomically.
func (s *FilesystemStorage) writeYAML(name string, in any) error {
	path := filepath.Join(s.root, name)
	data, err := yaml.Marshal(in)
	if err != nil {
		return NewStorageIOError(ErrMsgStorageEncode, path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, FilesystemFilePermission); err != nil {
		return NewStorageIOError(ErrMsgStorageWrite, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return NewStorageIOError(ErrMsgStorageWrite, path, err)
	}
	return nil
}
