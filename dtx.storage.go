package dtx

import (
	"context"
	"sort"
	"sync"
)

// SettingsStorage persists the access settings and the access-denied alerts.
// Implementations must be safe for concurrent use.
type SettingsStorage interface {
	// Load returns the stored settings. A store that was never written
	// returns DefaultSettings.
	Load(ctx context.Context) (*Settings, error)

	// Save replaces the stored settings. UpdatedAt is set by the storage.
	Save(ctx context.Context, settings *Settings) error

	// RecordAlert stores alert unless one for the same domain and key
	// exists. The boolean reports whether the alert was new.
	RecordAlert(ctx context.Context, alert *AccessAlert) (bool, error)

	// ListAlerts returns the stored alerts, oldest first.
	ListAlerts(ctx context.Context) ([]*AccessAlert, error)

	// ClearAlerts removes every alert.
	ClearAlerts(ctx context.Context) error

	// Close releases any resources held by the storage.
	// After Close, the storage should not be used.
	Close() error
}

// StorageDriver is a factory for creating storage instances.
// Drivers register themselves during init().
type StorageDriver interface {
	// Open creates a new storage instance with the given connection string.
	// The format of the connection string is driver-specific.
	Open(connectionString string) (SettingsStorage, error)
}

// Storage driver registry
var (
	storageDriversMu sync.RWMutex
	storageDrivers   = make(map[string]StorageDriver)
)

// RegisterStorageDriver registers a storage driver by name.
// This is typically called from a driver's init() function.
// Panics if a driver with the same name is already registered.
func RegisterStorageDriver(name string, driver StorageDriver) {
	storageDriversMu.Lock()
	defer storageDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilStorageDriver)
	}
	if _, exists := storageDrivers[name]; exists {
		panic(ErrMsgDriverAlreadyRegistered + ": " + name)
	}
	storageDrivers[name] = driver
}

// OpenStorage opens a storage connection using the named driver.
// The connection string format is driver-specific.
//
// Example:
//
//	storage, err := dtx.OpenStorage("memory", "")
//	storage, err := dtx.OpenStorage("filesystem", "/var/lib/dtx")
//	storage, err := dtx.OpenStorage("sqlite", "/var/lib/dtx/settings.db")
func OpenStorage(driverName, connectionString string) (SettingsStorage, error) {
	storageDriversMu.RLock()
	driver, ok := storageDrivers[driverName]
	storageDriversMu.RUnlock()

	if !ok {
		return nil, NewStorageDriverNotFoundError(driverName)
	}

	return driver.Open(connectionString)
}

// ListStorageDrivers returns the names of all registered storage drivers in sorted order.
func ListStorageDrivers() []string {
	storageDriversMu.RLock()
	defer storageDriversMu.RUnlock()

	names := make([]string, 0, len(storageDrivers))
	for name := range storageDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Storage error message constants
const (
	ErrMsgNilStorageDriver        = "storage driver is nil"
	ErrMsgDriverAlreadyRegistered = "storage driver already registered"
	ErrMsgStorageDriverNotFound   = "storage driver not found"
	ErrMsgStorageClosed           = "storage is closed"
	ErrMsgStorageNilSettings      = "settings are nil"
	ErrMsgStorageRead             = "failed to read storage"
	ErrMsgStorageWrite            = "failed to write storage"
	ErrMsgStorageDecode           = "failed to decode stored data"
	ErrMsgStorageEncode           = "failed to encode data for storage"
)

// NewStorageDriverNotFoundError creates an error for missing storage driver.
func NewStorageDriverNotFoundError(name string) error {
	return &StorageError{
		Message: ErrMsgStorageDriverNotFound,
		Name:    name,
	}
}

// NewStorageClosedError creates an error for operations on closed storage.
func NewStorageClosedError() error {
	return &StorageError{
		Message: ErrMsgStorageClosed,
	}
}

// NewStorageIOError wraps a driver level failure.
func NewStorageIOError(message, name string, cause error) error {
	return &StorageError{
		Message: message,
		Name:    name,
		Cause:   cause,
	}
}

// StorageError represents a storage-related error.
type StorageError struct {
	Message string
	Name    string
	Cause   error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	msg := e.Message
	if e.Name != "" {
		msg += ": " + e.Name
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}
