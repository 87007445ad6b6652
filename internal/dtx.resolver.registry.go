package internal

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Named is implemented by anything registered under a tag name.
type Named interface {
	TagName() string
}

// Registry manages resolver registration with first-come-wins semantics.
// Lookups are case-insensitive. Once frozen, no further registrations are
// accepted and the registry is read-only.
type Registry[T Named] struct {
	resolvers map[string]T
	frozen    bool
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewRegistry creates a new resolver registry.
func NewRegistry[T Named](logger *zap.Logger) *Registry[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgRegistryCreated)
	return &Registry[T]{
		resolvers: make(map[string]T),
		logger:    logger,
	}
}

// Register adds a resolver to the registry.
// If a resolver for the same tag name already exists, returns an error
// but does not panic (first-come-wins semantics).
func (r *Registry[T]) Register(resolver T) error {
	tagName := resolver.TagName()
	if tagName == StringValueEmpty {
		return NewRegistryError(ErrMsgEmptyTagName, StringValueEmpty)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return NewRegistryError(ErrMsgRegistryFrozen, tagName)
	}

	key := normalizeTagName(tagName)
	if existing, exists := r.resolvers[key]; exists {
		r.logger.Warn(LogMsgResolverCollision,
			zap.String(LogFieldTagName, tagName),
			zap.String(LogFieldExisting, existing.TagName()),
		)
		return NewRegistryError(ErrMsgResolverAlreadyExists, tagName)
	}

	r.resolvers[key] = resolver
	r.logger.Debug(LogMsgResolverRegistered, zap.String(LogFieldTagName, tagName))
	return nil
}

// MustRegister adds a resolver and panics if registration fails.
// Use this for built-in resolvers that must always be available.
func (r *Registry[T]) MustRegister(resolver T) {
	if err := r.Register(resolver); err != nil {
		panic(err)
	}
}

// Freeze makes the registry read-only.
func (r *Registry[T]) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
	r.logger.Debug(LogMsgRegistryFrozen, zap.Int(LogFieldCount, len(r.resolvers)))
}

// Get retrieves a resolver by tag name, ignoring case.
func (r *Registry[T]) Get(tagName string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolver, exists := r.resolvers[normalizeTagName(tagName)]
	return resolver, exists
}

// Has checks if a resolver is registered for the given tag name.
func (r *Registry[T]) Has(tagName string) bool {
	_, exists := r.Get(tagName)
	return exists
}

// List returns all registered tag names, as registered, in sorted order.
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.resolvers))
	for _, res := range r.resolvers {
		names = append(names, res.TagName())
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered resolvers.
func (r *Registry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.resolvers)
}

func normalizeTagName(tagName string) string {
	return strings.ToLower(tagName)
}

// RegistryError represents a registry operation error
type RegistryError struct {
	Message string
	TagName string
}

// NewRegistryError creates a new registry error
func NewRegistryError(message, tagName string) *RegistryError {
	return &RegistryError{
		Message: message,
		TagName: tagName,
	}
}

// Error implements the error interface
func (e *RegistryError) Error() string {
	if e.TagName != StringValueEmpty {
		return fmt.Sprintf(ErrFmtTagMessage, e.Message, e.TagName)
	}
	return e.Message
}

// Registry error message constants
const (
	ErrMsgEmptyTagName          = "resolver tag name cannot be empty"
	ErrMsgResolverAlreadyExists = "resolver already registered for tag"
	ErrMsgRegistryFrozen        = "registry is frozen"
)
