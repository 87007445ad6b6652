package dtx

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	logger          *zap.Logger
	alerts          AlertRecorder
	resolvers       []Resolver
	maxBatchEntries int
	maxBodyBytes    int64
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		logger:          nil,
		alerts:          nil,
		maxBatchEntries: DefaultMaxBatchEntries,
		maxBodyBytes:    DefaultMaxBodyBytes,
	}
}

// WithLogger sets the logger for the engine.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithAlertRecorder sets where access-denied alerts are recorded.
// Default: alerts are dropped
func WithAlertRecorder(recorder AlertRecorder) Option {
	return func(c *engineConfig) {
		c.alerts = recorder
	}
}

// WithResolver registers an additional resolver. Built-in tags cannot be
// replaced; New fails on a collision.
func WithResolver(r Resolver) Option {
	return func(c *engineConfig) {
		c.resolvers = append(c.resolvers, r)
	}
}

// WithMaxBatchEntries limits the entries accepted per batch request.
// Default: 100
func WithMaxBatchEntries(n int) Option {
	return func(c *engineConfig) {
		if n > 0 {
			c.maxBatchEntries = n
		}
	}
}

// WithMaxBodyBytes limits the size of a batch request body.
// Default: 1 MiB
func WithMaxBodyBytes(n int64) Option {
	return func(c *engineConfig) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}
