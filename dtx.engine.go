package dtx

import (
	"context"
	"fmt"

	"github.com/itsatony/go-dtx/internal"
	"go.uber.org/zap"
)

// Engine is the main entry point for resolving dynamic shortcodes.
// It owns the resolver registry, which is fixed once New returns, and is
// safe for concurrent use.
type Engine struct {
	registry *internal.Registry[Resolver]
	config   *engineConfig
	alerts   AlertRecorder
	logger   *zap.Logger
}

// New creates a new Engine with the built-in resolvers plus any added with
// WithResolver.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	alerts := config.alerts
	if alerts == nil {
		alerts = NoOpAlerts{}
	}

	registry := internal.NewRegistry[Resolver](logger)
	registerBuiltins(registry)
	for _, r := range config.resolvers {
		if r == nil {
			return nil, NewNilResolverError()
		}
		if err := registry.Register(r); err != nil {
			return nil, NewResolverExistsError(r.TagName(), err)
		}
	}
	registry.Freeze()

	logger.Debug(LogMsgEngineCreated, zap.Int(LogFieldEntries, registry.Count()))

	return &Engine{
		registry: registry,
		config:   config,
		alerts:   alerts,
		logger:   logger,
	}, nil
}

// MustNew creates a new Engine and panics if there's an error.
func MustNew(opts ...Option) *Engine {
	engine, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return engine
}

// Parse parses a raw shortcode, reporting dropped fragments.
func (e *Engine) Parse(raw string) *ParseResult {
	return parseWithLogger(raw, e.logger)
}

// Has reports whether a resolver is registered for tag (case-insensitive).
func (e *Engine) Has(tag string) bool {
	return e.registry.Has(tag)
}

// Tags returns the registered tag names in sorted order.
func (e *Engine) Tags() []string {
	return e.registry.List()
}

// Resolver returns the resolver registered for tag.
func (e *Engine) Resolver(tag string) (Resolver, bool) {
	return e.registry.Get(tag)
}

// Resolve runs the resolver for tag with attrs. The boolean is false when
// no resolver is registered for tag.
func (e *Engine) Resolve(ctx context.Context, tag string, attrs *Attributes, scope *Scope) (string, bool) {
	return e.resolve(ctx, tag, attrs, scope, "", false)
}

// ResolveShortcode parses raw and resolves it. With multiline set, text
// values keep their line breaks and use textarea escaping. The boolean is
// false when the tag is unknown.
func (e *Engine) ResolveShortcode(ctx context.Context, raw string, scope *Scope, multiline bool) (string, bool) {
	parsed := e.Parse(raw).Shortcode
	if parsed.IsEmpty() {
		return "", false
	}
	return e.resolve(ctx, parsed.Tag(), parsed.Attributes(), scope, raw, multiline)
}

// ResolveDefaultValue resolves the default value of a form field.
// Input that is not a known shortcode is returned unchanged.
func (e *Engine) ResolveDefaultValue(ctx context.Context, raw string, scope *Scope) string {
	if value, ok := e.ResolveShortcode(ctx, raw, scope, false); ok {
		return value
	}
	return raw
}

// ResolvePlaceholderValue resolves the placeholder of a form field.
// Input that is not a known shortcode is returned unchanged.
func (e *Engine) ResolvePlaceholderValue(ctx context.Context, raw string, scope *Scope) string {
	if value, ok := e.ResolveShortcode(ctx, raw, scope, false); ok {
		return value
	}
	return raw
}

func (e *Engine) resolve(ctx context.Context, tag string, attrs *Attributes, scope *Scope, raw string, multiline bool) (string, bool) {
	resolver, ok := e.registry.Get(tag)
	if !ok {
		e.logger.Debug(LogMsgUnknownTag, zap.String(LogFieldTag, tag))
		return "", false
	}
	return e.invoke(ctx, resolver, attrs, scope, raw, multiline), true
}

// invoke runs one resolver through the sanitize and escape pipeline.
// A panicking resolver degrades to an empty value.
func (e *Engine) invoke(ctx context.Context, r Resolver, attrs *Attributes, scope *Scope, raw string, multiline bool) (out string) {
	tag := r.TagName()
	e.logger.Debug(LogMsgResolveStart, zap.String(LogFieldTag, tag))

	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error(LogMsgResolverPanic,
				zap.String(LogFieldTag, tag),
				zap.String(LogFieldPanic, fmt.Sprint(rec)))
			out = ""
		}
	}()

	opts := newOptions(r.Options(), attrs)
	bound := scope.bind(tag, raw, e.alerts, e.logger)
	res := r.Resolve(ctx, bound, opts)

	kind, hint := res.Sanitize, res.Hint
	if multiline {
		if kind == SanitizeText {
			kind = SanitizeTextarea
		}
		if hint == EscapeText {
			hint = EscapeTextarea
		}
	}

	value := Sanitize(res.Value, kind, res.Protocols...)
	out = Escape(value, opts.Bool(OptObfuscate), hint, res.Protocols...)

	e.logger.Debug(LogMsgResolveComplete, zap.String(LogFieldTag, tag))
	return out
}
