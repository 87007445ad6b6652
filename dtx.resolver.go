package dtx

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Resolver is the interface every dynamic tag implements.
// A resolver is total: it never fails, and any problem degrades to an empty
// value. Sanitizing and escaping are applied by the Engine afterwards.
type Resolver interface {
	// TagName returns the tag this resolver handles (e.g. "CF7_GET").
	TagName() string

	// Options declares the accepted option names and their defaults.
	// Attributes that are not declared here are ignored.
	Options() OptionSet

	// Resolve produces the raw value for the shortcode.
	Resolve(ctx context.Context, scope *Scope, opts *Options) Result
}

// OptionSet maps option names to their default values.
type OptionSet map[string]string

// Options is an OptionSet merged with the parsed attributes of one shortcode.
type Options struct {
	values map[string]string
}

// newOptions keeps only declared options, taking the attribute value when
// present and the default otherwise.
func newOptions(declared OptionSet, attrs *Attributes) *Options {
	o := &Options{values: make(map[string]string, len(declared))}
	for name, def := range declared {
		o.values[name] = attrs.GetDefault(name, def)
	}
	return o
}

// NewOptions builds Options for tests and direct resolver calls.
func NewOptions(declared OptionSet, attrs *Attributes) *Options {
	return newOptions(declared, attrs)
}

// Get returns an option value, "" when undeclared.
func (o *Options) Get(name string) string {
	if o == nil {
		return ""
	}
	return o.values[name]
}

// Bool interprets an option as a flag.
func (o *Options) Bool(name string) bool {
	return IsTruthy(o.Get(name))
}

// Int parses an option as a positive integer ID.
func (o *Options) Int(name string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(o.Get(name)))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// List splits a comma separated option.
func (o *Options) List(name string) []string {
	return SplitList(o.Get(name))
}

// Result is the raw output of a resolver along with how it must be cleaned.
type Result struct {
	Value     string
	Sanitize  SanitizeKind
	Hint      EscapeHint
	Protocols []string
}

// TextResult is a plain text value.
func TextResult(value string) Result {
	return Result{Value: value, Sanitize: SanitizeText, Hint: EscapeText}
}

// URLResult is a URL restricted to protocols (http and https when empty).
func URLResult(value string, protocols []string) Result {
	return Result{Value: value, Sanitize: SanitizeURL, Hint: EscapeURL, Protocols: protocols}
}

// RawResult is a value generated by the resolver itself that needs escaping only.
func RawResult(value string) Result {
	return Result{Value: value, Sanitize: SanitizeNone, Hint: EscapeText}
}

// EmptyResult is the degraded result.
func EmptyResult() Result {
	return TextResult("")
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc struct {
	name    string
	options OptionSet
	fn      func(ctx context.Context, scope *Scope, opts *Options) Result
}

// NewResolverFunc creates a function-based resolver.
func NewResolverFunc(name string, options OptionSet, fn func(ctx context.Context, scope *Scope, opts *Options) Result) *ResolverFunc {
	return &ResolverFunc{
		name:    name,
		options: options,
		fn:      fn,
	}
}

// TagName returns the resolver's tag name.
func (r *ResolverFunc) TagName() string {
	return r.name
}

// Options returns the declared options.
func (r *ResolverFunc) Options() OptionSet {
	return r.options
}

// Resolve executes the resolver function.
func (r *ResolverFunc) Resolve(ctx context.Context, scope *Scope, opts *Options) Result {
	return r.fn(ctx, scope, opts)
}

// Scope is the per-request state a resolution may read. It is passed
// explicitly; nothing is read from globals.
type Scope struct {
	Request  *Request
	Host     Host
	Policies *AccessPolicies

	gate   *Gate
	tag    string
	raw    string
	logger *zap.Logger
}

// NewScope creates a scope. Any argument may be nil: a nil request has no
// query, cookies or URL, a nil host misses every lookup and nil policies
// deny every protected key.
func NewScope(req *Request, host Host, policies *AccessPolicies) *Scope {
	return &Scope{
		Request:  req,
		Host:     host,
		Policies: policies,
	}
}

// bind returns a copy of s prepared for one resolution.
func (s *Scope) bind(tag, raw string, recorder AlertRecorder, logger *zap.Logger) *Scope {
	var bound Scope
	if s != nil {
		bound = *s
	}
	if bound.Request == nil {
		bound.Request = &Request{}
	}
	if bound.Host == nil {
		bound.Host = NewMemoryHost(nil)
	}
	bound.tag = tag
	bound.raw = raw
	bound.logger = logger
	bound.gate = NewGate(bound.Policies, recorder, logger)
	return &bound
}

// Tag returns the tag being resolved.
func (s *Scope) Tag() string {
	return s.tag
}

// Raw returns the raw shortcode being resolved, when known.
func (s *Scope) Raw() string {
	return s.raw
}

// Logger returns the engine logger.
func (s *Scope) Logger() *zap.Logger {
	if s.logger == nil {
		return zap.NewNop()
	}
	return s.logger
}

// Allowed consults the access gate. Denials are logged and recorded.
func (s *Scope) Allowed(ctx context.Context, domain AccessDomain, key string) bool {
	gate := s.gate
	if gate == nil {
		gate = NewGate(s.Policies, nil, s.logger)
	}
	return gate.Check(ctx, domain, key, s.tag, s.raw)
}

// lookupFailed logs a failed host lookup. Misses are expected and logged at debug.
func (s *Scope) lookupFailed(entity string, err error) {
	if IsNotFound(err) {
		s.Logger().Debug(LogMsgHostLookupFailed,
			zap.String(LogFieldTag, s.tag),
			zap.String(LogFieldEntity, entity),
			zap.Error(err))
		return
	}
	s.Logger().Warn(LogMsgHostLookupFailed,
		zap.String(LogFieldTag, s.tag),
		zap.String(LogFieldEntity, entity),
		zap.Error(err))
}
