package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/itsatony/go-cuserr"
	dtx "github.com/itsatony/go-dtx"
	"go.uber.org/zap"
)

// Callback receives the resolved value of one deferred lookup.
type Callback func(value string, err error)

// Option configures a Batcher.
type Option func(*Batcher)

// WithHTTPClient sets the HTTP client used for batch requests.
// Default: a client with a 10 second timeout
func WithHTTPClient(c *http.Client) Option {
	return func(b *Batcher) {
		if c != nil {
			b.http = c
		}
	}
}

// WithDelay sets how long the first queued lookup waits for others.
// Default: 50ms
func WithDelay(d time.Duration) Option {
	return func(b *Batcher) {
		if d > 0 {
			b.delay = d
		}
	}
}

// WithCBOR encodes batch requests as CBOR instead of JSON.
func WithCBOR() Option {
	return func(b *Batcher) {
		b.cbor = true
	}
}

// WithLogger sets the logger.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(b *Batcher) {
		if logger != nil {
			b.logger = logger
		}
	}
}

type pendingLookup struct {
	multiline bool
	callbacks []Callback
}

// Batcher coalesces deferred lookups into one request. The first Queue
// call arms a timer; when it fires every pending lookup is sent together
// and answers are matched back by their encoded raw value.
type Batcher struct {
	endpoint string
	http     *http.Client
	delay    time.Duration
	cbor     bool
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]*pendingLookup
	order   []string
	timer   *time.Timer
	closed  bool
}

// NewBatcher creates a batcher posting to endpoint.
func NewBatcher(endpoint string, opts ...Option) (*Batcher, error) {
	if endpoint == "" {
		return nil, cuserr.NewValidationError(ErrCodeClient, ErrMsgEmptyEndpoint)
	}
	b := &Batcher{
		endpoint: endpoint,
		http:     &http.Client{Timeout: DefaultTimeout},
		delay:    DefaultDelay,
		logger:   zap.NewNop(),
		pending:  make(map[string]*pendingLookup),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Queue defers the lookup of raw. Lookups of the same raw value share one
// batch entry; the multiline flag of the first one is used.
func (b *Batcher) Queue(raw string, multiline bool, cb Callback) error {
	if cb == nil {
		return cuserr.NewValidationError(ErrCodeClient, ErrMsgNilCallback)
	}
	key := url.QueryEscape(raw)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return cuserr.NewValidationError(ErrCodeClient, ErrMsgBatcherClosed)
	}
	p, ok := b.pending[key]
	if !ok {
		p = &pendingLookup{multiline: multiline}
		b.pending[key] = p
		b.order = append(b.order, key)
	}
	p.callbacks = append(p.callbacks, cb)

	if b.timer == nil {
		b.timer = time.AfterFunc(b.delay, b.fire)
	}
	return nil
}

// Pending returns the number of distinct lookups waiting to be sent.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

func (b *Batcher) fire() {
	if err := b.Flush(context.Background()); err != nil {
		b.logger.Warn(LogMsgFlushFailed, zap.Error(err))
	}
}

// Flush sends every pending lookup now. Callbacks run before Flush returns;
// on a failed request each callback receives the error.
func (b *Batcher) Flush(ctx context.Context) error {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	pending, order := b.pending, b.order
	b.pending = make(map[string]*pendingLookup)
	b.order = nil
	b.mu.Unlock()

	if len(order) == 0 {
		return nil
	}

	b.logger.Debug(LogMsgFlushStart, zap.Int(LogFieldCount, len(order)))

	entries := make([]dtx.BatchEntry, 0, len(order))
	for _, key := range order {
		entries = append(entries, dtx.BatchEntry{Value: key, Multiline: pending[key].multiline})
	}

	results, err := b.send(ctx, entries)
	if err != nil {
		for _, key := range order {
			for _, cb := range pending[key].callbacks {
				cb("", err)
			}
		}
		return err
	}

	byRaw := make(map[string]string, len(results))
	for _, r := range results {
		byRaw[r.RawValue] = r.Value
	}
	for _, key := range order {
		value, ok := byRaw[key]
		var missing error
		if !ok {
			missing = cuserr.NewNotFoundError(MetaKeyValue, ErrMsgMissingResult).
				WithMetadata(MetaKeyValue, key)
		}
		for _, cb := range pending[key].callbacks {
			cb(value, missing)
		}
	}

	b.logger.Debug(LogMsgFlushComplete, zap.Int(LogFieldCount, len(order)))
	return nil
}

func (b *Batcher) send(ctx context.Context, entries []dtx.BatchEntry) ([]dtx.BatchResult, error) {
	body, err := dtx.EncodeBatch(entries, b.cbor)
	if err != nil {
		return nil, cuserr.WrapStdError(err, ErrCodeClient, ErrMsgEncodeRequest)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, cuserr.WrapStdError(err, ErrCodeClient, ErrMsgBuildRequest)
	}
	contentType := dtx.ContentTypeJSON
	if b.cbor {
		contentType = dtx.ContentTypeCBOR
	}
	req.Header.Set(dtx.HeaderContentType, contentType)
	req.Header.Set(dtx.HeaderAccept, contentType)

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, cuserr.WrapStdError(err, ErrCodeClient, ErrMsgSendRequest)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, cuserr.NewValidationError(ErrCodeClient, ErrMsgUnexpectedStatus).
			WithMetadata(MetaKeyStatus, strconv.Itoa(resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, cuserr.WrapStdError(err, ErrCodeClient, ErrMsgReadResponse)
	}
	var results []dtx.BatchResult
	if err := dtx.DecodeBatch(data, &results, dtx.IsCBOR(resp.Header.Get(dtx.HeaderContentType))); err != nil {
		return nil, cuserr.WrapStdError(err, ErrCodeClient, ErrMsgDecodeResponse)
	}
	return results, nil
}

// Close stops the timer and abandons pending lookups; their callbacks are
// never called. Further Queue calls fail.
func (b *Batcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.closed = true
	b.pending = make(map[string]*pendingLookup)
	b.order = nil
	return nil
}
