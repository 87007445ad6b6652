package dtx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"
)

// BatchEntry is one deferred lookup sent by the rendering client. Value is
// the URL-encoded raw shortcode.
type BatchEntry struct {
	Value     string `json:"value" cbor:"value"`
	Multiline bool   `json:"multiline" cbor:"multiline"`
}

// BatchResult answers one BatchEntry. RawValue echoes the entry's encoded
// value so the client can match it.
type BatchResult struct {
	RawValue string `json:"raw_value" cbor:"raw_value"`
	Value    string `json:"value" cbor:"value"`
}

var (
	batchEncMode cbor.EncMode
	batchDecMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsEmpty,
	}
	batchEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	batchDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// IsCBOR reports whether a Content-Type or Accept header selects CBOR.
func IsCBOR(header string) bool {
	mediaType, _, err := mime.ParseMediaType(header)
	return err == nil && mediaType == ContentTypeCBOR
}

// EncodeBatch encodes v as CBOR or JSON.
func EncodeBatch(v any, asCBOR bool) ([]byte, error) {
	if asCBOR {
		return batchEncMode.Marshal(v)
	}
	return json.Marshal(v)
}

// DecodeBatch decodes CBOR or JSON data into v.
func DecodeBatch(data []byte, v any, asCBOR bool) error {
	if asCBOR {
		return batchDecMode.Unmarshal(data, v)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	return dec.Decode(v)
}

// ResolveBatch answers every entry with the same scope. Values that do not
// decode or name no known tag come back as the escaped literal.
func (e *Engine) ResolveBatch(ctx context.Context, entries []BatchEntry, scope *Scope) []BatchResult {
	results := make([]BatchResult, 0, len(entries))
	for _, entry := range entries {
		raw, err := url.QueryUnescape(entry.Value)
		if err != nil {
			raw = entry.Value
		}
		value, ok := e.ResolveShortcode(ctx, raw, scope, entry.Multiline)
		if !ok {
			hint := EscapeText
			if entry.Multiline {
				hint = EscapeTextarea
			}
			value = Escape(raw, false, hint)
		}
		results = append(results, BatchResult{RawValue: entry.Value, Value: value})
	}
	return results
}

// SettingsLoader supplies the current access settings. SettingsStorage
// satisfies it.
type SettingsLoader interface {
	Load(ctx context.Context) (*Settings, error)
}

// BatchHandler serves deferred lookups over HTTP.
type BatchHandler struct {
	engine   *Engine
	host     Host
	settings SettingsLoader
	logger   *zap.Logger
}

// BatchHandler returns the HTTP handler for deferred lookups. Settings are
// loaded on every request; a nil loader denies every protected key.
func (e *Engine) BatchHandler(host Host, settings SettingsLoader) *BatchHandler {
	return &BatchHandler{
		engine:   e,
		host:     host,
		settings: settings,
		logger:   e.logger,
	}
}

// ServeHTTP implements http.Handler.
func (h *BatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.reject(w, http.StatusMethodNotAllowed, NewBatchError(ErrMsgBatchMethod))
		return
	}

	asCBOR := IsCBOR(r.Header.Get(HeaderContentType))
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.engine.config.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reject(w, http.StatusRequestEntityTooLarge, NewBatchError(ErrMsgBatchBodyTooLarge))
			return
		}
		h.reject(w, http.StatusBadRequest, NewBatchError(ErrMsgBatchDecode))
		return
	}

	var entries []BatchEntry
	if err := DecodeBatch(body, &entries, asCBOR); err != nil {
		h.reject(w, http.StatusBadRequest, NewBatchError(ErrMsgBatchDecode))
		return
	}
	if limit := h.engine.config.maxBatchEntries; len(entries) > limit {
		h.reject(w, http.StatusRequestEntityTooLarge, NewBatchTooLargeError(limit))
		return
	}

	h.logger.Debug(LogMsgBatchReceived, zap.Int(LogFieldEntries, len(entries)))

	ctx := r.Context()
	scope := NewScope(RequestFromHTTP(r), h.host, h.policies(ctx))
	results := h.engine.ResolveBatch(ctx, entries, scope)

	respondCBOR := asCBOR || IsCBOR(r.Header.Get(HeaderAccept))
	out, err := EncodeBatch(results, respondCBOR)
	if err != nil {
		h.reject(w, http.StatusInternalServerError, NewBatchError(ErrMsgBatchEncode))
		return
	}
	if respondCBOR {
		w.Header().Set(HeaderContentType, ContentTypeCBOR)
	} else {
		w.Header().Set(HeaderContentType, ContentTypeJSON)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// policies loads the settings snapshot for one request; failures deny.
func (h *BatchHandler) policies(ctx context.Context) *AccessPolicies {
	if h.settings == nil {
		return &AccessPolicies{}
	}
	settings, err := h.settings.Load(ctx)
	if err != nil {
		h.logger.Warn(LogMsgSettingsLoadFail, zap.Error(err))
		return &AccessPolicies{}
	}
	return settings.Policies()
}

func (h *BatchHandler) reject(w http.ResponseWriter, status int, err error) {
	h.logger.Warn(LogMsgBatchRejected, zap.Int(LogFieldStatus, status), zap.Error(err))
	http.Error(w, err.Error(), status)
}
