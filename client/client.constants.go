package client

import "time"

// Batcher defaults
const (
	DefaultDelay   = 50 * time.Millisecond
	DefaultTimeout = 10 * time.Second
)

// Error codes and messages
const (
	ErrCodeClient = "DTX_CLIENT"

	ErrMsgBatcherClosed    = "batcher is closed"
	ErrMsgEncodeRequest    = "failed to encode batch request"
	ErrMsgBuildRequest     = "failed to build batch request"
	ErrMsgSendRequest      = "batch request failed"
	ErrMsgUnexpectedStatus = "unexpected batch response status"
	ErrMsgReadResponse     = "failed to read batch response"
	ErrMsgDecodeResponse   = "failed to decode batch response"
	ErrMsgMissingResult    = "batch response has no entry for value"
	ErrMsgEmptyEndpoint    = "batch endpoint is empty"
	ErrMsgNilCallback      = "callback is nil"
)

// Metadata keys
const (
	MetaKeyStatus = "status"
	MetaKeyValue  = "value"
)

// Log messages and fields
const (
	LogMsgFlushStart    = "flushing deferred lookups"
	LogMsgFlushFailed   = "deferred lookup batch failed"
	LogMsgFlushComplete = "deferred lookups delivered"
	LogFieldCount       = "count"
)
