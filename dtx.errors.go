package dtx

import (
	"errors"
	"strconv"

	"github.com/itsatony/go-cuserr"
)

// Error message constants - every error message is a named constant
const (
	// Parse problems
	ErrMsgEmptyAttributeKey = "attribute key is empty after sanitization"

	// Registry errors
	ErrMsgResolverExists = "resolver already registered"
	ErrMsgNilResolver    = "resolver is nil"

	// Host errors
	ErrMsgHostNotFound = "host entity not found"

	// Batch errors
	ErrMsgBatchMethod       = "batch endpoint only accepts POST"
	ErrMsgBatchDecode       = "batch request body could not be decoded"
	ErrMsgBatchTooLarge     = "batch request has too many entries"
	ErrMsgBatchBodyTooLarge = "batch request body is too large"
	ErrMsgBatchEncode       = "batch response could not be encoded"

	// Scan errors
	ErrMsgScanNoForms    = "form source is not configured"
	ErrMsgScanNoStorage  = "settings storage is not configured"
	ErrMsgScanListForms  = "listing forms failed"
	ErrMsgScanFormTagBad = "dynamic form tag contains malformed shortcode"

	// Fixture errors
	ErrMsgFixtureRead   = "failed to read site fixture"
	ErrMsgFixtureDecode = "failed to decode site fixture"
)

// ErrNotFound is wrapped by every host lookup miss.
var ErrNotFound = errors.New("not found")

// NewParseProblem creates the error recorded for a fragment the parser skipped
func NewParseProblem(msg string, column, offset int, fragment string) error {
	return cuserr.NewValidationError(ErrCodeParse, msg).
		WithMetadata(MetaKeyColumn, strconv.Itoa(column)).
		WithMetadata(MetaKeyOffset, strconv.Itoa(offset)).
		WithMetadata(MetaKeyFragment, fragment)
}

// NewResolverExistsError creates a resolver collision error
func NewResolverExistsError(tagName string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeRegistry, ErrMsgResolverExists).
		WithMetadata(MetaKeyTag, tagName)
}

// NewNilResolverError creates an error for a nil resolver registration
func NewNilResolverError() error {
	return cuserr.NewValidationError(ErrCodeRegistry, ErrMsgNilResolver)
}

// NewHostNotFoundError creates the error a Host returns when an entity is missing.
// errors.Is(err, ErrNotFound) holds for the result.
func NewHostNotFoundError(entity string, id string) error {
	return cuserr.WrapStdError(ErrNotFound, ErrCodeHost, ErrMsgHostNotFound).
		WithMetadata(MetaKeyEntity, entity).
		WithMetadata(MetaKeyID, id)
}

// NewBatchError creates a batch request validation error
func NewBatchError(msg string) error {
	return cuserr.NewValidationError(ErrCodeBatch, msg)
}

// NewBatchTooLargeError creates an error for oversized batches
func NewBatchTooLargeError(limit int) error {
	return cuserr.NewValidationError(ErrCodeBatch, ErrMsgBatchTooLarge).
		WithMetadata(MetaKeyLimit, strconv.Itoa(limit))
}

// NewScanError wraps a failure that aborted the form scan
func NewScanError(msg string, cause error) error {
	if cause == nil {
		return cuserr.NewValidationError(ErrCodeScan, msg)
	}
	return cuserr.WrapStdError(cause, ErrCodeScan, msg)
}

// NewScanFormProblem reports a form tag whose shortcode had to be repaired
func NewScanFormProblem(formID int, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeScan, ErrMsgScanFormTagBad).
		WithMetadata(MetaKeyFormID, strconv.Itoa(formID))
}

// IsNotFound reports whether err is a host lookup miss
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
