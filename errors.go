// errors.go: structured errors for sparkcache operations
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package sparkcache

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for sparkcache operations.
const (
	// Configuration errors
	ErrCodeInvalidConfig    errors.ErrorCode = "SPARKCACHE_INVALID_CONFIG"
	ErrCodeInvalidRetention errors.ErrorCode = "SPARKCACHE_INVALID_RETENTION"
	ErrCodeInvalidTopN      errors.ErrorCode = "SPARKCACHE_INVALID_TOP_N"
	ErrCodeInvalidCapacity  errors.ErrorCode = "SPARKCACHE_INVALID_CAPACITY"

	// Operation errors
	ErrCodeEmptyKey  errors.ErrorCode = "SPARKCACHE_EMPTY_KEY"
	ErrCodeDisposed  errors.ErrorCode = "SPARKCACHE_DISPOSED"
	ErrCodeKeyNotYet errors.ErrorCode = "SPARKCACHE_KEY_NOT_FOUND"

	// Producer errors
	ErrCodeInvalidProducer errors.ErrorCode = "SPARKCACHE_INVALID_PRODUCER"
	ErrCodeProducerFailed  errors.ErrorCode = "SPARKCACHE_PRODUCER_FAILED"
	ErrCodePanicRecovered  errors.ErrorCode = "SPARKCACHE_PANIC_RECOVERED"
	ErrCodeCancelled       errors.ErrorCode = "SPARKCACHE_CANCELLED"

	// Internal errors
	ErrCodeInternalError errors.ErrorCode = "SPARKCACHE_INTERNAL_ERROR"
)

const (
	msgInvalidRetention = "invalid default retention: must be greater than zero"
	msgInvalidTopN      = "invalid top-N size: must be non-negative"
	msgInvalidCapacity  = "invalid max cache size: must be non-negative"
	msgEmptyKey         = "cache key cannot be empty"
	msgDisposed         = "operation attempted on a disposed cache"
	msgKeyNotFound      = "key not found in cache"
	msgInvalidProducer  = "producer function cannot be nil"
	msgProducerFailed   = "producer function failed"
	msgPanicRecovered   = "panic recovered in producer"
	msgCancelled        = "producer was cancelled"
	msgInternalError    = "internal cache error"
)

// NewErrInvalidRetention reports a non-positive DefaultRetention.
func NewErrInvalidRetention(retentionMs int64) error {
	return errors.NewWithContext(ErrCodeInvalidRetention, msgInvalidRetention, map[string]interface{}{
		"provided_ms": retentionMs,
	})
}

// NewErrInvalidTopN reports a negative top-N size.
func NewErrInvalidTopN(field string, n int) error {
	return errors.NewWithContext(ErrCodeInvalidTopN, msgInvalidTopN, map[string]interface{}{
		"field":    field,
		"provided": n,
	})
}

// NewErrInvalidCapacity reports a negative MaxCacheSizeBytes.
func NewErrInvalidCapacity(bytes int64) error {
	return errors.NewWithContext(ErrCodeInvalidCapacity, msgInvalidCapacity, map[string]interface{}{
		"provided_bytes": bytes,
	})
}

// NewErrEmptyKey reports an empty explicit cache key.
func NewErrEmptyKey(operation string) error {
	return errors.NewWithField(ErrCodeEmptyKey, msgEmptyKey, "operation", operation)
}

// NewErrDisposed reports use of a disposed cache.
func NewErrDisposed(operation string) error {
	return errors.NewWithField(ErrCodeDisposed, msgDisposed, "operation", operation)
}

// NewErrKeyNotFound reports a lookup miss where the caller expected presence.
func NewErrKeyNotFound(key string) error {
	return errors.NewWithField(ErrCodeKeyNotYet, msgKeyNotFound, "key", key)
}

// NewErrInvalidProducer reports a nil producer.
func NewErrInvalidProducer(key string) error {
	return errors.NewWithField(ErrCodeInvalidProducer, msgInvalidProducer, "key", key)
}

// NewErrProducerFailed wraps a producer's own error without caching it.
func NewErrProducerFailed(key string, cause error) error {
	return errors.Wrap(cause, ErrCodeProducerFailed, msgProducerFailed).
		WithContext("key", key).
		AsRetryable()
}

// NewErrPanicRecovered reports a recovered producer panic.
func NewErrPanicRecovered(key string, panicValue interface{}) error {
	return errors.NewWithContext(ErrCodePanicRecovered, msgPanicRecovered, map[string]interface{}{
		"key":         key,
		"panic_value": fmt.Sprintf("%v", panicValue),
	}).WithSeverity("critical")
}

// NewErrCancelled reports a cancelled async producer.
func NewErrCancelled(key string, cause error) error {
	return errors.Wrap(cause, ErrCodeCancelled, msgCancelled).WithContext("key", key)
}

// NewErrInternal wraps an unexpected internal failure.
func NewErrInternal(operation string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInternalError, msgInternalError).
			WithContext("operation", operation).
			WithSeverity("warning")
	}
	return errors.NewWithField(ErrCodeInternalError, msgInternalError, "operation", operation).
		WithSeverity("warning")
}

// IsProducerFailure reports whether err came from a failing producer.
func IsProducerFailure(err error) bool {
	return errors.HasCode(err, ErrCodeProducerFailed)
}

// IsCancelled reports whether err came from a cancelled async producer.
func IsCancelled(err error) bool {
	return errors.HasCode(err, ErrCodeCancelled)
}

// IsDisposed reports whether err came from use-after-dispose.
func IsDisposed(err error) bool {
	return errors.HasCode(err, ErrCodeDisposed)
}

// IsEmptyKey reports whether err came from an empty explicit key.
func IsEmptyKey(err error) bool {
	return errors.HasCode(err, ErrCodeEmptyKey)
}

// IsRetryable reports whether err can be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the structured error code from err, if any.
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts the structured error context from err, if any.
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var sparkErr *errors.Error
	if goerrors.As(err, &sparkErr) {
		return sparkErr.Context
	}
	return nil
}
