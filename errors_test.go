package sparkcache

import (
	"errors"
	"testing"
)

func TestErrorPredicates_ProducerFailure(t *testing.T) {
	err := NewErrProducerFailed("k", errors.New("downstream failure"))
	if !IsProducerFailure(err) {
		t.Error("expected IsProducerFailure to recognize NewErrProducerFailed")
	}
	if IsCancelled(err) || IsDisposed(err) || IsEmptyKey(err) {
		t.Error("expected other predicates to report false for a producer failure")
	}
	if !IsRetryable(err) {
		t.Error("expected a producer failure to be retryable")
	}
}

func TestErrorPredicates_Cancelled(t *testing.T) {
	err := NewErrCancelled("k", errors.New("context deadline exceeded"))
	if !IsCancelled(err) {
		t.Error("expected IsCancelled to recognize NewErrCancelled")
	}
}

func TestErrorPredicates_Disposed(t *testing.T) {
	err := NewErrDisposed("GetOrCompute")
	if !IsDisposed(err) {
		t.Error("expected IsDisposed to recognize NewErrDisposed")
	}
}

func TestErrorPredicates_EmptyKey(t *testing.T) {
	err := NewErrEmptyKey("GetOrCompute")
	if !IsEmptyKey(err) {
		t.Error("expected IsEmptyKey to recognize NewErrEmptyKey")
	}
}

func TestErrorPredicates_NilError(t *testing.T) {
	if IsProducerFailure(nil) || IsCancelled(nil) || IsDisposed(nil) || IsEmptyKey(nil) || IsRetryable(nil) {
		t.Error("expected all predicates to report false for a nil error")
	}
	if GetErrorCode(nil) != "" {
		t.Error("expected an empty error code for a nil error")
	}
	if GetErrorContext(nil) != nil {
		t.Error("expected a nil context for a nil error")
	}
}

func TestGetErrorCode(t *testing.T) {
	err := NewErrInvalidRetention(-5)
	if GetErrorCode(err) != ErrCodeInvalidRetention {
		t.Errorf("expected ErrCodeInvalidRetention, got %v", GetErrorCode(err))
	}
}

func TestGetErrorContext(t *testing.T) {
	err := NewErrInvalidTopN("MaxTopSlowest", -3)
	ctx := GetErrorContext(err)
	if ctx == nil {
		t.Fatal("expected a non-nil error context")
	}
	if ctx["field"] != "MaxTopSlowest" {
		t.Errorf("expected field=MaxTopSlowest in context, got %v", ctx["field"])
	}
}

func TestNewErrPanicRecovered_CarriesPanicValue(t *testing.T) {
	err := NewErrPanicRecovered("k", "boom")
	if GetErrorCode(err) != ErrCodePanicRecovered {
		t.Errorf("expected ErrCodePanicRecovered, got %v", GetErrorCode(err))
	}
	ctx := GetErrorContext(err)
	if ctx["panic_value"] != "boom" {
		t.Errorf("expected panic_value=boom in context, got %v", ctx["panic_value"])
	}
}

func TestNewErrInternal_WrapsCauseWhenPresent(t *testing.T) {
	cause := errors.New("disk full")
	err := NewErrInternal("Compact", cause)
	if GetErrorCode(err) != ErrCodeInternalError {
		t.Errorf("expected ErrCodeInternalError, got %v", GetErrorCode(err))
	}
	unwrapped := errors.Unwrap(err)
	if unwrapped == nil || unwrapped.Error() != cause.Error() {
		t.Errorf("expected the cause to be unwrappable, got %v", unwrapped)
	}
}

func TestNewErrInternal_WithoutCause(t *testing.T) {
	err := NewErrInternal("Compact", nil)
	if GetErrorCode(err) != ErrCodeInternalError {
		t.Errorf("expected ErrCodeInternalError, got %v", GetErrorCode(err))
	}
}
