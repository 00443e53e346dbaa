package logging

import (
	"errors"
	"fmt"
)

// OperationError annotates an error with operation metadata.
type OperationError struct {
	Operation string
	RequestID string
	Bucket    string
	Key       string
	Err       error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	target := e.Bucket
	if e.Key != "" {
		target = e.Bucket + "/" + e.Key
	}
	switch {
	case e.RequestID != "" && target != "":
		return fmt.Sprintf("%s %s (request_id=%s): %v", e.Operation, target, e.RequestID, e.Err)
	case e.RequestID != "":
		return fmt.Sprintf("%s (request_id=%s): %v", e.Operation, e.RequestID, e.Err)
	case target != "":
		return fmt.Sprintf("%s %s: %v", e.Operation, target, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithTarget attaches the bucket and object key the operation worked on.
func (e *OperationError) WithTarget(bucket, key string) *OperationError {
	e.Bucket = bucket
	e.Key = key
	return e
}

// NewOperationError wraps an error with structured context about where it occurred.
func NewOperationError(operation, requestID string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Operation: operation, RequestID: requestID, Err: err}
}

// NewTargetError wraps an error with operation metadata and the bucket/key it concerns.
func NewTargetError(operation, requestID, bucket, key string, err error) error {
	if err == nil {
		return nil
	}
	return (&OperationError{Operation: operation, RequestID: requestID, Err: err}).WithTarget(bucket, key)
}

// RequestIDOf returns the request id carried by the outermost OperationError in err's chain.
func RequestIDOf(err error) string {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.RequestID
	}
	return ""
}
