package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrJobNotFound        = errors.New("processing job not found")
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrProcessingConflict = errors.New("processing already in flight")
	ErrInsufficientData   = errors.New("insufficient data")
	ErrPoolClosed         = errors.New("recognition pool closed")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTemporary          = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
