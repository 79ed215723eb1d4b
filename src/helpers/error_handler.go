package helpers

import (
	"fmt"
	"time"

	"market-sim/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type MarketSimError struct {
	Message string
	Cause   error
}

func (e *MarketSimError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *MarketSimError) Unwrap() error {
	return e.Cause
}

// Helper to define distinct error types for type assertions if needed
type ConfigurationError struct{ MarketSimError }
type StoreError struct{ MarketSimError }
type ValidationError struct{ MarketSimError }

// -----------------------------------------------------------------------------

// NewStoreError wraps a durable-store failure.
func NewStoreError(message string, cause error) *StoreError {
	return &StoreError{MarketSimError{Message: message, Cause: cause}}
}

// NewValidationError describes rejected input.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{MarketSimError{Message: fmt.Sprintf(format, args...)}}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts to execute the operation up to maxRetries times
// with exponential backoff. Used at startup where the store may not be
// reachable yet; periodic work relies on the next scheduled run instead.
func RetryWithBackoff(log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries, operation, err, delay)
		time.Sleep(delay)
	}

	return &MarketSimError{Message: fmt.Sprintf("%s failed after %d attempts", operation, maxRetries), Cause: lastErr}
}
