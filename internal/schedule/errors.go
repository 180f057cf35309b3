package schedule

import (
	"errors"
	"fmt"
)

// ConfigError represents a configuration problem detected before any
// session-specific randomness is consumed.
//
// Configuration errors are fatal by design: the scheduler must refuse to
// build a schedule rather than return one that violates its invariants.
//
// Categories:
//   - Indivisible pool: pool size not divisible by items-per-trial (strict mode)
//   - Split exceeds pool: group counts sum past the available ids
//   - Trial exceeds pool: items-per-trial larger than the pool
//   - Bad ratio: hidden-class ratio outside [0, 1]
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Field names the offending configuration parameter.
	Field string

	// Message is a human-readable description.
	Message string
}

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeIndivisiblePool indicates pool size is not divisible by
	// items-per-trial under strict scheduling.
	ErrCodeIndivisiblePool ConfigErrorCode = "INDIVISIBLE_POOL"

	// ErrCodeSplitExceedsPool indicates the group split requests more ids
	// than the pool contains.
	ErrCodeSplitExceedsPool ConfigErrorCode = "SPLIT_EXCEEDS_POOL"

	// ErrCodeTrialExceedsPool indicates items-per-trial exceeds the pool size.
	ErrCodeTrialExceedsPool ConfigErrorCode = "TRIAL_EXCEEDS_POOL"

	// ErrCodeBadRatio indicates a class ratio outside [0, 1].
	ErrCodeBadRatio ConfigErrorCode = "BAD_RATIO"

	// ErrCodeBadParameter indicates a non-positive count parameter.
	ErrCodeBadParameter ConfigErrorCode = "BAD_PARAMETER"

	// ErrCodeUnsatisfiable indicates the requested block composition cannot
	// be arranged into trials without a within-trial repeat.
	ErrCodeUnsatisfiable ConfigErrorCode = "UNSATISFIABLE"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigError returns true if err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func newConfigError(code ConfigErrorCode, field, format string, args ...any) *ConfigError {
	return &ConfigError{
		Code:    code,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}
