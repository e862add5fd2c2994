package photoflat

import (
	"context"
	"errors"
	"fmt"
)

// ErrTerminated is returned by an operation that observed a cancellation
// request and stopped early. It is an outcome, not a failure.
var ErrTerminated = fmt.Errorf("operation terminated: %w", context.Canceled)

// ConfigError reports an invalid configuration. It is always returned before
// any filesystem mutation happens.
type ConfigError struct {
	Field string
	Path  string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid %s %s: %v", e.Field, e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// MutationError reports a failed remove, mkdir or link under the target.
type MutationError struct {
	Op   string
	Path string
	Err  error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is, or wraps, a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsMutationError reports whether err is, or wraps, a *MutationError.
func IsMutationError(err error) bool {
	var me *MutationError
	return errors.As(err, &me)
}

// checkCanceled is the cooperative cancellation checkpoint.
func checkCanceled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ErrTerminated
	default:
		return nil
	}
}
