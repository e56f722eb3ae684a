// Package errdefs defines the error taxonomy shared by the dataset,
// transform, model and stats packages.
//
// Callers branch on the sentinels with errors.Is; the typed errors carry
// the details (column name, operation, underlying engine failure).
package errdefs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownColumn marks a reference to a column absent from the dataset.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrInvalidState marks a structurally nonsensical request.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnsupportedEstimator marks an estimator name the engine does not know.
	ErrUnsupportedEstimator = fmt.Errorf("unsupported estimator: %w", ErrInvalidState)
	// ErrEstimation marks a statistics engine that could not produce a fit.
	ErrEstimation = errors.New("fit failed")
	// ErrStaleFit marks a fit result read after the specification changed.
	ErrStaleFit = errors.New("fit result is stale; refit the model")
	// ErrNoFit marks a diagnostic requested before any successful fit.
	ErrNoFit = errors.New("model has not been fitted")
)

// UnknownColumnError names the missing column.
type UnknownColumnError struct {
	Name string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q: not a column in the data", e.Name)
}

func (e *UnknownColumnError) Is(target error) bool { return target == ErrUnknownColumn }

// UnknownColumn returns an *UnknownColumnError for name.
func UnknownColumn(name string) error { return &UnknownColumnError{Name: name} }

// InvalidStateError describes why an operation was rejected.
type InvalidStateError struct {
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	if e.Op == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// InvalidState builds an *InvalidStateError with a formatted reason.
func InvalidState(op, format string, args ...any) error {
	return &InvalidStateError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// EstimationError wraps the cause reported by an estimator.
type EstimationError struct {
	Estimator string
	Err       error
}

func (e *EstimationError) Error() string {
	if e == nil {
		return ErrEstimation.Error()
	}
	return fmt.Sprintf("%s %s: %v", e.Estimator, ErrEstimation.Error(), e.Err)
}

func (e *EstimationError) Unwrap() error { return e.Err }

func (e *EstimationError) Is(target error) bool { return target == ErrEstimation }

// Estimation wraps cause as an *EstimationError.
func Estimation(estimator string, cause error) error {
	return &EstimationError{Estimator: estimator, Err: cause}
}
