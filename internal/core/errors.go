package core

import (
	"errors"
	"fmt"
)

// NotFoundError represents a resource that could not be found.
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// IsNotFound checks if an error is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ValidationError represents a single input validation failure.
// Mirrors the per-field validation pattern used by the Dixon-Coles MLE
// solver's league-group checks, extended with the taxonomy of spec.md §7.
type ValidationError struct {
	Field   string
	Kind    string // e.g. "OddsOutOfRange", "TeamNotFound", "UnknownLeague"
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
}

// ValidationErrors aggregates multiple ValidationError values.
type ValidationErrors struct {
	Errors []ValidationError
}

func (e ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	msg := e.Errors[0].Error()
	for _, err := range e.Errors[1:] {
		msg += "; " + err.Error()
	}
	return msg
}

// Sentinel error kinds. Wrapped with fmt.Errorf("%w: detail", Err...) at
// the call site so callers can still errors.Is against the kind while
// the message carries the offending value.
var (
	// Validation errors: reported to caller, no state change.
	ErrOddsOutOfRange            = errors.New("OddsOutOfRange")
	ErrTeamNotFound              = errors.New("TeamNotFound")
	ErrUnknownLeague             = errors.New("UnknownLeague")
	ErrFixtureInPastWithoutResult = errors.New("FixtureInPastWithoutResult")
	ErrInvalidFingerprintInputs  = errors.New("InvalidFingerprintInputs")

	// Model errors: reported; prediction refused.
	ErrNoActiveModel           = errors.New("NoActiveModel")
	ErrModelVersionMismatch    = errors.New("ModelVersionMismatch")
	ErrInvalidModelParameters  = errors.New("InvalidModelParameters")

	// Numerical errors: one automatic remediation attempt, then reported.
	ErrProbabilityInvariantViolation = errors.New("ProbabilityInvariantViolation")
	ErrDegenerateBaseTriplet         = errors.New("DegenerateBaseTriplet")

	// Training errors: abort the training task, no partial version persisted.
	ErrTrainingFailed    = errors.New("TrainingFailed")
	ErrInsufficientData  = errors.New("InsufficientData")
	ErrOptimizerDiverged = errors.New("OptimizerDiverged")

	// Concurrency errors: retryable with backoff by caller.
	ErrActivationRaceLost = errors.New("ActivationRaceLost")
)

// wrapf wraps a sentinel error kind with a formatted detail message,
// preserving errors.Is(err, kind).
func wrapf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{kind}, args...)...)
}
