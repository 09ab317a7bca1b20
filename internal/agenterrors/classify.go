package agenterrors

import "errors"

// Class is the failure taxonomy from the error-handling design: every
// terminal command failure is classified as exactly one of these.
type Class string

const (
	// TransientNetwork marks a control-plane or object-store I/O failure.
	// Never propagated by the polling/heartbeat loops; surfaced to the
	// user only when it fronts a handler step.
	TransientNetwork Class = "TransientNetwork"
	// ExternalToolFailure marks a non-zero exit from a shell tool.
	ExternalToolFailure Class = "ExternalToolFailure"
	// InputValidation marks an invalid namespace/appName rejected before
	// any shell invocation that would interpolate it.
	InputValidation Class = "InputValidation"
	// Timeout marks a hard deadline (clone, build, import, db op, …)
	// expiring.
	Timeout Class = "Timeout"
	// UnknownKind marks a dispatch-time failure for an unrecognised
	// command kind.
	UnknownKind Class = "UnknownKind"
	// CleanupBestEffort marks a failure during workspace or temp-file
	// removal; always logged and swallowed, never surfaced as the
	// command's terminal error.
	CleanupBestEffort Class = "CleanupBestEffort"
)

// classifiedError pairs a Class with the wrapped cause so callers can
// errors.As and branch on class without string matching.
type classifiedError struct {
	class Class
	cause error
}

func (e *classifiedError) Error() string {
	if e.cause == nil {
		return string(e.class)
	}
	return string(e.class) + ": " + e.cause.Error()
}

func (e *classifiedError) Unwrap() error { return e.cause }

// Classify wraps err with a taxonomy Class.
func Classify(class Class, err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{class: class, cause: err}
}

// ClassOf returns the Class attached to err via Classify, and whether one
// was found at all.
func ClassOf(err error) (Class, bool) {
	var ce *classifiedError
	if errors.As(err, &ce) {
		return ce.class, true
	}
	return "", false
}
