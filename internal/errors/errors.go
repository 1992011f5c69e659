package errors

import "errors"

// Sentinel errors classifying bootstrap failures. Acquisition and
// provisioning classes are recoverable; only command resolution and
// supervisor spawn failures abort the bootstrap.
var (
	ErrConfigInvalid     = errors.New("configuration invalid")
	ErrSourceUnavailable = errors.New("source acquisition failed")
	ErrProvisionFailed   = errors.New("environment provisioning failed")
	ErrCommandUnresolved = errors.New("no start command resolvable")
	ErrSupervisorFailed  = errors.New("supervisor operation failed")
	ErrNetworkFailed     = errors.New("network operation failed")
	ErrFileSystemFailed  = errors.New("filesystem operation failed")
)

// BootstrapError carries operator-facing context alongside the underlying
// error: what was being attempted, why it failed, and what to do about it.
type BootstrapError struct {
	Type        error
	Context     string
	Cause       string
	Suggestion  string
	OriginalErr error
}

func (e *BootstrapError) Error() string {
	return e.OriginalErr.Error()
}

func (e *BootstrapError) Unwrap() error {
	return e.OriginalErr
}

// Is matches against the classifying sentinel so errors.Is(err,
// ErrCommandUnresolved) works through the wrapper.
func (e *BootstrapError) Is(target error) bool {
	return errors.Is(e.Type, target) || errors.Is(e.OriginalErr, target)
}

func NewBootstrapError(errorType error, context, cause, suggestion string, originalErr error) *BootstrapError {
	if originalErr == nil {
		originalErr = errorType
	}
	return &BootstrapError{
		Type:        errorType,
		Context:     context,
		Cause:       cause,
		Suggestion:  suggestion,
		OriginalErr: originalErr,
	}
}

func NewConfigError(context, cause, suggestion string, originalErr error) *BootstrapError {
	return NewBootstrapError(ErrConfigInvalid, context, cause, suggestion, originalErr)
}

func NewSourceError(context, cause, suggestion string, originalErr error) *BootstrapError {
	return NewBootstrapError(ErrSourceUnavailable, context, cause, suggestion, originalErr)
}

func NewProvisionError(context, cause, suggestion string, originalErr error) *BootstrapError {
	return NewBootstrapError(ErrProvisionFailed, context, cause, suggestion, originalErr)
}

func NewResolveError(context, cause, suggestion string, originalErr error) *BootstrapError {
	return NewBootstrapError(ErrCommandUnresolved, context, cause, suggestion, originalErr)
}

func NewSupervisorError(context, cause, suggestion string, originalErr error) *BootstrapError {
	return NewBootstrapError(ErrSupervisorFailed, context, cause, suggestion, originalErr)
}

func NewNetworkError(context, cause, suggestion string, originalErr error) *BootstrapError {
	return NewBootstrapError(ErrNetworkFailed, context, cause, suggestion, originalErr)
}

func NewFileSystemError(context, cause, suggestion string, originalErr error) *BootstrapError {
	return NewBootstrapError(ErrFileSystemFailed, context, cause, suggestion, originalErr)
}
