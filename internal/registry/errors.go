package registry

import "errors"

// Domain errors. These are the catchable failure modes of the registry;
// all are detected before any state mutation.
var (
	// ErrOwnerAlreadyInitialized is returned by Initialize when the owner
	// has already been set.
	ErrOwnerAlreadyInitialized = errors.New("owner already initialized")

	// ErrAccessDenied is returned by write operations when the caller is an
	// address but not the stored owner.
	ErrAccessDenied = errors.New("access denied: caller is not the owner")

	// ErrCallerNotAddress is the reason carried by the abort raised when a
	// caller identity is not address-shaped.
	ErrCallerNotAddress = errors.New("caller is not an address")
)

// AbortError is the unrecoverable failure channel, distinct from the
// catchable domain errors above. Hosts must fail the whole call and must not
// surface it as a structured domain error.
type AbortError struct {
	Reason error
}

// Error implements the error interface.
func (e *AbortError) Error() string {
	return "call aborted: " + e.Reason.Error()
}

// Unwrap exposes the abort reason for errors.Is inspection.
func (e *AbortError) Unwrap() error {
	return e.Reason
}

// NewAbort wraps reason in the abort channel.
func NewAbort(reason error) error {
	return &AbortError{Reason: reason}
}

// IsAbort reports whether err travels on the unrecoverable abort channel.
func IsAbort(err error) bool {
	var abort *AbortError
	return errors.As(err, &abort)
}
