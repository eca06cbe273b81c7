package report

import "errors"

// Domain errors for dataset switching and view rendering.
var (
	// ErrFetchFailed matches every failure to obtain a dataset from the server.
	ErrFetchFailed = errors.New("dataset fetch failed")

	// ErrMalformedResponse indicates the server answered but the payload is unusable.
	ErrMalformedResponse = errors.New("malformed dataset response")

	// ErrTransitionInFlight indicates another mode switch is still running.
	ErrTransitionInFlight = errors.New("mode transition already in progress")

	// ErrMissingTarget indicates a view has nowhere to draw itself.
	ErrMissingTarget = errors.New("render target not available")

	// ErrInvalidMode indicates an unknown mode value.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrInvalidDataset indicates a dataset breaks its ordering invariant.
	ErrInvalidDataset = errors.New("invalid dataset")
)

// FetchError describes a failed dataset fetch.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, ErrFetchFailed) for every FetchError.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}
