package versatility

import "errors"

// Sentinel errors. Callers match them with errors.Is; they are always
// returned wrapped with the offending detail.
var (
	// ErrInvalidInput reports a malformed argument: a non-square or empty
	// adjacency matrix, a non-positive iteration or worker count, or a
	// consensus matrix with entries outside [0,1].
	ErrInvalidInput = errors.New("versatility: invalid input")

	// ErrMissingConfiguration reports that a sweep has no parameters and its
	// detector declares no defaults, or that no detector was given.
	ErrMissingConfiguration = errors.New("versatility: missing configuration")

	// ErrUnsupportedConfiguration reports a parallel run requested while
	// parallel execution is disabled.
	ErrUnsupportedConfiguration = errors.New("versatility: unsupported configuration")
)
