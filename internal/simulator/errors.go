package simulator

import "errors"

var (
	// ErrInvalidArgument reports a batch request that can never be simulated:
	// bad run counts, misaligned inputs or a field of the wrong size.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNumericDegenerate reports a strength that is NaN or infinite.
	ErrNumericDegenerate = errors.New("numeric degenerate strength")
)
