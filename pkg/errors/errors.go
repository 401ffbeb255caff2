package errors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidData     = errors.New("invalid data type")
	ErrMalformedEntity = errors.New("malformed entity")
	ErrMissingID       = errors.New("missing container id")

	// ErrCollection is a transient failure reading one container's stats.
	ErrCollection = errors.New("failed to collect container stats")

	// ErrUnreachable means the container runtime itself cannot be reached.
	ErrUnreachable = errors.New("container runtime unreachable")

	// ErrNoBaseline is returned for a container's first stats reading,
	// which has nothing to compute CPU usage against.
	ErrNoBaseline = errors.New("no previous stats reading")

	ErrInvalidTransition = errors.New("invalid container state transition")
	ErrArchiveDisabled   = errors.New("sample archive disabled")
)
