package rangecoder

import "github.com/pkg/errors"

// Sentinel error kinds, per spec.md §7. Every fallible operation wraps one
// of these with errors.Wrap so callers can both match with errors.Is and
// read a human-readable trail of what failed.
var (
	// ErrInvalidArgument is returned for a zero alphabet, a nil stream, a
	// non-growing expand, or a nil restore_state argument.
	ErrInvalidArgument = errors.New("rangecoder: invalid argument")

	// ErrOutOfMemory is returned when a model table allocation would
	// overflow addressable memory. Go's allocator panics rather than
	// returning an error on real exhaustion; this only fires for sizes
	// that are invalid on their face (e.g. a negative-looking count after
	// an overflowing computation), which is as close as this runtime gets
	// to the source's allocation-failure path.
	ErrOutOfMemory = errors.New("rangecoder: out of memory")

	// ErrSymbolOutOfRange is returned by EncodeSymbol/DecodeSymbol-adjacent
	// operations when a symbol index falls outside [0, N). The source
	// leaves this undefined and silently corrupts the table; this
	// implementation validates instead (SPEC_FULL.md §9, decision 2).
	ErrSymbolOutOfRange = errors.New("rangecoder: symbol out of range")

	// ErrStreamFault wraps an error surfaced by the underlying BitWriter or
	// BitReader. Coder state is unspecified after this error; callers
	// should discard the coder.
	ErrStreamFault = errors.New("rangecoder: stream fault")
)
