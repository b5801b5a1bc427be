package bundlestore

import "errors"

// Error kinds returned by bundlestore operations. Callers classify errors
// with [errors.Is]; operations wrap these with additional context using
// fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidArgument is returned for an empty URL. User-data is
	// returned as a fixed-size array, so there is no caller buffer that
	// could be too small to receive it.
	ErrInvalidArgument = errors.New("bundlestore: invalid argument")

	// ErrURLDecode is returned when a URL fails to parse: a base-62 decode
	// failure, a structural split failure (too few '/' or no '.'), or a
	// hash mismatch against the recomputed canonical string.
	ErrURLDecode = errors.New("bundlestore: url decode failed")

	// ErrNotFound is returned when the bundle file a URL (or a writer)
	// addresses does not exist.
	ErrNotFound = errors.New("bundlestore: bundle file not found")

	// ErrIO is returned for short reads/writes, seek failures, and record
	// header validation failures (bad magic, version, flag, or a stored
	// length smaller than the requested length).
	ErrIO = errors.New("bundlestore: i/o error")

	// ErrResource is returned when the lock directory, a bundle's parent
	// directory, or the bundle file itself cannot be created.
	ErrResource = errors.New("bundlestore: resource creation failed")
)
