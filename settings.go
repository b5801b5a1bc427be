package bundlestore

import "sync/atomic"

// Settings is the process-wide, mutable-at-init configuration consumed by
// the allocator and the bundle-id-to-path mapper. It is not safe to mutate
// while allocations are in flight; configure it once at process start via
// [SetSettings].
type Settings struct {
	// MaxBundleSize is the ceiling, in bytes, a bundle file must never
	// exceed after an append.
	MaxBundleSize uint64

	// BundleCountPerDay is the soft ceiling on bundle-id rotation. When
	// the allocator's per-call iteration count exceeds this, it reseeds
	// its candidate id to BundleCountPerDay + random(0..100).
	BundleCountPerDay uint32

	// FileCountLevel1 is the divisor used to compute the first hex path
	// component of a bundle-id.
	FileCountLevel1 uint32

	// FileCountLevel2 is the modulus used to compute the second hex path
	// component of a bundle-id.
	FileCountLevel2 uint32
}

// DefaultSettings mirrors the original store's compiled-in defaults.
func DefaultSettings() Settings {
	return Settings{
		MaxBundleSize:     2 * 1024 * 1024 * 1024, // 2 GiB
		BundleCountPerDay: 20000,
		FileCountLevel1:   50,
		FileCountLevel2:   4000,
	}
}

// settings holds the process-wide configuration. It's stored behind an
// atomic.Value so concurrent readers (the allocator, the path mapper) never
// observe a torn Settings struct, even though SetSettings is meant to be
// called exactly once, before any allocation begins.
var settings atomic.Value // Settings

func init() {
	settings.Store(DefaultSettings())
}

// SetSettings installs the process-wide configuration. Call this once at
// process start, before any call to [Allocator.Allocate] or [ExtractURL]; mutating it
// while allocations are in flight is not supported.
func SetSettings(s Settings) {
	settings.Store(s)
}

// currentSettings returns the active process-wide configuration.
func currentSettings() Settings {
	return settings.Load().(Settings)
}
