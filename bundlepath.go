package bundlestore

import (
	"fmt"
	"path/filepath"
	"strings"
)

// bidToRelPath maps a bundle-id to its two-level relative path component,
// "{bid/level1:08x}/{bid%level2:08x}", limiting directory fan-out.
func bidToRelPath(bid uint32, s Settings) string {
	level1 := bid / s.FileCountLevel1
	level2 := bid % s.FileCountLevel2

	return fmt.Sprintf("%08x/%08x", level1, level2)
}

// trimLeadingSlash strips a single leading '/' from prefix, matching the
// original implementation's handling of caller-supplied prefixes.
func trimLeadingSlash(prefix string) string {
	return strings.TrimPrefix(prefix, "/")
}

// bundleFilePath returns the on-disk path of the bundle file for (prefix, bid)
// under storageRoot.
func bundleFilePath(storageRoot, prefix string, bid uint32, s Settings) string {
	prefix = trimLeadingSlash(prefix)

	return filepath.Join(storageRoot, prefix, bidToRelPath(bid, s))
}

// bundleName joins prefix and the bid's relative path the way URLs encode
// it: always '/'-separated, regardless of OS path conventions, since it's
// reconstructed from (and embedded in) a URL string.
func bundleName(prefix string, bid uint32, s Settings) string {
	prefix = trimLeadingSlash(prefix)

	return prefix + "/" + bidToRelPath(bid, s)
}
