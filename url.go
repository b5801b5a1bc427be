package bundlestore

import (
	"fmt"
	"strconv"
	"strings"
)

// BuildURL builds a self-verifying blob URL for (bid, offset, length) under
// prefix, with postfix appended verbatim (conventionally starting with
// '.', e.g. ".jpg").
//
// The printable URL uses base-62 for its numeric fields:
//
//	{prefix}/{base62(bid)}/{base62(offset)}/{base62(length)}/{base62(hash32)}{postfix}
//
// hash32 is Murmur2 of a *different*, hex-encoded canonical string (see
// canonicalString); this asymmetry is intentional and load-bearing, not a
// bug to "fix" by normalizing one representation to the other.
func BuildURL(prefix, postfix string, bid uint32, offset, length uint64) string {
	canonical := canonicalString(prefix, postfix, bid, offset, length)
	hash := murmur2([]byte(canonical), 0)

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('/')
	b.WriteString(toBase62(uint64(bid)))
	b.WriteByte('/')
	b.WriteString(toBase62(offset))
	b.WriteByte('/')
	b.WriteString(toBase62(length))
	b.WriteByte('/')
	b.WriteString(toBase62(uint64(hash)))
	b.WriteString(postfix)

	return b.String()
}

// canonicalString renders the hex form that feeds Murmur2. Per spec this is
// asymmetric with the base-62 URL: lowercase hex with no leading zeros, no
// "0x" prefix, and length/postfix concatenated with NO separator (while the
// base-62 URL separates every field with '/').
func canonicalString(prefix, postfix string, bid uint32, offset, length uint64) string {
	return prefix + "/" +
		strconv.FormatUint(uint64(bid), 16) + "/" +
		strconv.FormatUint(offset, 16) + "/" +
		strconv.FormatUint(length, 16) +
		postfix
}

// ExtractedURL is the result of successfully parsing and hash-verifying a
// URL: the bundle's on-disk relative name (prefix + "/" + bid's hex path)
// plus the offset and length of the record it addresses.
type ExtractedURL struct {
	BundleName string
	Offset     uint64
	Length     uint64
}

// ExtractURL is the default URL extractor: it parses url from the right,
// decodes its four base-62 fields, recomputes the hex canonical string and
// its Murmur2 hash, and rejects the URL unless the recomputed hash matches
// the one embedded in it.
//
// ExtractURL is a pure function: on any failure it returns
// (ExtractedURL{}, err) without touching the filesystem, where err wraps
// [ErrInvalidArgument] for an empty url and [ErrURLDecode] otherwise.
func ExtractURL(url string) (ExtractedURL, error) {
	if url == "" {
		return ExtractedURL{}, fmt.Errorf("%w: empty url", ErrInvalidArgument)
	}

	dot := strings.LastIndexByte(url, '.')
	if dot < 0 {
		return ExtractedURL{}, fmt.Errorf("%w: no '.' separating postfix", ErrURLDecode)
	}

	left, postfixBody := url[:dot], url[dot+1:]

	// Split left at the rightmost four '/' characters: prefix / bid /
	// offset / length / hash.
	var fields [4]string

	rest := left
	for i := 3; i >= 0; i-- {
		idx := strings.LastIndexByte(rest, '/')
		if idx < 0 {
			return ExtractedURL{}, fmt.Errorf("%w: too few '/' separated fields", ErrURLDecode)
		}

		fields[i] = rest[idx+1:]
		rest = rest[:idx]
	}

	prefix := rest

	bid, ok := fromBase62(fields[0])
	if !ok || bid > 0xFFFFFFFF {
		return ExtractedURL{}, fmt.Errorf("%w: bad bid field %q", ErrURLDecode, fields[0])
	}

	offset, ok := fromBase62(fields[1])
	if !ok {
		return ExtractedURL{}, fmt.Errorf("%w: bad offset field %q", ErrURLDecode, fields[1])
	}

	length, ok := fromBase62(fields[2])
	if !ok {
		return ExtractedURL{}, fmt.Errorf("%w: bad length field %q", ErrURLDecode, fields[2])
	}

	hash, ok := fromBase62(fields[3])
	if !ok || hash > 0xFFFFFFFF {
		return ExtractedURL{}, fmt.Errorf("%w: bad hash field %q", ErrURLDecode, fields[3])
	}

	canonical := canonicalString(prefix, "."+postfixBody, uint32(bid), offset, length)
	if murmur2([]byte(canonical), 0) != uint32(hash) {
		return ExtractedURL{}, fmt.Errorf("%w: hash mismatch", ErrURLDecode)
	}

	return ExtractedURL{
		BundleName: bundleName(prefix, uint32(bid), currentSettings()),
		Offset:     offset,
		Length:     length,
	}, nil
}
