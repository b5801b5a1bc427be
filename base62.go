package bundlestore

// base62Alphabet is the 62-symbol alphabet used by [toBase62] and
// [fromBase62]. Its ordering is part of the external contract: every writer
// and reader of a bundlestore URL must agree on it bit-for-bit.
const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// base62Index maps an ASCII byte to its digit value in base62Alphabet, or
// 0xFF if the byte is not part of the alphabet.
var base62Index = func() [256]byte {
	var idx [256]byte
	for i := range idx {
		idx[i] = 0xFF
	}
	for digit, ch := range []byte(base62Alphabet) {
		idx[ch] = byte(digit)
	}
	return idx
}()

// toBase62 encodes u using base62Alphabet. Zero encodes to "0"; there is no
// padding.
func toBase62(u uint64) string {
	if u == 0 {
		return "0"
	}

	var buf [11]byte // ceil(64 / log2(62)) = 11 digits covers uint64
	i := len(buf)

	for u > 0 {
		i--
		buf[i] = base62Alphabet[u%62]
		u /= 62
	}

	return string(buf[i:])
}

// fromBase62 decodes s, returning (value, true) on success. It returns
// (0, false) for empty input, any character outside base62Alphabet, or a
// value that overflows uint64.
func fromBase62(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}

	const maxUint64 = ^uint64(0)

	var u uint64

	for i := 0; i < len(s); i++ {
		digit := base62Index[s[i]]
		if digit == 0xFF {
			return 0, false
		}

		if u > (maxUint64-uint64(digit))/62 {
			return 0, false // overflow
		}

		u = u*62 + uint64(digit)
	}

	return u, true
}
