package bundlestore

import (
	"encoding/binary"
	"fmt"
	"time"
)

// On-disk format constants shared bit-for-bit by every writer and reader of
// a bundle file.
const (
	// bundleHeaderSize is the fixed size, in bytes, of the header at the
	// start of every bundle file.
	bundleHeaderSize = 4096

	// align1K is the record-alignment granularity. Every record starts at
	// a multiple of this value, measured from the start of the file.
	align1K = 1024

	// recordMagic identifies the start of a record header.
	recordMagic uint32 = 0xB0D1E55E

	// recordVersion is the only record-header version this package writes
	// or accepts.
	recordVersion uint32 = 1

	// flagNormal marks a live, fully-written record. Every other flag
	// value is reserved; readers reject them.
	flagNormal uint32 = 0

	// urlFieldSize is the fixed width, in bytes, of the NUL-padded URL
	// field embedded in a record header.
	urlFieldSize = 512

	// userDataSize is the fixed width, in bytes, of the NUL-padded
	// user-data field embedded in a record header.
	userDataSize = 128

	// recordHeaderSize is the fixed size, in bytes, of a record header:
	// magic(4) + length(8) + version(4) + flag(4) + url(urlFieldSize) +
	// user_data(userDataSize). Packed with no gap-inducing alignment.
	recordHeaderSize = 4 + 8 + 4 + 4 + urlFieldSize + userDataSize
)

// Record header field offsets, in the order they're laid out on disk.
const (
	offRecordMagic    = 0
	offRecordLength   = offRecordMagic + 4
	offRecordVersion  = offRecordLength + 8
	offRecordFlag     = offRecordVersion + 4
	offRecordURL      = offRecordFlag + 4
	offRecordUserData = offRecordURL + urlFieldSize
)

// Compile-time cross-check that the offset table and the declared size
// agree: indexing a 1-element array with anything but 0 fails to compile.
var _ = [1]struct{}{}[recordHeaderSize-(offRecordUserData+userDataSize)]

// align1KUp rounds x up to the next multiple of align1K.
func align1KUp(x uint64) uint64 {
	return (x + align1K - 1) / align1K * align1K
}

// recordHeader is the decoded form of a record's fixed-size header.
type recordHeader struct {
	Magic   uint32
	Length  uint64
	Version uint32
	Flag    uint32
	URL     string // decoded up to the first NUL
	UserData [userDataSize]byte
}

// encodeRecordHeader serializes a record header plus payload plus zero
// padding into a single Align1K-sized buffer, ready to be written at a
// record's offset in one contiguous write.
func encodeRecordHeader(url string, payloadLen uint64, userData []byte) []byte {
	total := align1KUp(recordHeaderSize + payloadLen)
	buf := make([]byte, total)

	binary.LittleEndian.PutUint32(buf[offRecordMagic:], recordMagic)
	binary.LittleEndian.PutUint64(buf[offRecordLength:], payloadLen)
	binary.LittleEndian.PutUint32(buf[offRecordVersion:], recordVersion)
	binary.LittleEndian.PutUint32(buf[offRecordFlag:], flagNormal)

	copy(buf[offRecordURL:offRecordURL+urlFieldSize], url)

	n := len(userData)
	if n > userDataSize {
		n = userDataSize
	}
	copy(buf[offRecordUserData:offRecordUserData+userDataSize], userData[:n])

	return buf
}

// decodeRecordHeader parses the first recordHeaderSize bytes of buf. buf
// must be at least recordHeaderSize bytes; callers read exactly that many
// bytes off disk before calling this.
func decodeRecordHeader(buf []byte) (recordHeader, error) {
	if len(buf) < recordHeaderSize {
		return recordHeader{}, fmt.Errorf("%w: short record header (%d bytes)", ErrIO, len(buf))
	}

	var h recordHeader
	h.Magic = binary.LittleEndian.Uint32(buf[offRecordMagic:])
	h.Length = binary.LittleEndian.Uint64(buf[offRecordLength:])
	h.Version = binary.LittleEndian.Uint32(buf[offRecordVersion:])
	h.Flag = binary.LittleEndian.Uint32(buf[offRecordFlag:])
	h.URL = nulTerminatedString(buf[offRecordURL : offRecordURL+urlFieldSize])
	copy(h.UserData[:], buf[offRecordUserData:offRecordUserData+userDataSize])

	return h, nil
}

// validate checks the record header against the fixed on-disk contract and
// the length the caller is requesting.
func (h recordHeader) validate(requestedLength uint64) error {
	if h.Magic != recordMagic {
		return fmt.Errorf("%w: bad magic %#x", ErrIO, h.Magic)
	}
	if h.Version != recordVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrIO, h.Version)
	}
	if h.Flag != flagNormal {
		return fmt.Errorf("%w: non-normal flag %d", ErrIO, h.Flag)
	}
	if h.Length < requestedLength {
		return fmt.Errorf("%w: stored length %d smaller than requested %d", ErrIO, h.Length, requestedLength)
	}

	return nil
}

// nulTerminatedString returns the portion of b before its first NUL byte.
func nulTerminatedString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}

	return string(b)
}

// bundleHeaderPrefix is the fixed textual prefix every bundle header
// begins with, before the creation timestamp. Checked by tests to pin the
// bundle-header-inviolability invariant; the reader does not check it.
const bundleHeaderPrefix = "bundle file store\n1.0\n"

// encodeBundleHeader renders the fixed bundleHeaderSize-byte header written
// once, when a bundle file is created.
func encodeBundleHeader(createdAt time.Time) []byte {
	buf := make([]byte, bundleHeaderSize)
	text := bundleHeaderPrefix + createdAt.Format("2006-01-02 15:04:05") + "\n"
	copy(buf, text)

	return buf
}
