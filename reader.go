package bundlestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	bsfs "github.com/fileslot/bundlestore/pkg/fs"
)

// Reader reads blobs out of a storage root addressed by URL. The zero value
// is not usable; construct one with [NewReader], use [NewReaderWithFS] to
// inject a fake filesystem, and [Reader.WithExtractor] to inject an
// alternative extractor (spec.md §4.9's build/extract polymorphism).
type Reader struct {
	fs      bsfs.FS
	extract func(string) (ExtractedURL, error)
}

// NewReader returns a Reader backed by the real filesystem and the default
// base-62-with-hash URL extractor.
func NewReader() *Reader {
	return NewReaderWithFS(bsfs.NewReal())
}

// NewReaderWithFS returns a Reader backed by fsys, using the default URL
// extractor.
func NewReaderWithFS(fsys bsfs.FS) *Reader {
	return &Reader{fs: fsys, extract: ExtractURL}
}

// WithExtractor returns a copy of r that uses extract instead of the
// default [ExtractURL]. This is the "inject an alternative extractor"
// capability spec.md §9 calls out.
func (r *Reader) WithExtractor(extract func(string) (ExtractedURL, error)) *Reader {
	return &Reader{fs: r.fs, extract: extract}
}

// Read resolves url under storageRoot, validates the record it addresses,
// and returns its payload and user-data.
//
// Read performs no locking: records are immutable once written, so a
// concurrent writer to the same bundle (a different, later record) cannot
// affect an in-flight read of an earlier one.
func (r *Reader) Read(url, storageRoot string) (payload []byte, userData [userDataSize]byte, err error) {
	extracted, err := r.extract(url)
	if err != nil {
		return nil, userData, err
	}

	buf := make([]byte, extracted.Length)

	n, userData, err := r.readAt(extracted.BundleName, extracted.Offset, extracted.Length, buf, storageRoot)
	if err != nil {
		return nil, userData, err
	}

	return buf[:n], userData, nil
}

// ReadAt reads the record at (bundleName, offset, length) directly, without
// going through a URL. bundleName is the value [ExtractedURL.BundleName]
// would have produced, i.e. "prefix/bid-hex-path" relative to storageRoot.
// This is the raw overload the original implementation exposes alongside
// its URL-level Read.
func (r *Reader) ReadAt(bundleName string, offset, length uint64, buf []byte, storageRoot string) (int, [userDataSize]byte, error) {
	return r.readAt(bundleName, offset, length, buf, storageRoot)
}

func (r *Reader) readAt(bundleName string, offset, length uint64, buf []byte, storageRoot string) (int, [userDataSize]byte, error) {
	var userData [userDataSize]byte

	path := filepath.Join(storageRoot, bundleName)

	f, err := r.fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, userData, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return 0, userData, fmt.Errorf("%w: open %s: %v", ErrIO, path, err)
	}
	defer f.Close()

	if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
		return 0, userData, fmt.Errorf("%w: seek: %v", ErrIO, err)
	}

	headerBuf := make([]byte, recordHeaderSize)
	if _, err := io.ReadFull(f, headerBuf); err != nil {
		return 0, userData, fmt.Errorf("%w: short header read: %v", ErrIO, err)
	}

	header, err := decodeRecordHeader(headerBuf)
	if err != nil {
		return 0, userData, err
	}

	if err := header.validate(length); err != nil {
		return 0, userData, err
	}

	want := length
	if uint64(len(buf)) < want {
		want = uint64(len(buf))
	}

	n, err := io.ReadFull(f, buf[:want])
	if err != nil {
		return 0, userData, fmt.Errorf("%w: short payload read: %v", ErrIO, err)
	}

	userData = header.UserData

	return n, userData, nil
}
