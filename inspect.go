package bundlestore

import (
	"errors"
	"fmt"
	"io"
	"os"

	bsfs "github.com/fileslot/bundlestore/pkg/fs"
)

// BundleInfo summarizes a bundle file's header and its records, as read by
// [Inspect]. It exists for operator tooling (bundlectl) — nothing in the
// read/write path needs it.
type BundleInfo struct {
	Path        string
	HeaderText  string
	SizeBytes   int64
	RecordCount int
}

// Inspect opens the bundle file for (prefix, bid) under storageRoot and walks
// its records from the end of the header to EOF, returning the header text
// and a count of well-formed records. It stops and reports the records found
// so far if it encounters a record it cannot decode, rather than failing
// outright — a partially written last record is expected right after a
// crash, not corruption of everything before it.
func Inspect(storageRoot, prefix string, bid uint32) (BundleInfo, error) {
	return inspectWithFS(bsfs.NewReal(), storageRoot, prefix, bid)
}

func inspectWithFS(fsys bsfs.FS, storageRoot, prefix string, bid uint32) (BundleInfo, error) {
	s := currentSettings()
	path := bundleFilePath(storageRoot, prefix, bid, s)

	f, err := fsys.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return BundleInfo{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return BundleInfo{}, fmt.Errorf("%w: open %s: %v", ErrIO, path, err)
	}
	defer f.Close()

	info, err := fsys.Stat(path)
	if err != nil {
		return BundleInfo{}, fmt.Errorf("%w: stat %s: %v", ErrIO, path, err)
	}

	header := make([]byte, bundleHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return BundleInfo{}, fmt.Errorf("%w: short bundle header: %v", ErrIO, err)
	}

	result := BundleInfo{
		Path:       path,
		HeaderText: nulTerminatedString(header),
		SizeBytes:  info.Size(),
	}

	headerBuf := make([]byte, recordHeaderSize)

	for {
		if _, err := io.ReadFull(f, headerBuf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}

			return result, fmt.Errorf("%w: reading record at index %d: %v", ErrIO, result.RecordCount, err)
		}

		h, err := decodeRecordHeader(headerBuf)
		if err != nil || h.Magic != recordMagic {
			break
		}

		result.RecordCount++

		skip := align1KUp(recordHeaderSize+h.Length) - recordHeaderSize
		if _, err := f.Seek(int64(skip), io.SeekCurrent); err != nil {
			return result, fmt.Errorf("%w: seeking past record %d: %v", ErrIO, result.RecordCount, err)
		}
	}

	return result, nil
}
