package bundlestore

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fileslot/bundlestore/internal/flock"
	bsfs "github.com/fileslot/bundlestore/pkg/fs"
)

// BuildURLFunc builds the URL a writer embeds in a record it is about to
// write. The default is [BuildURL]; see [Allocator.WithBuilder] for
// injecting an alternative (spec.md §9's build/extract polymorphism).
type BuildURLFunc func(prefix, postfix string, bid uint32, offset, length uint64) string

// Allocator owns the process-wide rotating bundle-id candidate and the
// in-process mutex guarding it. The cross-process [flock] lock alone does
// not protect the candidate counter from concurrent goroutines in the same
// process (spec.md §9); Allocator adds that guard.
//
// The zero value is not usable; construct one with [NewAllocator].
type Allocator struct {
	fs      bsfs.FS
	builder BuildURLFunc

	mu       sync.Mutex
	lastID   uint32
	lastIDOK bool // false until lazily initialized to pid % 10
}

// NewAllocator returns an Allocator backed by the real filesystem and the
// default base-62-with-hash URL builder.
func NewAllocator() *Allocator {
	return NewAllocatorWithFS(bsfs.NewReal())
}

// NewAllocatorWithFS returns an Allocator backed by fsys, using the default
// URL builder.
func NewAllocatorWithFS(fsys bsfs.FS) *Allocator {
	return &Allocator{fs: fsys, builder: BuildURL}
}

// WithBuilder returns a copy of a that uses builder instead of the default
// [BuildURL] to construct the URL embedded in each record.
func (a *Allocator) WithBuilder(builder BuildURLFunc) *Allocator {
	return &Allocator{fs: a.fs, builder: builder, lastID: a.lastID, lastIDOK: a.lastIDOK}
}

// Writer is a short-lived handle returned by [Allocator.Allocate]: it names
// a bundle file, an offset reserved for exactly one record of a fixed
// length, and holds the cross-process lock for that bundle-id until
// [Writer.Release] is called.
type Writer struct {
	alloc *Allocator

	bundleFile string
	bid        uint32
	offset     uint64
	length     uint64
	prefix     string
	postfix    string
	lock       *flock.Lock

	released bool
}

// BundleID returns the bundle-id this writer was allocated in.
func (w *Writer) BundleID() uint32 { return w.bid }

// Offset returns the offset reserved for this writer's record.
func (w *Writer) Offset() uint64 { return w.offset }

// EnsureURL returns the URL this writer will embed when Write is called,
// without performing any I/O. Callers that need to know a blob's address
// before the write completes (for example to persist it in an external
// index, which is out of scope for this core per spec.md §1) can call this
// ahead of [Writer.Write].
func (w *Writer) EnsureURL() string {
	return w.alloc.builder(w.prefix, w.postfix, w.bid, w.offset, w.length)
}

// Allocate picks a bundle-id for a record of the given length under prefix,
// creating the bundle file (with its header) if this is the first
// allocation for that id, and returns a Writer holding the cross-process
// lock for that id.
//
// lockDir, if empty, defaults to storageRoot/.lock. Allocate loops
// internally over candidate bundle-ids on size-cap violations and lock
// contention; it returns an error only for unrecoverable resource failures
// (lock directory, parent directory, or bundle creation).
func (a *Allocator) Allocate(prefix, postfix string, length uint64, storageRoot, lockDir string) (*Writer, error) {
	prefix = trimLeadingSlash(prefix)

	if lockDir == "" {
		lockDir = filepath.Join(storageRoot, ".lock")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.lastIDOK {
		a.lastID = uint32(os.Getpid() % 10) //nolint:gosec // modulo of a small constant, not security sensitive
		a.lastIDOK = true
	}

	s := currentSettings()

	var loopCount uint32

	for {
		loopCount++
		if loopCount > s.BundleCountPerDay {
			a.lastID = s.BundleCountPerDay + uint32(rand.IntN(100))
		}

		bundleFile := bundleFilePath(storageRoot, prefix, a.lastID, s)

		info, statErr := a.fs.Stat(bundleFile)

		switch {
		case statErr == nil:
			total := align1KUp(recordHeaderSize + length)
			if uint64(info.Size())+total > s.MaxBundleSize {
				a.lastID++
				continue
			}

		case os.IsNotExist(statErr):
			// handled below, after acquiring the lock

		default:
			// Transient stat error: advance and keep trying.
			a.lastID++
			continue
		}

		if err := a.fs.MkdirAll(lockDir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create lock dir %s: %v", ErrResource, lockDir, err)
		}

		lockPath := filepath.Join(lockDir, fmt.Sprintf("%d", a.lastID))

		lock, err := flock.TryAcquire(lockPath)
		if err != nil {
			a.lastID++
			continue
		}

		var offset uint64

		if statErr != nil && os.IsNotExist(statErr) {
			parent := filepath.Dir(bundleFile)
			if err := a.fs.MkdirAll(parent, 0o755); err != nil {
				lock.Release()
				return nil, fmt.Errorf("%w: create bundle dir %s: %v", ErrResource, parent, err)
			}

			if err := createBundle(a.fs, bundleFile); err != nil {
				lock.Release()
				return nil, fmt.Errorf("%w: create bundle %s: %v", ErrResource, bundleFile, err)
			}

			offset = bundleHeaderSize
		} else {
			// Re-stat: another writer may have appended to the file
			// between our first Stat and acquiring the lock.
			info, err := a.fs.Stat(bundleFile)
			if err != nil {
				lock.Release()
				a.lastID++
				continue
			}

			offset = uint64(info.Size())
		}

		w := &Writer{
			alloc:      a,
			bundleFile: bundleFile,
			bid:        a.lastID,
			offset:     offset,
			length:     length,
			prefix:     prefix,
			postfix:    postfix,
			lock:       lock,
		}

		return w, nil
	}
}

// createBundle writes a fresh bundle header to filename using an atomic
// write, so a concurrent Stat from another process never observes a
// zero-length or partially-written bundle file.
func createBundle(fsys bsfs.FS, filename string) error {
	header := encodeBundleHeader(time.Now())

	return fsys.WriteFileAtomic(filename, header, 0o644)
}

// WriteOptions configures a single [Writer.Write] call.
type WriteOptions struct {
	// UserData is copied, NUL-padded/truncated to userDataSize, into the
	// record header.
	UserData []byte

	// URL overrides the URL embedded in the record. If empty, the
	// allocator's builder derives it from (prefix, postfix, bid, offset,
	// length), i.e. the same value [Writer.EnsureURL] would return. This
	// mirrors the original implementation's Write(url, ...) overload.
	URL string
}

// Write appends exactly one record — header, payload, zero padding — to the
// bundle file at this writer's reserved offset, in a single contiguous
// write. It returns the number of payload bytes written (== len(payload) on
// success) and the URL the record was written under.
func (w *Writer) Write(payload []byte, opts WriteOptions) (written int, url string, err error) {
	url = opts.URL
	if url == "" {
		url = w.EnsureURL()
	}

	f, err := w.alloc.fs.OpenFile(w.bundleFile, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, "", fmt.Errorf("%w: %s", ErrNotFound, w.bundleFile)
		}

		return 0, "", fmt.Errorf("%w: open %s: %v", ErrIO, w.bundleFile, err)
	}
	defer f.Close()

	if _, err := f.Seek(int64(w.offset), io.SeekStart); err != nil {
		return 0, "", fmt.Errorf("%w: seek: %v", ErrIO, err)
	}

	buf := encodeRecordHeader(url, uint64(len(payload)), opts.UserData)
	copy(buf[recordHeaderSize:], payload)

	n, err := f.Write(buf)
	if err != nil || n != len(buf) {
		return 0, "", fmt.Errorf("%w: short write (%d of %d): %v", ErrIO, n, len(buf), err)
	}

	return len(payload), url, nil
}

// Release drops this writer's cross-process lock. Release is idempotent.
func (w *Writer) Release() {
	if w.released {
		return
	}

	w.lock.Release()
	w.released = true
}
