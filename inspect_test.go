package bundlestore

import (
	"errors"
	"testing"
)

func Test_Inspect_Counts_Records_And_Reads_Header(t *testing.T) {
	SetSettings(DefaultSettings())

	root := t.TempDir()
	alloc := NewAllocator()

	var bid uint32

	for i := range 3 {
		w, err := alloc.Allocate("p", ".bin", 10, root, "")
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}

		if _, _, err := w.Write([]byte("0123456789"), WriteOptions{}); err != nil {
			t.Fatalf("Write #%d: %v", i, err)
		}

		bid = w.BundleID()
		w.Release()
	}

	info, err := Inspect(root, "p", bid)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}

	if info.RecordCount != 3 {
		t.Fatalf("RecordCount = %d, want 3", info.RecordCount)
	}

	if len(info.HeaderText) == 0 {
		t.Fatalf("HeaderText is empty")
	}

	if info.SizeBytes <= bundleHeaderSize {
		t.Fatalf("SizeBytes = %d, want > %d", info.SizeBytes, bundleHeaderSize)
	}
}

func Test_Inspect_Missing_Bundle_Returns_ErrNotFound(t *testing.T) {
	SetSettings(DefaultSettings())

	root := t.TempDir()

	if _, err := Inspect(root, "p", 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
