package flock

import (
	"errors"
	"path/filepath"
	"testing"
)

func Test_TryAcquire_Succeeds_When_Lock_File_Does_Not_Exist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "42")

	lock, err := TryAcquire(path)
	if err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}

	defer lock.Release()
}

func Test_TryAcquire_Fails_With_ErrBusy_When_Already_Locked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "42")

	first, err := TryAcquire(path)
	if err != nil {
		t.Fatalf("first TryAcquire: %v", err)
	}
	defer first.Release()

	_, err = TryAcquire(path)
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("second TryAcquire err=%v, want ErrBusy", err)
	}
}

func Test_TryAcquire_Succeeds_Again_After_Release(t *testing.T) {
	path := filepath.Join(t.TempDir(), "42")

	first, err := TryAcquire(path)
	if err != nil {
		t.Fatalf("first TryAcquire: %v", err)
	}

	first.Release()

	second, err := TryAcquire(path)
	if err != nil {
		t.Fatalf("second TryAcquire after release: %v", err)
	}
	defer second.Release()
}

func Test_Release_Is_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "42")

	lock, err := TryAcquire(path)
	if err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}

	lock.Release()
	lock.Release() // must not panic
}

func Test_Release_On_Nil_Lock_Does_Not_Panic(t *testing.T) {
	var lock *Lock
	lock.Release()
}
