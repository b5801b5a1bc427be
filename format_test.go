package bundlestore

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func Test_EncodeBundleHeader_Has_Fixed_Size(t *testing.T) {
	buf := encodeBundleHeader(time.Date(2011, 9, 19, 12, 0, 0, 0, time.UTC))

	if len(buf) != bundleHeaderSize {
		t.Fatalf("len = %d, want %d", len(buf), bundleHeaderSize)
	}
}

func Test_EncodeBundleHeader_Starts_With_Fixed_Prefix(t *testing.T) {
	buf := encodeBundleHeader(time.Now())

	if !strings.HasPrefix(string(buf), bundleHeaderPrefix) {
		t.Fatalf("header does not start with %q: %q", bundleHeaderPrefix, buf[:len(bundleHeaderPrefix)])
	}
}

func Test_EncodeBundleHeader_Embeds_Timestamp(t *testing.T) {
	ts := time.Date(2011, 9, 19, 13, 45, 7, 0, time.UTC)
	buf := encodeBundleHeader(ts)

	want := bundleHeaderPrefix + "2011-09-19 13:45:07\n"
	if !strings.HasPrefix(string(buf), want) {
		t.Fatalf("header = %q, want prefix %q", buf[:len(want)], want)
	}
}

func Test_RecordHeader_Encode_Decode_Round_Trip(t *testing.T) {
	url := "fmn04/large/20110919/00000000/0000002a/kX9f.jpg"
	userData := []byte("owner=42")
	payload := []byte("hello world")

	buf := encodeRecordHeader(url, uint64(len(payload)), userData)
	copy(buf[recordHeaderSize:], payload)

	h, err := decodeRecordHeader(buf[:recordHeaderSize])
	if err != nil {
		t.Fatalf("decodeRecordHeader: %v", err)
	}

	var wantUserData [userDataSize]byte
	copy(wantUserData[:], userData)

	want := recordHeader{
		Magic:    recordMagic,
		Length:   uint64(len(payload)),
		Version:  recordVersion,
		Flag:     flagNormal,
		URL:      url,
		UserData: wantUserData,
	}

	if diff := cmp.Diff(want, h); diff != "" {
		t.Fatalf("decodeRecordHeader mismatch (-want +got):\n%s", diff)
	}
}

func Test_RecordHeader_Total_Size_Is_Align1K_Aligned(t *testing.T) {
	for _, payloadLen := range []uint64{0, 1, 1023, 1024, 1025, 9000} {
		buf := encodeRecordHeader("x", payloadLen, nil)
		if uint64(len(buf))%align1K != 0 {
			t.Fatalf("payloadLen=%d: total size %d not Align1K-aligned", payloadLen, len(buf))
		}
		if uint64(len(buf)) < recordHeaderSize+payloadLen {
			t.Fatalf("payloadLen=%d: total size %d smaller than header+payload", payloadLen, len(buf))
		}
	}
}

func Test_RecordHeader_Validate_Rejects_Bad_Magic(t *testing.T) {
	buf := encodeRecordHeader("x", 5, nil)
	buf[offRecordMagic] ^= 0xFF

	h, err := decodeRecordHeader(buf[:recordHeaderSize])
	if err != nil {
		t.Fatalf("decodeRecordHeader: %v", err)
	}

	if err := h.validate(5); !errors.Is(err, ErrIO) {
		t.Fatalf("validate() err = %v, want ErrIO", err)
	}
}

func Test_RecordHeader_Validate_Rejects_Wrong_Version(t *testing.T) {
	buf := encodeRecordHeader("x", 5, nil)
	buf[offRecordVersion] = 99

	h, _ := decodeRecordHeader(buf[:recordHeaderSize])

	if err := h.validate(5); !errors.Is(err, ErrIO) {
		t.Fatalf("validate() err = %v, want ErrIO", err)
	}
}

func Test_RecordHeader_Validate_Rejects_Nonnormal_Flag(t *testing.T) {
	buf := encodeRecordHeader("x", 5, nil)
	buf[offRecordFlag] = 1

	h, _ := decodeRecordHeader(buf[:recordHeaderSize])

	if err := h.validate(5); !errors.Is(err, ErrIO) {
		t.Fatalf("validate() err = %v, want ErrIO", err)
	}
}

func Test_RecordHeader_Validate_Rejects_Length_Smaller_Than_Requested(t *testing.T) {
	buf := encodeRecordHeader("x", 5, nil)

	h, _ := decodeRecordHeader(buf[:recordHeaderSize])

	if err := h.validate(6); !errors.Is(err, ErrIO) {
		t.Fatalf("validate() err = %v, want ErrIO", err)
	}
}

func Test_RecordHeader_Validate_Accepts_Truncated_Request(t *testing.T) {
	buf := encodeRecordHeader("x", 10, nil)

	h, _ := decodeRecordHeader(buf[:recordHeaderSize])

	if err := h.validate(5); err != nil {
		t.Fatalf("validate() err = %v, want nil (stored >= requested)", err)
	}
}

func Test_Align1KUp(t *testing.T) {
	cases := map[uint64]uint64{
		0:    0,
		1:    1024,
		1023: 1024,
		1024: 1024,
		1025: 2048,
	}

	for in, want := range cases {
		if got := align1KUp(in); got != want {
			t.Fatalf("align1KUp(%d) = %d, want %d", in, got, want)
		}
	}
}
