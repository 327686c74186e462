package corefmt_test

import (
	"bytes"
	"testing"

	"github.com/zintix-labs/lotolab/corefmt"
)

func TestBase64URLRoundTrip(t *testing.T) {
	src := []byte{0x00, 0xff, 0x10, 0x7f, 0xfe}
	s := corefmt.EncodeBase64URL(src)
	// base64url 不可含 padding 與 '+' '/'
	for _, c := range s {
		if c == '=' || c == '+' || c == '/' {
			t.Fatalf("not url-safe: %q", s)
		}
	}
	got, err := corefmt.DecodeBase64URL(s)
	if err != nil || !bytes.Equal(got, src) {
		t.Fatalf("round trip failed: %v %v", got, err)
	}
	if _, err := corefmt.DecodeBase64URL("!!!"); err == nil {
		t.Fatal("invalid input should fail")
	}
}

func TestHexRoundTrip(t *testing.T) {
	src := []byte("snapshot")
	got, err := corefmt.DecodeHex(corefmt.EncodeHex(src))
	if err != nil || !bytes.Equal(got, src) {
		t.Fatalf("round trip failed: %v %v", got, err)
	}
}

func TestBlobFrame(t *testing.T) {
	payload := []byte("core state payload")
	frame := corefmt.EncodeBlobFrame(payload)

	got, err := corefmt.DecodeBlobFrame(frame)
	if err != nil || !bytes.Equal(got, payload) {
		t.Fatalf("decode failed: %v %v", got, err)
	}

	// 截斷的 frame 要報錯
	if _, err := corefmt.DecodeBlobFrame(frame[:len(frame)-3]); err == nil {
		t.Fatal("truncated frame should fail")
	}

	// writer/reader 路徑
	var buf bytes.Buffer
	if err := corefmt.WriteBlobFrame(&buf, payload); err != nil {
		t.Fatal(err)
	}
	got, err = corefmt.ReadBlobFrame(&buf, 1<<20)
	if err != nil || !bytes.Equal(got, payload) {
		t.Fatalf("read failed: %v %v", got, err)
	}

	// maxBytes 上限
	var buf2 bytes.Buffer
	if err := corefmt.WriteBlobFrame(&buf2, payload); err != nil {
		t.Fatal(err)
	}
	if _, err := corefmt.ReadBlobFrame(&buf2, 4); err == nil {
		t.Fatal("payload above maxBytes should fail")
	}
}
