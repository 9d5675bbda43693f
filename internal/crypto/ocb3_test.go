package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

// RFC 7253 Appendix A, vector #1: empty plaintext.
func TestOCB3_RFCVector1(t *testing.T) {
	key := mustHex(t, "000102030405060708090A0B0C0D0E0F")
	nonce := mustHex(t, "BBAA99887766554433221100")
	o := New(key)

	ct, tag := o.Encrypt(nonce, nil)
	if len(ct) != 0 {
		t.Fatalf("expected empty ciphertext, got %x", ct)
	}
	wantTag := mustHex(t, "785407BFFFC8AD9EDCC5520AC9111EE6")[:16]
	if !bytes.Equal(tag, wantTag) {
		t.Fatalf("tag mismatch: got %x want %x", tag, wantTag)
	}

	pt, err := o.Decrypt(nonce, ct, tag)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if len(pt) != 0 {
		t.Fatalf("expected empty plaintext, got %x", pt)
	}
}

// RFC 7253 Appendix A, vector #4: nonce counter advanced by 3, 8-byte PT.
func TestOCB3_RFCVector4(t *testing.T) {
	key := mustHex(t, "000102030405060708090A0B0C0D0E0F")
	nonce := mustHex(t, "BBAA99887766554433221103")
	pt := mustHex(t, "0001020304050607")
	o := New(key)

	ct, tag := o.Encrypt(nonce, pt)
	wantCT := mustHex(t, "45DD69F8F5AAE724")
	wantTag := mustHex(t, "14054CD1F35D82760B2CD00D2F99BFA9")
	if !bytes.Equal(ct, wantCT) {
		t.Fatalf("ciphertext mismatch: got %x want %x", ct, wantCT)
	}
	if !bytes.Equal(tag, wantTag) {
		t.Fatalf("tag mismatch: got %x want %x", tag, wantTag)
	}

	got, err := o.Decrypt(nonce, ct, tag)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, pt) {
		t.Fatalf("roundtrip mismatch: got %x want %x", got, pt)
	}
}

func TestOCB3_RoundTrip(t *testing.T) {
	key := mustHex(t, "101112131415161718191A1B1C1D1E1F")
	nonce := mustHex(t, "000000000001000000000001")
	o := New(key)

	for _, n := range []int{0, 1, 15, 16, 17, 31, 32, 127, 1200} {
		pt := make([]byte, n)
		for i := range pt {
			pt[i] = byte(i * 7)
		}
		ct, tag := o.Encrypt(nonce, pt)
		got, err := o.Decrypt(nonce, ct, tag)
		if err != nil {
			t.Fatalf("len=%d: decrypt: %v", n, err)
		}
		if !bytes.Equal(got, pt) {
			t.Fatalf("len=%d: roundtrip mismatch", n)
		}
	}
}

func TestOCB3_TagBitFlipRejected(t *testing.T) {
	key := mustHex(t, "202122232425262728292A2B2C2D2E2F")
	nonce := mustHex(t, "000000000002000000000002")
	o := New(key)

	pt := []byte("the quick brown fox jumps over")
	ct, tag := o.Encrypt(nonce, pt)

	badTag := append([]byte(nil), tag...)
	badTag[0] ^= 0x01
	if _, err := o.Decrypt(nonce, ct, badTag); err != ErrAuthenticationFailed {
		t.Fatalf("expected authentication failure for flipped tag, got %v", err)
	}

	badCT := append([]byte(nil), ct...)
	badCT[0] ^= 0x01
	if _, err := o.Decrypt(nonce, badCT, tag); err != ErrAuthenticationFailed {
		t.Fatalf("expected authentication failure for flipped ciphertext, got %v", err)
	}

	badNonce := append([]byte(nil), nonce...)
	badNonce[0] ^= 0x01
	if _, err := o.Decrypt(badNonce, ct, tag); err != ErrAuthenticationFailed {
		t.Fatalf("expected authentication failure for changed nonce, got %v", err)
	}
}
