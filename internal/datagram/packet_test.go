package datagram

import (
	"bytes"
	"testing"
)

func testKey() []byte {
	return []byte("0123456789ABCDEF")
}

func TestCodec_SealOpenRoundTrip(t *testing.T) {
	c := NewCodec(testKey())
	for _, payloadLen := range []int{0, 1, 16, 100, 1232} {
		payload := make([]byte, payloadLen)
		for i := range payload {
			payload[i] = byte(i)
		}
		p := Packet{
			SequenceNumber: 42,
			Direction:      ToServer,
			Timestamp:      1234,
			TimestampReply: 5678,
			Payload:        payload,
		}
		wire := c.Seal(p)
		got, err := c.Open(wire, ToServer)
		if err != nil {
			t.Fatalf("len=%d: open: %v", payloadLen, err)
		}
		if got.SequenceNumber != p.SequenceNumber || got.Timestamp != p.Timestamp ||
			got.TimestampReply != p.TimestampReply || !bytes.Equal(got.Payload, p.Payload) {
			t.Fatalf("len=%d: roundtrip mismatch: got %+v", payloadLen, got)
		}
	}
}

func TestNonce_DirectionBit(t *testing.T) {
	n := Nonce(ToServer, 1)
	if n[4]&0x80 != 0 {
		t.Fatalf("toServer nonce should not set direction bit: %x", n)
	}
	n = Nonce(ToClient, 1)
	if n[4]&0x80 == 0 {
		t.Fatalf("toClient nonce should set direction bit: %x", n)
	}
}

func TestCodec_WrongDirectionRejected(t *testing.T) {
	c := NewCodec(testKey())
	p := Packet{SequenceNumber: 1, Direction: ToServer, Payload: []byte("hi")}
	wire := c.Seal(p)
	if _, err := c.Open(wire, ToClient); err == nil {
		t.Fatalf("expected open to fail when direction mismatches")
	}
}

func TestCodec_TooShortRejected(t *testing.T) {
	c := NewCodec(testKey())
	if _, err := c.Open(make([]byte, MinDatagramSize-1), ToServer); err != ErrDatagramTooShort {
		t.Fatalf("expected ErrDatagramTooShort, got %v", err)
	}
}
