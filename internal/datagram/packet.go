// Package datagram implements the two layers sitting directly on top of the
// OCB3 AEAD: the authenticated packet codec (nonce construction, datagram
// seal/open) and the fragment codec (compression, framing, reassembly) that
// datagram payloads carry.
package datagram

import (
	"encoding/binary"
	"errors"

	"moshcore/internal/crypto"
)

// Direction distinguishes client->server from server->client traffic; it is
// folded into the OCB3 nonce so that packets cannot be replayed across
// directions.
type Direction uint8

const (
	ToServer Direction = 0
	ToClient Direction = 1
)

// MinDatagramSize is the smallest legal wire datagram: an 8-byte nonce
// prefix plus a 16-byte tag and zero bytes of ciphertext.
const MinDatagramSize = 8 + crypto.TagSize

// ErrDatagramTooShort is returned by Open when the wire datagram cannot
// possibly contain a nonce prefix and tag.
var ErrDatagramTooShort = errors.New("datagram: wire datagram shorter than minimum size")

// Packet is one SSP-layer datagram: a sequence number and direction (folded
// into the nonce), an RTT timestamp pair, and an opaque payload (a
// fragment-framed, compressed TransportInstruction).
type Packet struct {
	SequenceNumber uint64
	Direction      Direction
	Timestamp      uint16
	TimestampReply uint16
	Payload        []byte
}

// Nonce builds the 12-byte OCB3 nonce for (direction, seq): four zero bytes
// followed by a big-endian uint64 with the direction folded into its top
// bit. The direction bit is placed explicitly, never derived arithmetically,
// since its position is load-bearing wire format.
func Nonce(direction Direction, seq uint64) [crypto.NonceSize]byte {
	var nonce [crypto.NonceSize]byte
	var hi uint64 = seq & 0x7FFFFFFFFFFFFFFF
	if direction == ToClient {
		hi |= 1 << 63
	}
	binary.BigEndian.PutUint64(nonce[4:], hi)
	return nonce
}

// Codec seals and opens wire datagrams using a shared OCB3 session key.
type Codec struct {
	aead *crypto.OCB3
}

// NewCodec builds a packet codec bound to a 16-byte session key.
func NewCodec(key []byte) *Codec {
	return &Codec{aead: crypto.New(key)}
}

// Seal builds the wire datagram for p: noncePrefix(8) || ciphertext || tag(16).
func (c *Codec) Seal(p Packet) []byte {
	nonce := Nonce(p.Direction, p.SequenceNumber)

	plaintext := make([]byte, 4+len(p.Payload))
	binary.BigEndian.PutUint16(plaintext[0:2], p.Timestamp)
	binary.BigEndian.PutUint16(plaintext[2:4], p.TimestampReply)
	copy(plaintext[4:], p.Payload)

	ciphertext, tag := c.aead.Encrypt(nonce[:], plaintext)

	out := make([]byte, 8+len(ciphertext)+crypto.TagSize)
	copy(out[0:8], nonce[4:])
	copy(out[8:], ciphertext)
	copy(out[8+len(ciphertext):], tag)
	return out
}

// Open parses and authenticates a wire datagram, requiring it to have been
// sealed for expectedDirection. It returns (nil, err) on any length
// violation or authentication failure; no partial result is ever produced.
func (c *Codec) Open(wire []byte, expectedDirection Direction) (*Packet, error) {
	if len(wire) < MinDatagramSize {
		return nil, ErrDatagramTooShort
	}

	noncePrefix := wire[0:8]
	ciphertext := wire[8 : len(wire)-crypto.TagSize]
	tag := wire[len(wire)-crypto.TagSize:]

	var nonce [crypto.NonceSize]byte
	copy(nonce[4:], noncePrefix)

	seq := binary.BigEndian.Uint64(nonce[4:]) &^ (1 << 63)
	dirBit := noncePrefix[0]&0x80 != 0
	direction := ToServer
	if dirBit {
		direction = ToClient
	}
	if direction != expectedDirection {
		return nil, crypto.ErrAuthenticationFailed
	}

	plaintext, err := c.aead.Decrypt(nonce[:], ciphertext, tag)
	if err != nil {
		return nil, err
	}
	if len(plaintext) < 4 {
		return nil, ErrDatagramTooShort
	}

	return &Packet{
		SequenceNumber: seq,
		Direction:      direction,
		Timestamp:      binary.BigEndian.Uint16(plaintext[0:2]),
		TimestampReply: binary.BigEndian.Uint16(plaintext[2:4]),
		Payload:        plaintext[4:],
	}, nil
}
