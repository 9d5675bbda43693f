package crypto

import (
	"crypto/subtle"
	"errors"
)

// TagSize is the width, in bytes, of an OCB3 authentication tag as used by
// this construction (TAGLEN=128 bits).
const TagSize = 16

// NonceSize is the width, in bytes, of the OCB3 nonce this construction
// accepts (96 bits, per RFC 7253's recommended size).
const NonceSize = 12

// ErrAuthenticationFailed is returned by Open when the tag does not verify.
// The caller must discard any partially-decrypted plaintext.
var ErrAuthenticationFailed = errors.New("crypto: ocb3 authentication failed")

// OCB3 is an RFC 7253 offset-codebook-mode AEAD instance bound to a single
// 128-bit key. It carries no additional-data support; moshcore's transport
// never authenticates anything beyond the plaintext itself.
type OCB3 struct {
	cipher *singleBlockCipher

	lStar Block // L_*
	lDoll Block // L_$
	l     []Block
}

// New builds an OCB3 instance from a 16-byte key, precomputing the L_*, L_$,
// and L_0..L_15 doubling constants used by every subsequent seal/open.
func New(key []byte) *OCB3 {
	c := NewAES128(key)
	lStar := c.Encipher(Block{})
	lDoll := Double(lStar)

	l := make([]Block, 16)
	l[0] = Double(lDoll)
	for i := 1; i < len(l); i++ {
		l[i] = Double(l[i-1])
	}

	return &OCB3{cipher: c, lStar: lStar, lDoll: lDoll, l: l}
}

func (o *OCB3) lFor(i int) Block {
	idx := ntz(i)
	for idx >= len(o.l) {
		o.l = append(o.l, Double(o.l[len(o.l)-1]))
	}
	return o.l[idx]
}

// initialOffset computes Offset_0 from the 96-bit nonce, per RFC 7253 §4.
func (o *OCB3) initialOffset(nonce []byte) Block {
	// Nonce = num2str(TAGLEN mod 128, 7) || zeros(120-bitlen(N)) || 1 || N
	// For TAGLEN=128 the 7-bit prefix is zero; with a 96-bit N the zero run
	// is 24 bits, giving a fixed 4-byte header of 0x00 0x00 0x00 0x01.
	var n Block
	copy(n[4:], nonce)
	n[3] = 0x01

	bottom := n[15] & 0x3F
	ktopInput := n
	ktopInput[15] &^= 0x3F

	ktop := o.cipher.Encipher(ktopInput)

	var stretch [24]byte
	copy(stretch[:16], ktop[:])
	for i := 0; i < 8; i++ {
		stretch[16+i] = ktop[i] ^ ktop[i+1]
	}

	var offset Block
	byteShift := int(bottom / 8)
	bitShift := uint(bottom % 8)
	if bitShift == 0 {
		copy(offset[:], stretch[byteShift:byteShift+16])
	} else {
		for i := 0; i < 16; i++ {
			hi := stretch[byteShift+i] << bitShift
			lo := stretch[byteShift+i+1] >> (8 - bitShift)
			offset[i] = hi | lo
		}
	}
	return offset
}

// splitBlocks partitions data into full 16-byte blocks plus a possibly-empty
// trailing partial block.
func splitBlocks(data []byte) (full [][]byte, partial []byte) {
	n := len(data) / BlockSize
	full = make([][]byte, n)
	for i := 0; i < n; i++ {
		full[i] = data[i*BlockSize : (i+1)*BlockSize]
	}
	partial = data[n*BlockSize:]
	return
}

func toBlock(b []byte) Block {
	var out Block
	copy(out[:], b)
	return out
}

// Encrypt seals plaintext under nonce, returning the ciphertext (same length
// as plaintext) and a 16-byte authentication tag.
func (o *OCB3) Encrypt(nonce, plaintext []byte) (ciphertext, tag []byte) {
	if len(nonce) != NonceSize {
		panic("crypto: ocb3 nonce must be 12 bytes")
	}

	offset := o.initialOffset(nonce)
	var checksum Block

	full, partial := splitBlocks(plaintext)
	ciphertext = make([]byte, len(plaintext))

	for i, p := range full {
		offset = Xor(offset, o.lFor(i+1))
		pBlock := toBlock(p)
		cBlock := Xor(o.cipher.Encipher(Xor(pBlock, offset)), offset)
		copy(ciphertext[i*BlockSize:], cBlock[:])
		checksum = Xor(checksum, pBlock)
	}

	if len(partial) > 0 {
		offset = Xor(offset, o.lStar)
		pad := o.cipher.Encipher(offset)
		cStar := make([]byte, len(partial))
		for i := range partial {
			cStar[i] = partial[i] ^ pad[i]
		}
		copy(ciphertext[len(full)*BlockSize:], cStar)

		var padded Block
		copy(padded[:], partial)
		padded[len(partial)] = 0x80
		checksum = Xor(checksum, padded)
	}

	tagBlock := o.cipher.Encipher(Xor(Xor(checksum, offset), o.lDoll))
	return ciphertext, tagBlock[:TagSize]
}

// Decrypt opens ciphertext/tag under nonce. On tag mismatch it returns
// ErrAuthenticationFailed and a nil plaintext; the caller must not act on a
// nil-error-adjacent partial result since none is produced.
func (o *OCB3) Decrypt(nonce, ciphertext, tag []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		panic("crypto: ocb3 nonce must be 12 bytes")
	}
	if len(tag) != TagSize {
		return nil, ErrAuthenticationFailed
	}

	offset := o.initialOffset(nonce)
	var checksum Block

	full, partial := splitBlocks(ciphertext)
	plaintext := make([]byte, len(ciphertext))

	for i, c := range full {
		offset = Xor(offset, o.lFor(i+1))
		cBlock := toBlock(c)
		pBlock := Xor(o.cipher.Decipher(Xor(cBlock, offset)), offset)
		copy(plaintext[i*BlockSize:], pBlock[:])
		checksum = Xor(checksum, pBlock)
	}

	if len(partial) > 0 {
		offset = Xor(offset, o.lStar)
		pad := o.cipher.Encipher(offset)
		pStar := make([]byte, len(partial))
		for i := range partial {
			pStar[i] = partial[i] ^ pad[i]
		}
		copy(plaintext[len(full)*BlockSize:], pStar)

		var padded Block
		copy(padded[:], pStar)
		padded[len(partial)] = 0x80
		checksum = Xor(checksum, padded)
	}

	expected := o.cipher.Encipher(Xor(Xor(checksum, offset), o.lDoll))
	if subtle.ConstantTimeCompare(expected[:TagSize], tag) != 1 {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}
