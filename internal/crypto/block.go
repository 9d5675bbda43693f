// Package crypto implements the 128-bit block primitives and the OCB3
// authenticated encryption construction (RFC 7253) that the Mosh wire
// protocol is built on.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// BlockSize is the width of a single OCB3/AES-128 block, in bytes.
const BlockSize = 16

// Block is a 128-bit value: a plaintext/ciphertext block, an offset, or one
// of the precomputed L_i doubling constants.
type Block [BlockSize]byte

// Xor returns a ^ b.
func Xor(a, b Block) Block {
	var out Block
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// Double computes a*2 in GF(2^128) under the RFC 7253 reduction polynomial.
// The block is shifted left by one bit (MSB of byte i becomes LSB of byte
// i-1); if the original top bit was set, the result is reduced by XORing the
// last byte with 0x87.
func Double(b Block) Block {
	var out Block
	carry := byte(0)
	for i := len(b) - 1; i >= 0; i-- {
		out[i] = (b[i] << 1) | carry
		carry = b[i] >> 7
	}
	if b[0]&0x80 != 0 {
		out[BlockSize-1] ^= 0x87
	}
	return out
}

// singleBlockCipher wraps crypto/aes to encipher/decipher exactly one block
// with no padding: the ECB-of-one-block primitive OCB3 is built on.
type singleBlockCipher struct {
	block cipher.Block
}

// NewAES128 builds the single-block AES-128 primitive from a 16-byte key.
// A key of any other length is a programmer error, not a runtime
// condition, so this fails fatally.
func NewAES128(key []byte) *singleBlockCipher {
	if len(key) != 16 {
		panic(fmt.Sprintf("crypto: AES-128 key must be 16 bytes, got %d", len(key)))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}
	return &singleBlockCipher{block: block}
}

// Encipher runs one forward AES-128 permutation over the block.
func (c *singleBlockCipher) Encipher(in Block) Block {
	var out Block
	c.block.Encrypt(out[:], in[:])
	return out
}

// Decipher runs one inverse AES-128 permutation over the block.
func (c *singleBlockCipher) Decipher(in Block) Block {
	var out Block
	c.block.Decrypt(out[:], in[:])
	return out
}

// ntz returns the number of trailing zero bits in i, used to select the L_i
// doubling constant for the i'th full block of an OCB3 message.
func ntz(i int) int {
	n := 0
	for i&1 == 0 {
		i >>= 1
		n++
	}
	return n
}
