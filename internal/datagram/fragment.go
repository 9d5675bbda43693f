package datagram

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// FragmentHeaderSize is the width of a fragment's framing header:
// BE64(instructionID) || BE16(final<<15 | fragmentNum).
const FragmentHeaderSize = 10

// DefaultMTU bounds the wire size of a single fragment's serialized form
// when no endpoint-specific MTU is supplied.
const DefaultMTU = 1280

var (
	// ErrFragmentTooShort is returned by ParseFragment for inputs under
	// FragmentHeaderSize bytes.
	ErrFragmentTooShort = errors.New("datagram: fragment shorter than header size")
	// ErrReassemblyFailed covers zlib inflate or (at the caller) protobuf
	// parse failures; either one drops the entire instruction.
	ErrReassemblyFailed = errors.New("datagram: fragment reassembly failed")
)

// Fragment is one piece of an instruction, framed for the wire.
type Fragment struct {
	InstructionID uint64
	FragmentNum   uint16 // 15 bits of wire range
	IsFinal       bool
	Contents      []byte
}

// Serialize writes the 10-byte header followed by Contents.
func (f Fragment) Serialize() []byte {
	out := make([]byte, FragmentHeaderSize+len(f.Contents))
	binary.BigEndian.PutUint64(out[0:8], f.InstructionID)
	fn := f.FragmentNum & 0x7FFF
	if f.IsFinal {
		fn |= 0x8000
	}
	binary.BigEndian.PutUint16(out[8:10], fn)
	copy(out[FragmentHeaderSize:], f.Contents)
	return out
}

// ParseFragment parses a wire fragment, rejecting inputs shorter than the
// header.
func ParseFragment(wire []byte) (Fragment, error) {
	if len(wire) < FragmentHeaderSize {
		return Fragment{}, ErrFragmentTooShort
	}
	id := binary.BigEndian.Uint64(wire[0:8])
	fnField := binary.BigEndian.Uint16(wire[8:10])
	return Fragment{
		InstructionID: id,
		FragmentNum:   fnField & 0x7FFF,
		IsFinal:       fnField&0x8000 != 0,
		Contents:      wire[FragmentHeaderSize:],
	}, nil
}

// Fragmenter assigns monotonically increasing instruction IDs, zlib-deflates
// each serialized instruction, and splits the result into MTU-sized
// fragments.
type Fragmenter struct {
	MTU    int
	nextID uint64
}

// NewFragmenter builds a fragmenter using mtu as the wire size budget per
// fragment. An mtu no larger than FragmentHeaderSize (including any
// non-positive value) falls back to DefaultMTU.
func NewFragmenter(mtu int) *Fragmenter {
	if mtu <= FragmentHeaderSize {
		mtu = DefaultMTU
	}
	return &Fragmenter{MTU: mtu}
}

// Fragment compresses serialized (an already-marshaled TransportInstruction)
// and splits it into one or more Fragments carrying a freshly assigned
// instruction ID.
func (fr *Fragmenter) Fragment(serialized []byte) ([]Fragment, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(serialized); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	compressed := buf.Bytes()

	id := fr.nextID
	fr.nextID++

	chunkSize := fr.MTU - FragmentHeaderSize
	if chunkSize <= 0 {
		chunkSize = DefaultMTU - FragmentHeaderSize
	}

	if len(compressed) == 0 {
		return []Fragment{{InstructionID: id, FragmentNum: 0, IsFinal: true, Contents: nil}}, nil
	}

	var fragments []Fragment
	for offset := 0; offset < len(compressed); offset += chunkSize {
		end := offset + chunkSize
		if end > len(compressed) {
			end = len(compressed)
		}
		fragments = append(fragments, Fragment{
			InstructionID: id,
			FragmentNum:   uint16(len(fragments)),
			IsFinal:       end == len(compressed),
			Contents:      compressed[offset:end],
		})
	}
	return fragments, nil
}

// Assembler reassembles fragments belonging to a single in-flight
// instruction. It is per-session, single-writer state: a change of observed
// instructionID resets all prior partial progress.
type Assembler struct {
	instructionID uint64
	haveID        bool
	fragments     map[uint16][]byte
	total         int // -1 until the final fragment is seen
}

// NewAssembler constructs an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{fragments: make(map[uint16][]byte), total: -1}
}

// Push feeds one fragment into the assembler. When the instruction is
// complete, it returns the zlib-inflated instruction bytes and ready=true.
// Missing intermediate fragments simply leave the assembler waiting
// (ready=false, err=nil); a decompression failure drops the whole
// instruction and resets the assembler.
func (a *Assembler) Push(f Fragment) (data []byte, ready bool, err error) {
	if !a.haveID || f.InstructionID != a.instructionID {
		a.instructionID = f.InstructionID
		a.haveID = true
		a.fragments = make(map[uint16][]byte)
		a.total = -1
	}

	a.fragments[f.FragmentNum] = f.Contents
	if f.IsFinal {
		a.total = int(f.FragmentNum) + 1
	}

	if a.total < 0 || len(a.fragments) != a.total {
		return nil, false, nil
	}

	var compressed bytes.Buffer
	for i := 0; i < a.total; i++ {
		chunk, ok := a.fragments[uint16(i)]
		if !ok {
			// Shouldn't happen given the length check above, but guard
			// against a duplicate fragmentNum masking a real gap.
			return nil, false, nil
		}
		compressed.Write(chunk)
	}

	inflated, err := inflate(compressed.Bytes())
	if err != nil {
		a.reset()
		return nil, false, ErrReassemblyFailed
	}
	a.reset()
	return inflated, true, nil
}

func (a *Assembler) reset() {
	a.haveID = false
	a.fragments = make(map[uint16][]byte)
	a.total = -1
}

// initialInflateLimit bounds the first decompression attempt: generously
// above any single screen redraw's serialized size, small enough that a
// hostile peer can't force an unbounded expansion.
const initialInflateLimit = 64 * 1024

// inflate decompresses a reassembled instruction with a bounded output: it
// tries initialInflateLimit bytes, doubles the bound once on truncation, and
// fails outright rather than looping if the doubled attempt still doesn't
// fit (a zlib bomb should error, not grow without limit).
func inflate(compressed []byte) ([]byte, error) {
	limit := initialInflateLimit
	for attempt := 0; attempt < 2; attempt++ {
		r, err := zlib.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
		r.Close()
		if err != nil {
			return nil, err
		}
		if len(data) <= limit {
			return data, nil
		}
		if attempt == 0 {
			limit *= 2
		}
	}
	return nil, fmt.Errorf("datagram: inflated instruction exceeds %d bytes", limit)
}
