package wire

// TransportInstruction is the SSP envelope carried by every sealed
// datagram. diff is opaque to this layer: a UserMessage outbound, a
// HostMessage inbound.
type TransportInstruction struct {
	ProtocolVersion uint32
	OldNum          uint64
	NewNum          uint64
	AckNum          uint64
	ThrowawayNum    uint64
	Diff            []byte
	Chaff           []byte
}

const (
	fieldTIProtocolVersion = 1
	fieldTIOldNum          = 2
	fieldTINewNum          = 3
	fieldTIAckNum          = 4
	fieldTIThrowawayNum    = 5
	fieldTIDiff            = 6
	fieldTIChaff           = 7
)

// Marshal serializes t in field-number order.
func (t TransportInstruction) Marshal() []byte {
	var buf []byte
	buf = appendVarintField(buf, fieldTIProtocolVersion, uint64(t.ProtocolVersion))
	buf = appendVarintField(buf, fieldTIOldNum, t.OldNum)
	buf = appendVarintField(buf, fieldTINewNum, t.NewNum)
	buf = appendVarintField(buf, fieldTIAckNum, t.AckNum)
	buf = appendVarintField(buf, fieldTIThrowawayNum, t.ThrowawayNum)
	if t.Diff != nil {
		buf = appendBytes(buf, fieldTIDiff, t.Diff)
	}
	if t.Chaff != nil {
		buf = appendBytes(buf, fieldTIChaff, t.Chaff)
	}
	return buf
}

// UnmarshalTransportInstruction parses a TransportInstruction, skipping any
// unrecognized fields by their wire type.
func UnmarshalTransportInstruction(data []byte) (TransportInstruction, error) {
	var t TransportInstruction
	d := newDecoder(data)
	for !d.done() {
		field, wireType, err := d.readTag()
		if err != nil {
			return TransportInstruction{}, err
		}
		switch field {
		case fieldTIProtocolVersion:
			v, err := d.readVarint()
			if err != nil {
				return TransportInstruction{}, err
			}
			t.ProtocolVersion = uint32(v)
		case fieldTIOldNum:
			v, err := d.readVarint()
			if err != nil {
				return TransportInstruction{}, err
			}
			t.OldNum = v
		case fieldTINewNum:
			v, err := d.readVarint()
			if err != nil {
				return TransportInstruction{}, err
			}
			t.NewNum = v
		case fieldTIAckNum:
			v, err := d.readVarint()
			if err != nil {
				return TransportInstruction{}, err
			}
			t.AckNum = v
		case fieldTIThrowawayNum:
			v, err := d.readVarint()
			if err != nil {
				return TransportInstruction{}, err
			}
			t.ThrowawayNum = v
		case fieldTIDiff:
			b, err := d.readBytes()
			if err != nil {
				return TransportInstruction{}, err
			}
			t.Diff = append([]byte(nil), b...)
		case fieldTIChaff:
			b, err := d.readBytes()
			if err != nil {
				return TransportInstruction{}, err
			}
			t.Chaff = append([]byte(nil), b...)
		default:
			if err := d.skip(wireType); err != nil {
				return TransportInstruction{}, err
			}
		}
	}
	return t, nil
}

// Keystroke carries raw bytes destined for the remote pty, as produced by
// the key encoder.
type Keystroke struct {
	Keys []byte
}

// Resize carries a terminal size change, shared by UserMessage and
// HostMessage.
type Resize struct {
	Width  int32
	Height int32
}

// EchoAck carries the host's receipt of a predicted-echo epoch; currently
// used only by the HostMessage side of the protocol.
type EchoAck struct {
	EchoAckNum uint64
}

const (
	fieldInstructionEntry = 1

	fieldUserKeystroke = 2
	fieldUserResize    = 3
	fieldKeystrokeKeys = 4

	fieldResizeWidth  = 5
	fieldResizeHeight = 6

	fieldHostHostBytes = 2
	fieldHostResize    = 3
	fieldHostBytesData = 4
	fieldHostEchoAck   = 7
	fieldEchoAckNum    = 8
)

func marshalResize(r Resize) []byte {
	var buf []byte
	buf = appendVarintField(buf, fieldResizeWidth, uint64(uint32(r.Width)))
	buf = appendVarintField(buf, fieldResizeHeight, uint64(uint32(r.Height)))
	return buf
}

func unmarshalResize(data []byte) (Resize, error) {
	var r Resize
	d := newDecoder(data)
	for !d.done() {
		field, wireType, err := d.readTag()
		if err != nil {
			return Resize{}, err
		}
		switch field {
		case fieldResizeWidth:
			v, err := d.readVarint()
			if err != nil {
				return Resize{}, err
			}
			r.Width = int32(uint32(v))
		case fieldResizeHeight:
			v, err := d.readVarint()
			if err != nil {
				return Resize{}, err
			}
			r.Height = int32(uint32(v))
		default:
			if err := d.skip(wireType); err != nil {
				return Resize{}, err
			}
		}
	}
	return r, nil
}

// UserInstruction is one entry of a UserMessage: exactly one of Keystroke or
// Resize is populated.
type UserInstruction struct {
	Keystroke *Keystroke
	Resize    *Resize
}

// UserMessage is the outbound diff type: a sequence of keystroke/resize
// instructions accumulated since the last acked state.
type UserMessage struct {
	Instructions []UserInstruction
}

func marshalKeystroke(k Keystroke) []byte {
	return appendBytes(nil, fieldKeystrokeKeys, k.Keys)
}

func unmarshalKeystroke(data []byte) (Keystroke, error) {
	var k Keystroke
	d := newDecoder(data)
	for !d.done() {
		field, wireType, err := d.readTag()
		if err != nil {
			return Keystroke{}, err
		}
		if field == fieldKeystrokeKeys {
			b, err := d.readBytes()
			if err != nil {
				return Keystroke{}, err
			}
			k.Keys = append([]byte(nil), b...)
			continue
		}
		if err := d.skip(wireType); err != nil {
			return Keystroke{}, err
		}
	}
	return k, nil
}

// Marshal serializes a UserMessage.
func (m UserMessage) Marshal() []byte {
	var buf []byte
	for _, instr := range m.Instructions {
		var entry []byte
		if instr.Keystroke != nil {
			entry = appendBytes(entry, fieldUserKeystroke, marshalKeystroke(*instr.Keystroke))
		}
		if instr.Resize != nil {
			entry = appendBytes(entry, fieldUserResize, marshalResize(*instr.Resize))
		}
		buf = appendBytes(buf, fieldInstructionEntry, entry)
	}
	return buf
}

// UnmarshalUserMessage parses a UserMessage, skipping unknown fields.
func UnmarshalUserMessage(data []byte) (UserMessage, error) {
	var m UserMessage
	d := newDecoder(data)
	for !d.done() {
		field, wireType, err := d.readTag()
		if err != nil {
			return UserMessage{}, err
		}
		if field != fieldInstructionEntry {
			if err := d.skip(wireType); err != nil {
				return UserMessage{}, err
			}
			continue
		}
		entryBytes, err := d.readBytes()
		if err != nil {
			return UserMessage{}, err
		}
		instr, err := parseUserInstruction(entryBytes)
		if err != nil {
			return UserMessage{}, err
		}
		m.Instructions = append(m.Instructions, instr)
	}
	return m, nil
}

func parseUserInstruction(data []byte) (UserInstruction, error) {
	var instr UserInstruction
	d := newDecoder(data)
	for !d.done() {
		field, wireType, err := d.readTag()
		if err != nil {
			return UserInstruction{}, err
		}
		switch field {
		case fieldUserKeystroke:
			b, err := d.readBytes()
			if err != nil {
				return UserInstruction{}, err
			}
			k, err := unmarshalKeystroke(b)
			if err != nil {
				return UserInstruction{}, err
			}
			instr.Keystroke = &k
		case fieldUserResize:
			b, err := d.readBytes()
			if err != nil {
				return UserInstruction{}, err
			}
			r, err := unmarshalResize(b)
			if err != nil {
				return UserInstruction{}, err
			}
			instr.Resize = &r
		default:
			if err := d.skip(wireType); err != nil {
				return UserInstruction{}, err
			}
		}
	}
	return instr, nil
}

// HostBytes carries raw output bytes from the remote pty.
type HostBytes struct {
	HostString []byte
}

// HostInstruction is one entry of a HostMessage: exactly one of HostBytes,
// Resize, or EchoAck is populated.
type HostInstruction struct {
	HostBytes *HostBytes
	Resize    *Resize
	EchoAck   *EchoAck
}

// HostMessage is the inbound diff type.
type HostMessage struct {
	Instructions []HostInstruction
}

func marshalHostBytes(h HostBytes) []byte {
	return appendBytes(nil, fieldHostBytesData, h.HostString)
}

func unmarshalHostBytes(data []byte) (HostBytes, error) {
	var h HostBytes
	d := newDecoder(data)
	for !d.done() {
		field, wireType, err := d.readTag()
		if err != nil {
			return HostBytes{}, err
		}
		if field == fieldHostBytesData {
			b, err := d.readBytes()
			if err != nil {
				return HostBytes{}, err
			}
			h.HostString = append([]byte(nil), b...)
			continue
		}
		if err := d.skip(wireType); err != nil {
			return HostBytes{}, err
		}
	}
	return h, nil
}

func marshalEchoAck(e EchoAck) []byte {
	return appendVarintField(nil, fieldEchoAckNum, e.EchoAckNum)
}

func unmarshalEchoAck(data []byte) (EchoAck, error) {
	var e EchoAck
	d := newDecoder(data)
	for !d.done() {
		field, wireType, err := d.readTag()
		if err != nil {
			return EchoAck{}, err
		}
		if field == fieldEchoAckNum {
			v, err := d.readVarint()
			if err != nil {
				return EchoAck{}, err
			}
			e.EchoAckNum = v
			continue
		}
		if err := d.skip(wireType); err != nil {
			return EchoAck{}, err
		}
	}
	return e, nil
}

// Marshal serializes a HostMessage.
func (m HostMessage) Marshal() []byte {
	var buf []byte
	for _, instr := range m.Instructions {
		var entry []byte
		if instr.HostBytes != nil {
			entry = appendBytes(entry, fieldHostHostBytes, marshalHostBytes(*instr.HostBytes))
		}
		if instr.Resize != nil {
			entry = appendBytes(entry, fieldHostResize, marshalResize(*instr.Resize))
		}
		if instr.EchoAck != nil {
			entry = appendBytes(entry, fieldHostEchoAck, marshalEchoAck(*instr.EchoAck))
		}
		buf = appendBytes(buf, fieldInstructionEntry, entry)
	}
	return buf
}

// UnmarshalHostMessage parses a HostMessage, skipping unknown fields.
func UnmarshalHostMessage(data []byte) (HostMessage, error) {
	var m HostMessage
	d := newDecoder(data)
	for !d.done() {
		field, wireType, err := d.readTag()
		if err != nil {
			return HostMessage{}, err
		}
		if field != fieldInstructionEntry {
			if err := d.skip(wireType); err != nil {
				return HostMessage{}, err
			}
			continue
		}
		entryBytes, err := d.readBytes()
		if err != nil {
			return HostMessage{}, err
		}
		instr, err := parseHostInstruction(entryBytes)
		if err != nil {
			return HostMessage{}, err
		}
		m.Instructions = append(m.Instructions, instr)
	}
	return m, nil
}

func parseHostInstruction(data []byte) (HostInstruction, error) {
	var instr HostInstruction
	d := newDecoder(data)
	for !d.done() {
		field, wireType, err := d.readTag()
		if err != nil {
			return HostInstruction{}, err
		}
		switch field {
		case fieldHostHostBytes:
			b, err := d.readBytes()
			if err != nil {
				return HostInstruction{}, err
			}
			h, err := unmarshalHostBytes(b)
			if err != nil {
				return HostInstruction{}, err
			}
			instr.HostBytes = &h
		case fieldHostResize:
			b, err := d.readBytes()
			if err != nil {
				return HostInstruction{}, err
			}
			r, err := unmarshalResize(b)
			if err != nil {
				return HostInstruction{}, err
			}
			instr.Resize = &r
		case fieldHostEchoAck:
			b, err := d.readBytes()
			if err != nil {
				return HostInstruction{}, err
			}
			e, err := unmarshalEchoAck(b)
			if err != nil {
				return HostInstruction{}, err
			}
			instr.EchoAck = &e
		default:
			if err := d.skip(wireType); err != nil {
				return HostInstruction{}, err
			}
		}
	}
	return instr, nil
}
