package wire

import (
	"bytes"
	"reflect"
	"testing"
)

func TestTransportInstruction_RoundTrip(t *testing.T) {
	ti := TransportInstruction{
		ProtocolVersion: 2,
		OldNum:          3,
		NewNum:          7,
		AckNum:          3,
		ThrowawayNum:    3,
		Diff:            []byte{1, 2, 3, 4},
	}
	data := ti.Marshal()
	got, err := UnmarshalTransportInstruction(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, ti) {
		t.Fatalf("mismatch: got %+v want %+v", got, ti)
	}
}

func TestUserMessage_RoundTrip(t *testing.T) {
	msg := UserMessage{Instructions: []UserInstruction{
		{Keystroke: &Keystroke{Keys: []byte("ls -la\r")}},
		{Resize: &Resize{Width: 80, Height: 24}},
	}}
	data := msg.Marshal()
	got, err := UnmarshalUserMessage(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Instructions) != 2 {
		t.Fatalf("expected 2 instructions, got %d", len(got.Instructions))
	}
	if !bytes.Equal(got.Instructions[0].Keystroke.Keys, []byte("ls -la\r")) {
		t.Fatalf("keystroke mismatch: %+v", got.Instructions[0].Keystroke)
	}
	if got.Instructions[1].Resize.Width != 80 || got.Instructions[1].Resize.Height != 24 {
		t.Fatalf("resize mismatch: %+v", got.Instructions[1].Resize)
	}
}

func TestUserMessage_Empty(t *testing.T) {
	msg := UserMessage{}
	data := msg.Marshal()
	got, err := UnmarshalUserMessage(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Instructions) != 0 {
		t.Fatalf("expected no instructions, got %d", len(got.Instructions))
	}
}

func TestHostMessage_RoundTrip(t *testing.T) {
	msg := HostMessage{Instructions: []HostInstruction{
		{HostBytes: &HostBytes{HostString: []byte("\x1b[2J\x1b[Hhello")}},
		{Resize: &Resize{Width: 100, Height: 40}},
		{EchoAck: &EchoAck{EchoAckNum: 12345}},
	}}
	data := msg.Marshal()
	got, err := UnmarshalHostMessage(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Instructions) != 3 {
		t.Fatalf("expected 3 instructions, got %d", len(got.Instructions))
	}
	if !bytes.Equal(got.Instructions[0].HostBytes.HostString, []byte("\x1b[2J\x1b[Hhello")) {
		t.Fatalf("hostbytes mismatch")
	}
	if got.Instructions[1].Resize.Width != 100 {
		t.Fatalf("resize mismatch")
	}
	if got.Instructions[2].EchoAck.EchoAckNum != 12345 {
		t.Fatalf("echoack mismatch")
	}
}

func TestUnknownFieldsSkipped(t *testing.T) {
	var buf []byte
	buf = appendVarintField(buf, 99, 123) // unknown field, varint
	buf = appendVarintField(buf, fieldTIOldNum, 5)
	buf = appendBytes(buf, 88, []byte("ignored")) // unknown field, bytes
	buf = appendVarintField(buf, fieldTINewNum, 9)

	got, err := UnmarshalTransportInstruction(buf)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.OldNum != 5 || got.NewNum != 9 {
		t.Fatalf("unexpected parse around unknown fields: %+v", got)
	}
}
