package term

import "testing"

func lineString(t *State, row int) string {
	s := t.screen()
	b := make([]rune, 0, s.Columns)
	for _, c := range s.Lines[row].Cells {
		b = append(b, c.Char)
	}
	return string(b)
}

func TestFeed_PlainTextAndNewlines(t *testing.T) {
	st := NewState(80, 24)
	st.Feed([]byte("Hello\r\nWorld"))

	if got := lineString(st, 0)[:5]; got != "Hello" {
		t.Fatalf("row 0 = %q, want Hello...", got)
	}
	if got := lineString(st, 1)[:5]; got != "World" {
		t.Fatalf("row 1 = %q, want World...", got)
	}
	s := st.screen()
	if s.CursorRow != 1 || s.CursorCol != 5 {
		t.Fatalf("cursor = (%d,%d), want (1,5)", s.CursorRow, s.CursorCol)
	}
}

func TestFeed_SGRColorReset(t *testing.T) {
	st := NewState(80, 24)
	st.Feed([]byte("\x1b[31mR\x1b[0mN"))

	s := st.screen()
	if s.Lines[0].Cells[0].Fg != Indexed(1) {
		t.Fatalf("cell(0,0).fg = %+v, want indexed(1)", s.Lines[0].Cells[0].Fg)
	}
	if s.Lines[0].Cells[1].Fg != DefaultColor {
		t.Fatalf("cell(0,1).fg = %+v, want default", s.Lines[0].Cells[1].Fg)
	}
	if s.Lines[0].Cells[1].Attr != 0 {
		t.Fatalf("cell(0,1).attr = %v, want 0", s.Lines[0].Cells[1].Attr)
	}
}

func TestFeed_AlternateScreenSwitch(t *testing.T) {
	st := NewState(80, 24)
	st.Feed([]byte("A\x1b[?1049hB\x1b[?1049lC"))

	if got := st.primary.Lines[0].Cells[0].Char; got != 'A' {
		t.Fatalf("primary(0,0) = %q, want A", got)
	}
	if got := st.primary.Lines[0].Cells[1].Char; got != 'C' {
		t.Fatalf("primary(0,1) = %q, want C", got)
	}
	if got := st.alternate.Lines[0].Cells[0].Char; got != 'B' {
		t.Fatalf("alternate(0,0) = %q, want B", got)
	}
	if st.active != screenPrimary {
		t.Fatalf("expected active screen restored to primary")
	}
	if st.primary.CursorCol != 2 {
		t.Fatalf("cursor col = %d, want 2 (after AC)", st.primary.CursorCol)
	}
}

func TestFeed_ScrollbackGrowsByOneLine(t *testing.T) {
	st := NewState(80, 24)
	var buf []byte
	for i := 0; i < 25; i++ {
		buf = append(buf, []byte{byte('A' + i%26)}...)
		if i < 24 {
			buf = append(buf, '\r', '\n')
		}
	}
	st.Feed(buf)

	if st.Scrollback.Len() != 1 {
		t.Fatalf("scrollback length = %d, want 1", st.Scrollback.Len())
	}
	if got := st.Scrollback.Line(0).Cells[0].Char; got != 'A' {
		t.Fatalf("scrollback line 0 starts with %q, want A", got)
	}
}

func TestFeed_CUPOutOfRangeClamped(t *testing.T) {
	st := NewState(80, 24)
	st.Feed([]byte("\x1b[999;999H"))

	s := st.screen()
	if s.CursorRow != 23 || s.CursorCol != 79 {
		t.Fatalf("cursor = (%d,%d), want (23,79)", s.CursorRow, s.CursorCol)
	}
}

func TestFeed_InvalidUTF8Dropped(t *testing.T) {
	st := NewState(80, 24)
	st.Feed([]byte{0xC0, 0x41}) // invalid lead byte continuation, then 'A'
	s := st.screen()
	if s.Lines[0].Cells[0].Char != 'A' {
		t.Fatalf("expected recovery to print A at col 0, got %q", s.Lines[0].Cells[0].Char)
	}
}

func TestFeed_CSIIntermediateIsNoOp(t *testing.T) {
	st := NewState(80, 24)
	st.Feed([]byte("\x1b[0 qX"))
	s := st.screen()
	if s.Lines[0].Cells[0].Char != 'X' {
		t.Fatalf("expected X printed after no-op intermediate CSI, got %q", s.Lines[0].Cells[0].Char)
	}
}

func TestFeed_DeviceStatusReportCallback(t *testing.T) {
	st := NewState(80, 24)
	var reply []byte
	st.OnReply = func(b []byte) { reply = b }
	st.Feed([]byte("\x1b[6n"))
	if string(reply) != "\x1b[1;1R" {
		t.Fatalf("reply = %q, want ESC[1;1R", reply)
	}
}

func TestFeed_DASecondaryReplyAndNoLeakedText(t *testing.T) {
	st := NewState(80, 24)
	var reply []byte
	st.OnReply = func(b []byte) { reply = b }
	st.Feed([]byte("\x1b[>cX"))
	if string(reply) != "\x1b[>1;10;0c" {
		t.Fatalf("reply = %q, want ESC[>1;10;0c", reply)
	}
	if got := st.screen().Lines[0].Cells[0].Char; got != 'X' {
		t.Fatalf("cell(0,0) = %q, want X (marker byte must not print or swallow following text)", got)
	}
}

func TestFeed_DAPrimaryReplyUnaffectedByMarker(t *testing.T) {
	st := NewState(80, 24)
	var reply []byte
	st.OnReply = func(b []byte) { reply = b }
	st.Feed([]byte("\x1b[c"))
	if string(reply) != "\x1b[?62;22c" {
		t.Fatalf("reply = %q, want ESC[?62;22c", reply)
	}
}
