package term

import "strconv"

// param returns params[i] if present and positive, else def. Used for the
// "n = max(param[0], 1)" convention shared by most cursor-motion finals.
func (p *parser) param(i, def int) int {
	if i >= len(p.params) || p.params[i] <= 0 {
		return def
	}
	return p.params[i]
}

// rawParam returns params[i] if present (including 0), else def. Used where
// 0 is a meaningful, distinct parameter value (ED/EL/DSR/TBC); the
// coordinate finals (CHA/CUP/VPA/DECSTBM) also read through it.
func (p *parser) rawParam(i, def int) int {
	if i >= len(p.params) || p.params[i] < 0 {
		return def
	}
	return p.params[i]
}

func (p *parser) dispatchCSI(t *State, final byte) {
	if p.private {
		p.dispatchPrivateMode(t, final)
		return
	}
	n := p.param(0, 1)
	switch final {
	case 'A':
		t.moveCursorRows(-n, true)
	case 'B':
		t.moveCursorRows(n, true)
	case 'C':
		t.moveCursorCols(n)
	case 'D':
		t.moveCursorCols(-n)
	case 'E':
		t.moveCursorRows(n, false)
		t.screen().CursorCol = 0
	case 'F':
		t.moveCursorRows(-n, false)
		t.screen().CursorCol = 0
	case 'G':
		s := t.screen()
		s.CursorCol = clamp(p.rawParam(0, 1)-1, 0, s.Columns-1)
	case 'H', 'f':
		row := p.rawParam(0, 1) - 1
		col := p.rawParam(1, 1) - 1
		s := t.screen()
		s.CursorRow = clamp(row, 0, s.Rows-1)
		s.CursorCol = clamp(col, 0, s.Columns-1)
	case 'J':
		t.eraseDisplay(p.rawParam(0, 0))
	case 'K':
		t.eraseLine(p.rawParam(0, 0))
	case 'L':
		t.insertLines(n)
	case 'M':
		t.deleteLines(n)
	case 'P':
		t.deleteChars(n)
	case '@':
		t.insertChars(n)
	case 'S':
		t.scrollUp(n)
	case 'T':
		t.scrollDown(n)
	case 'X':
		t.eraseChars(n)
	case 'd':
		s := t.screen()
		s.CursorRow = clamp(p.rawParam(0, 1)-1, 0, s.Rows-1)
	case 'm':
		t.applySGR(p.params)
	case 'n':
		t.deviceStatusReport(p.rawParam(0, 0))
	case 'r':
		t.setScrollRegion(p.rawParam(0, 1), p.rawParam(1, t.screen().Rows))
	case 's':
		t.saveCursor()
	case 'u':
		t.restoreCursor()
	case 'g':
		t.tabClear(p.rawParam(0, 0))
	case 'c':
		t.reportDeviceAttributes(p.marker == '>')
	case 'h':
		t.setMode(p.params, true)
	case 'l':
		t.setMode(p.params, false)
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (t *State) moveCursorRows(delta int, clampToRegion bool) {
	s := t.screen()
	lo, hi := 0, s.Rows-1
	if clampToRegion {
		lo, hi = s.ScrollTop, s.ScrollBottom
	}
	s.CursorRow = clamp(s.CursorRow+delta, lo, hi)
}

func (t *State) moveCursorCols(delta int) {
	s := t.screen()
	s.CursorCol = clamp(s.CursorCol+delta, 0, s.Columns-1)
}

func (t *State) eraseDisplay(mode int) {
	s := t.screen()
	switch mode {
	case 0:
		s.line(s.CursorRow).clearRange(s.CursorCol, s.Columns)
		for r := s.CursorRow + 1; r < s.Rows; r++ {
			s.line(r).clear()
		}
	case 1:
		s.line(s.CursorRow).clearRange(0, s.CursorCol+1)
		for r := 0; r < s.CursorRow; r++ {
			s.line(r).clear()
		}
	case 2:
		for r := 0; r < s.Rows; r++ {
			s.line(r).clear()
		}
	case 3:
		t.Scrollback = newScrollback(defaultScrollbackLimit)
	}
}

func (t *State) eraseLine(mode int) {
	s := t.screen()
	line := s.line(s.CursorRow)
	switch mode {
	case 0:
		line.clearRange(s.CursorCol, s.Columns)
	case 1:
		line.clearRange(0, s.CursorCol+1)
	case 2:
		line.clear()
	}
}

func (t *State) insertLines(n int) {
	s := t.screen()
	if s.CursorRow < s.ScrollTop || s.CursorRow > s.ScrollBottom {
		return
	}
	for i := 0; i < n; i++ {
		copy(s.Lines[s.CursorRow+1:s.ScrollBottom+1], s.Lines[s.CursorRow:s.ScrollBottom])
		s.Lines[s.CursorRow] = newLine(s.Columns)
	}
}

func (t *State) deleteLines(n int) {
	s := t.screen()
	if s.CursorRow < s.ScrollTop || s.CursorRow > s.ScrollBottom {
		return
	}
	for i := 0; i < n; i++ {
		copy(s.Lines[s.CursorRow:s.ScrollBottom], s.Lines[s.CursorRow+1:s.ScrollBottom+1])
		s.Lines[s.ScrollBottom] = newLine(s.Columns)
	}
}

func (t *State) deleteChars(n int) {
	s := t.screen()
	line := s.line(s.CursorRow)
	from := clamp(s.CursorCol+n, 0, len(line.Cells))
	copy(line.Cells[s.CursorCol:], line.Cells[from:])
	for i := len(line.Cells) - (from - s.CursorCol); i < len(line.Cells); i++ {
		if i >= 0 && i < len(line.Cells) {
			line.Cells[i] = blankCell()
		}
	}
}

func (t *State) insertChars(n int) {
	s := t.screen()
	line := s.line(s.CursorRow)
	end := clamp(s.CursorCol+n, 0, len(line.Cells))
	copy(line.Cells[end:], line.Cells[s.CursorCol:len(line.Cells)-(end-s.CursorCol)])
	for i := s.CursorCol; i < end; i++ {
		line.Cells[i] = blankCell()
	}
}

func (t *State) eraseChars(n int) {
	s := t.screen()
	s.line(s.CursorRow).clearRange(s.CursorCol, s.CursorCol+n)
}

func (t *State) setScrollRegion(top, bottom int) {
	s := t.screen()
	top = clamp(top-1, 0, s.Rows-1)
	bottom = clamp(bottom-1, 0, s.Rows-1)
	if top >= bottom {
		top, bottom = 0, s.Rows-1
	}
	s.ScrollTop, s.ScrollBottom = top, bottom
	s.CursorRow, s.CursorCol = 0, 0
}

func (t *State) tabClear(mode int) {
	s := t.screen()
	switch mode {
	case 0:
		delete(s.TabStops, s.CursorCol)
	case 3:
		s.TabStops = make(map[int]bool)
	}
}

// deviceStatusReport and reportDeviceAttributes would normally write a
// reply sequence to the host channel; the reply bytes are returned to the
// caller via OnReply so transport wiring stays outside this package.
func (t *State) deviceStatusReport(kind int) {
	if t.OnReply == nil {
		return
	}
	switch kind {
	case 5:
		t.OnReply([]byte("\x1b[0n"))
	case 6:
		s := t.screen()
		t.OnReply([]byte(csiCursorPositionReport(s.CursorRow+1, s.CursorCol+1)))
	}
}

func (t *State) reportDeviceAttributes(secondary bool) {
	if t.OnReply == nil {
		return
	}
	if secondary {
		t.OnReply([]byte("\x1b[>1;10;0c"))
		return
	}
	t.OnReply([]byte("\x1b[?62;22c"))
}

func (t *State) setMode(params []int, enable bool) {
	for _, m := range params {
		switch m {
		case 4:
			if enable {
				t.Modes = t.Modes.Set(ModeInsert)
			} else {
				t.Modes = t.Modes.Clear(ModeInsert)
			}
		case 20:
			if enable {
				t.Modes = t.Modes.Set(ModeLineFeedNewLine)
			} else {
				t.Modes = t.Modes.Clear(ModeLineFeedNewLine)
			}
		}
	}
}

func (p *parser) dispatchPrivateMode(t *State, final byte) {
	if final != 'h' && final != 'l' {
		return
	}
	enable := final == 'h'
	for _, m := range p.params {
		switch m {
		case 1:
			setModeBit(t, ModeApplicationCursor, enable)
		case 6:
			setModeBit(t, ModeOriginMode, enable)
		case 7:
			setModeBit(t, ModeAutoWrap, enable)
		case 25:
			t.screen().CursorVisible = enable
			setModeBit(t, ModeCursorVisible, enable)
		case 47:
			t.setAlternateScreen(enable, false)
		case 1000:
			setModeBit(t, ModeMouseButton, enable)
		case 1002:
			setModeBit(t, ModeMouseAny, enable)
		case 1004:
			setModeBit(t, ModeFocusEvents, enable)
		case 1006:
			setModeBit(t, ModeMouseSGR, enable)
		case 1049:
			t.setAlternateScreen(enable, true)
		case 2004:
			setModeBit(t, ModeBracketedPaste, enable)
		}
	}
}

func setModeBit(t *State, m Modes, enable bool) {
	if enable {
		t.Modes = t.Modes.Set(m)
	} else {
		t.Modes = t.Modes.Clear(m)
	}
}

func csiCursorPositionReport(row, col int) string {
	return "\x1b[" + strconv.Itoa(row) + ";" + strconv.Itoa(col) + "R"
}
