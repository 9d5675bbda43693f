package term

// print writes r at the cursor with the active screen's current SGR state,
// wrapping first if autoWrap is on and the cursor sits past the right edge.
func (t *State) print(r rune) {
	s := t.screen()
	if s.CursorCol >= s.Columns {
		if !t.Modes.Has(ModeAutoWrap) {
			s.CursorCol = s.Columns - 1
		} else {
			s.CursorCol = 0
			t.lineFeed()
		}
	}
	line := s.line(s.CursorRow)
	if s.CursorCol < len(line.Cells) {
		line.Cells[s.CursorCol] = Cell{Char: r, Fg: s.CurrentFG, Bg: s.CurrentBG, Attr: s.CurrentAttr}
	}
	s.CursorCol++
}

func (t *State) backspace() {
	s := t.screen()
	if s.CursorCol > 0 {
		s.CursorCol--
	}
}

func (t *State) tab() {
	s := t.screen()
	for c := s.CursorCol + 1; c < s.Columns; c++ {
		if s.TabStops[c] {
			s.CursorCol = c
			return
		}
	}
	s.CursorCol = s.Columns - 1
}

func (t *State) setTabStopAtCursor() {
	s := t.screen()
	s.TabStops[s.CursorCol] = true
}

func (t *State) carriageReturn() {
	t.screen().CursorCol = 0
}

// lineFeed advances the cursor a row, scrolling the region up when already
// at its bottom edge.
func (t *State) lineFeed() {
	s := t.screen()
	if s.CursorRow == s.ScrollBottom {
		t.scrollUp(1)
		return
	}
	if s.CursorRow < s.Rows-1 {
		s.CursorRow++
	}
}

func (t *State) index() { t.lineFeed() }

func (t *State) reverseIndex() {
	s := t.screen()
	if s.CursorRow == s.ScrollTop {
		t.scrollDown(1)
		return
	}
	if s.CursorRow > 0 {
		s.CursorRow--
	}
}

// scrollUp shifts lines[scrollTop+1..scrollBottom] up by n, blanking the
// vacated bottom lines. On the primary screen with scrollTop == 0, evicted
// lines are pushed into scrollback.
func (t *State) scrollUp(n int) {
	s := t.screen()
	toScrollback := t.active == screenPrimary && s.ScrollTop == 0
	for i := 0; i < n; i++ {
		if toScrollback {
			t.Scrollback.Push(s.Lines[s.ScrollTop])
		}
		copy(s.Lines[s.ScrollTop:s.ScrollBottom], s.Lines[s.ScrollTop+1:s.ScrollBottom+1])
		s.Lines[s.ScrollBottom] = newLine(s.Columns)
	}
}

func (t *State) scrollDown(n int) {
	s := t.screen()
	for i := 0; i < n; i++ {
		copy(s.Lines[s.ScrollTop+1:s.ScrollBottom+1], s.Lines[s.ScrollTop:s.ScrollBottom])
		s.Lines[s.ScrollTop] = newLine(s.Columns)
	}
}

func (t *State) saveCursor() {
	s := t.screen()
	s.savedCursor = &savedCursor{
		row: s.CursorRow, col: s.CursorCol,
		fg: s.CurrentFG, bg: s.CurrentBG, attr: s.CurrentAttr,
	}
}

func (t *State) restoreCursor() {
	s := t.screen()
	if s.savedCursor == nil {
		s.CursorRow, s.CursorCol = 0, 0
		return
	}
	sc := s.savedCursor
	s.CursorRow, s.CursorCol = sc.row, sc.col
	s.CurrentFG, s.CurrentBG, s.CurrentAttr = sc.fg, sc.bg, sc.attr
	s.clampCursor()
}

// fullReset (RIS) clears both screens, scrollback, and restores default
// modes; the parser's own in-progress sequence is separately reset by the
// caller returning to Ground.
func (t *State) fullReset() {
	cols, rows := t.primary.Columns, t.primary.Rows
	t.primary = newScreen(cols, rows)
	t.alternate = newScreen(cols, rows)
	t.active = screenPrimary
	t.Modes = DefaultModes
	t.Scrollback = newScrollback(defaultScrollbackLimit)
}

// setAlternateScreen implements DEC private mode 1049/47: switching to the
// alternate screen clears it. With withCursor (mode 1049) the cursor is
// saved on entry and restored on switching back; mode 47 does neither.
func (t *State) setAlternateScreen(on bool, withCursor bool) {
	if on {
		if withCursor {
			t.saveCursor()
		}
		t.active = screenAlternate
		*t.alternate = *newScreen(t.alternate.Columns, t.alternate.Rows)
		t.Modes = t.Modes.Set(ModeAlternateScreen)
		return
	}
	t.active = screenPrimary
	t.Modes = t.Modes.Clear(ModeAlternateScreen)
	if withCursor {
		t.restoreCursor()
	}
}
