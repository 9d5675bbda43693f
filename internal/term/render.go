package term

// Snapshot is a read-only, race-free copy of the currently active screen,
// safe to hand to a renderer on another goroutine.
type Snapshot struct {
	Rows, Columns int
	Lines         [][]Cell
	CursorRow     int
	CursorCol     int
	CursorVisible bool
	Title         string
}

// Render copies the active screen's grid and cursor into a Snapshot. The
// caller owns the result; later mutation of State does not affect it.
func (t *State) Render() Snapshot {
	s := t.screen()
	lines := make([][]Cell, len(s.Lines))
	for i, l := range s.Lines {
		row := make([]Cell, len(l.Cells))
		copy(row, l.Cells)
		lines[i] = row
	}
	return Snapshot{
		Rows:          s.Rows,
		Columns:       s.Columns,
		Lines:         lines,
		CursorRow:     s.CursorRow,
		CursorCol:     s.CursorCol,
		CursorVisible: s.CursorVisible,
		Title:         s.Title,
	}
}
