package term

// defaultScrollbackLimit bounds how many scrolled-off lines are retained
// before the oldest are dropped.
const defaultScrollbackLimit = 10000

// Scrollback is a bounded ring of lines that have scrolled off the top of
// the primary screen. The alternate screen never feeds it (matching xterm:
// full-screen applications don't pollute history).
type Scrollback struct {
	lines []Line
	limit int
}

func newScrollback(limit int) *Scrollback {
	if limit <= 0 {
		limit = defaultScrollbackLimit
	}
	return &Scrollback{limit: limit}
}

// Push appends a line, dropping the oldest if over the limit.
func (sb *Scrollback) Push(l Line) {
	sb.lines = append(sb.lines, l)
	if len(sb.lines) > sb.limit {
		sb.lines = sb.lines[len(sb.lines)-sb.limit:]
	}
}

// Len returns the number of retained lines.
func (sb *Scrollback) Len() int { return len(sb.lines) }

// Line returns the i-th retained line, oldest first.
func (sb *Scrollback) Line(i int) Line { return sb.lines[i] }
