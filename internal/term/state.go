package term

const (
	screenPrimary = iota
	screenAlternate
)

// State is the full terminal: both screen buffers, the active-screen
// selector, mode bits, scrollback, and the DFA that drives them. It
// satisfies internal/ssp.TerminalFeed.
type State struct {
	primary   *Screen
	alternate *Screen
	active    int

	Modes      Modes
	Scrollback *Scrollback

	// OnReply, if set, receives host-bound reply sequences generated by
	// DSR/DA requests embedded in the fed stream (e.g. cursor position
	// reports). The caller is responsible for writing them back to the
	// session's keystroke channel.
	OnReply func([]byte)

	// Clipboard, if set, backs OSC 52 clipboard set/get requests.
	Clipboard *ClipboardHooks

	parser *parser
}

// NewState builds a terminal of the given size with default modes.
func NewState(cols, rows int) *State {
	return &State{
		primary:    newScreen(cols, rows),
		alternate:  newScreen(cols, rows),
		active:     screenPrimary,
		Modes:      DefaultModes,
		Scrollback: newScrollback(defaultScrollbackLimit),
		parser:     newParser(),
	}
}

// screen resolves the active screen by selector, never a stored pointer,
// per the two-owned-buffers design.
func (t *State) screen() *Screen {
	if t.active == screenAlternate {
		return t.alternate
	}
	return t.primary
}

// Feed drives the VT parser over data, mutating screen state. It is the
// single writer; callers must not feed concurrently.
func (t *State) Feed(data []byte) {
	t.parser.feed(t, data)
}

// Resize applies a window-size change to both screens (so switching
// buffers never shows stale dimensions), clamps cursors, and resets scroll
// regions.
func (t *State) Resize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	t.primary.resize(cols, rows)
	t.alternate.resize(cols, rows)
}
