// Package term implements the DEC ANSI / xterm escape-sequence parser DFA
// and the terminal state (dual screen, scrollback, modes, SGR attributes)
// it mutates.
package term

// Modes is the bitset of terminal modes named in the data model.
type Modes uint32

const (
	ModeAutoWrap Modes = 1 << iota
	ModeCursorVisible
	ModeApplicationKeypad
	ModeApplicationCursor
	ModeOriginMode
	ModeInsert
	ModeLineFeedNewLine
	ModeAlternateScreen
	ModeMouseButton
	ModeMouseAny
	ModeMouseSGR
	ModeFocusEvents
	ModeBracketedPaste
)

// DefaultModes is the initial mode set a freshly constructed terminal
// starts in.
const DefaultModes = ModeAutoWrap | ModeCursorVisible

// Has reports whether every bit in m is set.
func (mo Modes) Has(m Modes) bool { return mo&m == m }

// Set returns mo with every bit in m set.
func (mo Modes) Set(m Modes) Modes { return mo | m }

// Clear returns mo with every bit in m cleared.
func (mo Modes) Clear(m Modes) Modes { return mo &^ m }
