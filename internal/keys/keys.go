// Package keys encodes client key events into the VT byte sequences a
// mosh server expects on its pty, honoring the session's application
// cursor/keypad modes.
package keys

import (
	"strconv"

	"moshcore/internal/term"
)

// Modifier is a bitset of held modifier keys.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModAlt
	ModControl
	ModSuper
)

// Has reports whether every bit in m is set.
func (mo Modifier) Has(m Modifier) bool { return mo&m == m }

// Event is one key press/release, using USB HID keycodes the same way the
// host's window-system layer reports them.
type Event struct {
	KeyCode    uint32
	Modifiers  Modifier
	IsKeyDown  bool
	Characters string
}

// HID keycodes for the special keys this encoder recognizes. Values match
// the USB HID usage table (Usage Page 0x07).
const (
	HIDReturn     = 0x28
	HIDEscape     = 0x29
	HIDBackspace  = 0x2A
	HIDTab        = 0x2B
	HIDInsert     = 0x49
	HIDHome       = 0x4A
	HIDPageUp     = 0x4B
	HIDDelete     = 0x4C
	HIDEnd        = 0x4D
	HIDPageDown   = 0x4E
	HIDRight      = 0x4F
	HIDLeft       = 0x50
	HIDDown       = 0x51
	HIDUp         = 0x52
	HIDF1         = 0x3A
	HIDF2         = 0x3B
	HIDF3         = 0x3C
	HIDF4         = 0x3D
	HIDF5         = 0x3E
	HIDF6         = 0x3F
	HIDF7         = 0x40
	HIDF8         = 0x41
	HIDF9         = 0x42
	HIDF10        = 0x43
	HIDF11        = 0x44
	HIDF12        = 0x45
)

// specialKey describes a non-character key: its cursor-style escape letter
// (for the CSI/SS3-letter family) and, for the CSI-tilde family, its
// numeric code.
type specialKey struct {
	letter byte // 0 if this key uses the tilde form
	tilde  int  // 0 if this key uses the letter form
	cursor bool // true if application-cursor mode swaps CSI<->SS3
}

var specialKeys = map[uint32]specialKey{
	HIDUp:       {letter: 'A', cursor: true},
	HIDDown:     {letter: 'B', cursor: true},
	HIDRight:    {letter: 'C', cursor: true},
	HIDLeft:     {letter: 'D', cursor: true},
	HIDHome:     {letter: 'H', cursor: true},
	HIDEnd:      {letter: 'F', cursor: true},
	HIDInsert:   {tilde: 2},
	HIDDelete:   {tilde: 3},
	HIDPageUp:   {tilde: 5},
	HIDPageDown: {tilde: 6},
	HIDF1:       {letter: 'P', cursor: false},
	HIDF2:       {letter: 'Q', cursor: false},
	HIDF3:       {letter: 'R', cursor: false},
	HIDF4:       {letter: 'S', cursor: false},
	HIDF5:       {tilde: 15},
	HIDF6:       {tilde: 17},
	HIDF7:       {tilde: 18},
	HIDF8:       {tilde: 19},
	HIDF9:       {tilde: 20},
	HIDF10:      {tilde: 21},
	HIDF11:      {tilde: 23},
	HIDF12:      {tilde: 24},
}

// Encode returns the VT byte sequence a key event should produce given the
// terminal's current modes. It never mutates modes.
func Encode(e Event, modes term.Modes) []byte {
	if !e.IsKeyDown {
		return nil
	}
	if e.KeyCode == HIDTab && e.Modifiers == ModShift {
		return []byte("\x1b[Z")
	}

	onlyShift := e.Modifiers &^ ModShift

	if e.Characters != "" && onlyShift == 0 {
		if b, ok := encodeSpecial(e.KeyCode, 0, modes); ok {
			return b
		}
		return []byte(e.Characters)
	}

	if e.Modifiers.Has(ModControl) && e.Characters != "" {
		if folded, ok := controlFold(e.Characters); ok {
			return folded
		}
	}

	if sk, ok := specialKeys[e.KeyCode]; ok {
		return encodeSpecialKey(sk, e.Modifiers, modes)
	}

	switch e.KeyCode {
	case HIDReturn:
		return []byte("\r")
	case HIDEscape:
		return []byte("\x1b")
	case HIDBackspace:
		return []byte{0x7F}
	case HIDTab:
		return []byte("\t")
	}

	if e.Characters != "" {
		return []byte(e.Characters)
	}
	return nil
}

func encodeSpecial(keyCode uint32, mod Modifier, modes term.Modes) ([]byte, bool) {
	sk, ok := specialKeys[keyCode]
	if !ok {
		return nil, false
	}
	return encodeSpecialKey(sk, mod, modes), true
}

func encodeSpecialKey(sk specialKey, mod Modifier, modes term.Modes) []byte {
	xtermMod := xtermModifier(mod)
	appCursor := sk.cursor && modes.Has(term.ModeApplicationCursor)

	if sk.tilde != 0 {
		if xtermMod == 1 {
			return []byte("\x1b[" + strconv.Itoa(sk.tilde) + "~")
		}
		return []byte("\x1b[" + strconv.Itoa(sk.tilde) + ";" + strconv.Itoa(xtermMod) + "~")
	}

	if xtermMod == 1 {
		if appCursor {
			return []byte{0x1b, 'O', sk.letter}
		}
		return []byte{0x1b, '[', sk.letter}
	}
	return []byte("\x1b[1;" + strconv.Itoa(xtermMod) + string(sk.letter))
}

// xtermModifier computes xterm's 1+shift+2*alt+4*control+8*super encoding.
func xtermModifier(mod Modifier) int {
	n := 1
	if mod.Has(ModShift) {
		n += 1
	}
	if mod.Has(ModAlt) {
		n += 2
	}
	if mod.Has(ModControl) {
		n += 4
	}
	if mod.Has(ModSuper) {
		n += 8
	}
	return n
}

// controlFold applies C0 control-character folding to a single character.
func controlFold(s string) ([]byte, bool) {
	if len(s) != 1 {
		r := []rune(s)
		if len(r) != 1 {
			return nil, false
		}
		return foldRune(r[0])
	}
	return foldRune(rune(s[0]))
}

func foldRune(c rune) ([]byte, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return []byte{byte(c) & 0x1F}, true
	case c >= 'A' && c <= 'Z':
		return []byte{byte(c) & 0x1F}, true
	case c == '[' || c == '{':
		return []byte{0x1B}, true
	case c == '\\':
		return []byte{0x1C}, true
	case c == ']' || c == '}':
		return []byte{0x1D}, true
	case c == '^' || c == '~':
		return []byte{0x1E}, true
	case c == '_':
		return []byte{0x1F}, true
	case c == '@' || c == ' ':
		return []byte{0x00}, true
	}
	return nil, false
}
