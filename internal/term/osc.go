package term

import (
	"bytes"
	"strconv"
)

// ClipboardHooks holds the advisory Set and Get hooks for OSC 52; the
// clipboard's actual backing store lives outside this package.
type ClipboardHooks struct {
	Set func(data []byte)
	Get func() []byte
}

// applyOSC parses an OSC payload of the form "number;data" and dispatches
// on the number. Unrecognized or malformed payloads are dropped silently.
func (t *State) applyOSC(payload []byte) {
	sep := bytes.IndexByte(payload, ';')
	if sep < 0 {
		return
	}
	num, err := strconv.Atoi(string(payload[:sep]))
	if err != nil {
		return
	}
	data := payload[sep+1:]
	switch num {
	case 0, 1, 2:
		t.screen().Title = string(data)
	case 52:
		if t.Clipboard == nil {
			return
		}
		// "c;<base64>" clears/sets; a bare "?" requests a get.
		if bytes.Equal(data, []byte("?")) || bytes.HasSuffix(data, []byte(";?")) {
			if t.Clipboard.Get != nil {
				_ = t.Clipboard.Get()
			}
			return
		}
		if t.Clipboard.Set != nil {
			t.Clipboard.Set(data)
		}
	case 4, 10, 11, 12:
		// Palette/color queries: no-op per current scope.
	}
}
