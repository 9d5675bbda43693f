package term

// applySGR updates the active screen's current attributes/colors per the
// SGR parameter list. An empty list is the `ESC[m` reset shorthand.
func (t *State) applySGR(params []int) {
	s := t.screen()
	if len(params) == 0 {
		s.CurrentAttr = 0
		s.CurrentFG = DefaultColor
		s.CurrentBG = DefaultColor
		return
	}
	for i := 0; i < len(params); i++ {
		code := params[i]
		if code < 0 {
			code = 0
		}
		switch {
		case code == 0:
			s.CurrentAttr = 0
			s.CurrentFG = DefaultColor
			s.CurrentBG = DefaultColor
		case code == 1:
			s.CurrentAttr |= AttrBold
		case code == 2:
			s.CurrentAttr |= AttrDim
		case code == 3:
			s.CurrentAttr |= AttrItalic
		case code == 4:
			s.CurrentAttr |= AttrUnderline
		case code == 5 || code == 6:
			s.CurrentAttr |= AttrBlink
		case code == 7:
			s.CurrentAttr |= AttrInverse
		case code == 8:
			s.CurrentAttr |= AttrHidden
		case code == 9:
			s.CurrentAttr |= AttrStrikethrough
		case code == 21:
			s.CurrentAttr &^= AttrBold
		case code == 22:
			s.CurrentAttr &^= AttrBold | AttrDim
		case code == 23:
			s.CurrentAttr &^= AttrItalic
		case code == 24:
			s.CurrentAttr &^= AttrUnderline
		case code == 25:
			s.CurrentAttr &^= AttrBlink
		case code == 27:
			s.CurrentAttr &^= AttrInverse
		case code == 28:
			s.CurrentAttr &^= AttrHidden
		case code == 29:
			s.CurrentAttr &^= AttrStrikethrough
		case code >= 30 && code <= 37:
			s.CurrentFG = Indexed(ansiColorIndex(code-30, false))
		case code == 38:
			i = parseExtendedColor(params, i, &s.CurrentFG)
		case code == 39:
			s.CurrentFG = DefaultColor
		case code >= 40 && code <= 47:
			s.CurrentBG = Indexed(ansiColorIndex(code-40, false))
		case code == 48:
			i = parseExtendedColor(params, i, &s.CurrentBG)
		case code == 49:
			s.CurrentBG = DefaultColor
		case code >= 90 && code <= 97:
			s.CurrentFG = Indexed(ansiColorIndex(code-90, true))
		case code >= 100 && code <= 107:
			s.CurrentBG = Indexed(ansiColorIndex(code-100, true))
		}
	}
}

// parseExtendedColor consumes the `5;n` or `2;r;g;b` form following a 38/48
// code, writes the resulting color into dst, and returns the index of the
// last parameter consumed so the caller's loop can advance past it.
func parseExtendedColor(params []int, i int, dst *Color) int {
	if i+1 >= len(params) {
		return i
	}
	switch params[i+1] {
	case 5:
		if i+2 < len(params) {
			*dst = Indexed(uint8(params[i+2]))
			return i + 2
		}
	case 2:
		if i+4 < len(params) {
			*dst = RGB(uint8(params[i+2]), uint8(params[i+3]), uint8(params[i+4]))
			return i + 4
		}
	}
	return i
}
