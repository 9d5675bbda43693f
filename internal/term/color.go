package term

// ColorKind selects which of Color's fields is meaningful.
type ColorKind uint8

const (
	ColorDefault ColorKind = iota
	ColorIndexed
	ColorRGB
)

// Color is a terminal foreground/background color: the unset default, one
// of the 256 palette indices (0-15 named, 16-231 cube, 232-255 grayscale),
// or a direct 24-bit RGB triple (SGR 38/48;2;r;g;b).
type Color struct {
	Kind    ColorKind
	Index   uint8
	R, G, B uint8
}

// DefaultColor is the unset "use the terminal's default" color.
var DefaultColor = Color{Kind: ColorDefault}

// Indexed builds a palette-index color.
func Indexed(i uint8) Color { return Color{Kind: ColorIndexed, Index: i} }

// RGB builds a direct-color color.
func RGB(r, g, b uint8) Color { return Color{Kind: ColorRGB, R: r, G: g, B: b} }

// ansiColorIndex maps SGR 30-37/90-97 (and 40-47/100-107) offsets to the
// 16-color named palette index.
func ansiColorIndex(base int, bright bool) uint8 {
	if bright {
		return uint8(8 + base)
	}
	return uint8(base)
}
