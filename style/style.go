// Package style defines resolved text style records and their
// cascading merge semantics.
//
// A Style is produced by an external style resolver and consumed by
// the layout builder. Unset fields mean "inherit from the enclosing
// style"; Merge implements that cascade explicitly rather than by
// object inheritance.
package style

import "image/color"

// A Decoration is an opaque bag of text decorations.
// The layout engine passes decorations through to the renderer
// without interpreting them.
type Decoration uint8

const (
	Underline Decoration = 1 << iota
	Strikethrough
)

// LineHeightKind tags how a LineHeight value is interpreted.
type LineHeightKind int

const (
	// LineHeightDefault inherits, or falls back to the default factor.
	LineHeightDefault LineHeightKind = iota
	// LineHeightFactor is a multiplier of the font size.
	LineHeightFactor
	// LineHeightAbsolute is a height in device-independent pixels.
	LineHeightAbsolute
)

// defaultFactor is the line height used when none is specified,
// as a multiple of the font size.
const defaultFactor = 1.2

// A LineHeight is either a multiplier of the font size
// or an absolute pixel value.
type LineHeight struct {
	Kind  LineHeightKind
	Value float64
}

// Factor returns a multiplier line height.
func Factor(f float64) LineHeight { return LineHeight{Kind: LineHeightFactor, Value: f} }

// Absolute returns an absolute pixel line height.
func Absolute(px float64) LineHeight { return LineHeight{Kind: LineHeightAbsolute, Value: px} }

// Resolve returns the line height in pixels for the given font size.
func (lh LineHeight) Resolve(size float64) float64 {
	switch lh.Kind {
	case LineHeightFactor:
		return lh.Value * size
	case LineHeightAbsolute:
		return lh.Value
	default:
		return defaultFactor * size
	}
}

// A Style describes the font, size, line height, color,
// and decorations of a span of text.
// A Style is immutable once constructed.
type Style struct {
	// Families is the ordered font family fallback chain.
	// Generic keywords are permitted; interpretation is up to
	// the shaping backend. Nil inherits.
	Families []string
	// Size is the font size in device-independent pixels. 0 inherits.
	Size float64
	// LineHeight is the line height. The zero value inherits.
	LineHeight LineHeight
	// FG is the text color. Nil inherits.
	FG color.Color
	// Deco is passed through to the renderer. 0 inherits.
	Deco Decoration
}

// Merge returns other with any unset fields
// replaced by the corresponding field of sty.
func (sty Style) Merge(other Style) Style {
	if other.Families == nil {
		other.Families = sty.Families
	}
	if other.Size == 0 {
		other.Size = sty.Size
	}
	if other.LineHeight.Kind == LineHeightDefault {
		other.LineHeight = sty.LineHeight
	}
	if other.FG == nil {
		other.FG = sty.FG
	}
	if other.Deco == 0 {
		other.Deco = sty.Deco
	}
	return other
}

// Equal reports whether two styles resolve identically.
// Family chains are compared element-wise.
func (sty Style) Equal(other Style) bool {
	if len(sty.Families) != len(other.Families) {
		return false
	}
	for i := range sty.Families {
		if sty.Families[i] != other.Families[i] {
			return false
		}
	}
	return sty.Size == other.Size &&
		sty.LineHeight == other.LineHeight &&
		sty.FG == other.FG &&
		sty.Deco == other.Deco
}

// ResolvedLineHeight returns the style's line height in pixels.
func (sty Style) ResolvedLineHeight() float64 {
	return sty.LineHeight.Resolve(sty.Size)
}
