// Package layout turns styled text runs and inline-box placeholders
// into an immutable, line-broken, hit-testable layout.
//
// A Builder accumulates text chunks, style span push/pop operations,
// whitespace-mode changes, and inline boxes, and is consumed by Build
// into a Layout. The Layout is read-only: it can measure intrinsic
// content widths, re-break its lines at a target width, iterate lines
// and items, and map between byte offsets and positions.
//
// Neither type is safe for concurrent use. The caller owns an
// instance exclusively for the duration of any method call.
package layout

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/math/fixed"

	"github.com/inktext/ink/shape"
	"github.com/inktext/ink/style"
)

// A LogicError reports programmer misuse of the builder, such as a
// mismatched style span pop or building a consumed builder.
// It is never silently recovered: continuing after one would corrupt
// all subsequent style attribution.
type LogicError string

func (e LogicError) Error() string { return string(e) }

// WhiteSpace selects how whitespace in pushed text is treated.
type WhiteSpace int

const (
	// WhiteSpaceCollapse merges whitespace runs into a single space
	// and permits line breaks at those spaces.
	WhiteSpaceCollapse WhiteSpace = iota
	// WhiteSpacePreserve keeps whitespace verbatim. Newlines force
	// breaks; space runs remain break opportunities between words.
	WhiteSpacePreserve
)

// A BoxSpec is the caller-supplied half of an inline box: an opaque
// identifier and the box's intrinsic size. The engine-resolved half
// (position and line index) lives in Box, populated by BreakLines.
type BoxSpec struct {
	// ID identifies the box to the caller. The engine does not
	// interpret it.
	ID any
	// Width and Height are the box's intrinsic size.
	Width, Height fixed.Int26_6
}

// A Builder accumulates styled text and inline boxes for a Layout.
//
// Text pushed with no style span active takes the builder's default
// style. The whitespace mode applies to text pushed after it is set;
// it is not retroactive.
type Builder struct {
	shaper shape.Shaper
	def    style.Style
	stack  []style.Style
	ws     WhiteSpace
	text   strings.Builder
	segs   []segment
	boxes  []rawBox
	built  bool
}

// A segment is a byte range of the raw accumulated text tagged with
// the effective style and whitespace mode it was pushed under.
type segment struct {
	start, end int
	sty        style.Style
	ws         WhiteSpace
}

type rawBox struct {
	spec BoxSpec
	at   int // byte anchor in the raw text
}

// NewBuilder returns an empty builder. Text pushed with an empty
// style span stack resolves to def.
func NewBuilder(shaper shape.Shaper, def style.Style) *Builder {
	return &Builder{shaper: shaper, def: def}
}

// Style returns the current effective style: the default style
// merged with each pushed span, innermost last.
func (b *Builder) Style() style.Style {
	if len(b.stack) == 0 {
		return b.def
	}
	return b.stack[len(b.stack)-1]
}

// PushStyle pushes a style span. Fields sty leaves unset inherit
// from the enclosing effective style.
func (b *Builder) PushStyle(sty style.Style) {
	b.stack = append(b.stack, b.Style().Merge(sty))
}

// PushStyleTemp pushes a short-lived override, intended to wrap a
// single atomic text insertion such as a forced line break.
// It is semantically identical to PushStyle; the caller is expected
// to pop it immediately.
func (b *Builder) PushStyleTemp(sty style.Style) { b.PushStyle(sty) }

// PopStyle removes the innermost style span. Popping with no span
// active is a LogicError.
func (b *Builder) PopStyle() error {
	if len(b.stack) == 0 {
		return LogicError("style span pop with no matching push")
	}
	b.stack = b.stack[:len(b.stack)-1]
	return nil
}

// SetWhiteSpace sets the whitespace mode for subsequently pushed text.
func (b *Builder) SetWhiteSpace(ws WhiteSpace) { b.ws = ws }

// PushText appends a chunk of text under the current effective style
// and whitespace mode. Whitespace is collapsed at Build, not here, so
// mode changes mid-word are well-defined.
func (b *Builder) PushText(chunk string) {
	if chunk == "" {
		return
	}
	start := b.text.Len()
	b.text.WriteString(chunk)
	b.segs = append(b.segs, segment{
		start: start,
		end:   b.text.Len(),
		sty:   b.Style(),
		ws:    b.ws,
	})
}

// PushBox inserts an inline box at the current position in the text
// stream. The box participates in line breaking as an indivisible
// unit of its given size; its position is resolved by BreakLines.
func (b *Builder) PushBox(spec BoxSpec) {
	b.boxes = append(b.boxes, rawBox{spec: spec, at: b.text.Len()})
}

// Build consumes the builder and returns the Layout. The returned
// layout carries the full collapsed backing text (Layout.Text) and is
// broken as a single unbounded line; call BreakLines to re-break it
// at a width. Building twice is a LogicError. An empty style stack is
// not an error.
func (b *Builder) Build() (*Layout, error) {
	if b.built {
		return nil, LogicError("Build on a consumed builder")
	}
	b.built = true

	raw := b.text.String()
	var c collapser
	bi := 0
	for _, seg := range b.segs {
		for bi < len(b.boxes) && b.boxes[bi].at <= seg.start {
			c.box(b.boxes[bi].spec)
			bi++
		}
		c.push(raw[seg.start:seg.end], seg.sty, seg.ws)
	}
	for bi < len(b.boxes) {
		c.box(b.boxes[bi].spec)
		bi++
	}
	c.finish()

	l := &Layout{
		text:   string(c.out),
		runs:   c.runs,
		boxes:  c.boxes,
		shaper: b.shaper,
		def:    b.def,
	}
	l.tokenize()
	l.BreakLines(0)
	return l, nil
}

// A collapser builds the final backing text, applying whitespace
// collapsing per segment mode, and carries the style attribution and
// box anchors over to the collapsed byte offsets.
type collapser struct {
	out   []byte
	runs  []run
	boxes []*Box
	// content reports whether any content has been emitted yet,
	// text or box. Collapsible whitespace before the first content
	// is dropped; after a box it is a separator and survives.
	content bool
	// lastWS reports whether the last emitted rune was whitespace,
	// either a collapsed space or preserved whitespace.
	lastWS bool
	// trailing is the offset of a collapsed space at the end of the
	// output, or -1. Such a space is trimmed by finish unless content
	// or a box follows it.
	trailing int
}

func isCollapsible(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

func (c *collapser) push(text string, sty style.Style, ws WhiteSpace) {
	for _, r := range text {
		if ws == WhiteSpaceCollapse && isCollapsible(r) {
			// Consecutive collapsible whitespace becomes one space.
			// Before the first content or adjacent to preserved
			// whitespace it is dropped entirely.
			if !c.content || c.lastWS {
				continue
			}
			c.trailing = len(c.out)
			c.emit(' ', sty, ws)
			continue
		}
		c.trailing = -1
		c.emit(r, sty, ws)
	}
}

func (c *collapser) emit(r rune, sty style.Style, ws WhiteSpace) {
	start := len(c.out)
	c.out = utf8.AppendRune(c.out, r)
	c.content = true
	c.lastWS = isCollapsible(r)
	if n := len(c.runs); n > 0 {
		if last := &c.runs[n-1]; last.end == start && last.ws == ws && last.sty.Equal(sty) {
			last.end = len(c.out)
			return
		}
	}
	c.runs = append(c.runs, run{start: start, end: len(c.out), sty: sty, ws: ws})
}

func (c *collapser) box(spec BoxSpec) {
	c.boxes = append(c.boxes, &Box{Spec: spec, at: len(c.out), Line: -1})
	c.content = true
	c.lastWS = false
	c.trailing = -1
}

func (c *collapser) finish() {
	if c.trailing < 0 || c.trailing != len(c.out)-1 {
		return
	}
	c.out = c.out[:c.trailing]
	last := &c.runs[len(c.runs)-1]
	last.end = len(c.out)
	if last.end == last.start {
		c.runs = c.runs[:len(c.runs)-1]
	}
}
