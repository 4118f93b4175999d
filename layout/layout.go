package layout

import (
	"unicode/utf8"

	"golang.org/x/image/math/fixed"

	"github.com/inktext/ink/shape"
	"github.com/inktext/ink/style"
)

// A run is a maximal byte range of the backing text sharing one
// resolved style and whitespace mode.
type run struct {
	start, end int
	sty        style.Style
	ws         WhiteSpace
}

// A Box is an inline box: the caller's spec plus the geometry
// resolved by BreakLines. X and Y are relative to the layout origin;
// the box bottom is aligned to the text baseline of its line.
type Box struct {
	Spec BoxSpec
	// X, Y and Line are resolved by BreakLines; Line is -1 before.
	X, Y fixed.Int26_6
	Line int

	at int // byte anchor in the backing text
}

// Offset returns the byte offset of the box's anchor in the backing
// text. The box itself is zero-length: cursor positions before and
// after it share this offset.
func (b *Box) Offset() int { return b.at }

// An Item is one element of a line: either a shaped glyph run or an
// inline box, at a resolved x offset from the layout origin.
type Item struct {
	X fixed.Int26_6
	// Run is non-nil for a text item.
	Run *shape.Run
	// Box is non-nil for an inline box item.
	Box *Box

	start int // byte offset of Run.Text in the backing text
}

// Start returns the byte offset of a text item's first byte.
// For box items it returns the box anchor.
func (it *Item) Start() int {
	if it.Box != nil {
		return it.Box.at
	}
	return it.start
}

// A Line is one laid-out line. Its items cover the byte range
// [Start, End) of the backing text. A break character consumed by
// the line break (a collapsed space or a newline) belongs to no item;
// its offset maps to the end of the line.
type Line struct {
	Start, End int
	Items      []Item
	// Y is the top of the line; Width, Ascent and Height its metrics.
	Y      fixed.Int26_6
	Width  fixed.Int26_6
	Ascent fixed.Int26_6
	Height fixed.Int26_6

	gap int // bytes consumed by the break terminating this line
}

// A Layout is the immutable result of Builder.Build: the collapsed
// backing text, its style attribution, and inline boxes, broken into
// lines. Only BreakLines mutates a Layout, and only by re-deriving
// the same line structure for a new width.
type Layout struct {
	text   string
	runs   []run
	boxes  []*Box
	units  []unit
	shaper shape.Shaper
	def    style.Style
	lines  []Line
	max    fixed.Int26_6
}

// Text returns the full backing text. Iterating all glyph runs over
// all lines reconstructs exactly this text, minus break characters,
// with no gaps or duplication.
func (l *Layout) Text() string { return l.text }

// Lines returns the lines of the current break, top to bottom.
// The returned slice is read-only.
func (l *Layout) Lines() []Line { return l.lines }

// Boxes returns the inline boxes in text order.
// The returned slice is read-only.
func (l *Layout) Boxes() []*Box { return l.boxes }

// BoxPosition returns the box with the given identifier, carrying
// the geometry resolved by the last BreakLines.
func (l *Layout) BoxPosition(id any) (*Box, bool) {
	for _, b := range l.boxes {
		if b.Spec.ID == id {
			return b, true
		}
	}
	return nil, false
}

// Size returns the extent of the current break: the widest line and
// the sum of line heights.
func (l *Layout) Size() (w, h fixed.Int26_6) {
	for i := range l.lines {
		if l.lines[i].Width > w {
			w = l.lines[i].Width
		}
		h += l.lines[i].Height
	}
	return w, h
}

// unitKind classifies the indivisible pieces line breaking works on.
type unitKind int

const (
	// unitWord is an unbreakable chunk of text: a word, possibly
	// spanning style boundaries.
	unitWord unitKind = iota
	// unitSpace is a single collapsed space: a break opportunity,
	// consumed into the break when a line ends on it.
	unitSpace
	// unitSpaceRun is a preserved whitespace run: an unbreakable
	// unit kept verbatim. Lines may end at its boundaries, but it
	// is never collapsed or dropped.
	unitSpaceRun
	// unitBreak is a forced break, a newline in preserved text.
	unitBreak
	// unitBox is an inline box. Breaks are permitted on both sides.
	unitBox
)

type unit struct {
	kind       unitKind
	start, end int
	width      fixed.Int26_6
	box        *Box
}

// tokenize splits the backing text and boxes into units.
// It runs once, at Build; BreakLines reuses the units.
func (l *Layout) tokenize() {
	bi := 0
	wordStart := -1
	flushWord := func(end int) {
		if wordStart < 0 {
			return
		}
		l.units = append(l.units, unit{
			kind:  unitWord,
			start: wordStart,
			end:   end,
			width: l.measure(wordStart, end),
		})
		wordStart = -1
	}
	for ri := range l.runs {
		r := &l.runs[ri]
		for p := r.start; p < r.end; {
			for bi < len(l.boxes) && l.boxes[bi].at == p {
				flushWord(p)
				l.units = append(l.units, unit{
					kind:  unitBox,
					start: p,
					end:   p,
					width: l.boxes[bi].Spec.Width,
					box:   l.boxes[bi],
				})
				bi++
			}
			c, size := utf8.DecodeRuneInString(l.text[p:])
			switch {
			case r.ws == WhiteSpaceCollapse && c == ' ':
				flushWord(p)
				l.units = append(l.units, unit{
					kind:  unitSpace,
					start: p,
					end:   p + size,
					width: l.measure(p, p+size),
				})
			case r.ws == WhiteSpacePreserve && c == '\n':
				flushWord(p)
				l.units = append(l.units, unit{
					kind:  unitBreak,
					start: p,
					end:   p + size,
				})
			case r.ws == WhiteSpacePreserve && isCollapsible(c):
				flushWord(p)
				w := l.measure(p, p+size)
				if n := len(l.units); n > 0 && l.units[n-1].kind == unitSpaceRun && l.units[n-1].end == p {
					l.units[n-1].end = p + size
					l.units[n-1].width += w
				} else {
					l.units = append(l.units, unit{
						kind:  unitSpaceRun,
						start: p,
						end:   p + size,
						width: w,
					})
				}
			default:
				if wordStart < 0 {
					wordStart = p
				}
			}
			p += size
		}
	}
	flushWord(len(l.text))
	for bi < len(l.boxes) {
		l.units = append(l.units, unit{
			kind:  unitBox,
			start: len(l.text),
			end:   len(l.text),
			width: l.boxes[bi].Spec.Width,
			box:   l.boxes[bi],
		})
		bi++
	}
}

// measure returns the advance of the byte range [start, end),
// measured piecewise per style run.
func (l *Layout) measure(start, end int) fixed.Int26_6 {
	var w fixed.Int26_6
	for ri := range l.runs {
		r := &l.runs[ri]
		if r.end <= start {
			continue
		}
		if r.start >= end {
			break
		}
		s, e := r.start, r.end
		if s < start {
			s = start
		}
		if e > end {
			e = end
		}
		w += l.shaper.Measure(l.text[s:e], r.sty)
	}
	return w
}

// ContentWidths returns the intrinsic widths of the content: min is
// the widest unbreakable unit, max the widest forced-break-separated
// segment laid out on a single line. min <= max always holds.
func (l *Layout) ContentWidths() (min, max fixed.Int26_6) {
	var lineW fixed.Int26_6
	for i := range l.units {
		u := &l.units[i]
		if u.kind == unitBreak {
			if lineW > max {
				max = lineW
			}
			lineW = 0
			continue
		}
		if u.kind != unitSpace && u.width > min {
			min = u.width
		}
		lineW += u.width
	}
	if lineW > max {
		max = lineW
	}
	return min, max
}

// BreakLines breaks the layout into lines no wider than max using
// greedy first-fit. max <= 0 means unbounded: a single line per
// forced-break-separated segment. An unbreakable unit wider than max
// overflows alone on its own line; content is never dropped.
// Breaking is idempotent for a given max. Afterwards every inline
// box's X, Y and Line are resolved.
func (l *Layout) BreakLines(max fixed.Int26_6) {
	l.max = max
	lb := lineBreaker{l: l}
	lb.startLine(0)
	for i := range l.units {
		u := &l.units[i]
		switch u.kind {
		case unitBreak:
			lb.endLine(u.start, u.end-u.start)
			lb.startLine(u.end)
		case unitSpace:
			// A space never wraps before itself; if the next unit
			// does not fit, the space is consumed into the break.
			lb.add(u)
		default:
			if max > 0 && lb.x+u.width > max && lb.n > 0 {
				lb.breakBefore(u)
			}
			lb.add(u)
		}
	}
	lb.endLine(len(l.text), 0)
	l.lines = lb.lines
	l.resolve()
}

// A lineBreaker assembles lines unit by unit, deferring the shaping
// of text until a run boundary, box, or line end forces a flush.
type lineBreaker struct {
	l     *Layout
	lines []Line

	start int // byte start of the current line
	x     fixed.Int26_6
	items []Item
	n     int // units on the current line

	textStart, textEnd int // pending unshaped text range; textStart < 0 if none
	textX              fixed.Int26_6

	lastSpace  *unit // trailing space unit, if it was added last
	lastSpaceX fixed.Int26_6
}

func (lb *lineBreaker) startLine(at int) {
	lb.start = at
	lb.x = 0
	lb.items = nil
	lb.n = 0
	lb.textStart = -1
	lb.lastSpace = nil
}

func (lb *lineBreaker) add(u *unit) {
	lb.n++
	if u.kind == unitBox {
		lb.flushText()
		u.box.X = lb.x
		lb.items = append(lb.items, Item{X: lb.x, Box: u.box})
		lb.x += u.width
		lb.lastSpace = nil
		return
	}
	if lb.textStart < 0 {
		lb.textStart = u.start
		lb.textX = lb.x
	}
	lb.textEnd = u.end
	if u.kind == unitSpace {
		lb.lastSpace = u
		lb.lastSpaceX = lb.x
	} else {
		lb.lastSpace = nil
	}
	lb.x += u.width
}

// breakBefore ends the current line just before unit u. A space at
// the end of the line is consumed into the break: it belongs to no
// item and maps to the line boundary.
func (lb *lineBreaker) breakBefore(u *unit) {
	if sp := lb.lastSpace; sp != nil {
		lb.textEnd = sp.start
		lb.x = lb.lastSpaceX
		lb.endLine(sp.start, sp.end-sp.start)
	} else {
		lb.endLine(u.start, 0)
	}
	lb.startLine(u.start)
}

// flushText shapes the pending text range into items, one per style run.
func (lb *lineBreaker) flushText() {
	if lb.textStart < 0 || lb.textEnd <= lb.textStart {
		lb.textStart = -1
		return
	}
	x := lb.textX
	for ri := range lb.l.runs {
		r := &lb.l.runs[ri]
		if r.end <= lb.textStart {
			continue
		}
		if r.start >= lb.textEnd {
			break
		}
		s, e := r.start, r.end
		if s < lb.textStart {
			s = lb.textStart
		}
		if e > lb.textEnd {
			e = lb.textEnd
		}
		run := lb.l.shaper.Shape(lb.l.text[s:e], r.sty)
		lb.items = append(lb.items, Item{X: x, Run: &run, start: s})
		x += run.Advance
	}
	lb.textStart = -1
}

func (lb *lineBreaker) endLine(end, gap int) {
	lb.flushText()
	ln := Line{
		Start: lb.start,
		End:   end,
		Items: lb.items,
		Width: lb.x,
		gap:   gap,
	}
	lb.l.lineMetrics(&ln)
	lb.lines = append(lb.lines, ln)
}

// lineMetrics computes a line's ascent and height. Text items
// contribute their font extents and their style's line height,
// whichever is larger; boxes contribute their height as ascent,
// bottom-aligned to the baseline. An empty line takes the default
// style's line height.
func (l *Layout) lineMetrics(ln *Line) {
	if len(ln.Items) == 0 {
		em := l.shaper.Shape("", l.def)
		ln.Height = fromFloat(l.def.ResolvedLineHeight())
		// Same half-leading as below, with the baseline clamped
		// inside the line box.
		ln.Ascent = em.Ascent + (ln.Height-(em.Ascent+em.Descent))/2
		if ln.Ascent < 0 {
			ln.Ascent = 0
		} else if ln.Ascent > ln.Height {
			ln.Ascent = ln.Height
		}
		return
	}
	var asc, desc, lh fixed.Int26_6
	for i := range ln.Items {
		it := &ln.Items[i]
		if it.Box != nil {
			if h := it.Box.Spec.Height; h > asc {
				asc = h
			}
			continue
		}
		if it.Run.Ascent > asc {
			asc = it.Run.Ascent
		}
		if it.Run.Descent > desc {
			desc = it.Run.Descent
		}
		if h := fromFloat(it.Run.Style.ResolvedLineHeight()); h > lh {
			lh = h
		}
	}
	ln.Height = asc + desc
	if lh > ln.Height {
		ln.Height = lh
	}
	// Half-leading: extra line height is split above and below.
	ln.Ascent = asc + (ln.Height-(asc+desc))/2
}

// resolve assigns line tops and inline box geometry after a break.
func (l *Layout) resolve() {
	var y fixed.Int26_6
	for i := range l.lines {
		ln := &l.lines[i]
		ln.Y = y
		for j := range ln.Items {
			if b := ln.Items[j].Box; b != nil {
				b.Line = i
				b.X = ln.Items[j].X
				b.Y = y + ln.Ascent - b.Spec.Height
			}
		}
		y += ln.Height
	}
}

func fromFloat(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v*64 + 0.5)
}
