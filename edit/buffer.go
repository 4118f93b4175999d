// Package edit implements an editable text buffer on top of the
// layout engine: mutable text with style spans, a cursor, an optional
// selection anchor, and an optional input-method composition range.
//
// The buffer caches its layout and invalidates it on every mutation;
// the next read through Layout rebuilds it synchronously. A Buffer is
// owned by a single goroutine.
package edit

import (
	"math"
	"sort"
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/image/math/fixed"

	"github.com/inktext/ink/layout"
	"github.com/inktext/ink/shape"
	"github.com/inktext/ink/style"
)

// InvalidInputError reports input that cannot be interpreted, like
// NaN point coordinates. The buffer state is unchanged.
type InvalidInputError string

func (e InvalidInputError) Error() string { return "invalid input: " + string(e) }

// ComposePolicy says what happens to an uncommitted composition when
// a non-compose operation arrives.
type ComposePolicy int

const (
	// DiscardCompose deletes the composition text.
	DiscardCompose ComposePolicy = iota
	// CommitCompose keeps the composition text as ordinary text.
	CommitCompose
)

// A Span styles a byte range of the buffer text. Spans are ordered,
// non-overlapping, and adjusted to follow the text across edits.
// Bytes outside every span take the buffer's default style.
type Span struct {
	At    [2]int
	Style style.Style
}

// A Buffer is an editable styled text with cursor and selection.
type Buffer struct {
	shaper shape.Shaper
	def    style.Style
	policy ComposePolicy

	text  string
	spans []Span
	width fixed.Int26_6
	lay   *layout.Layout // nil when stale

	cursor  int
	anchor  int    // -1 when there is no selection
	compose [2]int // compose[0] < 0 when not composing

	// Remembered column for consecutive vertical moves.
	targetX     fixed.Int26_6
	haveTargetX bool
}

// NewBuffer returns an empty buffer with the given default style.
func NewBuffer(shaper shape.Shaper, def style.Style) *Buffer {
	return &Buffer{
		shaper:  shaper,
		def:     def,
		anchor:  -1,
		compose: [2]int{-1, -1},
	}
}

// SetComposePolicy sets how non-compose operations treat an open
// composition. The default is DiscardCompose.
func (b *Buffer) SetComposePolicy(p ComposePolicy) { b.policy = p }

// SetWidth sets the wrap width and re-breaks any cached layout.
// Width <= 0 means unbounded.
func (b *Buffer) SetWidth(w fixed.Int26_6) {
	b.width = w
	if b.lay != nil {
		b.lay.BreakLines(w)
	}
}

// Text returns the buffer text, including any composition text.
func (b *Buffer) Text() string { return b.text }

// SetText replaces the whole buffer: spans, selection, and any
// composition are dropped and the cursor moves to the start.
func (b *Buffer) SetText(text string) {
	b.text = text
	b.spans = nil
	b.cursor = 0
	b.anchor = -1
	b.compose = [2]int{-1, -1}
	b.haveTargetX = false
	b.lay = nil
}

// Cursor returns the cursor byte offset. It is always a grapheme
// cluster boundary.
func (b *Buffer) Cursor() int { return b.cursor }

// Selection returns the selected byte range. ok is false when there
// is no anchor; an empty selection (anchor == cursor) reports ok.
func (b *Buffer) Selection() (start, end int, ok bool) {
	if b.anchor < 0 {
		return b.cursor, b.cursor, false
	}
	start, end = order(b.anchor, b.cursor)
	return start, end, true
}

// SelectedText returns the text of the selection, or "".
func (b *Buffer) SelectedText() string {
	s, e, ok := b.Selection()
	if !ok {
		return ""
	}
	return b.text[s:e]
}

// Composing reports whether a composition range is open.
func (b *Buffer) Composing() bool { return b.compose[0] >= 0 }

// Spans returns the style spans in text order.
// The returned slice is read-only.
func (b *Buffer) Spans() []Span { return b.spans }

// SetStyle styles the byte range [start, end). Overlapping parts of
// existing spans are trimmed; the range is clamped to the text.
func (b *Buffer) SetStyle(start, end int, sty style.Style) {
	if start < 0 {
		start = 0
	}
	if end > len(b.text) {
		end = len(b.text)
	}
	if start >= end {
		return
	}
	out := make([]Span, 0, len(b.spans)+1)
	for _, sp := range b.spans {
		a, z := sp.At[0], sp.At[1]
		if z <= start || a >= end {
			out = append(out, sp)
			continue
		}
		if a < start {
			out = append(out, Span{At: [2]int{a, start}, Style: sp.Style})
		}
		if z > end {
			out = append(out, Span{At: [2]int{end, z}, Style: sp.Style})
		}
	}
	out = append(out, Span{At: [2]int{start, end}, Style: sty})
	sort.Slice(out, func(i, j int) bool { return out[i].At[0] < out[j].At[0] })
	b.spans = out
	b.lay = nil
}

// ClearStyles drops all style spans.
func (b *Buffer) ClearStyles() {
	b.spans = nil
	b.lay = nil
}

// Layout returns the buffer's layout, rebuilding it if an edit
// invalidated the cache. Buffer text is laid out verbatim: no
// whitespace collapsing, newlines are forced breaks.
func (b *Buffer) Layout() *layout.Layout {
	if b.lay != nil {
		return b.lay
	}
	lb := layout.NewBuilder(b.shaper, b.def)
	lb.SetWhiteSpace(layout.WhiteSpacePreserve)
	pos := 0
	for i := range b.spans {
		sp := &b.spans[i]
		b.pushRange(lb, pos, sp.At[0], nil)
		b.pushRange(lb, sp.At[0], sp.At[1], &sp.Style)
		pos = sp.At[1]
	}
	b.pushRange(lb, pos, len(b.text), nil)
	l, err := lb.Build()
	if err != nil {
		// Pushes and pops above are balanced; Build cannot fail.
		panic(err)
	}
	l.BreakLines(b.width)
	b.lay = l
	return l
}

// pushRange pushes [start, end) onto the builder, splitting at the
// composition bounds so composed text gets an underline.
func (b *Buffer) pushRange(lb *layout.Builder, start, end int, sty *style.Style) {
	push := func(s, e int) {
		if s >= e {
			return
		}
		pops := 0
		if sty != nil {
			lb.PushStyle(*sty)
			pops++
		}
		if b.compose[0] >= 0 && s >= b.compose[0] && e <= b.compose[1] {
			lb.PushStyle(style.Style{Deco: style.Underline})
			pops++
		}
		lb.PushText(b.text[s:e])
		for ; pops > 0; pops-- {
			lb.PopStyle()
		}
	}
	if c := b.compose; c[0] >= 0 {
		for _, cut := range []int{c[0], c[1]} {
			if cut > start && cut < end {
				push(start, cut)
				start = cut
			}
		}
	}
	push(start, end)
}

// Navigation. Every move ends an open composition per the compose
// policy, collapses any selection, and repositions the cursor. All
// navigation on an empty buffer is a no-op.

// MoveLeft moves the cursor one grapheme cluster left, or collapses a
// selection to its left edge.
func (b *Buffer) MoveLeft() {
	b.endCompose()
	b.haveTargetX = false
	if len(b.text) == 0 {
		return
	}
	if s, _, ok := b.Selection(); ok {
		b.cursor = s
		b.anchor = -1
		return
	}
	b.cursor = prevCluster(b.text, b.cursor)
}

// MoveRight moves the cursor one grapheme cluster right, or collapses
// a selection to its right edge.
func (b *Buffer) MoveRight() {
	b.endCompose()
	b.haveTargetX = false
	if len(b.text) == 0 {
		return
	}
	if _, e, ok := b.Selection(); ok {
		b.cursor = e
		b.anchor = -1
		return
	}
	b.cursor = nextCluster(b.text, b.cursor)
}

// MoveUp moves the cursor one line up, tracking the remembered column
// across consecutive vertical moves. On the first line it moves to
// the text start.
func (b *Buffer) MoveUp() {
	b.endCompose()
	if len(b.text) == 0 {
		return
	}
	if s, _, ok := b.Selection(); ok {
		b.cursor = s
		b.anchor = -1
	}
	b.vertical(-1)
}

// MoveDown moves the cursor one line down. On the last line it moves
// to the text end.
func (b *Buffer) MoveDown() {
	b.endCompose()
	if len(b.text) == 0 {
		return
	}
	if _, e, ok := b.Selection(); ok {
		b.cursor = e
		b.anchor = -1
	}
	b.vertical(1)
}

func (b *Buffer) vertical(dir int) {
	l := b.Layout()
	pt, li := l.PositionAt(b.cursor)
	if !b.haveTargetX {
		b.targetX = pt.X
		b.haveTargetX = true
	}
	ni := li + dir
	switch {
	case ni < 0:
		b.cursor = 0
	case ni >= len(l.Lines()):
		b.cursor = len(b.text)
	default:
		ln := l.Lines()[ni]
		b.cursor = l.OffsetAt(fixed.Point26_6{X: b.targetX, Y: ln.Y})
	}
}

// MoveWordLeft moves the cursor to the start of the previous word.
func (b *Buffer) MoveWordLeft() {
	b.endCompose()
	b.haveTargetX = false
	if len(b.text) == 0 {
		return
	}
	if s, _, ok := b.Selection(); ok {
		b.cursor = s
		b.anchor = -1
		return
	}
	b.cursor = prevWord(b.text, b.cursor)
}

// MoveWordRight moves the cursor past the end of the next word.
func (b *Buffer) MoveWordRight() {
	b.endCompose()
	b.haveTargetX = false
	if len(b.text) == 0 {
		return
	}
	if _, e, ok := b.Selection(); ok {
		b.cursor = e
		b.anchor = -1
		return
	}
	b.cursor = nextWord(b.text, b.cursor)
}

// MoveToLineStart moves the cursor to the start of its line.
func (b *Buffer) MoveToLineStart() { b.lineEdge(false) }

// MoveToLineEnd moves the cursor to the end of its line.
func (b *Buffer) MoveToLineEnd() { b.lineEdge(true) }

func (b *Buffer) lineEdge(end bool) {
	b.endCompose()
	b.haveTargetX = false
	b.anchor = -1
	if len(b.text) == 0 {
		return
	}
	l := b.Layout()
	_, li := l.PositionAt(b.cursor)
	if end {
		b.cursor = l.Lines()[li].End
	} else {
		b.cursor = l.Lines()[li].Start
	}
}

// MoveToTextStart moves the cursor to offset 0.
func (b *Buffer) MoveToTextStart() {
	b.endCompose()
	b.haveTargetX = false
	b.anchor = -1
	b.cursor = 0
}

// MoveToTextEnd moves the cursor to the end of the text.
func (b *Buffer) MoveToTextEnd() {
	b.endCompose()
	b.haveTargetX = false
	b.anchor = -1
	b.cursor = len(b.text)
}

// MoveToPoint places the cursor at the offset nearest the point, in
// layout coordinates. NaN or infinite coordinates are rejected with
// InvalidInputError and leave the buffer unchanged.
func (b *Buffer) MoveToPoint(x, y float64) error {
	pt, err := point(x, y)
	if err != nil {
		return err
	}
	b.endCompose()
	b.haveTargetX = false
	b.anchor = -1
	if len(b.text) == 0 {
		return nil
	}
	b.cursor = b.Layout().OffsetAt(pt)
	return nil
}

// Selection variants: same geometry as the moves above, but the
// anchor is set (if absent) and kept instead of collapsed.

// SelectLeft extends the selection one cluster left.
func (b *Buffer) SelectLeft() {
	b.endCompose()
	b.haveTargetX = false
	if len(b.text) == 0 {
		return
	}
	b.ensureAnchor()
	b.cursor = prevCluster(b.text, b.cursor)
}

// SelectRight extends the selection one cluster right.
func (b *Buffer) SelectRight() {
	b.endCompose()
	b.haveTargetX = false
	if len(b.text) == 0 {
		return
	}
	b.ensureAnchor()
	b.cursor = nextCluster(b.text, b.cursor)
}

// SelectUp extends the selection one line up.
func (b *Buffer) SelectUp() {
	b.endCompose()
	if len(b.text) == 0 {
		return
	}
	b.ensureAnchor()
	b.vertical(-1)
}

// SelectDown extends the selection one line down.
func (b *Buffer) SelectDown() {
	b.endCompose()
	if len(b.text) == 0 {
		return
	}
	b.ensureAnchor()
	b.vertical(1)
}

// SelectWordLeft extends the selection to the previous word start.
func (b *Buffer) SelectWordLeft() {
	b.endCompose()
	b.haveTargetX = false
	if len(b.text) == 0 {
		return
	}
	b.ensureAnchor()
	b.cursor = prevWord(b.text, b.cursor)
}

// SelectWordRight extends the selection past the next word end.
func (b *Buffer) SelectWordRight() {
	b.endCompose()
	b.haveTargetX = false
	if len(b.text) == 0 {
		return
	}
	b.ensureAnchor()
	b.cursor = nextWord(b.text, b.cursor)
}

// SelectToLineStart extends the selection to the start of the line.
func (b *Buffer) SelectToLineStart() { b.selectLineEdge(false) }

// SelectToLineEnd extends the selection to the end of the line.
func (b *Buffer) SelectToLineEnd() { b.selectLineEdge(true) }

func (b *Buffer) selectLineEdge(end bool) {
	b.endCompose()
	b.haveTargetX = false
	if len(b.text) == 0 {
		return
	}
	b.ensureAnchor()
	l := b.Layout()
	_, li := l.PositionAt(b.cursor)
	if end {
		b.cursor = l.Lines()[li].End
	} else {
		b.cursor = l.Lines()[li].Start
	}
}

// SelectToTextStart extends the selection to offset 0.
func (b *Buffer) SelectToTextStart() {
	b.endCompose()
	b.haveTargetX = false
	if len(b.text) == 0 {
		return
	}
	b.ensureAnchor()
	b.cursor = 0
}

// SelectToTextEnd extends the selection to the end of the text.
func (b *Buffer) SelectToTextEnd() {
	b.endCompose()
	b.haveTargetX = false
	if len(b.text) == 0 {
		return
	}
	b.ensureAnchor()
	b.cursor = len(b.text)
}

// SelectAll selects the whole text.
func (b *Buffer) SelectAll() {
	b.endCompose()
	b.haveTargetX = false
	if len(b.text) == 0 {
		return
	}
	b.anchor = 0
	b.cursor = len(b.text)
}

// SelectWord selects the word containing the cursor.
func (b *Buffer) SelectWord() {
	b.endCompose()
	b.haveTargetX = false
	if len(b.text) == 0 {
		return
	}
	s, e := wordAt(b.text, b.cursor)
	b.anchor = s
	b.cursor = e
}

// SelectLine selects the laid-out line containing the cursor.
func (b *Buffer) SelectLine() {
	b.endCompose()
	b.haveTargetX = false
	if len(b.text) == 0 {
		return
	}
	l := b.Layout()
	_, li := l.PositionAt(b.cursor)
	ln := l.Lines()[li]
	b.anchor = ln.Start
	b.cursor = ln.End
}

// CollapseSelection clears the anchor; the cursor stays.
func (b *Buffer) CollapseSelection() {
	b.endCompose()
	b.anchor = -1
}

// ExtendToPoint sets the anchor to the cursor if there is none, then
// moves the cursor to the offset nearest the point. NaN or infinite
// coordinates are rejected with InvalidInputError.
func (b *Buffer) ExtendToPoint(x, y float64) error {
	pt, err := point(x, y)
	if err != nil {
		return err
	}
	b.endCompose()
	b.haveTargetX = false
	if len(b.text) == 0 {
		return nil
	}
	b.ensureAnchor()
	b.cursor = b.Layout().OffsetAt(pt)
	return nil
}

// Mutations. Each first ends an open composition per the compose
// policy. With an active selection the selected range is removed and
// the operation collapses there.

// Insert inserts text at the cursor, replacing any selection.
func (b *Buffer) Insert(text string) {
	b.endCompose()
	b.haveTargetX = false
	start, end := b.cursor, b.cursor
	if s, e, ok := b.Selection(); ok {
		start, end = s, e
		b.anchor = -1
	}
	b.replaceRange(start, end, text)
	b.cursor = start + len(text)
}

// Delete removes the selection, or one cluster after the cursor.
// At the end of the text it is a no-op.
func (b *Buffer) Delete() {
	b.endCompose()
	b.haveTargetX = false
	if b.deleteSelection() || b.cursor >= len(b.text) {
		return
	}
	b.replaceRange(b.cursor, nextCluster(b.text, b.cursor), "")
}

// Backdelete removes the selection, or one cluster before the cursor.
// At the start of the text it is a no-op.
func (b *Buffer) Backdelete() {
	b.endCompose()
	b.haveTargetX = false
	if b.deleteSelection() || b.cursor == 0 {
		return
	}
	p := prevCluster(b.text, b.cursor)
	b.replaceRange(p, b.cursor, "")
	b.cursor = p
}

// DeleteWord removes the selection, or text from the cursor to the
// next word boundary.
func (b *Buffer) DeleteWord() {
	b.endCompose()
	b.haveTargetX = false
	if b.deleteSelection() || b.cursor >= len(b.text) {
		return
	}
	b.replaceRange(b.cursor, nextWord(b.text, b.cursor), "")
}

// BackdeleteWord removes the selection, or text from the previous
// word boundary to the cursor.
func (b *Buffer) BackdeleteWord() {
	b.endCompose()
	b.haveTargetX = false
	if b.deleteSelection() || b.cursor == 0 {
		return
	}
	p := prevWord(b.text, b.cursor)
	b.replaceRange(p, b.cursor, "")
	b.cursor = p
}

// DeleteSelection removes the selected text, collapsing the cursor to
// the selection start. Without a selection it is a no-op.
func (b *Buffer) DeleteSelection() {
	b.endCompose()
	b.haveTargetX = false
	b.deleteSelection()
}

func (b *Buffer) deleteSelection() bool {
	s, e, ok := b.Selection()
	if !ok {
		return false
	}
	b.anchor = -1
	if s == e {
		return false
	}
	b.replaceRange(s, e, "")
	b.cursor = s
	return true
}

// SetCompose replaces the composition text, opening a composition
// range at the cursor if none exists (a selection is removed first).
// The cursor is placed at the given offset within the composition
// text, clamped to its bounds.
func (b *Buffer) SetCompose(text string, cursor int) {
	b.haveTargetX = false
	if b.compose[0] < 0 {
		b.deleteSelection()
		b.compose = [2]int{b.cursor, b.cursor}
	}
	b.replaceRange(b.compose[0], b.compose[1], text)
	b.compose[1] = b.compose[0] + len(text)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(text) {
		cursor = len(text)
	}
	b.cursor = b.compose[0] + cursor
}

// ClearCompose deletes the composition text and exits composing.
// Without an open composition it is a no-op.
func (b *Buffer) ClearCompose() {
	if b.compose[0] < 0 {
		return
	}
	c := b.compose
	b.compose = [2]int{-1, -1}
	b.replaceRange(c[0], c[1], "")
	b.cursor = c[0]
}

// endCompose applies the compose policy before a non-compose
// operation: discard deletes the composition text, commit keeps it as
// ordinary text. Either way the composition range is closed.
func (b *Buffer) endCompose() {
	if b.compose[0] < 0 {
		return
	}
	c := b.compose
	b.compose = [2]int{-1, -1}
	if b.policy == DiscardCompose {
		b.replaceRange(c[0], c[1], "")
		b.cursor = c[0]
		return
	}
	// Committed text keeps its bytes but loses the composition
	// underline, so the cached layout is stale.
	b.lay = nil
}

func (b *Buffer) ensureAnchor() {
	if b.anchor < 0 {
		b.anchor = b.cursor
	}
}

// replaceRange splices s over text[start:end], shifts the style spans
// to follow, and invalidates the layout.
func (b *Buffer) replaceRange(start, end int, s string) {
	b.text = b.text[:start] + s + b.text[end:]
	delta := len(s) - (end - start)
	out := b.spans[:0]
	for _, sp := range b.spans {
		a := shift(sp.At[0], start, end, delta)
		z := shift(sp.At[1], start, end, delta)
		if a < z {
			out = append(out, Span{At: [2]int{a, z}, Style: sp.Style})
		}
	}
	b.spans = out
	b.lay = nil
}

// shift maps a span boundary across an edit of [start, end). An
// insertion at a point inside a span grows the span to cover it.
func shift(p, start, end, delta int) int {
	switch {
	case p <= start:
		return p
	case p >= end:
		return p + delta
	default:
		return start
	}
}

func order(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

func point(x, y float64) (fixed.Point26_6, error) {
	if !finite(x) || !finite(y) {
		return fixed.Point26_6{}, InvalidInputError("point coordinates must be finite")
	}
	return fixed.Point26_6{
		X: fixed.Int26_6(math.Round(x * 64)),
		Y: fixed.Int26_6(math.Round(y * 64)),
	}, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// nextCluster returns the offset after the grapheme cluster at p.
func nextCluster(s string, p int) int {
	if p >= len(s) {
		return len(s)
	}
	c, _, _, _ := uniseg.FirstGraphemeClusterInString(s[p:], -1)
	return p + len(c)
}

// prevCluster returns the offset of the grapheme cluster before p.
func prevCluster(s string, p int) int {
	var last int
	pos, state := 0, -1
	rest := s
	for pos < p && len(rest) > 0 {
		var c string
		c, rest, _, state = uniseg.StepString(rest, state)
		last = pos
		pos += len(c)
	}
	return last
}

// nextWord returns the offset past the end of the word at or after p.
func nextWord(s string, p int) int {
	pos, state := p, -1
	rest := s[p:]
	for len(rest) > 0 {
		var w string
		w, rest, state = uniseg.FirstWordInString(rest, state)
		pos += len(w)
		if strings.TrimSpace(w) != "" {
			break
		}
	}
	return pos
}

// prevWord returns the offset of the start of the word at or before p.
func prevWord(s string, p int) int {
	var last int
	pos, state := 0, -1
	rest := s
	for pos < p && len(rest) > 0 {
		var w string
		w, rest, state = uniseg.FirstWordInString(rest, state)
		if strings.TrimSpace(w) != "" && pos < p {
			last = pos
		}
		pos += len(w)
	}
	return last
}

// wordAt returns the word segment containing p.
func wordAt(s string, p int) (start, end int) {
	pos, state := 0, -1
	rest := s
	for len(rest) > 0 {
		var w string
		w, rest, state = uniseg.FirstWordInString(rest, state)
		if p < pos+len(w) || len(rest) == 0 {
			return pos, pos + len(w)
		}
		pos += len(w)
	}
	return p, p
}
