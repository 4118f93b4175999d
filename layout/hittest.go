package layout

import "golang.org/x/image/math/fixed"

// OffsetAt maps a point in layout coordinates to the nearest valid
// cursor byte offset. Out-of-range y clamps to the first or last
// line, out-of-range x to the line's start or end. Offsets round to
// the nearest grapheme cluster boundary.
func (l *Layout) OffsetAt(pt fixed.Point26_6) int {
	ln := &l.lines[l.lineAt(pt.Y)]
	for j := range ln.Items {
		it := &ln.Items[j]
		if it.Box != nil {
			if pt.X < it.X+it.Box.Spec.Width/2 {
				return it.Box.at
			}
			continue
		}
		x := it.X
		for _, g := range it.Run.Glyphs {
			if pt.X < x+g.Advance/2 {
				return it.start + g.Cluster
			}
			x += g.Advance
		}
	}
	return ln.End
}

// PositionAt maps a byte offset to its position (the top-left of the
// cursor at that offset) and line index. The offset is clamped to the
// text and snapped to the start of its grapheme cluster, so for every
// valid offset o, OffsetAt(PositionAt(o)) stays within o's cluster.
// The offset of a break character consumed by line breaking maps to
// the end of the line it terminated.
func (l *Layout) PositionAt(offset int) (fixed.Point26_6, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(l.text) {
		offset = len(l.text)
	}
	li := len(l.lines) - 1
	for i := range l.lines {
		ln := &l.lines[i]
		if offset < ln.End+ln.gap {
			li = i
			break
		}
	}
	ln := &l.lines[li]
	return fixed.Point26_6{X: l.lineX(ln, offset), Y: ln.Y}, li
}

// lineAt returns the index of the line containing y, clamped.
func (l *Layout) lineAt(y fixed.Int26_6) int {
	for i := range l.lines {
		if y < l.lines[i].Y+l.lines[i].Height {
			return i
		}
	}
	return len(l.lines) - 1
}

// lineX returns the x position of offset within a line, snapped to
// the start of the containing cluster. Offsets past the line's items
// clamp to the line width.
func (l *Layout) lineX(ln *Line, offset int) fixed.Int26_6 {
	for j := range ln.Items {
		it := &ln.Items[j]
		if it.Box != nil {
			if offset == it.Box.at {
				return it.X
			}
			continue
		}
		if offset >= it.start+len(it.Run.Text) {
			continue
		}
		gs := it.Run.Glyphs
		x := it.X
		for k := 0; k < len(gs); k++ {
			end := it.start + len(it.Run.Text)
			if k+1 < len(gs) {
				end = it.start + gs[k+1].Cluster
			}
			if offset < end {
				break
			}
			x += gs[k].Advance
		}
		return x
	}
	return ln.Width
}
