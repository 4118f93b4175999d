package layout

import (
	"errors"
	"image"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/inktext/ink/shape"
	"github.com/inktext/ink/style"
)

// fixedFace is a font.Face with a fixed advance per rune and no kerning.
type fixedFace struct{}

func (fixedFace) Close() error { return nil }
func (fixedFace) Glyph(fixed.Point26_6, rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	panic("unimplemented")
}
func (fixedFace) GlyphBounds(rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) {
	panic("unimplemented")
}
func (fixedFace) GlyphAdvance(rune) (fixed.Int26_6, bool) { return fixed.I(10), true }
func (fixedFace) Kern(rune, rune) fixed.Int26_6           { return 0 }
func (fixedFace) Metrics() font.Metrics {
	return font.Metrics{
		Height:  fixed.I(16),
		Ascent:  fixed.I(12),
		Descent: fixed.I(4),
	}
}

var (
	testDef  = style.Style{Families: []string{"Go"}, Size: 10}
	testBold = style.Style{Families: []string{"Go Bold"}}
)

func testShaper() shape.Shaper {
	return shape.NewFaceShaper(shape.FaceSourceFunc(func(style.Style) font.Face {
		return fixedFace{}
	}))
}

func TestBuilder_Collapse(t *testing.T) {
	tests := []struct {
		name string
		push func(b *Builder)
		want string
	}{
		{
			name: "whitespace run becomes one space",
			push: func(b *Builder) { b.PushText("a \t\n b") },
			want: "a b",
		},
		{
			name: "leading and trailing whitespace trimmed",
			push: func(b *Builder) { b.PushText("  x  ") },
			want: "x",
		},
		{
			name: "space across chunk boundary",
			push: func(b *Builder) {
				b.PushText("a ")
				b.PushText(" b")
			},
			want: "a b",
		},
		{
			name: "preserve keeps whitespace verbatim",
			push: func(b *Builder) {
				b.SetWhiteSpace(WhiteSpacePreserve)
				b.PushText("a \n b")
			},
			want: "a \n b",
		},
		{
			name: "collapsible space dropped after preserved whitespace",
			push: func(b *Builder) {
				b.SetWhiteSpace(WhiteSpacePreserve)
				b.PushText("a\n")
				b.SetWhiteSpace(WhiteSpaceCollapse)
				b.PushText(" b")
			},
			want: "a\nb",
		},
		{
			name: "mode change mid-word",
			push: func(b *Builder) {
				b.PushText("foo")
				b.SetWhiteSpace(WhiteSpacePreserve)
				b.PushText("bar baz")
			},
			want: "foobar baz",
		},
		{
			name: "space kept after a leading box",
			push: func(b *Builder) {
				b.PushBox(BoxSpec{ID: 1, Width: fixed.I(20), Height: fixed.I(20)})
				b.PushText(" hello")
			},
			want: " hello",
		},
		{
			name: "trailing space kept before a box",
			push: func(b *Builder) {
				b.PushText("a ")
				b.PushBox(BoxSpec{ID: 1, Width: fixed.I(20), Height: fixed.I(20)})
			},
			want: "a ",
		},
	}
	for _, test := range tests {
		b := NewBuilder(testShaper(), testDef)
		test.push(b)
		l, err := b.Build()
		if err != nil {
			t.Errorf("%s: Build()=%v, want nil", test.name, err)
			continue
		}
		if got := l.Text(); got != test.want {
			t.Errorf("%s: Text()=%q, want %q", test.name, got, test.want)
		}
	}
}

func TestBuilder_SpaceAfterBoxBreaks(t *testing.T) {
	b := NewBuilder(testShaper(), testDef)
	b.PushBox(BoxSpec{ID: 1, Width: fixed.I(20), Height: fixed.I(20)})
	b.PushText(" hello world")
	l, err := b.Build()
	if err != nil {
		t.Fatalf("Build()=%v, want nil", err)
	}
	// The space after the box is a break opportunity: at 75px the box,
	// "hello" and "world" each land on their own line.
	l.BreakLines(fixed.I(75))
	lines := l.Lines()
	if len(lines) != 3 {
		t.Fatalf("len(Lines())=%d, want 3", len(lines))
	}
	if len(lines[0].Items) != 1 || lines[0].Items[0].Box == nil {
		t.Fatalf("line 0 items=%v, want a single box", lines[0].Items)
	}
	for i, want := range []string{"hello", "world"} {
		ln := lines[i+1]
		if len(ln.Items) != 1 || ln.Items[0].Run == nil || ln.Items[0].Run.Text != want {
			t.Errorf("line %d=%v, want run %q", i+1, ln.Items, want)
		}
	}
}

func TestBuilder_TextReconstruction(t *testing.T) {
	b := NewBuilder(testShaper(), testDef)
	b.PushText("The quick ")
	b.PushStyle(testBold)
	b.PushText("brown  fox ")
	if err := b.PopStyle(); err != nil {
		t.Fatalf("PopStyle()=%v, want nil", err)
	}
	b.PushText("jumps")
	l, err := b.Build()
	if err != nil {
		t.Fatalf("Build()=%v, want nil", err)
	}
	const want = "The quick brown fox jumps"
	if got := l.Text(); got != want {
		t.Fatalf("Text()=%q, want %q", got, want)
	}

	for _, w := range []fixed.Int26_6{0, fixed.I(45), fixed.I(80), fixed.I(500)} {
		l.BreakLines(w)
		// Concatenating every glyph run plus each line's consumed
		// break bytes must reconstruct the backing text exactly.
		var got string
		for _, ln := range l.Lines() {
			for _, it := range ln.Items {
				if it.Run != nil {
					got += it.Run.Text
				}
			}
			got += want[ln.End:nextStart(ln)]
		}
		if got != want {
			t.Errorf("BreakLines(%v): reconstructed %q, want %q", w, got, want)
		}
	}
}

func nextStart(ln Line) int { return ln.End + ln.gap }

func TestBuilder_PopStyleUnderflow(t *testing.T) {
	b := NewBuilder(testShaper(), testDef)
	b.PushStyle(testBold)
	if err := b.PopStyle(); err != nil {
		t.Fatalf("PopStyle()=%v, want nil", err)
	}
	err := b.PopStyle()
	var logic LogicError
	if !errors.As(err, &logic) {
		t.Errorf("PopStyle() on empty stack=%v, want LogicError", err)
	}
}

func TestBuilder_BuildConsumed(t *testing.T) {
	b := NewBuilder(testShaper(), testDef)
	b.PushText("x")
	if _, err := b.Build(); err != nil {
		t.Fatalf("Build()=%v, want nil", err)
	}
	_, err := b.Build()
	var logic LogicError
	if !errors.As(err, &logic) {
		t.Errorf("second Build()=%v, want LogicError", err)
	}
}

func TestBuilder_EffectiveStyle(t *testing.T) {
	b := NewBuilder(testShaper(), testDef)
	if got := b.Style(); !got.Equal(testDef) {
		t.Errorf("Style()=%v, want default %v", got, testDef)
	}
	b.PushStyle(style.Style{Size: 14})
	want := style.Style{Families: []string{"Go"}, Size: 14}
	if got := b.Style(); !got.Equal(want) {
		t.Errorf("Style() after push=%v, want %v", got, want)
	}
	b.PushStyleTemp(style.Style{Deco: style.Underline})
	want.Deco = style.Underline
	if got := b.Style(); !got.Equal(want) {
		t.Errorf("Style() after temp push=%v, want %v", got, want)
	}
	b.PopStyle()
	b.PopStyle()
	if got := b.Style(); !got.Equal(testDef) {
		t.Errorf("Style() after pops=%v, want default %v", got, testDef)
	}
}

func TestBuilder_EmptyBuild(t *testing.T) {
	b := NewBuilder(testShaper(), testDef)
	l, err := b.Build()
	if err != nil {
		t.Fatalf("Build()=%v, want nil", err)
	}
	lines := l.Lines()
	if len(lines) != 1 {
		t.Fatalf("len(Lines())=%d, want 1", len(lines))
	}
	if len(lines[0].Items) != 0 {
		t.Errorf("empty line has %d items, want 0", len(lines[0].Items))
	}
	// Height of the one empty line is the default style's line
	// height: 10px at the default 1.2 factor.
	if want := fixed.I(12); lines[0].Height != want {
		t.Errorf("empty line height=%v, want %v", lines[0].Height, want)
	}
	// The baseline gets the same half-leading as a non-empty line:
	// ascent 12 plus half of (12 - 16) is 10.
	if want := fixed.I(10); lines[0].Ascent != want {
		t.Errorf("empty line ascent=%v, want %v", lines[0].Ascent, want)
	}
}
