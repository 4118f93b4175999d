package input

import (
	"errors"
	"image"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/inktext/ink/clipboard"
	"github.com/inktext/ink/edit"
	"github.com/inktext/ink/shape"
	"github.com/inktext/ink/style"
)

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
	return font.Metrics{Height: fixed.I(16), Ascent: fixed.I(12), Descent: fixed.I(4)}
}

func testBuffer(text string) *edit.Buffer {
	sh := shape.NewFaceShaper(shape.FaceSourceFunc(func(style.Style) font.Face {
		return fixedFace{}
	}))
	b := edit.NewBuffer(sh, style.Style{Families: []string{"Go"}, Size: 10})
	b.SetText(text)
	return b
}

func TestDriver_Do(t *testing.T) {
	d := NewDriver(clipboard.NewMem())
	b := testBuffer("hello world")

	steps := []struct {
		ev         Event
		wantText   string
		wantCursor int
	}{
		{Event{Action: MoveWordRight}, "hello world", 5},
		{Event{Action: SelectToTextEnd}, "hello world", 11},
		{Event{Action: DeleteSelection}, "hello", 5},
		{Event{Action: Insert, Text: "!"}, "hello!", 6},
		{Event{Action: Backdelete}, "hello", 5},
		{Event{Action: MoveToTextStart}, "hello", 0},
		{Event{Action: Delete}, "ello", 0},
		{Event{Action: MoveToPoint, X: 22, Y: 5}, "ello", 2},
	}
	for i, step := range steps {
		if err := d.Do(b, step.ev); err != nil {
			t.Fatalf("step %d: Do()=%v, want nil", i, err)
		}
		if b.Text() != step.wantText || b.Cursor() != step.wantCursor {
			t.Fatalf("step %d: text=%q cursor=%d, want %q %d",
				i, b.Text(), b.Cursor(), step.wantText, step.wantCursor)
		}
	}
}

func TestDriver_UnknownAction(t *testing.T) {
	d := NewDriver(clipboard.NewMem())
	b := testBuffer("x")
	err := d.Do(b, Event{Action: Action(-1)})
	var inv edit.InvalidInputError
	if !errors.As(err, &inv) {
		t.Errorf("Do(unknown)=%v, want InvalidInputError", err)
	}
}

func TestDriver_Clipboard(t *testing.T) {
	clip := clipboard.NewMem()
	d := NewDriver(clip)
	b := testBuffer("hello world")

	b.SelectWordRight()
	if err := d.Do(b, Event{Action: Copy}); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if got, _ := clip.Fetch(); got != "hello" {
		t.Fatalf("clipboard=%q, want %q", got, "hello")
	}

	b.MoveToTextEnd()
	if err := d.Do(b, Event{Action: Paste}); err != nil {
		t.Fatalf("Paste: %v", err)
	}
	if b.Text() != "hello worldhello" {
		t.Fatalf("after paste: text=%q", b.Text())
	}

	b.SetText("cut me")
	b.SelectWordRight()
	if err := d.Do(b, Event{Action: Cut}); err != nil {
		t.Fatalf("Cut: %v", err)
	}
	if b.Text() != " me" {
		t.Errorf("after cut: text=%q, want %q", b.Text(), " me")
	}
	if got, _ := clip.Fetch(); got != "cut" {
		t.Errorf("clipboard=%q, want %q", got, "cut")
	}
}

func TestDriver_Compose(t *testing.T) {
	d := NewDriver(clipboard.NewMem())
	b := testBuffer("")
	if err := d.Do(b, Event{Action: SetCompose, Text: "ni", Pos: 1}); err != nil {
		t.Fatal(err)
	}
	if !b.Composing() || b.Text() != "ni" || b.Cursor() != 1 {
		t.Fatalf("composing=%v text=%q cursor=%d", b.Composing(), b.Text(), b.Cursor())
	}
	if err := d.Do(b, Event{Action: ClearCompose}); err != nil {
		t.Fatal(err)
	}
	if b.Composing() || b.Text() != "" {
		t.Errorf("after clear: composing=%v text=%q", b.Composing(), b.Text())
	}
}

func TestFromKey(t *testing.T) {
	tests := []struct {
		name string
		ev   key.Event
		want Event
		ok   bool
	}{
		{
			name: "left arrow",
			ev:   key.Event{Code: key.CodeLeftArrow},
			want: Event{Action: MoveLeft}, ok: true,
		},
		{
			name: "shift right arrow",
			ev:   key.Event{Code: key.CodeRightArrow, Modifiers: key.ModShift},
			want: Event{Action: SelectRight}, ok: true,
		},
		{
			name: "ctrl left arrow",
			ev:   key.Event{Code: key.CodeLeftArrow, Modifiers: key.ModControl},
			want: Event{Action: MoveWordLeft}, ok: true,
		},
		{
			name: "ctrl shift right arrow",
			ev:   key.Event{Code: key.CodeRightArrow, Modifiers: key.ModControl | key.ModShift},
			want: Event{Action: SelectWordRight}, ok: true,
		},
		{
			name: "up arrow",
			ev:   key.Event{Code: key.CodeUpArrow},
			want: Event{Action: MoveUp}, ok: true,
		},
		{
			name: "home",
			ev:   key.Event{Code: key.CodeHome},
			want: Event{Action: MoveToLineStart}, ok: true,
		},
		{
			name: "ctrl end",
			ev:   key.Event{Code: key.CodeEnd, Modifiers: key.ModControl},
			want: Event{Action: MoveToTextEnd}, ok: true,
		},
		{
			name: "shift home",
			ev:   key.Event{Code: key.CodeHome, Modifiers: key.ModShift},
			want: Event{Action: SelectToLineStart}, ok: true,
		},
		{
			name: "backspace",
			ev:   key.Event{Code: key.CodeDeleteBackspace},
			want: Event{Action: Backdelete}, ok: true,
		},
		{
			name: "ctrl backspace",
			ev:   key.Event{Code: key.CodeDeleteBackspace, Modifiers: key.ModControl},
			want: Event{Action: BackdeleteWord}, ok: true,
		},
		{
			name: "delete forward",
			ev:   key.Event{Code: key.CodeDeleteForward},
			want: Event{Action: Delete}, ok: true,
		},
		{
			name: "enter",
			ev:   key.Event{Code: key.CodeReturnEnter, Rune: '\r'},
			want: Event{Action: Insert, Text: "\n"}, ok: true,
		},
		{
			name: "rune",
			ev:   key.Event{Code: key.CodeQ, Rune: 'q'},
			want: Event{Action: Insert, Text: "q"}, ok: true,
		},
		{
			name: "ctrl a",
			ev:   key.Event{Code: key.CodeA, Rune: 'a', Modifiers: key.ModControl},
			want: Event{Action: SelectAll}, ok: true,
		},
		{
			name: "ctrl c",
			ev:   key.Event{Code: key.CodeC, Rune: 'c', Modifiers: key.ModControl},
			want: Event{Action: Copy}, ok: true,
		},
		{
			name: "ctrl x",
			ev:   key.Event{Code: key.CodeX, Rune: 'x', Modifiers: key.ModControl},
			want: Event{Action: Cut}, ok: true,
		},
		{
			name: "meta v",
			ev:   key.Event{Code: key.CodeV, Rune: 'v', Modifiers: key.ModMeta},
			want: Event{Action: Paste}, ok: true,
		},
		{
			name: "unbound ctrl key",
			ev:   key.Event{Code: key.CodeB, Rune: 'b', Modifiers: key.ModControl},
			ok:   false,
		},
		{
			name: "key release ignored",
			ev:   key.Event{Code: key.CodeQ, Rune: 'q', Direction: key.DirRelease},
			ok:   false,
		},
		{
			name: "bare modifier ignored",
			ev:   key.Event{Code: key.CodeLeftShift, Rune: -1},
			ok:   false,
		},
	}
	for _, test := range tests {
		got, ok := FromKey(test.ev)
		if ok != test.ok {
			t.Errorf("%s: ok=%v, want %v", test.name, ok, test.ok)
			continue
		}
		if ok && got != test.want {
			t.Errorf("%s: got %+v, want %+v", test.name, got, test.want)
		}
	}
}

func TestFromMouse(t *testing.T) {
	tests := []struct {
		name string
		ev   mouse.Event
		want Event
		ok   bool
	}{
		{
			name: "left press",
			ev:   mouse.Event{X: 10, Y: 20, Button: mouse.ButtonLeft, Direction: mouse.DirPress},
			want: Event{Action: MoveToPoint, X: 10, Y: 20}, ok: true,
		},
		{
			name: "shift left press extends",
			ev: mouse.Event{X: 10, Y: 20, Button: mouse.ButtonLeft,
				Direction: mouse.DirPress, Modifiers: key.ModShift},
			want: Event{Action: ExtendToPoint, X: 10, Y: 20}, ok: true,
		},
		{
			name: "drag extends",
			ev:   mouse.Event{X: 30, Y: 20, Button: mouse.ButtonLeft, Direction: mouse.DirNone},
			want: Event{Action: ExtendToPoint, X: 30, Y: 20}, ok: true,
		},
		{
			name: "release ignored",
			ev:   mouse.Event{Button: mouse.ButtonLeft, Direction: mouse.DirRelease},
			ok:   false,
		},
		{
			name: "plain motion ignored",
			ev:   mouse.Event{X: 5, Y: 5, Direction: mouse.DirNone},
			ok:   false,
		},
		{
			name: "wheel ignored",
			ev:   mouse.Event{Button: mouse.ButtonWheelDown, Direction: mouse.DirStep},
			ok:   false,
		},
	}
	for _, test := range tests {
		got, ok := FromMouse(test.ev)
		if ok != test.ok {
			t.Errorf("%s: ok=%v, want %v", test.name, ok, test.ok)
			continue
		}
		if ok && got != test.want {
			t.Errorf("%s: got %+v, want %+v", test.name, got, test.want)
		}
	}
}
