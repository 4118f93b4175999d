// Ink is a demo editor for the ink text layout and editing engine.
// It opens a window with an editable, styled text buffer.
package main

import (
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/golang/freetype/truetype"
	"golang.org/x/exp/shiny/driver/gldriver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/inktext/ink/clipboard"
	"github.com/inktext/ink/edit"
	"github.com/inktext/ink/input"
	"github.com/inktext/ink/layout"
	"github.com/inktext/ink/shape"
	"github.com/inktext/ink/style"
)

const tickRate = 20 * time.Millisecond

var (
	fg    = color.RGBA{R: 0x10, G: 0x28, B: 0x34, A: 0xFF}
	bg    = color.RGBA{R: 0xFE, G: 0xF0, B: 0xE6, A: 0xFF}
	selBG = color.RGBA{R: 0xB6, G: 0xDA, B: 0xFD, A: 0xFF}

	regular, _ = truetype.Parse(goregular.TTF)
	bold, _    = truetype.Parse(gobold.TTF)
	italic, _  = truetype.Parse(goitalic.TTF)
)

const demoText = `Ink lays out styled text and edits it in place.

Type to insert, arrows to move, shift to select.
Ctrl+C, Ctrl+X, and Ctrl+V use the system clipboard.`

func main() {
	gldriver.Main(func(scr screen.Screen) {
		window, err := scr.NewWindow(nil)
		if err != nil {
			panic(err)
		}
		defer window.Release()

		var e size.Event
		for {
			var ok bool
			if e, ok = window.NextEvent().(size.Event); ok {
				break
			}
		}
		run(scr, window, e)
	})
}

// faces resolves styles to truetype faces, keyed by family and size.
// The same source backs shaping and painting so advances agree.
type faces struct {
	dpi   float64
	cache map[faceKey]font.Face
}

type faceKey struct {
	family string
	size   float64
}

func newFaces(dpi float64) *faces {
	return &faces{dpi: dpi, cache: make(map[faceKey]font.Face)}
}

func (f *faces) Face(sty style.Style) font.Face {
	family := ""
	if len(sty.Families) > 0 {
		family = sty.Families[0]
	}
	k := faceKey{family: family, size: sty.Size}
	if face, ok := f.cache[k]; ok {
		return face
	}
	fnt := regular
	switch family {
	case "Go Bold":
		fnt = bold
	case "Go Italic":
		fnt = italic
	}
	face := truetype.NewFace(fnt, &truetype.Options{
		Size: sty.Size,
		DPI:  f.dpi,
	})
	f.cache[k] = face
	return face
}

// An editor ties a buffer, its face source, and a paint target.
type editor struct {
	faces  *faces
	buf    *edit.Buffer
	driver *input.Driver
}

func newEditor(dpi float64) *editor {
	src := newFaces(dpi)
	def := style.Style{Families: []string{"Go"}, Size: 14, FG: fg}
	buf := edit.NewBuffer(shape.NewFaceShaper(src), def)
	buf.SetText(demoText)
	buf.SetStyle(0, 3, style.Style{Families: []string{"Go Bold"}})
	return &editor{
		faces:  src,
		buf:    buf,
		driver: input.NewDriver(clipboard.New()),
	}
}

func run(scr screen.Screen, window screen.Window, sz size.Event) {
	dpi := float64(sz.PixelsPerPt) * 72.0
	ed := newEditor(dpi)
	winSize := sz.Size()
	ed.buf.SetWidth(fixed.I(winSize.X))

	sbuf, tex := bufTex(scr, winSize)
	defer func() {
		sbuf.Release()
		tex.Release()
	}()

	go func() {
		for range time.Tick(tickRate) {
			window.Send(paint.Event{})
		}
	}()

	var dragging bool
	for {
		switch e := window.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return
			}

		case size.Event:
			if e.Size() == image.ZP {
				return
			}
			winSize = e.Size()
			ed.buf.SetWidth(fixed.I(winSize.X))
			if b := tex.Bounds(); b.Dx() < winSize.X || b.Dy() < winSize.Y {
				tex.Release()
				sbuf.Release()
				sbuf, tex = bufTex(scr, winSize.Mul(2))
			}

		case paint.Event:
			rect := image.Rectangle{Max: winSize}
			img := sbuf.RGBA().SubImage(rect).(*image.RGBA)
			ed.render(img)
			tex.Upload(image.ZP, sbuf, sbuf.Bounds())
			window.Draw(f64.Aff3{
				1, 0, 0,
				0, 1, 0,
			}, tex, tex.Bounds(), draw.Src, nil)
			window.Publish()

		case mouse.Event:
			switch e.Direction {
			case mouse.DirPress:
				dragging = e.Button == mouse.ButtonLeft
			case mouse.DirRelease:
				dragging = false
			case mouse.DirNone:
				if dragging {
					ed.buf.ExtendToPoint(float64(e.X), float64(e.Y))
					continue
				}
			}
			if ev, ok := input.FromMouse(e); ok {
				ed.driver.Do(ed.buf, ev)
			}

		case key.Event:
			if ev, ok := input.FromKey(e); ok {
				ed.driver.Do(ed.buf, ev)
			}
		}
	}
}

func bufTex(scr screen.Screen, sz image.Point) (screen.Buffer, screen.Texture) {
	buf, err := scr.NewBuffer(sz)
	if err != nil {
		panic(err)
	}
	tex, err := scr.NewTexture(sz)
	if err != nil {
		panic(err)
	}
	return buf, tex
}

// render paints the buffer's layout: selection, glyph runs, underline
// decorations, inline boxes, and the cursor.
func (ed *editor) render(img *image.RGBA) {
	fillRect(img, bg, img.Bounds().Sub(img.Bounds().Min))
	l := ed.buf.Layout()
	lines := l.Lines()

	if s, e, ok := ed.buf.Selection(); ok && s < e {
		ed.drawSelection(img, l, s, e)
	}
	for _, ln := range lines {
		yb := ln.Y + ln.Ascent
		for i := range ln.Items {
			it := &ln.Items[i]
			if it.Box != nil {
				r := image.Rect(
					it.Box.X.Floor(), it.Box.Y.Floor(),
					(it.Box.X + it.Box.Spec.Width).Floor(),
					(it.Box.Y + it.Box.Spec.Height).Floor(),
				)
				fillRect(img, fg, r)
				continue
			}
			ed.drawRun(img, it.Run, it.X, yb)
		}
	}

	pt, li := l.PositionAt(ed.buf.Cursor())
	ln := lines[li]
	cur := image.Rect(pt.X.Floor(), ln.Y.Floor(), pt.X.Floor()+2, (ln.Y + ln.Height).Floor())
	fillRect(img, fg, cur)
}

// drawSelection fills the selected range's extent, line by line.
// On lines where the selection continues past the end, the fill runs
// to the line width.
func (ed *editor) drawSelection(img *image.RGBA, l *layout.Layout, s, e int) {
	for _, ln := range l.Lines() {
		if e <= ln.Start || s >= ln.End {
			continue
		}
		x0 := fixed.Int26_6(0)
		if s > ln.Start {
			pt, _ := l.PositionAt(s)
			x0 = pt.X
		}
		x1 := ln.Width
		if e < ln.End {
			pt, _ := l.PositionAt(e)
			x1 = pt.X
		}
		r := image.Rect(x0.Floor(), ln.Y.Floor(), x1.Floor(), (ln.Y + ln.Height).Floor())
		fillRect(img, selBG, r)
	}
}

func (ed *editor) drawRun(img *image.RGBA, run *shape.Run, x0, yb fixed.Int26_6) {
	col := run.Style.FG
	if col == nil {
		col = fg
	}
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: ed.faces.Face(run.Style),
		Dot:  fixed.Point26_6{X: x0, Y: yb},
	}
	d.DrawString(run.Text)
	if run.Style.Deco&style.Underline != 0 {
		r := image.Rect(x0.Floor(), yb.Floor()+1, d.Dot.X.Floor(), yb.Floor()+2)
		fillRect(img, col, r)
	}
	if run.Style.Deco&style.Strikethrough != 0 {
		ym := (yb - run.Ascent/2).Floor()
		r := image.Rect(x0.Floor(), ym, d.Dot.X.Floor(), ym+1)
		fillRect(img, col, r)
	}
}

func fillRect(img *image.RGBA, c color.Color, r image.Rectangle) {
	z := img.Bounds().Min
	draw.Draw(img, r.Add(z), image.NewUniform(c), image.ZP, draw.Src)
}
