// Package shape defines the boundary between the layout engine and
// the glyph shaping backend.
//
// Layout consumes only shaped output: runs of positioned glyph
// clusters with a cluster-to-byte-offset mapping. The Shaper
// interface covers that contract, and FaceShaper implements it on
// top of a golang.org/x/image/font.Face. A shaper is assumed to
// always return a usable run; missing glyphs are substituted with
// the replacement character rather than reported as errors.
package shape

import (
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/inktext/ink/style"
)

// A Glyph is one shaped grapheme cluster within a run.
// Cursor positions must align to cluster boundaries,
// so clusters are the unit of hit testing.
type Glyph struct {
	// Cluster is the byte offset of the cluster in Run.Text.
	Cluster int
	// Advance is the horizontal advance of the cluster.
	Advance fixed.Int26_6
}

// A Run is a maximal span of shaped text with a single style.
type Run struct {
	// Text is the text of the run.
	Text string
	// Style is the resolved style the run was shaped with.
	Style style.Style
	// Glyphs are the shaped clusters in left-to-right logical order.
	Glyphs []Glyph
	// Advance is the total advance of the run.
	Advance fixed.Int26_6
	// Ascent and Descent are the font extents of the run.
	Ascent, Descent fixed.Int26_6
}

// A Shaper maps styled text to positioned glyph runs.
//
// Shapers are invoked synchronously; an expensive backend
// (cold font loading, for example) is the caller's problem
// to warm up before layout.
type Shaper interface {
	// Shape shapes text with the given style.
	Shape(text string, sty style.Style) Run
	// Measure returns the advance text would have if shaped
	// with the given style.
	Measure(text string, sty style.Style) fixed.Int26_6
}

// A FaceSource resolves a style to a font face.
type FaceSource interface {
	Face(sty style.Style) font.Face
}

// FaceSourceFunc adapts a function to the FaceSource interface.
type FaceSourceFunc func(style.Style) font.Face

// Face implements FaceSource.
func (f FaceSourceFunc) Face(sty style.Style) font.Face { return f(sty) }

// maxMeasures bounds the measurement cache. When full the cache
// is discarded wholesale; round trips through layout re-warm it
// within a frame.
const maxMeasures = 4096

// A FaceShaper shapes text using font.Face advances and kerning.
// It groups glyphs by grapheme cluster and caches measurements
// keyed by face and text.
//
// A FaceShaper is not safe for concurrent use, matching the
// single-threaded contract of the engine.
type FaceShaper struct {
	src      FaceSource
	measures map[measureKey]fixed.Int26_6
}

type measureKey struct {
	face font.Face
	text string
}

// NewFaceShaper returns a FaceShaper drawing faces from src.
func NewFaceShaper(src FaceSource) *FaceShaper {
	return &FaceShaper{
		src:      src,
		measures: make(map[measureKey]fixed.Int26_6),
	}
}

// Shape implements Shaper.
func (sh *FaceShaper) Shape(text string, sty style.Style) Run {
	face := sh.src.Face(sty)
	m := face.Metrics()
	run := Run{
		Text:    text,
		Style:   sty,
		Ascent:  m.Ascent,
		Descent: m.Descent,
	}
	var prev rune
	state := -1
	rest := text
	at := 0
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.StepString(rest, state)
		adv := clusterAdvance(face, prev, cluster)
		run.Glyphs = append(run.Glyphs, Glyph{Cluster: at, Advance: adv})
		run.Advance += adv
		prev, _ = utf8.DecodeLastRuneInString(cluster)
		at += len(cluster)
	}
	return run
}

// Measure implements Shaper.
func (sh *FaceShaper) Measure(text string, sty style.Style) fixed.Int26_6 {
	face := sh.src.Face(sty)
	key := measureKey{face: face, text: text}
	if adv, ok := sh.measures[key]; ok {
		return adv
	}
	var adv fixed.Int26_6
	var prev rune
	for _, r := range text {
		adv += kern(face, prev, r) + advance(face, r)
		prev = r
	}
	if len(sh.measures) >= maxMeasures {
		sh.measures = make(map[measureKey]fixed.Int26_6)
	}
	sh.measures[key] = adv
	return adv
}

// clusterAdvance sums the advances of the cluster's runes,
// kerned against the last rune of the previous cluster.
func clusterAdvance(face font.Face, prev rune, cluster string) fixed.Int26_6 {
	var adv fixed.Int26_6
	for _, r := range cluster {
		adv += kern(face, prev, r) + advance(face, r)
		prev = r
	}
	return adv
}

func advance(face font.Face, r rune) fixed.Int26_6 {
	adv, ok := face.GlyphAdvance(r)
	if !ok {
		adv, _ = face.GlyphAdvance(unicode.ReplacementChar)
	}
	return adv
}

func kern(face font.Face, prev, cur rune) fixed.Int26_6 {
	if prev == 0 {
		return 0
	}
	return face.Kern(prev, cur)
}
