// Package input dispatches discrete editing actions to a buffer.
//
// The driver is a thin, stateless translation layer: it maps a closed
// set of actions to edit.Buffer methods and adds no policy of its
// own. FromKey and FromMouse translate golang.org/x/mobile events to
// actions for callers driving a buffer from a shiny event loop.
package input

import (
	"unicode"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/inktext/ink/clipboard"
	"github.com/inktext/ink/edit"
)

// An Action identifies one buffer operation.
type Action int

const (
	MoveLeft Action = iota
	MoveRight
	MoveUp
	MoveDown
	MoveWordLeft
	MoveWordRight
	MoveToLineStart
	MoveToLineEnd
	MoveToTextStart
	MoveToTextEnd
	MoveToPoint
	SelectLeft
	SelectRight
	SelectUp
	SelectDown
	SelectWordLeft
	SelectWordRight
	SelectToLineStart
	SelectToLineEnd
	SelectToTextStart
	SelectToTextEnd
	SelectAll
	SelectWord
	SelectLine
	CollapseSelection
	ExtendToPoint
	Insert
	Delete
	Backdelete
	DeleteWord
	BackdeleteWord
	DeleteSelection
	SetCompose
	ClearCompose
	Cut
	Copy
	Paste
)

// An Event is one action with its arguments. Text carries inserted or
// composed text, X and Y point coordinates, and Pos the cursor offset
// within a composition.
type Event struct {
	Action Action
	Text   string
	X, Y   float64
	Pos    int
}

// A Driver applies input events to buffers. The clipboard backs the
// Cut, Copy, and Paste actions.
type Driver struct {
	clip clipboard.Clipboard
}

// NewDriver returns a driver using the given clipboard.
func NewDriver(clip clipboard.Clipboard) *Driver {
	return &Driver{clip: clip}
}

// Do applies an event to a buffer. An unknown action is rejected with
// edit.InvalidInputError.
func (d *Driver) Do(b *edit.Buffer, e Event) error {
	switch e.Action {
	case MoveLeft:
		b.MoveLeft()
	case MoveRight:
		b.MoveRight()
	case MoveUp:
		b.MoveUp()
	case MoveDown:
		b.MoveDown()
	case MoveWordLeft:
		b.MoveWordLeft()
	case MoveWordRight:
		b.MoveWordRight()
	case MoveToLineStart:
		b.MoveToLineStart()
	case MoveToLineEnd:
		b.MoveToLineEnd()
	case MoveToTextStart:
		b.MoveToTextStart()
	case MoveToTextEnd:
		b.MoveToTextEnd()
	case MoveToPoint:
		return b.MoveToPoint(e.X, e.Y)
	case SelectLeft:
		b.SelectLeft()
	case SelectRight:
		b.SelectRight()
	case SelectUp:
		b.SelectUp()
	case SelectDown:
		b.SelectDown()
	case SelectWordLeft:
		b.SelectWordLeft()
	case SelectWordRight:
		b.SelectWordRight()
	case SelectToLineStart:
		b.SelectToLineStart()
	case SelectToLineEnd:
		b.SelectToLineEnd()
	case SelectToTextStart:
		b.SelectToTextStart()
	case SelectToTextEnd:
		b.SelectToTextEnd()
	case SelectAll:
		b.SelectAll()
	case SelectWord:
		b.SelectWord()
	case SelectLine:
		b.SelectLine()
	case CollapseSelection:
		b.CollapseSelection()
	case ExtendToPoint:
		return b.ExtendToPoint(e.X, e.Y)
	case Insert:
		b.Insert(e.Text)
	case Delete:
		b.Delete()
	case Backdelete:
		b.Backdelete()
	case DeleteWord:
		b.DeleteWord()
	case BackdeleteWord:
		b.BackdeleteWord()
	case DeleteSelection:
		b.DeleteSelection()
	case SetCompose:
		b.SetCompose(e.Text, e.Pos)
	case ClearCompose:
		b.ClearCompose()
	case Cut:
		if err := d.clip.Store(b.SelectedText()); err != nil {
			return err
		}
		b.DeleteSelection()
	case Copy:
		return d.clip.Store(b.SelectedText())
	case Paste:
		text, err := d.clip.Fetch()
		if err != nil {
			return err
		}
		b.Insert(text)
	default:
		return edit.InvalidInputError("unknown action")
	}
	return nil
}

// FromKey translates a key press to an event. The second return is
// false for key releases and keys with no editing meaning.
func FromKey(e key.Event) (Event, bool) {
	if e.Direction == key.DirRelease {
		return Event{}, false
	}
	shift := e.Modifiers&key.ModShift != 0
	word := e.Modifiers&(key.ModControl|key.ModAlt) != 0
	cmd := e.Modifiers&(key.ModControl|key.ModMeta) != 0

	switch e.Code {
	case key.CodeLeftArrow:
		return Event{Action: pick(shift, word, SelectWordLeft, SelectLeft, MoveWordLeft, MoveLeft)}, true
	case key.CodeRightArrow:
		return Event{Action: pick(shift, word, SelectWordRight, SelectRight, MoveWordRight, MoveRight)}, true
	case key.CodeUpArrow:
		return Event{Action: pick(shift, false, SelectUp, SelectUp, MoveUp, MoveUp)}, true
	case key.CodeDownArrow:
		return Event{Action: pick(shift, false, SelectDown, SelectDown, MoveDown, MoveDown)}, true
	case key.CodeHome:
		return Event{Action: pick(shift, cmd, SelectToTextStart, SelectToLineStart, MoveToTextStart, MoveToLineStart)}, true
	case key.CodeEnd:
		return Event{Action: pick(shift, cmd, SelectToTextEnd, SelectToLineEnd, MoveToTextEnd, MoveToLineEnd)}, true
	case key.CodeDeleteBackspace:
		if word {
			return Event{Action: BackdeleteWord}, true
		}
		return Event{Action: Backdelete}, true
	case key.CodeDeleteForward:
		if word {
			return Event{Action: DeleteWord}, true
		}
		return Event{Action: Delete}, true
	case key.CodeReturnEnter:
		return Event{Action: Insert, Text: "\n"}, true
	case key.CodeTab:
		return Event{Action: Insert, Text: "\t"}, true
	}

	if cmd {
		switch e.Code {
		case key.CodeA:
			return Event{Action: SelectAll}, true
		case key.CodeC:
			return Event{Action: Copy}, true
		case key.CodeX:
			return Event{Action: Cut}, true
		case key.CodeV:
			return Event{Action: Paste}, true
		}
		return Event{}, false
	}
	if e.Rune == '\r' || e.Rune == '\n' {
		return Event{Action: Insert, Text: "\n"}, true
	}
	if e.Rune > 0 && !unicode.IsControl(e.Rune) {
		return Event{Action: Insert, Text: string(e.Rune)}, true
	}
	return Event{}, false
}

// pick selects among the shifted, modified, and plain variants of a
// navigation action.
func pick(shift, mod bool, shiftMod, shiftPlain, modOnly, plain Action) Action {
	switch {
	case shift && mod:
		return shiftMod
	case shift:
		return shiftPlain
	case mod:
		return modOnly
	default:
		return plain
	}
}

// FromMouse translates a left-button mouse event to an event. A press
// places the cursor (or extends the selection with shift held); drag
// motion with the button reported extends the selection. Other mouse
// events have no editing meaning.
func FromMouse(e mouse.Event) (Event, bool) {
	x, y := float64(e.X), float64(e.Y)
	switch {
	case e.Direction == mouse.DirPress && e.Button == mouse.ButtonLeft:
		if e.Modifiers&key.ModShift != 0 {
			return Event{Action: ExtendToPoint, X: x, Y: y}, true
		}
		return Event{Action: MoveToPoint, X: x, Y: y}, true
	case e.Direction == mouse.DirNone && e.Button == mouse.ButtonLeft:
		return Event{Action: ExtendToPoint, X: x, Y: y}, true
	}
	return Event{}, false
}
