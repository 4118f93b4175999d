// Package clipboard stores and fetches the text moved by cut, copy,
// and paste actions. It uses the system clipboard through
// github.com/atotto/clipboard when one is available and falls back to
// an in-process buffer when none is, so clipboard actions behave the
// same either way.
package clipboard

import (
	"sync"

	"github.com/atotto/clipboard"
)

// A Clipboard holds one piece of text at a time.
type Clipboard interface {
	// Store replaces the clipboard text.
	Store(string) error
	// Fetch returns the clipboard text.
	Fetch() (string, error)
}

// New returns the system clipboard, or an empty in-memory clipboard
// on platforms with no system clipboard support.
func New() Clipboard {
	if clipboard.Unsupported {
		return NewMem()
	}
	return sysClipboard{}
}

// NewMem returns an empty in-memory clipboard. Tests use it to avoid
// touching the real system clipboard.
func NewMem() Clipboard {
	return &memClipboard{}
}

type sysClipboard struct{}

func (sysClipboard) Store(text string) error {
	return clipboard.WriteAll(text)
}

func (sysClipboard) Fetch() (string, error) {
	return clipboard.ReadAll()
}

// The system clipboard is shared process state, so the in-memory
// fallback matches and locks too.
type memClipboard struct {
	text string
	mu   sync.Mutex
}

func (m *memClipboard) Store(text string) error {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
	return nil
}

func (m *memClipboard) Fetch() (string, error) {
	m.mu.Lock()
	text := m.text
	m.mu.Unlock()
	return text, nil
}
