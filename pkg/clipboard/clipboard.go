// Package clipboard implements the copy-with-auto-clear-timer contract
// on top of an externally supplied clipboard writer. The actual OS
// clipboard byte transport is out of scope for this program (spec.md
// §1) and is named only by the Writer interface below; callers wire in
// whatever platform clipboard library they like.
package clipboard

import (
	"sync"
	"time"

	"github.com/leddt/bwtui/pkg/vaulterr"
)

// Writer is the external collaborator that actually places bytes on the
// system clipboard.
type Writer interface {
	Write(s string) error
}

// Gateway copies a value to the clipboard and arms a timer that clears
// it again after Timeout, unless another copy or Clear happens first.
type Gateway struct {
	writer  Writer
	timeout time.Duration

	mu    sync.Mutex
	timer *time.Timer
	// generation guards against a stale timer clearing a value placed
	// by a later copy.
	generation uint64
}

// New returns a Gateway with the given auto-clear timeout.
func New(writer Writer, timeout time.Duration) *Gateway {
	return &Gateway{writer: writer, timeout: timeout}
}

// Copy writes value to the clipboard and (re)arms the auto-clear timer.
func (g *Gateway) Copy(value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.writer.Write(value); err != nil {
		return &copyError{err}
	}

	g.generation++
	gen := g.generation
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(g.timeout, func() { g.clearIfCurrent(gen) })
	return nil
}

func (g *Gateway) clearIfCurrent(gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.generation {
		return // a newer copy has already superseded this timer
	}
	_ = g.writer.Write("")
}

// Clear immediately blanks the clipboard and cancels any pending timer.
func (g *Gateway) Clear() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
	g.generation++
	return g.writer.Write("")
}

type copyError struct{ err error }

func (e *copyError) Error() string { return "clipboard: " + e.err.Error() }
func (e *copyError) Unwrap() error { return e.err }
func (e *copyError) Is(target error) bool {
	return target == vaulterr.ErrClipboardUnavailable
}
