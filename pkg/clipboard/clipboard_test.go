package clipboard

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu      sync.Mutex
	history []string
}

func (w *fakeWriter) Write(s string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.history = append(w.history, s)
	return nil
}

func (w *fakeWriter) last() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.history[len(w.history)-1]
}

func TestCopyThenAutoClear(t *testing.T) {
	w := &fakeWriter{}
	g := New(w, 30*time.Millisecond)

	require.NoError(t, g.Copy("p1"))
	assert.Equal(t, "p1", w.last())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, "", w.last())
}

func TestSecondCopyResetsTimer(t *testing.T) {
	w := &fakeWriter{}
	g := New(w, 40*time.Millisecond)

	require.NoError(t, g.Copy("p1"))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, g.Copy("p2"))

	// At this point the first timer would have fired were it not
	// cancelled; the clipboard must still hold the second value.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "p2", w.last())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, "", w.last())
}

func TestClearCancelsPendingTimer(t *testing.T) {
	w := &fakeWriter{}
	g := New(w, 30*time.Millisecond)

	require.NoError(t, g.Copy("p1"))
	require.NoError(t, g.Clear())

	history := append([]string(nil), w.history...)
	time.Sleep(50 * time.Millisecond)

	// No extra clear should have been appended by the now-cancelled timer.
	assert.Equal(t, len(history), len(w.history))
}

type erroringWriter struct{}

func (erroringWriter) Write(s string) error { return errors.New("no clipboard available") }

func TestCopyErrorPropagates(t *testing.T) {
	g := New(erroringWriter{}, time.Second)
	err := g.Copy("p1")
	assert.Error(t, err)
}
