package dispatch

import "github.com/leddt/bwtui/internal/ui"

// View renders the current frame. Rendering never mutates m.State;
// ui.View is a pure function of state and terminal size.
func (m *Model) View() string {
	return ui.View(m.State, m.width, m.height)
}
