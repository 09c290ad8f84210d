package clipboard

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/leddt/bwtui/pkg/vaulterr"
)

// ExecWriter is the production Writer: it shells out to the platform's
// clipboard tool, mirroring the teacher's copyToClipboard helper
// (cmd/secretctl/generate.go) rather than linking a CGo clipboard
// library, since the byte transport itself is named only as an
// external collaborator (spec.md §1).
type ExecWriter struct {
	lookPath func(string) (string, error)
}

// NewExecWriter returns an ExecWriter that resolves tools via the
// normal PATH lookup.
func NewExecWriter() *ExecWriter {
	return &ExecWriter{lookPath: exec.LookPath}
}

// Write places s on the system clipboard. An empty string is how the
// Gateway's auto-clear timer blanks it.
func (w *ExecWriter) Write(s string) error {
	cmd, err := w.command()
	if err != nil {
		return fmt.Errorf("%w: %v", vaulterr.ErrClipboardUnavailable, err)
	}
	cmd.Stdin = strings.NewReader(s)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %v", vaulterr.ErrClipboardUnavailable, err)
	}
	return nil
}

func (w *ExecWriter) command() (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("pbcopy"), nil
	case "windows":
		return exec.Command("clip"), nil
	case "linux":
		if path, err := w.lookPath("xclip"); err == nil {
			return exec.Command(path, "-selection", "clipboard"), nil
		}
		if path, err := w.lookPath("xsel"); err == nil {
			return exec.Command(path, "--clipboard", "--input"), nil
		}
		if path, err := w.lookPath("wl-copy"); err == nil {
			return exec.Command(path), nil
		}
		return nil, fmt.Errorf("no clipboard tool found: install xclip, xsel, or wl-copy")
	default:
		return nil, fmt.Errorf("clipboard not supported on %s", runtime.GOOS)
	}
}
