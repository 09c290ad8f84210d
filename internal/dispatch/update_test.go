package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leddt/bwtui/internal/appstate"
	"github.com/leddt/bwtui/pkg/clipboard"
	"github.com/leddt/bwtui/pkg/config"
	"github.com/leddt/bwtui/pkg/hostcli"
	"github.com/leddt/bwtui/pkg/memcache"
	"github.com/leddt/bwtui/pkg/metacache"
	"github.com/leddt/bwtui/pkg/session"
	"github.com/leddt/bwtui/pkg/vaultentry"
)

// fakeRunner is a deterministic hostcli.Runner test double, a simpler
// one than pkg/hostcli's own (which is not exported): dispatch tests
// drive the full Adapter rather than a narrower seam, so the end-to-end
// scenarios in spec.md §8 exercise the same code path production does.
type fakeRunner struct {
	mu    sync.Mutex
	calls int

	status   string
	unlocked string
	items    string
}

func (f *fakeRunner) Run(ctx context.Context, command string, args []string, env []string) ([]byte, []byte, int, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	switch args[0] {
	case "--version":
		return nil, nil, 0, nil
	case "status":
		return []byte(`{"status":"` + f.status + `","userId":"user-1"}`), nil, 0, nil
	case "unlock":
		return []byte(f.unlocked), nil, 0, nil
	case "sync":
		return nil, nil, 0, nil
	case "list":
		return []byte(f.items), nil, 0, nil
	}
	return nil, []byte("unexpected command"), 1, nil
}

type fakeClipWriter struct {
	mu      sync.Mutex
	history []string
}

func (w *fakeClipWriter) Write(s string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.history = append(w.history, s)
	return nil
}

func (w *fakeClipWriter) last() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.history) == 0 {
		return ""
	}
	return w.history[len(w.history)-1]
}

func newTestModel(t *testing.T, runner *fakeRunner) (*Model, *fakeClipWriter) {
	t.Helper()
	adapter := hostcli.New("bw", runner)
	store := metacache.NewStore(t.TempDir())
	clip := &fakeClipWriter{}
	m := New(adapter, store, session.NewMemStore(), memcache.NewSecretCache(), memcache.NewTotpCache(), clipboard.New(clip, time.Minute), nil, config.Default(), NopLogger{})
	return m, clip
}

// drain applies a tea.Cmd and every tea.Msg it produces (recursively for
// tea.BatchMsg) back through Update, the same fixed point bubbletea's
// runtime would reach, so a test can assert on the settled state rather
// than hand-threading each intermediate message. The periodic tick is
// deliberately not re-armed here: production rearms it forever, but a
// test driving Update synchronously has no use for an endless chain of
// real 200ms sleeps, so a tickMsg's own follow-up tickCmd is dropped.
func drain(m *Model, cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		cmd = nil
		switch v := msg.(type) {
		case tea.BatchMsg:
			for _, c := range v {
				drain(m, c)
			}
			continue
		case nil:
			continue
		case tickMsg:
			continue
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(*Model)
	}
}

// TestColdStartLockedVault exercises spec.md §8 scenario 1: status
// locked, password entry, successful unlock, save-token prompt
// accepted, then a background sync populating two entries.
func TestColdStartLockedVault(t *testing.T) {
	runner := &fakeRunner{
		status:   "locked",
		unlocked: "tok-abc",
		items:    `{"data":[{"id":"a","name":"GitHub","type":1,"login":{"username":"alice","password":"p1"}},{"id":"b","name":"Bank","type":1,"login":{}}]}`,
	}
	m, _ := newTestModel(t, runner)

	drain(m, m.Init())
	require.Equal(t, appstate.ModePasswordInput, m.State.Mode)

	for _, r := range "hunter2" {
		_, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		drain(m, cmd)
	}
	require.Equal(t, "hunter2", m.State.UnlockBuffer)

	_, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyEnter})
	drain(m, cmd)
	require.Equal(t, appstate.ModeSaveTokenPrompt, m.State.Mode)
	assert.Equal(t, "tok-abc", m.pendingToken)

	_, cmd = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	drain(m, cmd)

	require.Equal(t, appstate.ModeNormal, m.State.Mode)
	assert.True(t, m.State.SecretsAvailable)
	assert.Len(t, m.State.Rows, 2)

	token, ok := m.Session.Load()
	assert.True(t, ok)
	assert.Equal(t, "tok-abc", token)
}

// TestInvalidPasswordStaysInDialog covers the PasswordInput failure
// transition: the dialog is re-entered with an error, not advanced.
func TestInvalidPasswordStaysInDialog(t *testing.T) {
	runner := &fakeRunner{status: "locked"}
	m, _ := newTestModel(t, runner)
	drain(m, m.Init())
	require.Equal(t, appstate.ModePasswordInput, m.State.Mode)

	msg := m.unlockCmd("wrong")()
	next, _ := m.Update(msg)
	m = next.(*Model)

	assert.Equal(t, appstate.ModePasswordInput, m.State.Mode)
	assert.NotEmpty(t, m.State.UnlockError)
}

// TestSecretsAvailableGateBlocksCopy covers P10: before a sync has
// completed, a copy action must produce a status message and never
// reach the clipboard.
func TestSecretsAvailableGateBlocksCopy(t *testing.T) {
	runner := &fakeRunner{status: "unlocked"}
	m, clip := newTestModel(t, runner)

	m.State.Rows = []vaultentry.Metadata{{ID: "a", Name: "GitHub", HasPassword: true}}
	m.State.SetRows(m.State.Rows, m.filterOpts())
	require.False(t, m.State.SecretsAvailable)

	cmd := m.startCopy(copyPassword)
	assert.Nil(t, cmd)
	assert.Equal(t, "", clip.last())
	assert.Contains(t, m.State.Status.Text, "please wait")
}

// TestCopyPasswordFromCache exercises the happy-path copy template:
// secrets available, a cache hit, and the value landing on the
// clipboard gateway.
func TestCopyPasswordFromCache(t *testing.T) {
	runner := &fakeRunner{status: "unlocked"}
	m, clip := newTestModel(t, runner)

	m.State.SecretsAvailable = true
	m.State.Rows = []vaultentry.Metadata{{ID: "a", Name: "GitHub", HasPassword: true}}
	m.State.SetRows(m.State.Rows, m.filterOpts())
	m.Secrets.Insert("a", &vaultentry.Entry{ID: "a", Login: &vaultentry.Login{Password: "p1"}})

	cmd := m.startCopy(copyPassword)
	require.NotNil(t, cmd)
	drain(m, cmd)

	assert.Equal(t, "p1", clip.last())
	assert.Contains(t, m.State.Status.Text, "copied password")
}

// TestLockAndQuitClearsSessionAndCaches covers spec.md §8 scenario 6.
func TestLockAndQuitClearsSessionAndCaches(t *testing.T) {
	runner := &fakeRunner{status: "unlocked"}
	m, _ := newTestModel(t, runner)

	require.NoError(t, m.Session.Save("tok-abc"))
	m.Adapter.SetToken("tok-abc")
	m.Secrets.Insert("a", &vaultentry.Entry{ID: "a"})

	_, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.NotNil(t, cmd)
	assert.True(t, m.quitting)

	_, ok := m.Secrets.Get("a")
	assert.False(t, ok)
	_, ok = m.Session.Load()
	assert.False(t, ok)
	assert.Equal(t, "", m.Adapter.Token())
}

// TestProbeMissingHostToolIsTerminal covers the exit-code-1 startup path.
func TestProbeMissingHostToolIsTerminal(t *testing.T) {
	m, _ := newTestModel(t, &fakeRunner{})
	m.Adapter = hostcli.New("definitely-not-a-real-binary", nil)

	msg := m.probeCmd()()
	next, _ := m.Update(msg)
	m = next.(*Model)

	assert.Equal(t, appstate.ModeError, m.State.Mode)
	assert.Equal(t, 1, m.exitCode)
}

// TestNotLoggedInIsTerminalWithExitCode2 covers the exit-code-2 startup path.
func TestNotLoggedInIsTerminalWithExitCode2(t *testing.T) {
	runner := &fakeRunner{status: "unauthenticated"}
	m, _ := newTestModel(t, runner)
	drain(m, m.Init())

	assert.Equal(t, appstate.ModeNotLoggedIn, m.State.Mode)
	assert.Equal(t, 2, m.exitCode)
}
