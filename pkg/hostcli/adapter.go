// Package hostcli adapts the host password-manager CLI binary: it
// spawns the binary for each operation, passes the session token via
// the environment, and parses its JSON output. All operations are
// asynchronous in the sense that they may be called from any goroutine
// (the dispatcher's tea.Cmd closures or the prefetcher); the only
// shared mutable state is the in-memory session token.
package hostcli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/leddt/bwtui/pkg/vaultentry"
	"github.com/leddt/bwtui/pkg/vaulterr"
)

// SessionEnvVar is the environment variable name the session token is
// passed under. The token is never placed on the command line.
const SessionEnvVar = "BWTUI_SESSION_TOKEN"

// lockedSignal is the substring the host tool emits on stderr when a
// command fails because the vault is locked, independent of its JSON body.
const lockedSignal = "vault is locked"

// Runner abstracts process execution so the adapter is testable without
// spawning a real binary. The default implementation shells out via
// os/exec; tests supply a fake.
type Runner interface {
	Run(ctx context.Context, command string, args []string, env []string) (stdout, stderr []byte, exitCode int, err error)
}

// execRunner is the production Runner, backed by os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, command string, args []string, env []string) ([]byte, []byte, int, error) {
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, nil, -1, vaulterr.ErrHostToolMissing
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = env
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
			runErr = nil
		}
	}
	return stdout.Bytes(), stderr.Bytes(), exitCode, runErr
}

// Adapter drives the host CLI. The session token is owned exclusively
// by the Adapter and is never shared with any other component.
type Adapter struct {
	command string
	runner  Runner

	mu        sync.RWMutex
	token     string
	accountID string
}

// New returns an Adapter that invokes command (e.g. "bw") via r. Pass
// nil for r to use the default os/exec-backed Runner.
func New(command string, r Runner) *Adapter {
	if r == nil {
		r = execRunner{}
	}
	return &Adapter{command: command, runner: r}
}

// SetToken installs the session token used by subsequent operations.
func (a *Adapter) SetToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
}

// Token returns the currently installed session token.
func (a *Adapter) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *Adapter) env() []string {
	tok := a.Token()
	if tok == "" {
		return nil
	}
	return []string{fmt.Sprintf("%s=%s", SessionEnvVar, tok)}
}

// Probe checks that the host binary is installed and runnable.
func (a *Adapter) Probe(ctx context.Context) error {
	_, _, _, err := a.runner.Run(ctx, a.command, []string{"--version"}, nil)
	return err
}

// Status reports the current vault status.
func (a *Adapter) Status(ctx context.Context) (Status, error) {
	stdout, stderr, code, err := a.runner.Run(ctx, a.command, []string{"status"}, a.env())
	if err != nil {
		return StatusUnknown, err
	}
	if code != 0 {
		if strings.Contains(strings.ToLower(string(stderr)), lockedSignal) {
			return StatusLocked, nil
		}
		return StatusUnknown, &vaulterr.HostCommandError{Command: "status", Msg: string(stderr)}
	}

	var resp wireStatusResponse
	if err := json.Unmarshal(stdout, &resp); err != nil {
		return StatusUnknown, &vaulterr.HostParseError{Command: "status", Msg: err.Error()}
	}
	if id := resp.UserID; id != "" {
		a.mu.Lock()
		a.accountID = id
		a.mu.Unlock()
	}
	return parseStatus(resp.Status), nil
}

// AccountID returns the account identifier observed from the most
// recent Status call (the host CLI's userId), or "" if Status has
// never returned one. Used to stamp the metadata cache and detect an
// account switch, per spec.md §3's MetadataCache invariant (a).
func (a *Adapter) AccountID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.accountID
}

// Unlock runs the unlock command with password and, on success, installs
// the returned session token and returns it.
func (a *Adapter) Unlock(ctx context.Context, password string) (string, error) {
	stdout, stderr, code, err := a.runner.Run(ctx, a.command, []string{"unlock", "--raw", password}, nil)
	if err != nil {
		return "", err
	}
	if code != 0 {
		msg := strings.ToLower(string(stderr))
		if strings.Contains(msg, "invalid master password") || strings.Contains(msg, "invalid password") {
			return "", vaulterr.ErrHostInvalidCredentials
		}
		return "", &vaulterr.HostCommandError{Command: "unlock", Msg: string(stderr)}
	}

	token := strings.TrimSpace(string(stdout))
	if token == "" {
		return "", &vaulterr.HostParseError{Command: "unlock", Msg: "empty session token"}
	}
	a.SetToken(token)
	return token, nil
}

// List returns every vault entry. A Locked or LoggedOut status surfaces
// as the corresponding sentinel error.
func (a *Adapter) List(ctx context.Context) ([]*vaultentry.Entry, error) {
	stdout, stderr, code, err := a.runner.Run(ctx, a.command, []string{"list", "items"}, a.env())
	if err != nil {
		return nil, err
	}
	if code != 0 {
		return nil, classifyFailure("list", stderr)
	}

	var resp wireListResponse
	if err := json.Unmarshal(stdout, &resp); err != nil {
		// Tolerate a bare top-level array too, since some host CLI
		// versions omit the {"data": ...} envelope.
		var items []wireItem
		if err2 := json.Unmarshal(stdout, &items); err2 != nil {
			return nil, &vaulterr.HostParseError{Command: "list", Msg: err.Error()}
		}
		resp.Data = items
	}

	entries := make([]*vaultentry.Entry, 0, len(resp.Data))
	for i := range resp.Data {
		entries = append(entries, resp.Data[i].toEntry())
	}
	return entries, nil
}

// Get fetches a single full entry by id.
func (a *Adapter) Get(ctx context.Context, id string) (*vaultentry.Entry, error) {
	stdout, stderr, code, err := a.runner.Run(ctx, a.command, []string{"get", "item", id}, a.env())
	if err != nil {
		return nil, err
	}
	if code != 0 {
		if strings.Contains(strings.ToLower(string(stderr)), "not found") {
			return nil, vaulterr.ErrEntryNotFound
		}
		return nil, classifyFailure("get", stderr)
	}

	var item wireItem
	if err := json.Unmarshal(stdout, &item); err != nil {
		return nil, &vaulterr.HostParseError{Command: "get", Msg: err.Error()}
	}
	return item.toEntry(), nil
}

// Sync asks the host CLI to refresh its local copy of the vault from the server.
func (a *Adapter) Sync(ctx context.Context) error {
	_, stderr, code, err := a.runner.Run(ctx, a.command, []string{"sync"}, a.env())
	if err != nil {
		return err
	}
	if code != 0 {
		return classifyFailure("sync", stderr)
	}
	return nil
}

func classifyFailure(command string, stderr []byte) error {
	msg := strings.ToLower(string(stderr))
	switch {
	case strings.Contains(msg, lockedSignal):
		return vaulterr.ErrHostLocked
	case strings.Contains(msg, "not logged in") || strings.Contains(msg, "unauthenticated"):
		return vaulterr.ErrHostAuthRequired
	default:
		return &vaulterr.HostCommandError{Command: command, Msg: string(stderr)}
	}
}
