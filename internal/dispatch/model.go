// Package dispatch implements the action dispatcher: it maps input
// events and periodic ticks to appstate.State transitions and, when
// needed, side effects expressed as tea.Cmd. ApplicationState is
// mutated synchronously on the bubbletea Update goroutine only, per
// spec.md §5's single-owner rule; every asynchronous boundary (a
// host-CLI call, a one-shot sync, a clipboard timer) is a tea.Cmd that
// rejoins the loop as a tea.Msg.
package dispatch

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leddt/bwtui/internal/appstate"
	"github.com/leddt/bwtui/pkg/clipboard"
	"github.com/leddt/bwtui/pkg/config"
	"github.com/leddt/bwtui/pkg/hostcli"
	"github.com/leddt/bwtui/pkg/memcache"
	"github.com/leddt/bwtui/pkg/metacache"
	"github.com/leddt/bwtui/pkg/prefetch"
	"github.com/leddt/bwtui/pkg/session"
	"github.com/leddt/bwtui/pkg/vaultentry"
)

// TickInterval is the periodic tick period, chosen (<=250ms per
// spec.md §5) to let the TOTP countdown animate smoothly.
const TickInterval = 200 * time.Millisecond

// Logger is the subset of zerolog's API the dispatcher needs, kept as
// an interface so tests don't need a real logger.
type Logger interface {
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger discards every message.
type NopLogger struct{}

func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

// Model is the bubbletea model / action dispatcher. It owns the
// ApplicationState and holds handles to every collaborator spec.md §9
// lists as resolving the cyclic-reference problem between state,
// prefetcher, and adapter: the prefetcher gets shared ownership of the
// secret cache and a handle to the adapter, while Model holds only the
// prefetcher's enqueue endpoint.
type Model struct {
	State *appstate.State

	Adapter   *hostcli.Adapter
	MetaStore *metacache.Store
	Session   session.Store
	Secrets   *memcache.SecretCache
	TOTPCache *memcache.TotpCache
	Clip      *clipboard.Gateway
	Prefetch  *prefetch.Worker
	Cfg       config.Config
	Log       Logger

	now func() time.Time

	quitting bool
	exitCode int

	width  int
	height int

	// pendingToken holds the token returned by a successful Unlock
	// while the SaveTokenPrompt dialog is awaiting the user's Y/N.
	pendingToken string

	// pendingSync is set when the cache loaded at startup is stale or
	// absent, per spec.md §4.9; it is consumed (and cleared) the first
	// time a sync actually starts so a later cache-loaded race doesn't
	// start a second one.
	pendingSync bool

	lastActivity time.Time
}

// New constructs a Model with every collaborator wired in. Callers
// start the prefetcher's Run loop separately and pass its Worker here.
func New(adapter *hostcli.Adapter, metaStore *metacache.Store, sess session.Store, secrets *memcache.SecretCache, totpCache *memcache.TotpCache, clip *clipboard.Gateway, pf *prefetch.Worker, cfg config.Config, log Logger) *Model {
	if log == nil {
		log = NopLogger{}
	}
	return &Model{
		State:     appstate.New(),
		Adapter:   adapter,
		MetaStore: metaStore,
		Session:   sess,
		Secrets:   secrets,
		TOTPCache: totpCache,
		Clip:      clip,
		Prefetch:  pf,
		Cfg:       cfg,
		Log:       log,
		now:       time.Now,
	}
}

func (m *Model) filterOpts() appstate.FilterOptions {
	mode := appstate.MatchFuzzy
	if !m.Cfg.FuzzyMatching {
		mode = appstate.MatchExact
	}
	return appstate.FilterOptions{Mode: mode, CaseSensitive: m.Cfg.CaseSensitive}
}

// Init begins the Startup transition (spec.md §4.7) and arms the first tick.
// Status is probed only after the host tool's presence is confirmed and
// any persisted session token is restored, so the status call carries
// the right token in its environment (see probedMsg/sessionRestoredMsg
// handling in Update).
func (m *Model) Init() tea.Cmd {
	m.lastActivity = m.now()
	return tea.Batch(tickCmd(), m.loadCacheCmd(), m.probeCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg { return tickMsg{at: t} })
}

// ExitCode returns the process exit code to use once the bubbletea
// program has returned, per spec.md §6.
func (m *Model) ExitCode() int { return m.exitCode }

func bgContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}

// entryByID looks up a row's metadata by id without relying on
// Filtered/Selected, used by async completions that must apply to
// whichever row they were issued for even if the selection moved on.
func (m *Model) entryByID(id string) *vaultentry.Metadata {
	for i := range m.State.Rows {
		if m.State.Rows[i].ID == id {
			return &m.State.Rows[i]
		}
	}
	return nil
}
