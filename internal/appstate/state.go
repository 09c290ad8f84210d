// Package appstate defines the single source of truth the UI renders
// from, ApplicationState, and its mutators. The state is never shared
// mutably across goroutines: the dispatcher holds a single *State and
// mutates it, directly and through these methods, synchronously on the
// UI thread.
package appstate

import (
	"time"

	"github.com/leddt/bwtui/pkg/totp"
	"github.com/leddt/bwtui/pkg/vaultentry"
)

// Mode is the outer input-mode state machine from spec.md §4.7.
type Mode int

const (
	ModeNormal Mode = iota
	ModeFiltering
	ModePasswordInput
	ModeSaveTokenPrompt
	ModeNotLoggedIn
	ModeError
)

// Tab filters the visible entry kind.
type Tab int

const (
	TabAll Tab = iota
	TabLogin
	TabNote
	TabCard
	TabIdentity
)

// String renders the tab label for the UI tab bar.
func (t Tab) String() string {
	switch t {
	case TabAll:
		return "All"
	case TabLogin:
		return "Login"
	case TabNote:
		return "Note"
	case TabCard:
		return "Card"
	case TabIdentity:
		return "Identity"
	default:
		return "?"
	}
}

// kind reports the vaultentry.Kind this tab restricts to, or ok=false for TabAll.
func (t Tab) kind() (vaultentry.Kind, bool) {
	switch t {
	case TabLogin:
		return vaultentry.KindLogin, true
	case TabNote:
		return vaultentry.KindSecureNote, true
	case TabCard:
		return vaultentry.KindCard, true
	case TabIdentity:
		return vaultentry.KindIdentity, true
	default:
		return 0, false
	}
}

// StatusLevel colours the status-bar message.
type StatusLevel int

const (
	StatusInfo StatusLevel = iota
	StatusWarning
	StatusError
)

// StatusMessage is the transient single-line status-bar content.
type StatusMessage struct {
	Text    string
	Level   StatusLevel
	Expires time.Time
}

// SyncPhase enumerates the background-sync status shown in the status bar.
type SyncPhase int

const (
	SyncIdle SyncPhase = iota
	SyncSyncing
	SyncFailed
)

// SyncState bundles the phase with an optional failure message and the
// spinner frame counter the renderer advances on each tick.
type SyncState struct {
	Phase        SyncPhase
	FailMsg      string
	SpinnerFrame int
}

// State is the ApplicationState of spec.md §3. All fields are owned
// exclusively by the dispatcher's goroutine.
type State struct {
	Rows   []vaultentry.Metadata
	Filter string
	Tab    Tab

	Filtered []int // indices into Rows, in source order within the selected tab
	Selected int    // position within Filtered
	Viewport int    // first visible row of the scroll window

	DetailsVisible bool
	DetailsScroll  int

	Mode         Mode
	UnlockBuffer string
	UnlockError  string

	// TerminalMessage is the one-screen explanation shown by
	// ModeNotLoggedIn and ModeError, per spec.md §7's propagation
	// policy for HostToolMissing/HostAuthRequired and unrecoverable errors.
	TerminalMessage string

	Status StatusMessage
	Sync   SyncState

	SecretsAvailable bool

	// AccountID is the host-CLI account identifier that produced Rows,
	// used to detect account switches that must invalidate the secret caches.
	AccountID string

	// TOTPPreview is a display-only recomputation of the selected row's
	// TOTP code, refreshed on every tick directly from the secret
	// cache. It is never consulted by a copy action (spec.md §9's open
	// question on the 25s TOTP cache resolves display and copy as two
	// separate paths).
	TOTPPreview totp.Code

	// TOTPPreviewAvailable is false until the full entry backing the
	// current selection has been resolved into the secret cache, so the
	// renderer can distinguish "still loading" from "invalid seed".
	TOTPPreviewAvailable bool
}

// New returns a State ready for the Startup transition.
func New() *State {
	return &State{Mode: ModeNormal}
}

// SelectedID returns the id of the currently selected row, or "" if the
// filtered list is empty.
func (s *State) SelectedID() string {
	m := s.SelectedMetadata()
	if m == nil {
		return ""
	}
	return m.ID
}

// SelectedMetadata returns a pointer to the currently selected row's
// metadata, or nil if the filtered list is empty.
func (s *State) SelectedMetadata() *vaultentry.Metadata {
	if s.Selected < 0 || s.Selected >= len(s.Filtered) {
		return nil
	}
	return &s.Rows[s.Filtered[s.Selected]]
}

// SetStatus arms a status-bar message that expires at now+ttl.
func (s *State) SetStatus(text string, level StatusLevel, now time.Time, ttl time.Duration) {
	s.Status = StatusMessage{Text: text, Level: level, Expires: now.Add(ttl)}
}

// ExpireStatus clears Status if it has passed its expiry, called on every tick.
func (s *State) ExpireStatus(now time.Time) {
	if s.Status.Text != "" && !now.Before(s.Status.Expires) {
		s.Status = StatusMessage{}
	}
}
