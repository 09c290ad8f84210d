package dispatch

import (
	"time"

	"github.com/leddt/bwtui/pkg/hostcli"
	"github.com/leddt/bwtui/pkg/vaultentry"
)

// tickMsg drives the status-bar expiry check, the TOTP countdown, and
// the sync spinner; handling each tick rearms the next one.
type tickMsg struct{ at time.Time }

// cacheLoadedMsg carries the result of the synchronous on-disk cache
// read performed during Init, so the first render can show rows
// immediately even before the host CLI has answered (spec.md §4.2).
type cacheLoadedMsg struct {
	rows      []vaultentry.Metadata
	accountID string
	stale     bool
}

// probedMsg carries the outcome of the startup hostcli.Probe call, the
// first step of spec.md §4.7's Startup transition.
type probedMsg struct{ err error }

// statusCheckedMsg carries the outcome of the startup hostcli.Status call.
type statusCheckedMsg struct {
	status hostcli.Status
	err    error
}

// unlockedMsg carries the outcome of an unlock attempt.
type unlockedMsg struct {
	token string
	err   error
}

// listedMsg carries the outcome of a background list+sync fetch.
type listedMsg struct {
	entries []*vaultentry.Entry
	err     error
}

// entryFetchedMsg carries the outcome of an on-demand Get, used by copy
// actions that missed the secret cache.
type entryFetchedMsg struct {
	id      string
	purpose copyPurpose
	entry   *vaultentry.Entry
	err     error
}

// copiedMsg reports a finished clipboard write.
type copiedMsg struct {
	purpose copyPurpose
	err     error
}

// sessionRestoredMsg carries the outcome of reading the persisted
// session token at startup.
type sessionRestoredMsg struct {
	token string
	ok    bool
}

// tokenSavedMsg reports the outcome of persisting the session token
// after the user opts in at the SaveTokenPrompt.
type tokenSavedMsg struct{ err error }

// copyPurpose distinguishes which field a copy action targeted, since
// the async round-trip to entryFetchedMsg needs to know what to do once
// the full entry arrives. The five purposes are exactly spec.md §4.7's
// copy actions: username, password, TOTP, card number, CVV.
type copyPurpose int

const (
	copyUsername copyPurpose = iota
	copyPassword
	copyTOTP
	copyCardNumber
	copyCVV
)

// label returns the human-readable noun used in status-bar messages.
func (p copyPurpose) label() string {
	switch p {
	case copyUsername:
		return "username"
	case copyPassword:
		return "password"
	case copyTOTP:
		return "TOTP code"
	case copyCardNumber:
		return "card number"
	case copyCVV:
		return "CVV"
	default:
		return "value"
	}
}
