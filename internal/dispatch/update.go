package dispatch

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leddt/bwtui/internal/appstate"
	"github.com/leddt/bwtui/pkg/hostcli"
	"github.com/leddt/bwtui/pkg/memcache"
	"github.com/leddt/bwtui/pkg/totp"
	"github.com/leddt/bwtui/pkg/vaultentry"
	"github.com/leddt/bwtui/pkg/vaulterr"
)

// Update is the action dispatcher of spec.md §4.7/§4.10: it maps one
// input event or tick to an ApplicationState mutation and, when the
// event demands asynchronous work, the tea.Cmd that will eventually
// rejoin the loop as one of the message types in messages.go. This is
// the only function that mutates m.State.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		return m, m.handleTick(msg.at)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case probedMsg:
		return m.handleProbed(msg)

	case sessionRestoredMsg:
		return m.handleSessionRestored(msg)

	case statusCheckedMsg:
		return m.handleStatusChecked(msg)

	case cacheLoadedMsg:
		return m.handleCacheLoaded(msg)

	case unlockedMsg:
		return m.handleUnlocked(msg)

	case tokenSavedMsg:
		return m.handleTokenSaved(msg)

	case listedMsg:
		return m.handleListed(msg)

	case entryFetchedMsg:
		return m.handleEntryFetched(msg)

	case copiedMsg:
		return m.handleCopied(msg)
	}

	return m, nil
}

// handleTick expires the status message, advances the sync spinner,
// recomputes the TOTP display preview, rearms the next tick, and runs
// the idle-timeout lock check (config.auto_lock_minutes).
func (m *Model) handleTick(at time.Time) tea.Cmd {
	m.State.ExpireStatus(at)
	if m.State.Sync.Phase == appstate.SyncSyncing {
		m.State.AdvanceSpinner()
	}
	m.refreshTOTPPreview(at)
	m.checkAutoLock(at)

	return tickCmd()
}

// refreshTOTPPreview recomputes the selected row's TOTP code fresh
// every tick for display, independent of the copy-path's TOTPCache
// (spec.md §9's open question: display always recomputes).
func (m *Model) refreshTOTPPreview(at time.Time) {
	sel := m.State.SelectedMetadata()
	if sel == nil || !sel.HasTOTP {
		m.State.TOTPPreview = totp.Code{}
		m.State.TOTPPreviewAvailable = false
		return
	}
	entry, ok := m.Secrets.Get(sel.ID)
	if !ok || entry.Login == nil {
		m.State.TOTPPreviewAvailable = false
		return
	}
	m.State.TOTPPreview = totp.Generate(entry.Login.TOTPSeed, at.Unix())
	m.State.TOTPPreviewAvailable = true
}

// checkAutoLock drops the in-memory secret caches after
// config.auto_lock_minutes of no input, re-entering the password
// dialog. It is a local re-auth gate only: unlike Ctrl-L it does not
// clear the persisted session token, so a re-entered password that
// still matches the host CLI's unlocked state round-trips instantly.
func (m *Model) checkAutoLock(at time.Time) {
	if m.Cfg.AutoLockMinutes <= 0 {
		return
	}
	if m.State.Mode != appstate.ModeNormal && m.State.Mode != appstate.ModeFiltering {
		return
	}
	if at.Sub(m.lastActivity) < m.Cfg.AutoLockDuration() {
		return
	}
	m.doLock(false)
	m.State.Mode = appstate.ModePasswordInput
	m.State.UnlockError = ""
	m.lastActivity = at
}

// doLock drops both secret caches. clearSession additionally clears
// the persisted session token and the adapter's in-memory one, the
// scope spec.md §9's open question settles on for Ctrl-L: clear the
// session store and in-memory caches, but keep the on-disk metadata
// cache so the next launch still renders instantly.
func (m *Model) doLock(clearSession bool) {
	m.Secrets.Clear()
	m.TOTPCache.Clear()
	m.State.SecretsAvailable = false
	if clearSession {
		if err := m.Session.Clear(); err != nil {
			m.Log.Warnf("clear session store: %v", err)
		}
		m.Adapter.SetToken("")
	}
}

// handleKey routes a key event to the handler for the current mode.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastActivity = m.now()

	switch m.State.Mode {
	case appstate.ModeNotLoggedIn, appstate.ModeError:
		return m.handleTerminalKey(msg)
	case appstate.ModePasswordInput:
		return m.handlePasswordInputKey(msg)
	case appstate.ModeSaveTokenPrompt:
		return m.handleSaveTokenKey(msg)
	default: // Normal, Filtering
		return m.handleListKey(msg)
	}
}

// handleTerminalKey implements the one-screen blocking modes of
// spec.md §7: the only way out is Esc (Ctrl-C/Ctrl-Q also accepted,
// since both are already documented as universal quit keys), exiting
// with the code the mode was entered with.
func (m *Model) handleTerminalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c", "ctrl+q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handlePasswordInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		pw := m.State.UnlockBuffer
		if pw == "" {
			return m, nil
		}
		return m, m.unlockCmd(pw)
	case tea.KeyBackspace:
		if n := len(m.State.UnlockBuffer); n > 0 {
			m.State.UnlockBuffer = m.State.UnlockBuffer[:n-1]
		}
		return m, nil
	case tea.KeyCtrlC, tea.KeyCtrlQ:
		// Quitting out of the unlock dialog is "unlock cancelled" per
		// spec.md §6's exit code table, distinct from a normal quit.
		m.exitCode = 3
		m.quitting = true
		return m, tea.Quit
	case tea.KeySpace:
		m.State.UnlockBuffer += " "
		return m, nil
	case tea.KeyRunes:
		m.State.UnlockBuffer += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func (m *Model) handleSaveTokenKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return m, m.saveTokenCmd(m.pendingToken)
	case "n", "N":
		m.pendingToken = ""
		m.State.Mode = appstate.ModeNormal
		return m, m.maybeStartSyncCmd()
	case "ctrl+c", "ctrl+q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// handleListKey handles every key in Normal and Filtering mode: the
// two share one handler because spec.md §4.7's state diagram only
// names the forward transition into Filtering (a character typed) and
// leaves navigation, tabs, and copy actions available in both — the
// filter buffer is just empty in Normal.
func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	opts := m.filterOpts()

	switch msg.String() {
	case "ctrl+c", "ctrl+q":
		m.quitting = true
		return m, tea.Quit

	case "ctrl+l":
		// spec.md §6 lists Ctrl-L for both "lock-and-quit" and, via the
		// Ctrl-H/L tab-cycle pair, "cycle tabs right" — a direct
		// conflict. Lock-and-quit, the more specific and rarer action,
		// wins; tab-cycle-right is reachable via the plain Right arrow
		// (see DESIGN.md).
		m.doLock(true)
		m.quitting = true
		return m, tea.Quit

	case "up", "ctrl+k":
		m.State.MoveUp()
		return m, m.prefetchSelectionCmd()
	case "down", "ctrl+j":
		m.State.MoveDown()
		return m, m.prefetchSelectionCmd()
	case "pgup":
		m.State.PageUp()
		return m, m.prefetchSelectionCmd()
	case "pgdown":
		m.State.PageDown()
		return m, m.prefetchSelectionCmd()
	case "home":
		m.State.Home()
		return m, m.prefetchSelectionCmd()
	case "end":
		m.State.End()
		return m, m.prefetchSelectionCmd()

	case "left", "ctrl+h":
		m.cycleTab(-1, opts)
		return m, m.prefetchSelectionCmd()
	case "right":
		m.cycleTab(1, opts)
		return m, m.prefetchSelectionCmd()
	case "ctrl+1":
		m.State.SetTab(appstate.TabAll, opts)
		return m, m.prefetchSelectionCmd()
	case "ctrl+2":
		m.State.SetTab(appstate.TabLogin, opts)
		return m, m.prefetchSelectionCmd()
	case "ctrl+3":
		m.State.SetTab(appstate.TabNote, opts)
		return m, m.prefetchSelectionCmd()
	case "ctrl+4":
		m.State.SetTab(appstate.TabCard, opts)
		return m, m.prefetchSelectionCmd()
	case "ctrl+5":
		m.State.SetTab(appstate.TabIdentity, opts)
		return m, m.prefetchSelectionCmd()

	case "ctrl+x":
		m.State.SetFilter("", opts)
		m.State.Mode = appstate.ModeNormal
		return m, m.prefetchSelectionCmd()

	case "backspace":
		if runes := []rune(m.State.Filter); len(runes) > 0 {
			m.State.SetFilter(string(runes[:len(runes)-1]), opts)
		}
		if m.State.Filter == "" {
			m.State.Mode = appstate.ModeNormal
		}
		return m, m.prefetchSelectionCmd()

	case "ctrl+d":
		m.State.DetailsVisible = !m.State.DetailsVisible
		m.State.DetailsScroll = 0
		return m, nil

	case "shift+up", "ctrl+shift+k":
		if m.State.DetailsVisible && m.State.DetailsScroll > 0 {
			m.State.DetailsScroll--
		}
		return m, nil
	case "shift+down", "ctrl+shift+j":
		if m.State.DetailsVisible {
			m.State.DetailsScroll++
		}
		return m, nil

	case "ctrl+r":
		return m, m.forceSyncCmd()

	case "ctrl+u":
		return m, m.startCopy(copyUsername)
	case "ctrl+p":
		return m, m.startCopy(copyPassword)
	case "ctrl+t":
		return m, m.startCopy(copyTOTP)
	case "ctrl+n":
		return m, m.startCopy(copyCardNumber)
	case "ctrl+m":
		return m, m.startCopy(copyCVV)
	}

	switch msg.Type {
	case tea.KeySpace:
		m.State.SetFilter(m.State.Filter+" ", opts)
		m.State.Mode = appstate.ModeFiltering
		return m, m.prefetchSelectionCmd()
	case tea.KeyRunes:
		m.State.SetFilter(m.State.Filter+string(msg.Runes), opts)
		m.State.Mode = appstate.ModeFiltering
		return m, m.prefetchSelectionCmd()
	}

	return m, nil
}

func (m *Model) cycleTab(delta int, opts appstate.FilterOptions) {
	const numTabs = 5
	next := (int(m.State.Tab) + delta + numTabs) % numTabs
	m.State.SetTab(appstate.Tab(next), opts)
}

// prefetchSelectionCmd enqueues the current selection with the
// prefetcher off the Update goroutine, so a full channel (shouldn't
// happen at 256 capacity, but) never blocks rendering.
func (m *Model) prefetchSelectionCmd() tea.Cmd {
	id := m.State.SelectedID()
	if id == "" || m.Prefetch == nil {
		return nil
	}
	return func() tea.Msg {
		m.Prefetch.Enqueue(id)
		return nil
	}
}

// startCopy implements the single copy-action template of spec.md
// §4.7: gate on secrets_available, try the secret cache, and fall back
// to a synchronous fetch-then-retry on a miss.
func (m *Model) startCopy(purpose copyPurpose) tea.Cmd {
	sel := m.State.SelectedMetadata()
	if sel == nil {
		return nil
	}
	if !m.State.SecretsAvailable {
		m.State.SetStatus("please wait, secrets aren't loaded yet", appstate.StatusWarning, m.now(), 3*time.Second)
		return nil
	}

	id := sel.ID
	if entry, ok := m.Secrets.Get(id); ok {
		return m.copyFromEntry(entry, purpose)
	}
	return m.fetchEntryCmd(id, purpose)
}

func (m *Model) copyFromEntry(entry *vaultentry.Entry, purpose copyPurpose) tea.Cmd {
	value, ok := m.extractField(entry, purpose)
	if !ok {
		m.State.SetStatus(fmt.Sprintf("no %s on this entry", purpose.label()), appstate.StatusWarning, m.now(), 3*time.Second)
		return nil
	}
	return m.copyCmd(value, purpose)
}

func (m *Model) extractField(entry *vaultentry.Entry, purpose copyPurpose) (string, bool) {
	switch purpose {
	case copyUsername:
		if entry.Login == nil || entry.Login.Username == "" {
			return "", false
		}
		return entry.Login.Username, true
	case copyPassword:
		if entry.Login == nil || entry.Login.Password == "" {
			return "", false
		}
		return entry.Login.Password, true
	case copyTOTP:
		return m.totpForCopy(entry)
	case copyCardNumber:
		if entry.Card == nil || entry.Card.Number == "" {
			return "", false
		}
		return entry.Card.Number, true
	case copyCVV:
		if entry.Card == nil || entry.Card.Code == "" {
			return "", false
		}
		return entry.Card.Code, true
	}
	return "", false
}

// totpForCopy implements spec.md §9's open question: a copy may reuse
// TOTPCache's already-computed code if there are still at least 3
// seconds left in the current step, so transit latency never lands a
// code that flips en route; otherwise it recomputes fresh and
// refreshes the cache.
func (m *Model) totpForCopy(entry *vaultentry.Entry) (string, bool) {
	if entry.Login == nil || entry.Login.TOTPSeed == "" {
		return "", false
	}
	if cached, ok := m.TOTPCache.Get(entry.ID); ok && cached.SecondsRemaining >= 3 {
		return cached.Code, true
	}
	code := totp.Generate(entry.Login.TOTPSeed, m.now().Unix())
	if !code.Valid {
		return "", false
	}
	m.TOTPCache.Insert(entry.ID, memcache.TOTPResult{Code: code.Value, SecondsRemaining: code.SecondsRemaining})
	return code.Value, true
}

func (m *Model) handleEntryFetched(msg entryFetchedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.Log.Warnf("fetch entry %s: %v", msg.id, msg.err)
		m.State.SetStatus(fmt.Sprintf("could not load entry: %v", msg.err), appstate.StatusError, m.now(), 3*time.Second)
		return m, nil
	}
	return m, m.copyFromEntry(msg.entry, msg.purpose)
}

func (m *Model) handleCopied(msg copiedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.Log.Warnf("clipboard: %v", msg.err)
		m.State.SetStatus(fmt.Sprintf("clipboard unavailable: %v", msg.err), appstate.StatusError, m.now(), 3*time.Second)
		return m, nil
	}
	m.State.SetStatus(fmt.Sprintf("copied %s", msg.purpose.label()), appstate.StatusInfo, m.now(), 3*time.Second)
	return m, nil
}

// handleProbed is the first step of the Startup transition: a missing
// host tool is terminal (spec.md §6 exit code 1).
func (m *Model) handleProbed(msg probedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.exitCode = 1
		m.State.Mode = appstate.ModeError
		m.State.TerminalMessage = "the host password-manager CLI is not installed or not on PATH"
		return m, nil
	}
	return m, m.restoreSessionCmd()
}

// handleSessionRestored installs any persisted token on the adapter
// before the status probe runs, so status carries a valid session.
func (m *Model) handleSessionRestored(msg sessionRestoredMsg) (tea.Model, tea.Cmd) {
	if msg.ok {
		m.Adapter.SetToken(msg.token)
	}
	return m, m.checkStatusCmd()
}

func (m *Model) handleStatusChecked(msg statusCheckedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.exitCode = 4
		m.State.Mode = appstate.ModeError
		m.State.TerminalMessage = fmt.Sprintf("could not reach the host CLI: %v", msg.err)
		return m, nil
	}

	switch msg.status {
	case hostcli.StatusLoggedOut:
		m.exitCode = 2
		m.State.Mode = appstate.ModeNotLoggedIn
		m.State.TerminalMessage = "not logged in to the host password manager"
		return m, nil
	case hostcli.StatusLocked:
		m.State.Mode = appstate.ModePasswordInput
		return m, nil
	default: // StatusUnlocked (and the defensive StatusUnknown fallback)
		m.State.Mode = appstate.ModeNormal
		return m, m.maybeStartSyncCmd()
	}
}

// handleCacheLoaded applies the synchronously-loaded disk cache (or
// its absence) to the initial render, per spec.md §4.2: the cache is
// used for the very first frame regardless of how the concurrent
// probe/status/session calls are still progressing.
func (m *Model) handleCacheLoaded(msg cacheLoadedMsg) (tea.Model, tea.Cmd) {
	opts := m.filterOpts()
	if msg.rows != nil {
		m.State.SetRows(msg.rows, opts)
		m.State.AccountID = msg.accountID
	}
	if msg.rows == nil || msg.stale {
		m.pendingSync = true
	}
	return m, m.maybeStartSyncCmd()
}

// maybeStartSyncCmd starts the one-shot background sync of spec.md
// §4.9 if one is pending, we are in a mode that can show it (Normal or
// Filtering), and no sync is already in flight.
func (m *Model) maybeStartSyncCmd() tea.Cmd {
	if !m.pendingSync {
		return nil
	}
	if m.State.Mode != appstate.ModeNormal && m.State.Mode != appstate.ModeFiltering {
		return nil
	}
	if !m.State.StartSync() {
		return nil
	}
	m.pendingSync = false
	return m.listCmd()
}

// forceSyncCmd is Ctrl-R's explicit refresh: it ignores staleness but
// still respects the "concurrent syncs are suppressed" invariant.
func (m *Model) forceSyncCmd() tea.Cmd {
	if !m.State.StartSync() {
		m.State.SetStatus("sync already in progress", appstate.StatusInfo, m.now(), 2*time.Second)
		return nil
	}
	return m.listCmd()
}

func (m *Model) handleUnlocked(msg unlockedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, vaulterr.ErrHostInvalidCredentials) {
			m.State.UnlockError = "invalid master password"
		} else {
			m.State.UnlockError = msg.err.Error()
		}
		m.State.UnlockBuffer = ""
		return m, nil
	}
	m.pendingToken = msg.token
	m.State.UnlockBuffer = ""
	m.State.UnlockError = ""
	m.State.Mode = appstate.ModeSaveTokenPrompt
	return m, nil
}

func (m *Model) handleTokenSaved(msg tokenSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.Log.Warnf("save session token: %v", msg.err)
		m.State.SetStatus("could not save session, you'll need to unlock again next time", appstate.StatusWarning, m.now(), 3*time.Second)
	}
	m.pendingToken = ""
	m.State.Mode = appstate.ModeNormal
	return m, m.maybeStartSyncCmd()
}

// handleListed completes a one-shot sync (spec.md §4.9): on success it
// atomically swaps in the fresh rows, marks secrets as available, and
// persists a fresh disk cache; on failure the currently displayed list
// is left untouched and the failure surfaces only as a status message.
func (m *Model) handleListed(msg listedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.Log.Warnf("sync/list: %v", msg.err)
		m.State.SyncFailed(msg.err.Error())
		m.State.SetStatus(fmt.Sprintf("sync failed: %v", msg.err), appstate.StatusError, m.now(), 3*time.Second)
		return m, nil
	}

	accountID := m.Adapter.AccountID()
	if m.State.AccountID != "" && accountID != "" && accountID != m.State.AccountID {
		// The host CLI is now answering for a different account than
		// the one that produced our caches; drop every secret rather
		// than risk showing one account's data under another's (spec.md §4.3).
		m.Secrets.Clear()
		m.TOTPCache.Clear()
	}

	rows := toMetadata(msg.entries)
	opts := m.filterOpts()
	m.State.SetRows(rows, opts)
	m.State.AccountID = accountID
	m.State.SyncSucceeded()

	return m, m.saveMetaCacheCmd(rows, accountID)
}
