package appstate

// StartSync transitions Sync to Syncing, unless a sync is already in
// flight — concurrent syncs are suppressed here rather than by the
// caller, per spec.md §4.9.
func (s *State) StartSync() bool {
	if s.Sync.Phase == SyncSyncing {
		return false
	}
	s.Sync = SyncState{Phase: SyncSyncing}
	return true
}

// SyncSucceeded records a successful sync. Replacing Rows is the
// caller's job (via SetRows, the single-assignment swap spec.md §4.9
// requires); SyncSucceeded only updates the sync/availability state.
func (s *State) SyncSucceeded() {
	s.Sync = SyncState{Phase: SyncIdle}
	s.SecretsAvailable = true
}

// SyncFailed transitions Sync to Failed(msg) without altering the
// currently displayed list.
func (s *State) SyncFailed(msg string) {
	s.Sync = SyncState{Phase: SyncFailed, FailMsg: msg}
}

// AdvanceSpinner increments the spinner frame counter, called on each tick.
func (s *State) AdvanceSpinner() {
	s.Sync.SpinnerFrame++
}
