package dispatch

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/leddt/bwtui/pkg/metacache"
	"github.com/leddt/bwtui/pkg/vaultentry"
)

func (m *Model) loadCacheCmd() tea.Cmd {
	return func() tea.Msg {
		if !m.Cfg.Cache.Enabled {
			return cacheLoadedMsg{}
		}
		doc, err := m.MetaStore.Load()
		if err != nil || doc == nil {
			return cacheLoadedMsg{}
		}
		return cacheLoadedMsg{
			rows:      doc.Entries,
			accountID: doc.AccountID,
			stale:     metacache.Stale(doc, m.Cfg.CacheTTL(), m.now()),
		}
	}
}

// probeCmd checks that the host CLI binary is installed, the first
// step of the Startup transition: a missing tool is terminal (spec.md
// §6 exit code 1) and nothing else needs to run.
func (m *Model) probeCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := bgContext()
		defer cancel()
		return probedMsg{err: m.Adapter.Probe(ctx)}
	}
}

func (m *Model) restoreSessionCmd() tea.Cmd {
	return func() tea.Msg {
		token, ok := m.Session.Load()
		return sessionRestoredMsg{token: token, ok: ok}
	}
}

func (m *Model) checkStatusCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := bgContext()
		defer cancel()
		status, err := m.Adapter.Status(ctx)
		return statusCheckedMsg{status: status, err: err}
	}
}

func (m *Model) unlockCmd(password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := bgContext()
		defer cancel()
		token, err := m.Adapter.Unlock(ctx, password)
		return unlockedMsg{token: token, err: err}
	}
}

// listCmd runs the host CLI's sync followed by list, per spec.md §4.9's
// one-shot refresh: sync failure does not prevent listing the
// previously-known items, so its error is swallowed here and only the
// list error is surfaced.
func (m *Model) listCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := bgContext()
		defer cancel()
		_ = m.Adapter.Sync(ctx)
		entries, err := m.Adapter.List(ctx)
		return listedMsg{entries: entries, err: err}
	}
}

func (m *Model) fetchEntryCmd(id string, purpose copyPurpose) tea.Cmd {
	return func() tea.Msg {
		if cached, ok := m.Secrets.Get(id); ok {
			return entryFetchedMsg{id: id, purpose: purpose, entry: cached}
		}
		ctx, cancel := bgContext()
		defer cancel()
		entry, err := m.Adapter.Get(ctx, id)
		if err == nil {
			m.Secrets.Insert(id, entry)
		}
		return entryFetchedMsg{id: id, purpose: purpose, entry: entry, err: err}
	}
}

func (m *Model) copyCmd(value string, purpose copyPurpose) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{purpose: purpose, err: m.Clip.Copy(value)}
	}
}

func (m *Model) saveTokenCmd(token string) tea.Cmd {
	return func() tea.Msg {
		return tokenSavedMsg{err: m.Session.Save(token)}
	}
}

// saveMetaCacheCmd persists the current rows as the new on-disk
// metadata cache after a successful sync, per spec.md §4.9.
func (m *Model) saveMetaCacheCmd(rows []vaultentry.Metadata, accountID string) tea.Cmd {
	return func() tea.Msg {
		if !m.Cfg.Cache.Enabled {
			return nil
		}
		_ = m.MetaStore.Save(&metacache.Document{
			Version:   metacache.FormatVersion,
			AccountID: accountID,
			CreatedAt: m.now(),
			Entries:   rows,
		})
		return nil
	}
}

func toMetadata(entries []*vaultentry.Entry) []vaultentry.Metadata {
	out := make([]vaultentry.Metadata, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ToMetadata())
	}
	return out
}
