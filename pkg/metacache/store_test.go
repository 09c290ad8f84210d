package metacache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leddt/bwtui/pkg/vaultentry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []vaultentry.Entry {
	return []vaultentry.Entry{
		{
			ID: "a", Name: "GitHub", Kind: vaultentry.KindLogin,
			Login: &vaultentry.Login{
				Username: "alice",
				Password: "super-secret-password-1",
				TOTPSeed: "JBSWY3DPEHPK3PXP",
				URIs:     []string{"https://github.com"},
			},
			Revision: time.Unix(1700000000, 0).UTC(),
		},
		{
			ID: "b", Name: "Taxes", Kind: vaultentry.KindSecureNote,
			Notes:    "my social security number is 000-00-0000",
			Revision: time.Unix(1700000001, 0).UTC(),
		},
		{
			ID: "c", Name: "Visa", Kind: vaultentry.KindCard,
			Card: &vaultentry.Card{
				Holder: "Alice Smith", Number: "4111111111111111", Code: "123",
			},
			Revision: time.Unix(1700000002, 0).UTC(),
		},
	}
}

// TestNoSecretOnDisk checks property P1: the encoded bytes never
// contain any secret field value from the fixture.
func TestNoSecretOnDisk(t *testing.T) {
	entries := sampleEntries()
	metas := make([]vaultentry.Metadata, 0, len(entries))
	for i := range entries {
		metas = append(metas, entries[i].ToMetadata())
	}

	doc := &Document{AccountID: "acct-1", CreatedAt: time.Now(), Entries: metas}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))

	secrets := []string{
		"super-secret-password-1",
		"JBSWY3DPEHPK3PXP",
		"my social security number is 000-00-0000",
		"4111111111111111",
		"123",
	}
	for _, s := range secrets {
		assert.NotContains(t, buf.String(), s, "secret value leaked into metadata cache bytes")
	}
}

// TestRoundTrip checks property P7: encode then decode is equal after
// canonicalization (Unix-second timestamp truncation) and preserves order.
func TestRoundTrip(t *testing.T) {
	entries := sampleEntries()
	metas := make([]vaultentry.Metadata, 0, len(entries))
	for i := range entries {
		metas = append(metas, entries[i].ToMetadata())
	}
	doc := &Document{AccountID: "acct-1", CreatedAt: time.Unix(1700000500, 0).UTC(), Entries: metas}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))

	got, err := Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, doc.AccountID, got.AccountID)
	assert.True(t, doc.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Entries, len(doc.Entries))
	for i := range doc.Entries {
		assert.Equal(t, doc.Entries[i].ID, got.Entries[i].ID, "order must be preserved at index %d", i)
		assert.Equal(t, doc.Entries[i].Name, got.Entries[i].Name)
		assert.Equal(t, doc.Entries[i].HasPassword, got.Entries[i].HasPassword)
		assert.Equal(t, doc.Entries[i].HasTOTP, got.Entries[i].HasTOTP)
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	doc := &Document{AccountID: "acct-1", CreatedAt: time.Now(), Entries: []vaultentry.Metadata{
		{ID: "a", Name: "GitHub", Kind: vaultentry.KindLogin},
	}}
	require.NoError(t, s.Save(doc))

	got, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "acct-1", got.AccountID)

	// No .tmp sibling should survive a successful save.
	_, err = os.Stat(filepath.Join(dir, FileName+".tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadMissingFileIsNoCacheNotError(t *testing.T) {
	s := NewStore(t.TempDir())
	doc, err := s.Load()
	assert.NoError(t, err)
	assert.Nil(t, doc)
}

// TestCorruptionRecovery checks property P8: a cache file with a
// flipped byte in the body is reported as "no cache" and the file is
// deleted.
func TestCorruptionRecovery(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	doc := &Document{AccountID: "acct-1", CreatedAt: time.Now(), Entries: []vaultentry.Metadata{
		{ID: "a", Name: "GitHub", Kind: vaultentry.KindLogin},
	}}
	require.NoError(t, s.Save(doc))

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	// Flip a byte well inside the JSON body, past the fixed-width header.
	raw[20] ^= 0xFF
	require.NoError(t, os.WriteFile(s.Path(), raw, 0600))

	got, err := s.Load()
	assert.NoError(t, err)
	assert.Nil(t, got)

	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr), "corrupt cache file must be deleted")
}

func TestStaleness(t *testing.T) {
	now := time.Unix(1_700_001_000, 0)
	fresh := &Document{CreatedAt: now.Add(-1 * time.Minute)}
	stale := &Document{CreatedAt: now.Add(-10 * time.Minute)}

	assert.False(t, Stale(fresh, 5*time.Minute, now))
	assert.True(t, Stale(stale, 5*time.Minute, now))
	assert.True(t, Stale(nil, 5*time.Minute, now))
}
