// Package metacache implements the on-disk, non-secret projection of
// the vault: a version-tagged binary document loaded at startup so the
// list UI is usable before the host CLI has answered, and rewritten
// after each successful background sync.
package metacache

import (
	"os"
	"path/filepath"
	"time"

	"github.com/leddt/bwtui/pkg/vaulterr"
)

// FileName is the cache file's name inside the per-user cache directory.
const FileName = "vault_metadata.bin"

// DefaultTTL is the age past which a loaded cache is considered stale;
// staleness only affects whether a background sync is scheduled, never
// whether the cache is usable for the initial render.
const DefaultTTL = 300 * time.Second

// Store reads and writes the metadata cache file at a fixed path.
type Store struct {
	path string
}

// NewStore returns a Store backed by dir/FileName. dir is typically the
// platform cache directory joined with the application name.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

// Load reads the cache file. A missing file returns (nil, nil) — "no
// cache" is not an error. A file that fails to decode is deleted and
// also reported as "no cache" rather than surfaced as a fatal error,
// per spec.md §4.2 and property P8.
func (s *Store) Load() (*Document, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &vaulterr.IoError{Path: s.path, Err: err}
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		f.Close()
		_ = os.Remove(s.path)
		return nil, nil
	}
	return doc, nil
}

// Stale reports whether doc is older than ttl. Staleness is a UX hint,
// not a correctness property: a stale cache is still rendered, but
// schedules an immediate background sync.
func Stale(doc *Document, ttl time.Duration, now time.Time) bool {
	if doc == nil {
		return true
	}
	return now.Sub(doc.CreatedAt) > ttl
}

// Save writes doc to a temporary sibling file and renames it over the
// target, so a crash mid-write never leaves a half-written cache.
func (s *Store) Save(doc *Document) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return &vaulterr.IoError{Path: dir, Err: err}
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return &vaulterr.IoError{Path: tmp, Err: err}
	}

	if err := Encode(f, doc); err != nil {
		f.Close()
		os.Remove(tmp)
		return &vaulterr.IoError{Path: tmp, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &vaulterr.IoError{Path: tmp, Err: err}
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return &vaulterr.IoError{Path: s.path, Err: err}
	}
	return nil
}

// Delete removes the cache file, ignoring a not-exist error.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return &vaulterr.IoError{Path: s.path, Err: err}
	}
	return nil
}

// Path returns the on-disk path of the cache file, for diagnostics.
func (s *Store) Path() string { return s.path }
