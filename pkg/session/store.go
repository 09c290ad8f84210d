package session

import (
	"os"
	"path/filepath"
)

// dotDir is the per-user directory holding the session marker/blob,
// named in spec.md §6 as `<user home>/<app dot-dir>/session.enc`.
const dotDir = ".bwtui"

// FileName is the marker/blob file name inside dotDir.
const FileName = "session.enc"

// markerPath returns the well-known path for the session file given home.
func markerPath(home string) string {
	return filepath.Join(home, dotDir, FileName)
}

func ensureDotDir(home string) error {
	return os.MkdirAll(filepath.Join(home, dotDir), 0700)
}

func writeMarker(home string, data []byte) error {
	if err := ensureDotDir(home); err != nil {
		return err
	}
	return os.WriteFile(markerPath(home), data, 0600)
}

func readMarker(home string) ([]byte, bool) {
	data, err := os.ReadFile(markerPath(home))
	if err != nil {
		return nil, false
	}
	return data, true
}

func removeMarker(home string) error {
	err := os.Remove(markerPath(home))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
