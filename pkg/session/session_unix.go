//go:build !windows

package session

import (
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/leddt/bwtui/pkg/vaulterr"
)

// keyringService/keyringUser identify the secret in the OS keychain
// (macOS) or Secret Service (Linux); go-keyring picks the right backend
// per-OS at build time.
const (
	keyringService = "bwtui"
	keyringUser    = "session-token"
)

// unixStore holds the token in the OS keychain (macOS) or secret
// service (Linux) via go-keyring, and writes an empty marker file at
// the well-known path purely to indicate presence without duplicating
// the secret on disk.
type unixStore struct {
	home string
}

// New returns the platform Store for macOS and Linux.
func New(home string) Store {
	return &unixStore{home: home}
}

func (s *unixStore) Save(token string) error {
	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		return fmt.Errorf("%w: %v", vaulterr.ErrSessionStoreUnavailable, err)
	}
	if err := writeMarker(s.home, []byte{}); err != nil {
		return fmt.Errorf("%w: %v", vaulterr.ErrSessionStoreUnavailable, err)
	}
	return nil
}

func (s *unixStore) Load() (string, bool) {
	if _, ok := readMarker(s.home); !ok {
		return "", false
	}
	token, err := keyring.Get(keyringService, keyringUser)
	if err != nil {
		return "", false
	}
	return token, true
}

func (s *unixStore) Clear() error {
	_ = keyring.Delete(keyringService, keyringUser)
	if err := removeMarker(s.home); err != nil {
		return fmt.Errorf("%w: %v", vaulterr.ErrSessionStoreUnavailable, err)
	}
	return nil
}
