//go:build windows

package session

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/leddt/bwtui/pkg/vaulterr"
)

// windowsStore encrypts the token with the OS user-scoped data
// protection service (DPAPI) and writes the ciphertext to the
// well-known per-user path. Decryption succeeds only for the same user
// on the same machine, since DPAPI derives its key from the logged-in
// user's credentials.
type windowsStore struct {
	home string
}

// New returns the platform Store for Windows.
func New(home string) Store {
	return &windowsStore{home: home}
}

func (s *windowsStore) Save(token string) error {
	blob, err := dpapiProtect([]byte(token))
	if err != nil {
		return fmt.Errorf("%w: %v", vaulterr.ErrSessionStoreUnavailable, err)
	}
	if err := writeMarker(s.home, blob); err != nil {
		return fmt.Errorf("%w: %v", vaulterr.ErrSessionStoreUnavailable, err)
	}
	return nil
}

func (s *windowsStore) Load() (string, bool) {
	blob, ok := readMarker(s.home)
	if !ok {
		return "", false
	}
	plain, err := dpapiUnprotect(blob)
	if err != nil {
		return "", false
	}
	return string(plain), true
}

func (s *windowsStore) Clear() error {
	if err := removeMarker(s.home); err != nil {
		return fmt.Errorf("%w: %v", vaulterr.ErrSessionStoreUnavailable, err)
	}
	return nil
}

// dataBlob mirrors the Win32 CRYPTOAPI_BLOB / DATA_BLOB structure.
type dataBlob struct {
	cbData uint32
	pbData *byte
}

func newBlob(data []byte) *dataBlob {
	if len(data) == 0 {
		return &dataBlob{}
	}
	return &dataBlob{cbData: uint32(len(data)), pbData: &data[0]}
}

func (b *dataBlob) bytes() []byte {
	if b.cbData == 0 {
		return nil
	}
	return unsafe.Slice(b.pbData, int(b.cbData))
}

var (
	modCrypt32         = windows.NewLazySystemDLL("crypt32.dll")
	modKernel32        = windows.NewLazySystemDLL("kernel32.dll")
	procCryptProtect   = modCrypt32.NewProc("CryptProtectData")
	procCryptUnprotect = modCrypt32.NewProc("CryptUnprotectData")
	procLocalFree      = modKernel32.NewProc("LocalFree")
)

// dpapiProtect encrypts plaintext with CryptProtectData, scoped to the
// current user (no flags requesting machine-wide scope are passed).
func dpapiProtect(plaintext []byte) ([]byte, error) {
	in := newBlob(plaintext)
	var out dataBlob

	ret, _, err := procCryptProtect.Call(
		uintptr(unsafe.Pointer(in)),
		0, // description
		0, // optional entropy
		0, // reserved
		0, // prompt struct
		0, // flags
		uintptr(unsafe.Pointer(&out)),
	)
	if ret == 0 {
		return nil, err
	}
	defer procLocalFree.Call(uintptr(unsafe.Pointer(out.pbData)))

	return append([]byte(nil), out.bytes()...), nil
}

// dpapiUnprotect reverses dpapiProtect.
func dpapiUnprotect(ciphertext []byte) ([]byte, error) {
	in := newBlob(ciphertext)
	var out dataBlob

	ret, _, err := procCryptUnprotect.Call(
		uintptr(unsafe.Pointer(in)),
		0,
		0,
		0,
		0,
		0,
		uintptr(unsafe.Pointer(&out)),
	)
	if ret == 0 {
		return nil, err
	}
	defer procLocalFree.Call(uintptr(unsafe.Pointer(out.pbData)))

	return append([]byte(nil), out.bytes()...), nil
}
