package memcache

import (
	"time"

	"github.com/leddt/bwtui/pkg/vaultentry"
)

// DefaultSecretTTL is the default age at which a cached full record is
// discarded, per spec.md §3.
const DefaultSecretTTL = 300 * time.Second

// DefaultTOTPTTL is shorter than the 30s TOTP step so a cached copy code
// is never returned in the last moments before it flips.
const DefaultTOTPTTL = 25 * time.Second

// SecretCache holds full vault records, including their secrets.
type SecretCache struct {
	*Cache[*vaultentry.Entry]
}

// NewSecretCache returns a SecretCache with DefaultSecretTTL.
func NewSecretCache() *SecretCache {
	return &SecretCache{Cache: New[*vaultentry.Entry](DefaultSecretTTL)}
}

// TOTPResult is the cached value for a computed TOTP code, used by
// clipboard copy when the caller opts into the cache (see totpForCopy
// in internal/dispatch).
type TOTPResult struct {
	Code             string
	SecondsRemaining int
}

// TotpCache holds short-lived computed TOTP codes.
type TotpCache struct {
	*Cache[TOTPResult]
}

// NewTotpCache returns a TotpCache with DefaultTOTPTTL.
func NewTotpCache() *TotpCache {
	return &TotpCache{Cache: New[TOTPResult](DefaultTOTPTTL)}
}
