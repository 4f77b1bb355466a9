package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

var codeSpace = big.NewInt(1_000_000)

// RecoveryCode returns a random six digit code.
func RecoveryCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// RecoveryCodeValid reports whether given matches the stored code and the
// code was issued no longer than ttl before now.
func RecoveryCodeValid(stored, given string, issuedAt *time.Time, ttl time.Duration, now time.Time) bool {
	if stored == "" || issuedAt == nil {
		return false
	}
	if now.After(issuedAt.Add(ttl)) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
