package auth

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoveryCodeIsSixDigits(t *testing.T) {
	digits := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := RecoveryCode()
		require.NoError(t, err)
		assert.Regexp(t, digits, code)
	}
}

func TestRecoveryCodeValid(t *testing.T) {
	issued := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ttl := 15 * time.Minute

	assert.True(t, RecoveryCodeValid("042917", "042917", &issued, ttl, issued.Add(10*time.Minute)))
	assert.False(t, RecoveryCodeValid("042917", "042918", &issued, ttl, issued.Add(time.Minute)))
	assert.False(t, RecoveryCodeValid("042917", "042917", &issued, ttl, issued.Add(16*time.Minute)))
	assert.False(t, RecoveryCodeValid("", "", &issued, ttl, issued))
	assert.False(t, RecoveryCodeValid("042917", "042917", nil, ttl, issued))
}
