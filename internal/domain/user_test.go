package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("alice"))
	assert.ErrorIs(t, ValidateUsername(""), ErrUsernameEmpty)
	assert.NoError(t, ValidateUsername(strings.Repeat("a", MaxUsernameLen)))
	assert.ErrorIs(t, ValidateUsername(strings.Repeat("a", MaxUsernameLen+1)), ErrUsernameTooLong)
}

func TestValidateUsernameCountsRunesNotBytes(t *testing.T) {
	// 13 CJK characters occupy 39 bytes but are well under the limit.
	assert.NoError(t, ValidateUsername(strings.Repeat("学", 13)))

	assert.NoError(t, ValidateUsername(strings.Repeat("é", MaxUsernameLen)))
	assert.ErrorIs(t, ValidateUsername(strings.Repeat("é", MaxUsernameLen+1)), ErrUsernameTooLong)
}
