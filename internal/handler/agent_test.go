package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessCodeRoundTrip(t *testing.T) {
	secret := newAccessSecret()
	assert.Len(t, secret, 12)

	code := accessCode(42, secret)
	assert.Equal(t, "AG-42-"+secret, code)

	id, parsed, ok := parseAccessCode(code)
	require.True(t, ok)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, secret, parsed)
}

func TestParseAccessCode_Invalid(t *testing.T) {
	for _, code := range []string{
		"",
		"AG-42",
		"XX-42-SECRET",
		"AG-0-SECRET",
		"AG-notanumber-SECRET",
		"AG-42-",
		"justgarbage",
	} {
		_, _, ok := parseAccessCode(code)
		assert.False(t, ok, "code %q", code)
	}
}

func TestNewAccessSecret_Unique(t *testing.T) {
	assert.NotEqual(t, newAccessSecret(), newAccessSecret())
}
