package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLines(t *testing.T) {
	assert.Error(t, validateLines(nil))
	assert.Error(t, validateLines([]saleLine{}))
	assert.Error(t, validateLines([]saleLine{{TierID: 0, Qty: 1}}))
	assert.Error(t, validateLines([]saleLine{{TierID: 1, Qty: 0}}))
	assert.Error(t, validateLines([]saleLine{{TierID: 1, Qty: -3}}))

	err := validateLines([]saleLine{{TierID: 1, Qty: 2}, {TierID: 1, Qty: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate tier 1")

	assert.NoError(t, validateLines([]saleLine{{TierID: 1, Qty: 2}}))
	assert.NoError(t, validateLines([]saleLine{{TierID: 1, Qty: 2}, {TierID: 2, Qty: 1}}))
}

func TestInsufficientStockError(t *testing.T) {
	err := &insufficientStockError{TierID: 3, TierName: "VIP", Requested: 5, Available: 2}
	assert.Equal(t, "tier 3 (VIP): requested 5, available 2", err.Error())
}

func TestNewBookingReference(t *testing.T) {
	ref := newBookingReference()
	assert.True(t, strings.HasPrefix(ref, "BK-"))
	assert.Len(t, ref, 11)
	assert.Equal(t, strings.ToUpper(ref), ref)

	assert.NotEqual(t, ref, newBookingReference())
}
