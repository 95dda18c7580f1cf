package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPayoutMethod(t *testing.T) {
	assert.True(t, ValidPayoutMethod("wave"))
	assert.True(t, ValidPayoutMethod("orange_money"))
	assert.True(t, ValidPayoutMethod(" Bank "))
	assert.False(t, ValidPayoutMethod("paypal"))
	assert.False(t, ValidPayoutMethod(""))
}

func TestCanTransitionPayout(t *testing.T) {
	allowed := [][2]string{
		{PayoutPending, PayoutApproved},
		{PayoutPending, PayoutRejected},
		{PayoutApproved, PayoutProcessing},
		{PayoutApproved, PayoutRejected},
		{PayoutProcessing, PayoutPaid},
	}
	for _, tr := range allowed {
		assert.NoError(t, CanTransitionPayout(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]string{
		{PayoutPending, PayoutPaid},
		{PayoutPending, PayoutProcessing},
		{PayoutProcessing, PayoutRejected},
		{PayoutPaid, PayoutPending},
		{PayoutRejected, PayoutApproved},
		{PayoutApproved, PayoutApproved},
	}
	for _, tr := range denied {
		assert.Error(t, CanTransitionPayout(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	assert.Error(t, CanTransitionPayout("bogus", PayoutApproved))
}

func TestWalletBalance(t *testing.T) {
	assert.Equal(t, int64(7000), WalletBalance(10000, 3000))
	assert.Equal(t, int64(0), WalletBalance(0, 0))
	// A rejected payout drops out of the outstanding sum, so the
	// balance can only shrink while requests are in flight.
	assert.Equal(t, int64(10000), WalletBalance(10000, 0))
}

func TestOutstandingPayoutStatuses(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{PayoutPending, PayoutApproved, PayoutProcessing, PayoutPaid},
		OutstandingPayoutStatuses)
	assert.NotContains(t, OutstandingPayoutStatuses, PayoutRejected)
}
