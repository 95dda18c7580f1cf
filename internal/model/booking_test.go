package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBooking_Settled(t *testing.T) {
	assert.True(t, Booking{Status: BookingPaid}.Settled())
	assert.True(t, Booking{Status: BookingConfirmed}.Settled())
	assert.False(t, Booking{Status: BookingPending}.Settled())
	assert.False(t, Booking{Status: BookingCancelled}.Settled())
}

func TestBooking_CanCancel(t *testing.T) {
	assert.NoError(t, Booking{Status: BookingConfirmed}.CanCancel())
	assert.NoError(t, Booking{Status: BookingPaid}.CanCancel())
	assert.NoError(t, Booking{Status: BookingPending}.CanCancel())

	err := Booking{Reference: "BK-TEST1234", Status: BookingCancelled}.CanCancel()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already cancelled")
}

func TestBooking_CanRestore(t *testing.T) {
	b := Booking{Reference: "BK-TEST1234", Status: BookingCancelled, Quantity: 3}

	assert.NoError(t, b.CanRestore(3))
	assert.NoError(t, b.CanRestore(10))

	err := b.CanRestore(2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only 2 available")

	err = Booking{Status: BookingConfirmed, Quantity: 1}.CanRestore(100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not cancelled")
}

func TestBooking_ApplyCheckIn(t *testing.T) {
	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

	checkedIn, at, changed := Booking{}.ApplyCheckIn(true, now)
	assert.True(t, checkedIn)
	assert.True(t, changed)
	require.NotNil(t, at)
	assert.Equal(t, now, *at)

	// Setting the same value again changes nothing.
	prior := now.Add(-time.Hour)
	b := Booking{CheckedIn: true, CheckedInAt: &prior}
	checkedIn, at, changed = b.ApplyCheckIn(true, now)
	assert.True(t, checkedIn)
	assert.False(t, changed)
	require.NotNil(t, at)
	assert.Equal(t, prior, *at)

	// Toggling off clears the timestamp.
	checkedIn, at, changed = b.ApplyCheckIn(false, now)
	assert.False(t, checkedIn)
	assert.True(t, changed)
	assert.Nil(t, at)
}
