package model

import (
	"fmt"
	"time"
)

// Booking statuses. A booking is created directly in a settled state
// (paid for point-of-sale, confirmed for checkout); pending exists for
// multi-step flows where settlement happens out of band.
const (
	BookingPending   = "pending"
	BookingPaid      = "paid"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Booking records a purchase or reservation of one or more units of a
// single ticket tier. Its quantity is always mirrored by an equal
// decrement of the tier's available counter for as long as the booking
// is not cancelled.
//
// Fields:
//  ID          – primary key identifier.
//  Reference   – public opaque reference handed to the buyer.
//  EventID     – event the booking belongs to.
//  TierID      – ticket tier, zero for tier-less records (nullable column).
//  Quantity    – count of units covered by this record.
//  Amount      – total recorded amount in whole currency units.
//  Status      – pending | paid | confirmed | cancelled.
//  BuyerName   – buyer display name (optional for POS sales).
//  BuyerEmail  – buyer email (optional).
//  BuyerPhone  – buyer phone (optional).
//  Method      – payment method tag (cash, card, online, free).
//  CheckedIn   – whether the holder was scanned at the door.
//  CheckedInAt – timestamp of the scan, nil when not checked in.
//  CreatedAt   – creation timestamp.
type Booking struct {
	ID          uint64     // bookings.id
	Reference   string     // bookings.reference
	EventID     uint64     // bookings.event_id
	TierID      uint64     // bookings.tier_id (nullable)
	Quantity    int64      // bookings.quantity
	Amount      int64      // bookings.amount
	Status      string     // bookings.status
	BuyerName   string     // bookings.buyer_name
	BuyerEmail  string     // bookings.buyer_email
	BuyerPhone  string     // bookings.buyer_phone
	Method      string     // bookings.method
	CheckedIn   bool       // bookings.checked_in
	CheckedInAt *time.Time // bookings.checked_in_at (nullable)
	CreatedAt   time.Time  // bookings.created_at
}

// Settled reports whether the booking counts toward revenue and the
// organizer's wallet balance.
func (b Booking) Settled() bool {
	return b.Status == BookingPaid || b.Status == BookingConfirmed
}

// CanCancel reports whether the booking may transition to cancelled.
// Cancelling an already cancelled booking is refused so stock is never
// released twice for the same record.
func (b Booking) CanCancel() error {
	if b.Status == BookingCancelled {
		return fmt.Errorf("booking %s is already cancelled", b.Reference)
	}
	return nil
}

// CanRestore reports whether the booking may be restored to confirmed,
// given the tier's current availability. Stock freed by the original
// cancellation may have been resold in the interim, in which case the
// restore must fail rather than silently oversell.
func (b Booking) CanRestore(available int64) error {
	if b.Status != BookingCancelled {
		return fmt.Errorf("booking %s is not cancelled", b.Reference)
	}
	if available < b.Quantity {
		return fmt.Errorf("cannot restore booking %s: needs %d tickets but only %d available", b.Reference, b.Quantity, available)
	}
	return nil
}

// ApplyCheckIn returns the booking's next check-in state for the
// requested value. Setting the current value again is a no-op; the
// second return reports whether anything changed. The timestamp is
// stamped on the rising edge only and cleared when toggling off.
func (b Booking) ApplyCheckIn(checkedIn bool, now time.Time) (bool, *time.Time, bool) {
	if b.CheckedIn == checkedIn {
		return b.CheckedIn, b.CheckedInAt, false
	}
	if checkedIn {
		ts := now.UTC()
		return true, &ts, true
	}
	return false, nil, true
}
