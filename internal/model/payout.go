package model

import (
	"fmt"
	"strings"
	"time"
)

// Payout statuses. Requests start pending and are moved by admins
// through approved and processing to paid, or rejected while still
// reviewable. paid and rejected are terminal.
const (
	PayoutPending    = "pending"
	PayoutApproved   = "approved"
	PayoutProcessing = "processing"
	PayoutPaid       = "paid"
	PayoutRejected   = "rejected"
)

// Payout withdrawal methods supported by the platform.
const (
	PayoutMethodWave        = "wave"
	PayoutMethodOrangeMoney = "orange_money"
	PayoutMethodBank        = "bank"
)

// Payout represents a row in the `payouts` table: an organizer's
// request to withdraw part of their accumulated confirmed revenue.
// Payouts are append-only; no link to individual bookings exists,
// accounting is aggregate only.
type Payout struct {
	ID             uint64    // payouts.id
	OrganizerID    uint64    // payouts.organizer_id
	OrganizerEmail string    // joined from users.email for admin listings
	Amount         int64     // payouts.amount
	Method         string    // payouts.method
	Destination    string    // payouts.destination (phone number or IBAN)
	Status         string    // payouts.status
	Note           string    // payouts.note
	CreatedAt      time.Time // payouts.created_at
	UpdatedAt      time.Time // payouts.updated_at
}

// ValidPayoutMethod reports whether m is a supported withdrawal method.
func ValidPayoutMethod(m string) bool {
	switch strings.ToLower(strings.TrimSpace(m)) {
	case PayoutMethodWave, PayoutMethodOrangeMoney, PayoutMethodBank:
		return true
	}
	return false
}

// payoutNext maps each payout status to the set of statuses an admin
// may move it to. Transitions never re-validate the organizer's
// balance; the request was checked against it at creation time.
var payoutNext = map[string][]string{
	PayoutPending:    {PayoutApproved, PayoutRejected},
	PayoutApproved:   {PayoutProcessing, PayoutRejected},
	PayoutProcessing: {PayoutPaid},
	PayoutPaid:       {},
	PayoutRejected:   {},
}

// CanTransitionPayout returns nil when moving a payout from `from` to
// `to` is legal, or a descriptive error otherwise.
func CanTransitionPayout(from, to string) error {
	allowed, ok := payoutNext[from]
	if !ok {
		return fmt.Errorf("unknown payout status %q", from)
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("payout cannot move from %s to %s", from, to)
}

// OutstandingPayoutStatuses are the statuses whose amounts still count
// against the organizer's withdrawable balance. A rejected payout
// returns its amount to the balance; everything else stays committed.
var OutstandingPayoutStatuses = []string{PayoutPending, PayoutApproved, PayoutProcessing, PayoutPaid}

// WalletBalance derives the withdrawable balance from the two ledger
// aggregates: gross settled booking revenue minus payout amounts still
// in flight or already paid.
func WalletBalance(settledRevenue, outstandingPayouts int64) int64 {
	return settledRevenue - outstandingPayouts
}
