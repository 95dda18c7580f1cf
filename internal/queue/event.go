// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published after a sale transaction commits.
// It carries enough information for downstream consumers (ticket email,
// PDF generation, analytics) to act without querying the primary
// database. Publish failures never roll back the committed booking.
type BookingConfirmedEvent struct {
	BookingID  uint64 `json:"booking_id"`
	Reference  string `json:"reference"`
	EventID    uint64 `json:"event_id"`
	TierID     uint64 `json:"tier_id"`
	Quantity   int64  `json:"quantity"`
	Amount     int64  `json:"amount"`
	Status     string `json:"status"`
	Channel    string `json:"channel"` // checkout | pos
	BuyerEmail string `json:"buyer_email,omitempty"`
	CreatedAt  string `json:"created_at"`
}
