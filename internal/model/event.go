package model

import (
	"strings"
	"time"
)

// Event represents a row in the `events` table. Every ticket tier,
// booking and agent assignment hangs off an event, and ownership
// checks throughout the API resolve to the event's organizer.
//
// Fields:
//  ID          – primary key identifier.
//  OrganizerID – user who owns the event.
//  Title       – display title.
//  Venue       – free-form venue description.
//  StartsAt    – scheduled start time (UTC).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
	ID          uint64    // events.id
	OrganizerID uint64    // events.organizer_id
	Title       string    // events.title
	Venue       string    // events.venue
	StartsAt    time.Time // events.starts_at
	CreatedAt   time.Time // events.created_at
	UpdatedAt   time.Time // events.updated_at
}

// PromoType enumerates the promotion variants a tier may carry.
// A tier has exactly one variant; the PromoValue field is only
// meaningful for percentage and fixed-price promotions.
type PromoType string

const (
	PromoNone       PromoType = "none"
	PromoPercentage PromoType = "percentage"
	PromoFixedPrice PromoType = "fixed_price"
)

// ParsePromoType normalizes a raw promo type string. Unknown values
// fall back to PromoNone so a malformed tier never discounts.
func ParsePromoType(raw string) PromoType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(PromoPercentage):
		return PromoPercentage
	case string(PromoFixedPrice):
		return PromoFixedPrice
	default:
		return PromoNone
	}
}

// TicketTier represents a row in the `ticket_tiers` table. Quantity is
// the total ever offered for the tier and never changes after
// creation; Available is the sellable remainder and is only mutated
// inside a locked transaction (see repository.TierRepo).
//
// Prices are whole units of local currency; the platform has no
// fractional amounts.
type TicketTier struct {
	ID         uint64    // ticket_tiers.id
	EventID    uint64    // ticket_tiers.event_id
	Name       string    // ticket_tiers.name
	Price      int64     // ticket_tiers.price
	Quantity   int64     // ticket_tiers.quantity
	Available  int64     // ticket_tiers.available
	PromoType  PromoType // ticket_tiers.promo_type
	PromoValue int64     // ticket_tiers.promo_value
	PromoCode  string    // ticket_tiers.promo_code (empty when promo needs no code)
	CreatedAt  time.Time // ticket_tiers.created_at
	UpdatedAt  time.Time // ticket_tiers.updated_at
}

// EffectivePrice returns the unit price after applying the tier's
// promotion. A promotion guarded by an unlock code only applies when
// the supplied code matches (case-insensitive); otherwise the list
// price stands. Results never go below zero.
func (t TicketTier) EffectivePrice(code string) int64 {
	if t.PromoType == PromoNone {
		return t.Price
	}
	if t.PromoCode != "" && !strings.EqualFold(strings.TrimSpace(code), t.PromoCode) {
		return t.Price
	}
	switch t.PromoType {
	case PromoPercentage:
		pct := t.PromoValue
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		return t.Price - t.Price*pct/100
	case PromoFixedPrice:
		if t.PromoValue < 0 {
			return 0
		}
		return t.PromoValue
	}
	return t.Price
}
