package handler

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/samaevent/ticketing-api/internal/model"
	"github.com/samaevent/ticketing-api/internal/repository"
)

// saleLine is one cart line: a tier and a unit count.
type saleLine struct {
	TierID uint64 `json:"tier_id"`
	Qty    int64  `json:"qty"`
}

// buyerInfo carries optional buyer contact recorded on each booking.
type buyerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// insufficientStockError reports which tier could not cover the
// requested quantity, and what was available at lock time, so the UI
// can prompt the buyer to adjust that line.
type insufficientStockError struct {
	TierID    uint64
	TierName  string
	Requested int64
	Available int64
}

func (e *insufficientStockError) Error() string {
	return fmt.Sprintf("tier %d (%s): requested %d, available %d", e.TierID, e.TierName, e.Requested, e.Available)
}

// validateLines rejects empty carts, non-positive quantities and
// duplicate tiers before any transaction is opened.
func validateLines(lines []saleLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("at least one line item is required")
	}
	seen := make(map[uint64]struct{}, len(lines))
	for _, l := range lines {
		if l.TierID == 0 || l.Qty <= 0 {
			return fmt.Errorf("each line needs a tier_id and a positive qty")
		}
		if _, dup := seen[l.TierID]; dup {
			return fmt.Errorf("duplicate tier %d in cart", l.TierID)
		}
		seen[l.TierID] = struct{}{}
	}
	return nil
}

// processSale runs the whole-cart-or-nothing sale inside the caller's
// transaction. For each line, in request order: lock the tier row,
// re-check availability against the locked value, decrement it and
// insert one booking. Any shortage aborts with insufficientStockError
// and the caller rolls back, so a torn sale is never committed.
// Acquiring tier locks in request order keeps lock ordering consistent
// across concurrent requests.
func processSale(
	ctx context.Context,
	tx *sql.Tx,
	tiers *repository.TierRepo,
	bookings *repository.BookingRepo,
	eventID uint64,
	lines []saleLine,
	buyer buyerInfo,
	method string,
	status string,
	promoCode string,
) ([]*model.Booking, error) {
	created := make([]*model.Booking, 0, len(lines))
	for _, line := range lines {
		tier, err := tiers.LockForUpdateTx(ctx, tx, line.TierID)
		if err != nil {
			return nil, err
		}
		if tier.EventID != eventID {
			return nil, repository.ErrTierNotFound
		}
		if tier.Available < line.Qty {
			return nil, &insufficientStockError{
				TierID:    tier.ID,
				TierName:  tier.Name,
				Requested: line.Qty,
				Available: tier.Available,
			}
		}
		if err := tiers.ReserveTx(ctx, tx, tier.ID, line.Qty); err != nil {
			return nil, err
		}
		unit := tier.EffectivePrice(promoCode)
		b := &model.Booking{
			Reference:  newBookingReference(),
			EventID:    eventID,
			TierID:     tier.ID,
			Quantity:   line.Qty,
			Amount:     unit * line.Qty,
			Status:     status,
			BuyerName:  strings.TrimSpace(buyer.Name),
			BuyerEmail: strings.ToLower(strings.TrimSpace(buyer.Email)),
			BuyerPhone: strings.TrimSpace(buyer.Phone),
			Method:     method,
		}
		if err := bookings.CreateTx(ctx, tx, b); err != nil {
			return nil, err
		}
		created = append(created, b)
	}
	return created, nil
}

// newBookingReference returns the opaque reference printed on tickets.
func newBookingReference() string {
	return "BK-" + strings.ToUpper(uuid.NewString()[:8])
}
