package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/samaevent/ticketing-api/internal/model"
	"github.com/samaevent/ticketing-api/internal/monitoring"
	"github.com/samaevent/ticketing-api/internal/queue"
	"github.com/samaevent/ticketing-api/internal/repository"
	queue_publisher "github.com/samaevent/ticketing-api/internal/service"
)

// POSHandler covers the organizer-operated point of sale: multi-line
// atomic sales taken at the door for cash or card. The acting
// organizer must own the event; admins may sell on any event.
type POSHandler struct {
	EventRepo   *repository.EventRepo
	TierRepo    *repository.TierRepo
	BookingRepo *repository.BookingRepo
}

func NewPOSHandler(eventRepo *repository.EventRepo, tierRepo *repository.TierRepo, bookingRepo *repository.BookingRepo) *POSHandler {
	if eventRepo == nil || tierRepo == nil || bookingRepo == nil {
		panic("nil repository passed to NewPOSHandler")
	}
	return &POSHandler{EventRepo: eventRepo, TierRepo: tierRepo, BookingRepo: bookingRepo}
}

type sellReq struct {
	Items  []saleLine `json:"items"`
	Buyer  buyerInfo  `json:"buyer"`
	Method string     `json:"method"` // cash | card
}

// Sell handles POST /v1/pos/events/:id/sell. The whole line list
// succeeds or fails as one transaction: each tier is locked and
// re-checked in request order, and the first shortage aborts
// everything, naming the offending tier.
func (h *POSHandler) Sell(c echo.Context) error {
	organizerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req sellReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validateLines(req.Items); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	method := strings.ToLower(strings.TrimSpace(req.Method))
	if method != "cash" && method != "card" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "method must be cash or card"})
	}

	ctx := c.Request().Context()
	tx, err := h.TierRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Ownership check inside the transaction so it sees the same
	// snapshot as the sale itself.
	ownerID, err := h.EventRepo.OwnerIDTx(ctx, tx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if ownerID != organizerID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	created, err := processSale(ctx, tx, h.TierRepo, h.BookingRepo,
		eventID, req.Items, req.Buyer, method, model.BookingPaid, "")
	if err != nil {
		var short *insufficientStockError
		if errors.As(err, &short) {
			monitoring.RecordStockConflict()
			return c.JSON(http.StatusConflict, echo.Map{
				"error":     "insufficient stock",
				"tier_id":   short.TierID,
				"tier_name": short.TierName,
				"requested": short.Requested,
				"available": short.Available,
			})
		}
		if errors.Is(err, repository.ErrTierNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tier not found for this event"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sale failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	var units int64
	parts := make([]bookingPart, 0, len(created))
	for _, b := range created {
		units += b.Quantity
		parts = append(parts, bookingPart{
			ID: b.ID, Reference: b.Reference, TierID: b.TierID,
			Quantity: b.Quantity, Amount: b.Amount, Status: b.Status,
		})
		_ = queue_publisher.PublishBookingConfirmed(ctx, queue.BookingConfirmedEvent{
			BookingID: b.ID,
			Reference: b.Reference,
			EventID:   b.EventID,
			TierID:    b.TierID,
			Quantity:  b.Quantity,
			Amount:    b.Amount,
			Status:    b.Status,
			Channel:   "pos",
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}
	monitoring.RecordSale("pos", len(created), units)
	return c.JSON(http.StatusCreated, echo.Map{"bookings": parts})
}
