package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/samaevent/ticketing-api/internal/model"
	"github.com/samaevent/ticketing-api/internal/monitoring"
	"github.com/samaevent/ticketing-api/internal/queue"
	"github.com/samaevent/ticketing-api/internal/repository"
	queue_publisher "github.com/samaevent/ticketing-api/internal/service"
)

// CheckoutHandler covers the public purchase flow: a buyer submits a
// cart of tier lines for one event and leaves with confirmed bookings,
// or with a typed failure naming the tier that lacked stock. Payment
// is recorded as already settled; gateway integration is out of scope.
type CheckoutHandler struct {
	EventRepo   *repository.EventRepo
	TierRepo    *repository.TierRepo
	BookingRepo *repository.BookingRepo
	UserRepo    *repository.UserRepo
}

func NewCheckoutHandler(eventRepo *repository.EventRepo, tierRepo *repository.TierRepo, bookingRepo *repository.BookingRepo, userRepo *repository.UserRepo) *CheckoutHandler {
	if eventRepo == nil || tierRepo == nil || bookingRepo == nil || userRepo == nil {
		panic("nil repository passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{EventRepo: eventRepo, TierRepo: tierRepo, BookingRepo: bookingRepo, UserRepo: userRepo}
}

type checkoutReq struct {
	Items     []saleLine `json:"items"`
	Buyer     buyerInfo  `json:"buyer"`
	PromoCode string     `json:"promo_code"`
}

type bookingPart struct {
	ID        uint64 `json:"id"`
	Reference string `json:"reference"`
	TierID    uint64 `json:"tier_id"`
	Quantity  int64  `json:"quantity"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

// Checkout handles POST /v1/events/:id/checkout. The whole cart
// succeeds or the whole cart fails; on stock shortage the response
// names the tier so the buyer can adjust quantities.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req checkoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validateLines(req.Items); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.Buyer.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "buyer email required"})
	}
	ctx := c.Request().Context()
	if _, err := h.EventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

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

	created, err := processSale(ctx, tx, h.TierRepo, h.BookingRepo,
		eventID, req.Items, req.Buyer, "online", model.BookingConfirmed, req.PromoCode)
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
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
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
		// fire-and-forget; a publish failure never affects the committed sale
		_ = queue_publisher.PublishBookingConfirmed(ctx, queue.BookingConfirmedEvent{
			BookingID:  b.ID,
			Reference:  b.Reference,
			EventID:    b.EventID,
			TierID:     b.TierID,
			Quantity:   b.Quantity,
			Amount:     b.Amount,
			Status:     b.Status,
			Channel:    "checkout",
			BuyerEmail: b.BuyerEmail,
			CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		})
	}
	monitoring.RecordSale("checkout", len(created), units)
	return c.JSON(http.StatusCreated, echo.Map{"bookings": parts})
}

// MyBookings handles GET /v1/my/bookings. It returns the bookings
// recorded under the authenticated customer's email.
func (h *CheckoutHandler) MyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	u, err := h.UserRepo.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	items, err := h.BookingRepo.ListByBuyerEmail(ctx, u.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load bookings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
