package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/samaevent/ticketing-api/internal/model"
	"github.com/samaevent/ticketing-api/internal/repository"
)

// BookingHandler covers the organizer back-office lifecycle of a
// booking: cancel, restore and check-in toggle, plus per-event
// listings. Every mutation verifies the booking's event belongs to
// the acting organizer (or the caller is an admin) before writing,
// and runs together with its inventory side effect in one
// transaction.
type BookingHandler struct {
	EventRepo   *repository.EventRepo
	TierRepo    *repository.TierRepo
	BookingRepo *repository.BookingRepo
}

func NewBookingHandler(eventRepo *repository.EventRepo, tierRepo *repository.TierRepo, bookingRepo *repository.BookingRepo) *BookingHandler {
	if eventRepo == nil || tierRepo == nil || bookingRepo == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{EventRepo: eventRepo, TierRepo: tierRepo, BookingRepo: bookingRepo}
}

// loadOwnedBookingTx locks the booking row and verifies the caller may
// act on it. Lock order throughout the package is booking row first,
// then tier row.
func (h *BookingHandler) loadOwnedBookingTx(ctx context.Context, tx *sql.Tx, c echo.Context, bookingID uint64) (*model.Booking, error) {
	userID, err := getUserID(c)
	if err != nil {
		return nil, repository.ErrForbidden
	}
	b, err := h.BookingRepo.GetForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	ownerID, err := h.EventRepo.OwnerIDTx(ctx, tx, b.EventID)
	if err != nil {
		return nil, err
	}
	if ownerID != userID && !isAdmin(c) {
		return nil, repository.ErrForbidden
	}
	return b, nil
}

// Cancel handles POST /v1/bookings/:id/cancel. It flips the booking
// to cancelled and returns its quantity to the tier's availability in
// the same transaction. A booking that is already cancelled is a
// conflict; stock is never released twice.
func (h *BookingHandler) Cancel(c echo.Context) error {
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()
	tx, err := h.BookingRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := h.loadOwnedBookingTx(ctx, tx, c, bookingID)
	if err != nil {
		return bookingError(c, err)
	}
	if err := b.CanCancel(); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	if err := h.BookingRepo.SetStatusTx(ctx, tx, b.ID, model.BookingCancelled); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	if b.TierID != 0 {
		if err := h.TierRepo.ReleaseTx(ctx, tx, b.TierID, b.Quantity); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stock release failed"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"id": b.ID, "status": model.BookingCancelled})
}

// Restore handles POST /v1/bookings/:id/restore. It re-validates the
// tier's current availability under lock; stock freed by the original
// cancellation may have been resold, in which case the restore fails
// with a descriptive conflict instead of overselling. The booking
// keeps its originally recorded amount.
func (h *BookingHandler) Restore(c echo.Context) error {
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()
	tx, err := h.BookingRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := h.loadOwnedBookingTx(ctx, tx, c, bookingID)
	if err != nil {
		return bookingError(c, err)
	}
	available := int64(0)
	if b.TierID != 0 {
		tier, err := h.TierRepo.LockForUpdateTx(ctx, tx, b.TierID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lock tier failed"})
		}
		available = tier.Available
	}
	if err := b.CanRestore(available); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	if b.TierID != 0 {
		if err := h.TierRepo.ReserveTx(ctx, tx, b.TierID, b.Quantity); err != nil {
			return c.JSON(http.StatusConflict, echo.Map{"error": "stock re-reservation failed"})
		}
	}
	if err := h.BookingRepo.SetStatusTx(ctx, tx, b.ID, model.BookingConfirmed); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "restore failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"id": b.ID, "status": model.BookingConfirmed})
}

type checkInReq struct {
	CheckedIn bool `json:"checked_in"`
}

// CheckIn handles PATCH /v1/bookings/:id/checkin for organizers and
// admins. The toggle is independent of booking status, never touches
// inventory, and setting the same value twice is a no-op.
func (h *BookingHandler) CheckIn(c echo.Context) error {
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req checkInReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()
	tx, err := h.BookingRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := h.loadOwnedBookingTx(ctx, tx, c, bookingID)
	if err != nil {
		return bookingError(c, err)
	}
	checkedIn, checkedInAt, changed := b.ApplyCheckIn(req.CheckedIn, time.Now())
	if changed {
		if err := h.BookingRepo.SetCheckInTx(ctx, tx, b.ID, checkedIn, checkedInAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-in update failed"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	resp := echo.Map{"id": b.ID, "checked_in": checkedIn, "changed": changed}
	if checkedInAt != nil {
		resp["checked_in_at"] = checkedInAt.Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, resp)
}

// ListByEvent handles GET /v1/events/:id/bookings for organizers.
func (h *BookingHandler) ListByEvent(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	ownerID, err := h.EventRepo.OwnerID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if ownerID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	items, err := h.BookingRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load bookings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// bookingError maps repository sentinels from the shared load path to
// HTTP responses.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
