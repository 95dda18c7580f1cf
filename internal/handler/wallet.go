package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/samaevent/ticketing-api/internal/model"
	"github.com/samaevent/ticketing-api/internal/monitoring"
	"github.com/samaevent/ticketing-api/internal/repository"
)

// WalletHandler exposes an organizer's derived balance and the payout
// request flow. The balance is never stored; every read recomputes it
// from settled booking revenue minus outstanding payouts.
type WalletHandler struct {
	EventRepo  *repository.EventRepo
	PayoutRepo *repository.PayoutRepo
}

func NewWalletHandler(eventRepo *repository.EventRepo, payoutRepo *repository.PayoutRepo) *WalletHandler {
	if eventRepo == nil || payoutRepo == nil {
		panic("nil repository passed to NewWalletHandler")
	}
	return &WalletHandler{EventRepo: eventRepo, PayoutRepo: payoutRepo}
}

// Balance handles GET /v1/wallet. Both aggregates are read inside one
// transaction so they see a consistent snapshot.
func (h *WalletHandler) Balance(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	tx, err := h.PayoutRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	revenue, err := h.EventRepo.SettledRevenueTx(ctx, tx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revenue query failed"})
	}
	outstanding, err := h.PayoutRepo.OutstandingTx(ctx, tx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payout query failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"balance":             model.WalletBalance(revenue, outstanding),
		"settled_revenue":     revenue,
		"outstanding_payouts": outstanding,
	})
}

type payoutReq struct {
	Amount      int64  `json:"amount"`
	Method      string `json:"method"`
	Destination string `json:"destination"`
}

// RequestPayout handles POST /v1/wallet/payouts. The organizer's users
// row is locked first so concurrent requests from the same organizer
// serialize and cannot both pass the balance check against a stale sum.
func (h *WalletHandler) RequestPayout(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req payoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}
	if !model.ValidPayoutMethod(req.Method) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "method must be one of wave, orange_money, bank"})
	}
	req.Destination = strings.TrimSpace(req.Destination)
	if req.Destination == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "destination is required"})
	}

	ctx := c.Request().Context()
	tx, err := h.PayoutRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.PayoutRepo.LockOrganizerTx(ctx, tx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lock failed"})
	}
	revenue, err := h.EventRepo.SettledRevenueTx(ctx, tx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revenue query failed"})
	}
	outstanding, err := h.PayoutRepo.OutstandingTx(ctx, tx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payout query failed"})
	}
	balance := model.WalletBalance(revenue, outstanding)
	if req.Amount > balance {
		monitoring.RecordPayoutRequest("rejected")
		return c.JSON(http.StatusConflict, echo.Map{
			"error":   "requested amount exceeds withdrawable balance",
			"balance": balance,
		})
	}
	p := &model.Payout{
		OrganizerID: userID,
		Amount:      req.Amount,
		Method:      strings.ToLower(strings.TrimSpace(req.Method)),
		Destination: req.Destination,
	}
	if err := h.PayoutRepo.CreateTx(ctx, tx, p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create payout failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	monitoring.RecordPayoutRequest("accepted")
	return c.JSON(http.StatusCreated, echo.Map{
		"id":      p.ID,
		"amount":  p.Amount,
		"method":  p.Method,
		"status":  p.Status,
		"balance": balance - p.Amount,
	})
}

// MyPayouts handles GET /v1/wallet/payouts.
func (h *WalletHandler) MyPayouts(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	payouts, err := h.PayoutRepo.ListByOrganizer(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load payouts failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": payouts})
}
