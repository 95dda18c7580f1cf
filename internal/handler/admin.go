package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/samaevent/ticketing-api/internal/model"
	"github.com/samaevent/ticketing-api/internal/repository"
)

// AdminHandler groups the platform-operator surface: moving payout
// requests and cagnottes through their lifecycles. Transitions are
// validated against the state machines in the model package; an
// illegal move is a conflict, not a silent overwrite.
type AdminHandler struct {
	PayoutRepo   *repository.PayoutRepo
	CagnotteRepo *repository.CagnotteRepo
}

func NewAdminHandler(payoutRepo *repository.PayoutRepo, cagnotteRepo *repository.CagnotteRepo) *AdminHandler {
	if payoutRepo == nil || cagnotteRepo == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{PayoutRepo: payoutRepo, CagnotteRepo: cagnotteRepo}
}

// ListPayouts handles GET /v1/admin/payouts.
func (h *AdminHandler) ListPayouts(c echo.Context) error {
	payouts, err := h.PayoutRepo.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load payouts failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": payouts})
}

type payoutTransitionReq struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// TransitionPayout handles PATCH /v1/admin/payouts/:id. The row is
// locked so two admins acting on the same request serialize; the
// second sees the first one's status and fails the transition check.
func (h *AdminHandler) TransitionPayout(c echo.Context) error {
	payoutID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payout id"})
	}
	var req payoutTransitionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))

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

	p, err := h.PayoutRepo.GetForUpdateTx(ctx, tx, payoutID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "payout not found"})
	}
	if err := model.CanTransitionPayout(p.Status, req.Status); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	note := p.Note
	if strings.TrimSpace(req.Note) != "" {
		note = strings.TrimSpace(req.Note)
	}
	if err := h.PayoutRepo.SetStatusTx(ctx, tx, p.ID, req.Status, note); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status update failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"id": p.ID, "status": req.Status})
}

// ListCagnottes handles GET /v1/admin/cagnottes?status=..., the review
// queue. Defaults to pots awaiting first validation.
func (h *AdminHandler) ListCagnottes(c echo.Context) error {
	status := strings.TrimSpace(c.QueryParam("status"))
	if status == "" {
		status = model.CagnottePendingValidation
	}
	items, err := h.CagnotteRepo.ListByStatus(c.Request().Context(), status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load cagnottes failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type cagnotteTransitionReq struct {
	Status string `json:"status"`
}

// TransitionCagnotte handles PATCH /v1/admin/cagnottes/:id. The pot
// row is locked first, the same lock the contribution path takes, so a
// pot cannot accept a contribution while it is being moved out of the
// online state.
func (h *AdminHandler) TransitionCagnotte(c echo.Context) error {
	cagnotteID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cagnotte id"})
	}
	var req cagnotteTransitionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))

	ctx := c.Request().Context()
	tx, err := h.CagnotteRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	g, err := h.CagnotteRepo.GetForUpdateTx(ctx, tx, cagnotteID)
	if err != nil {
		if errors.Is(err, repository.ErrCagnotteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "cagnotte not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := model.CanTransitionCagnotte(g.Status, req.Status); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	if err := h.CagnotteRepo.SetStatusTx(ctx, tx, g.ID, req.Status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status update failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"id": g.ID, "status": req.Status})
}
