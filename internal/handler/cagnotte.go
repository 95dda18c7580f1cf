package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/samaevent/ticketing-api/internal/model"
	"github.com/samaevent/ticketing-api/internal/repository"
)

// CagnotteHandler covers the fundraising pots: organizer creation and
// payout requests, the public contribution flow, and the payment
// confirmation callback. Lifecycle transitions driven by admins live
// in AdminHandler.
type CagnotteHandler struct {
	CagnotteRepo *repository.CagnotteRepo
}

func NewCagnotteHandler(cagnotteRepo *repository.CagnotteRepo) *CagnotteHandler {
	if cagnotteRepo == nil {
		panic("nil repository passed to NewCagnotteHandler")
	}
	return &CagnotteHandler{CagnotteRepo: cagnotteRepo}
}

type createCagnotteReq struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Goal            int64  `json:"goal"`
	MinContribution int64  `json:"min_contribution"`
}

// Create handles POST /v1/cagnottes. The pot starts in
// pending_validation and only collects once an admin puts it online.
func (h *CagnotteHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createCagnotteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if req.Goal < 0 || req.MinContribution < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "goal and min_contribution must not be negative"})
	}
	g := &model.Cagnotte{
		OrganizerID:     userID,
		Title:           req.Title,
		Description:     strings.TrimSpace(req.Description),
		Goal:            req.Goal,
		MinContribution: req.MinContribution,
	}
	if err := h.CagnotteRepo.Create(c.Request().Context(), g); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create cagnotte failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": g.ID, "status": g.Status})
}

// ListMine handles GET /v1/cagnottes for organizers.
func (h *CagnotteHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.CagnotteRepo.ListByOrganizer(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load cagnottes failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/cagnottes/:id, the public pot page. Contributor
// names honor the anonymous flag and the collected total counts
// completed contributions only.
func (h *CagnotteHandler) Get(c echo.Context) error {
	cagnotteID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cagnotte id"})
	}
	ctx := c.Request().Context()
	g, err := h.CagnotteRepo.GetByID(ctx, cagnotteID)
	if err != nil {
		if errors.Is(err, repository.ErrCagnotteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "cagnotte not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	collected, err := h.CagnotteRepo.Collected(ctx, cagnotteID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	contributions, err := h.CagnotteRepo.ListContributions(ctx, cagnotteID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	publicContribs := make([]echo.Map, 0, len(contributions))
	for _, contrib := range contributions {
		if contrib.Status != model.ContributionCompleted {
			continue
		}
		publicContribs = append(publicContribs, echo.Map{
			"name":       contrib.DisplayName(),
			"amount":     contrib.Amount,
			"message":    contrib.Message,
			"created_at": contrib.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":               g.ID,
		"title":            g.Title,
		"description":      g.Description,
		"goal":             g.Goal,
		"min_contribution": g.MinContribution,
		"status":           g.Status,
		"collected":        collected,
		"contributions":    publicContribs,
	})
}

type contributeReq struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Amount    int64  `json:"amount"`
	Message   string `json:"message"`
	Anonymous bool   `json:"anonymous"`
}

// Contribute handles POST /v1/cagnottes/:id/contribute, the public
// contribution entry point. The pot row is locked before the insert so
// a contribution cannot slip into a pot that is concurrently leaving
// the online state.
func (h *CagnotteHandler) Contribute(c echo.Context) error {
	cagnotteID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cagnotte id"})
	}
	var req contributeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}

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
	if err := g.CanContribute(req.Amount); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	contrib := &model.CagnotteContribution{
		CagnotteID: g.ID,
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Amount:     req.Amount,
		Message:    strings.TrimSpace(req.Message),
		Anonymous:  req.Anonymous,
	}
	if err := h.CagnotteRepo.CreateContributionTx(ctx, tx, contrib); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create contribution failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{"id": contrib.ID, "status": contrib.Status})
}

// CompleteContribution handles POST /v1/admin/contributions/:id/complete,
// the payment confirmation hook. Confirmations arrive out of band and
// are applied by the platform operator; the route is admin-gated
// because completing a contribution creates withdrawable value.
// Completing twice is a conflict, so a replayed confirmation cannot
// inflate the collected total.
func (h *CagnotteHandler) CompleteContribution(c echo.Context) error {
	contributionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contribution id"})
	}
	err = h.CagnotteRepo.CompleteContribution(c.Request().Context(), contributionID)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "contribution is not pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": contributionID, "status": model.ContributionCompleted})
}

// RequestPayout handles POST /v1/cagnottes/:id/request-payout, the one
// organizer-driven lifecycle edge. Eligibility and the status flip run
// under the pot's row lock so the collected sum cannot change between
// check and write.
func (h *CagnotteHandler) RequestPayout(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cagnotteID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cagnotte id"})
	}
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
	if g.OrganizerID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	collected, err := h.CagnotteRepo.CollectedTx(ctx, tx, cagnotteID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := g.CanRequestPayout(collected); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	if err := h.CagnotteRepo.SetStatusTx(ctx, tx, g.ID, model.CagnottePendingPayout); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status update failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"id": g.ID, "status": model.CagnottePendingPayout, "collected": collected})
}
