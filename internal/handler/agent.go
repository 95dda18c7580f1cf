package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/samaevent/ticketing-api/internal/config"
	"github.com/samaevent/ticketing-api/internal/model"
	"github.com/samaevent/ticketing-api/internal/repository"
	"github.com/samaevent/ticketing-api/internal/utils"
)

// AgentHandler covers both sides of the check-in staff feature: the
// organizer back-office (create, scope, block) and the agent-facing
// surface (access-code login, heartbeat, door check-in).
type AgentHandler struct {
	Cfg         *config.Config
	AgentRepo   *repository.AgentRepo
	EventRepo   *repository.EventRepo
	BookingRepo *repository.BookingRepo
}

func NewAgentHandler(cfg *config.Config, agentRepo *repository.AgentRepo, eventRepo *repository.EventRepo, bookingRepo *repository.BookingRepo) *AgentHandler {
	if cfg == nil || agentRepo == nil || eventRepo == nil || bookingRepo == nil {
		panic("nil dependency passed to NewAgentHandler")
	}
	return &AgentHandler{Cfg: cfg, AgentRepo: agentRepo, EventRepo: eventRepo, BookingRepo: bookingRepo}
}

// newAccessSecret returns the secret half of an agent access code.
func newAccessSecret() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12]
}

// accessCode composes the code handed to the organizer. The agent ID
// is embedded so login can find the row without scanning every hash.
func accessCode(agentID uint64, secret string) string {
	return "AG-" + strconv.FormatUint(agentID, 10) + "-" + secret
}

// parseAccessCode splits an access code into agent ID and secret.
func parseAccessCode(code string) (uint64, string, bool) {
	parts := strings.SplitN(strings.TrimSpace(code), "-", 3)
	if len(parts) != 3 || parts[0] != "AG" {
		return 0, "", false
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || id == 0 || parts[2] == "" {
		return 0, "", false
	}
	return id, parts[2], true
}

type createAgentReq struct {
	Name      string   `json:"name"`
	AllEvents bool     `json:"all_events"`
	EventIDs  []uint64 `json:"event_ids"`
}

// Create handles POST /v1/agents. The plain access code appears in
// this response only; afterwards nothing but its bcrypt hash exists.
func (h *AgentHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createAgentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	ctx := c.Request().Context()
	if !req.AllEvents && len(req.EventIDs) > 0 {
		ok, err := h.EventRepo.OwnsAll(ctx, userID, req.EventIDs)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if !ok {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "event list contains events you do not own"})
		}
	}
	secret := newAccessSecret()
	hash, err := utils.HashPassword(secret, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	a := &model.Agent{
		OrganizerID:    userID,
		Name:           req.Name,
		AccessCodeHash: hash,
		AllEvents:      req.AllEvents,
	}
	if err := h.AgentRepo.Create(ctx, a); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create agent failed"})
	}
	if !req.AllEvents && len(req.EventIDs) > 0 {
		if err := h.AgentRepo.ReplaceScope(ctx, a.ID, false, req.EventIDs); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scope assignment failed"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":          a.ID,
		"name":        a.Name,
		"access_code": accessCode(a.ID, secret),
		"all_events":  a.AllEvents,
		"event_ids":   req.EventIDs,
		"status":      a.Status,
	})
}

// List handles GET /v1/agents for organizers. Online is derived from
// the last heartbeat, never stored.
func (h *AgentHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	agents, err := h.AgentRepo.ListByOrganizer(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load agents failed"})
	}
	now := time.Now()
	items := make([]echo.Map, 0, len(agents))
	for _, a := range agents {
		items = append(items, echo.Map{
			"id":             a.ID,
			"name":           a.Name,
			"status":         a.Status,
			"all_events":     a.AllEvents,
			"event_ids":      a.EventIDs,
			"scan_count":     a.ScanCount,
			"last_active_at": a.LastActiveAt,
			"online":         a.IsOnline(now),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// loadOwnedAgent fetches an agent and verifies it belongs to the
// caller.
func (h *AgentHandler) loadOwnedAgent(c echo.Context, agentID uint64) (*model.Agent, error) {
	userID, err := getUserID(c)
	if err != nil {
		return nil, repository.ErrForbidden
	}
	a, err := h.AgentRepo.GetByID(c.Request().Context(), agentID)
	if err != nil {
		return nil, err
	}
	if a.OrganizerID != userID && !isAdmin(c) {
		return nil, repository.ErrForbidden
	}
	return a, nil
}

type agentScopeReq struct {
	AllEvents bool     `json:"all_events"`
	EventIDs  []uint64 `json:"event_ids"`
}

// UpdateScope handles PUT /v1/agents/:id/scope, replacing the agent's
// event access wholesale.
func (h *AgentHandler) UpdateScope(c echo.Context) error {
	agentID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agent id"})
	}
	var req agentScopeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	a, err := h.loadOwnedAgent(c, agentID)
	if err != nil {
		return agentError(c, err)
	}
	ctx := c.Request().Context()
	if !req.AllEvents && len(req.EventIDs) > 0 {
		ok, err := h.EventRepo.OwnsAll(ctx, a.OrganizerID, req.EventIDs)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if !ok {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "event list contains events you do not own"})
		}
	}
	if err := h.AgentRepo.ReplaceScope(ctx, a.ID, req.AllEvents, req.EventIDs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scope update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": a.ID, "all_events": req.AllEvents, "event_ids": req.EventIDs})
}

type agentStatusReq struct {
	Status string `json:"status"`
}

// SetStatus handles PATCH /v1/agents/:id/status to block or reactivate
// an agent. A blocked agent's token keeps failing the scope check even
// if it has not expired yet.
func (h *AgentHandler) SetStatus(c echo.Context) error {
	agentID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agent id"})
	}
	var req agentStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Status != model.AgentActive && req.Status != model.AgentBlocked {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be active or blocked"})
	}
	a, err := h.loadOwnedAgent(c, agentID)
	if err != nil {
		return agentError(c, err)
	}
	if err := h.AgentRepo.SetStatus(c.Request().Context(), a.ID, req.Status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": a.ID, "status": req.Status})
}

type agentLoginReq struct {
	AccessCode string `json:"access_code"`
}

// Login handles POST /v1/agents/login. A valid code yields a
// short-lived AGENT token; there is no refresh flow for agents.
func (h *AgentHandler) Login(c echo.Context) error {
	var req agentLoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	agentID, secret, ok := parseAccessCode(req.AccessCode)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid access code"})
	}
	a, err := h.AgentRepo.GetByID(c.Request().Context(), agentID)
	if err != nil {
		if errors.Is(err, repository.ErrAgentNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid access code"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !utils.VerifyPassword(a.AccessCodeHash, secret) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid access code"})
	}
	if a.Status != model.AgentActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "agent is blocked"})
	}
	token, err := utils.NewAgentToken(h.Cfg.JWTSecret, a.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": token.Token,
		"expires_at":   token.Exp.Format(time.RFC3339),
		"agent":        echo.Map{"id": a.ID, "name": a.Name, "all_events": a.AllEvents, "event_ids": a.EventIDs},
	})
}

// Ping handles POST /v1/agents/ping, the heartbeat behind the online
// badge in the back-office.
func (h *AgentHandler) Ping(c echo.Context) error {
	agentID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.AgentRepo.Ping(c.Request().Context(), agentID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "heartbeat failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// CheckIn handles PATCH /v1/agents/bookings/:id/checkin, the door-scan
// mutation. The agent's scope is checked against the booking's event
// after the booking row is locked; the scan counter increments only
// when the toggle actually turns on.
func (h *AgentHandler) CheckIn(c echo.Context) error {
	agentID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req checkInReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()
	a, err := h.AgentRepo.GetByID(ctx, agentID)
	if err != nil {
		return agentError(c, err)
	}

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

	b, err := h.BookingRepo.GetForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	ownerID, err := h.EventRepo.OwnerIDTx(ctx, tx, b.EventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !a.CanCheckIn(b.EventID, ownerID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "event out of scope"})
	}
	checkedIn, checkedInAt, changed := b.ApplyCheckIn(req.CheckedIn, time.Now())
	if changed {
		if err := h.BookingRepo.SetCheckInTx(ctx, tx, b.ID, checkedIn, checkedInAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-in update failed"})
		}
		if checkedIn {
			if err := h.AgentRepo.IncrementScansTx(ctx, tx, a.ID); err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan counter update failed"})
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"id":         b.ID,
		"reference":  b.Reference,
		"checked_in": checkedIn,
		"changed":    changed,
	})
}

func agentError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrAgentNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "agent not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
