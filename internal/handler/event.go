package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/samaevent/ticketing-api/internal/model"
	"github.com/samaevent/ticketing-api/internal/repository"
)

// EventHandler covers organizer event/tier management and the public
// browse endpoints the checkout flow reads from.
type EventHandler struct {
	EventRepo *repository.EventRepo
	TierRepo  *repository.TierRepo
}

func NewEventHandler(eventRepo *repository.EventRepo, tierRepo *repository.TierRepo) *EventHandler {
	if eventRepo == nil || tierRepo == nil {
		panic("nil repository passed to NewEventHandler")
	}
	return &EventHandler{EventRepo: eventRepo, TierRepo: tierRepo}
}

type createEventReq struct {
	Title    string `json:"title"`
	Venue    string `json:"venue"`
	StartsAt string `json:"starts_at"` // RFC3339
}

type createTierReq struct {
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Quantity   int64  `json:"quantity"`
	PromoType  string `json:"promo_type"`
	PromoValue int64  `json:"promo_value"`
	PromoCode  string `json:"promo_code"`
}

type tierResp struct {
	ID        uint64 `json:"id"`
	EventID   uint64 `json:"event_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Available int64  `json:"available"`
	PromoType string `json:"promo_type"`
}

func toTierResp(t model.TicketTier) tierResp {
	return tierResp{
		ID:        t.ID,
		EventID:   t.EventID,
		Name:      t.Name,
		Price:     t.Price,
		Quantity:  t.Quantity,
		Available: t.Available,
		PromoType: string(t.PromoType),
	}
}

// CreateEvent handles POST /v1/events. Organizer only.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	organizerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
	}
	ev := &model.Event{
		OrganizerID: organizerID,
		Title:       req.Title,
		Venue:       req.Venue,
		StartsAt:    startsAt.UTC(),
	}
	if err := h.EventRepo.Create(c.Request().Context(), ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": ev.ID})
}

// ListMyEvents handles GET /v1/events. Organizer only.
func (h *EventHandler) ListMyEvents(c echo.Context) error {
	organizerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	events, err := h.EventRepo.ListByOrganizer(c.Request().Context(), organizerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load events failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": events})
}

// CreateTier handles POST /v1/events/:id/tiers. Organizer only; the
// event must belong to the caller. Available starts equal to quantity.
func (h *EventHandler) CreateTier(c echo.Context) error {
	organizerID, err := getUserID(c)
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
	if ownerID != organizerID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req createTierReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || req.Quantity <= 0 || req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, positive quantity and non-negative price required"})
	}
	promo := model.ParsePromoType(req.PromoType)
	if promo == model.PromoPercentage && (req.PromoValue < 0 || req.PromoValue > 100) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "percentage promo value must be 0-100"})
	}
	tier := &model.TicketTier{
		EventID:    eventID,
		Name:       req.Name,
		Price:      req.Price,
		Quantity:   req.Quantity,
		PromoType:  promo,
		PromoValue: req.PromoValue,
		PromoCode:  req.PromoCode,
	}
	if err := h.TierRepo.Create(ctx, tier); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create tier failed"})
	}
	return c.JSON(http.StatusCreated, toTierResp(*tier))
}

// GetEvent handles GET /v1/events/:id. Public: returns the event with
// its tiers and current availability (unlocked read, display only).
func (h *EventHandler) GetEvent(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	ev, err := h.EventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	tiers, err := h.TierRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load tiers failed"})
	}
	items := make([]tierResp, 0, len(tiers))
	for _, t := range tiers {
		items = append(items, toTierResp(t))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":        ev.ID,
		"title":     ev.Title,
		"venue":     ev.Venue,
		"starts_at": ev.StartsAt.Format(time.RFC3339),
		"tiers":     items,
	})
}

// GetTierAvailability handles GET /v1/tiers/:id/availability. Public
// unlocked peek for display; checkout re-validates under lock.
func (h *EventHandler) GetTierAvailability(c echo.Context) error {
	tierID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tier id"})
	}
	available, err := h.TierRepo.Peek(c.Request().Context(), tierID)
	if err != nil {
		if errors.Is(err, repository.ErrTierNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tier not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tier_id": tierID, "available": available})
}
