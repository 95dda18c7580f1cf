package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaevent/ticketing-api/internal/config"
	"github.com/samaevent/ticketing-api/internal/handler"
	"github.com/samaevent/ticketing-api/internal/model"
	"github.com/samaevent/ticketing-api/internal/repository"
	"github.com/samaevent/ticketing-api/internal/utils"
)

const testSecret = "router-test-secret"

// newTestRouter mounts the full route table over nil database handles.
// Middleware rejections happen before any handler touches a repository,
// which is all these tests exercise.
func newTestRouter() *echo.Echo {
	cfg := config.Config{JWTSecret: testSecret, AccessTTLMin: 15}
	users := repository.NewUserRepo(nil)
	tokens := repository.NewTokenRepo(nil)
	events := repository.NewEventRepo(nil)
	tiers := repository.NewTierRepo(nil)
	bookings := repository.NewBookingRepo(nil)
	payouts := repository.NewPayoutRepo(nil)
	cagnottes := repository.NewCagnotteRepo(nil)
	agents := repository.NewAgentRepo(nil)

	h := Handlers{
		Auth:     handler.NewAuthHandler(cfg, users, tokens),
		Event:    handler.NewEventHandler(events, tiers),
		Checkout: handler.NewCheckoutHandler(events, tiers, bookings, users),
		POS:      handler.NewPOSHandler(events, tiers, bookings),
		Booking:  handler.NewBookingHandler(events, tiers, bookings),
		Wallet:   handler.NewWalletHandler(events, payouts),
		Cagnotte: handler.NewCagnotteHandler(cagnottes),
		Agent:    handler.NewAgentHandler(&cfg, agents, events, bookings),
		Admin:    handler.NewAdminHandler(payouts, cagnottes),
	}
	e := echo.New()
	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	Register(e, h, testSecret, passthrough)
	return e
}

func do(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCompleteContributionRequiresAdmin(t *testing.T) {
	e := newTestRouter()

	// Unauthenticated confirmation attempts never reach the handler.
	rec := do(e, http.MethodPost, "/v1/admin/contributions/5/complete", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Neither do organizer sessions.
	org, err := utils.NewAccessToken(testSecret, 7, model.RoleOrganizer, 15)
	require.NoError(t, err)
	rec = do(e, http.MethodPost, "/v1/admin/contributions/5/complete", org.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCompleteContributionHasNoPublicRoute(t *testing.T) {
	e := newTestRouter()
	rec := do(e, http.MethodPost, "/v1/cagnottes/contributions/5/complete", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAgentRoutesRejectAccountTokens(t *testing.T) {
	e := newTestRouter()
	org, err := utils.NewAccessToken(testSecret, 7, model.RoleOrganizer, 15)
	require.NoError(t, err)
	rec := do(e, http.MethodPost, "/v1/agents/ping", org.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
