package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samaevent/ticketing-api/internal/handler"
	"github.com/samaevent/ticketing-api/internal/middleware"
	"github.com/samaevent/ticketing-api/internal/model"
)

// Handlers bundles every handler the API mounts. Constructed in main
// and passed down whole so the registration functions stay short.
type Handlers struct {
	Auth     *handler.AuthHandler
	Event    *handler.EventHandler
	Checkout *handler.CheckoutHandler
	POS      *handler.POSHandler
	Booking  *handler.BookingHandler
	Wallet   *handler.WalletHandler
	Cagnotte *handler.CagnotteHandler
	Agent    *handler.AgentHandler
	Admin    *handler.AdminHandler
}

// Register mounts every route of the API. The limiter middleware is
// applied to the write hot paths only: checkout, point-of-sale sale,
// payout request and public contribution.
func Register(e *echo.Echo, h Handlers, jwtSecret string, limiter echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Session endpoints, no JWT required.
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Public browse and purchase surface. Checkout and contribute are
	// open to guests but rate limited.
	e.GET("/v1/events/:id", h.Event.GetEvent)
	e.GET("/v1/tiers/:id/availability", h.Event.GetTierAvailability)
	e.POST("/v1/events/:id/checkout", h.Checkout.Checkout, limiter)
	e.GET("/v1/cagnottes/:id", h.Cagnotte.Get)
	e.POST("/v1/cagnottes/:id/contribute", h.Cagnotte.Contribute, limiter)

	// Agent session bootstrap, access code instead of credentials.
	e.POST("/v1/agents/login", h.Agent.Login)

	// Authenticated account surface, any role.
	me := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	me.GET("/me", h.Auth.Me)
	me.GET("/my/bookings", h.Checkout.MyBookings)

	// Organizer back-office. Admins pass everywhere an organizer can.
	org := e.Group("/v1", middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOrganizer, model.RoleAdmin))
	org.POST("/events", h.Event.CreateEvent)
	org.GET("/events", h.Event.ListMyEvents)
	org.POST("/events/:id/tiers", h.Event.CreateTier)
	org.GET("/events/:id/bookings", h.Booking.ListByEvent)
	org.POST("/pos/events/:id/sell", h.POS.Sell, limiter)
	org.POST("/bookings/:id/cancel", h.Booking.Cancel)
	org.POST("/bookings/:id/restore", h.Booking.Restore)
	org.PATCH("/bookings/:id/checkin", h.Booking.CheckIn)
	org.GET("/wallet", h.Wallet.Balance)
	org.POST("/wallet/payouts", h.Wallet.RequestPayout, limiter)
	org.GET("/wallet/payouts", h.Wallet.MyPayouts)
	org.POST("/cagnottes", h.Cagnotte.Create)
	org.GET("/cagnottes", h.Cagnotte.ListMine)
	org.POST("/cagnottes/:id/request-payout", h.Cagnotte.RequestPayout)
	org.POST("/agents", h.Agent.Create)
	org.GET("/agents", h.Agent.List)
	org.PUT("/agents/:id/scope", h.Agent.UpdateScope)
	org.PATCH("/agents/:id/status", h.Agent.SetStatus)

	// Agent-facing surface, narrow tokens only.
	ag := e.Group("/v1/agents", middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAgent))
	ag.POST("/ping", h.Agent.Ping)
	ag.PATCH("/bookings/:id/checkin", h.Agent.CheckIn)

	// Platform operator surface.
	adm := e.Group("/v1/admin", middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin))
	adm.GET("/payouts", h.Admin.ListPayouts)
	adm.PATCH("/payouts/:id", h.Admin.TransitionPayout)
	adm.GET("/cagnottes", h.Admin.ListCagnottes)
	adm.PATCH("/cagnottes/:id", h.Admin.TransitionCagnotte)
	// Payment confirmations flip contributions to completed. The flip
	// creates withdrawable value, so it is as privileged as any other
	// money transition.
	adm.POST("/contributions/:id/complete", h.Cagnotte.CompleteContribution)
}
