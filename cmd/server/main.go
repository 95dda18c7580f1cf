package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/samaevent/ticketing-api/internal/config"
	"github.com/samaevent/ticketing-api/internal/database"
	"github.com/samaevent/ticketing-api/internal/handler"
	"github.com/samaevent/ticketing-api/internal/middleware"
	"github.com/samaevent/ticketing-api/internal/queue"
	"github.com/samaevent/ticketing-api/internal/repository"
	"github.com/samaevent/ticketing-api/internal/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	tiers := repository.NewTierRepo(db)
	bookings := repository.NewBookingRepo(db)
	payouts := repository.NewPayoutRepo(db)
	cagnottes := repository.NewCagnotteRepo(db)
	agents := repository.NewAgentRepo(db)

	h := router.Handlers{
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

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	// Booking confirmations fan out through RabbitMQ; the consumer
	// writes the audit trail. Its absence never blocks sales.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	router.Register(e, h, cfg.JWTSecret, limiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
