package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/hotel-room-booking/internal/cache"
	"github.com/iliyamo/hotel-room-booking/internal/config"
	"github.com/iliyamo/hotel-room-booking/internal/database"
	"github.com/iliyamo/hotel-room-booking/internal/engine"
	"github.com/iliyamo/hotel-room-booking/internal/handler"
	"github.com/iliyamo/hotel-room-booking/internal/middleware"
	"github.com/iliyamo/hotel-room-booking/internal/queue"
	"github.com/iliyamo/hotel-room-booking/internal/repository"
	"github.com/iliyamo/hotel-room-booking/internal/router"
	queue_publisher "github.com/iliyamo/hotel-room-booking/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set env directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables the response cache and
	// rate limiter and turns the availability cache into a no-op.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; caching and rate limiting disabled")
	}

	store := repository.NewStore(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	notifier := queue_publisher.ChangeNotifier{}
	resolver := engine.NewResolver(store, cfg.AvailabilityOptIn)
	admission := engine.NewAdmission(store, resolver, notifier)
	ledger := engine.NewLedger(store, users, notifier)

	availCache := cache.NewAvailability(rdb, cfg.AvailabilityCacheTTL)
	// The hook runs on every change notification, watched or not, so
	// cached months never outlive the change that made them stale.
	watcher := engine.NewWatcher(resolver, cfg.WatchCoalesce, func(roomID uint64) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		availCache.Invalidate(ctx, roomID)
	})

	// Background consumers: the change feed drives watcher refreshes,
	// the booking log consumer appends admitted bookings to disk.
	go func() {
		if err := queue.StartAvailabilityConsumer(watcher.Notify); err != nil {
			log.Printf("availability consumer stopped: %v", err)
		}
	}()
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()
	go expiredTokenSweep(tokens)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	rateMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	roomH := handler.NewRoomHandler(store.Rooms)
	availH := handler.NewAvailabilityHandler(resolver, watcher, availCache)
	bookingH := handler.NewBookingHandler(admission, store.Bookings, notifier)
	calH := handler.NewCalendarHandler(ledger, store.Availability)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, roomH, availH, cacheMW)
	router.RegisterBookings(e, bookingH, cfg.JWTSecret, rateMW)
	router.RegisterAdmin(e, calH, bookingH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// expiredTokenSweep deletes expired refresh token rows once an hour.
func expiredTokenSweep(tokens *repository.TokenRepo) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := tokens.DeleteExpired(ctx, time.Now().UTC())
		cancel()
		if err != nil {
			log.Printf("token sweep failed: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("token sweep removed %d expired rows", n)
		}
	}
}
