package main // Entry point package

import (
	"context" // bounds schema bootstrap
	"log"     // Logging library
	"time"    // startup timeouts

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/qso-logbook/internal/config" // Internal config loader
	"github.com/iliyamo/qso-logbook/internal/database"
	"github.com/iliyamo/qso-logbook/internal/handler"
	"github.com/iliyamo/qso-logbook/internal/matcher"
	"github.com/iliyamo/qso-logbook/internal/middleware"
	"github.com/iliyamo/qso-logbook/internal/queue"
	"github.com/iliyamo/qso-logbook/internal/repository"
	"github.com/iliyamo/qso-logbook/internal/router" // Internal router setup
)

func main() {
	// A missing .env is fine; production sets real environment variables.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	// Redis backs rate limiting and the rankings response cache. A nil
	// client disables both rather than blocking startup.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}

	operators := repository.NewOperatorRepo(db)
	contacts := repository.NewContactRepo(db, cfg.DuplicateWindow)
	tokens := repository.NewTokenRepo(db)

	match := matcher.New(contacts, operators, matcher.Policy{
		TimeWindow:       cfg.MatchTimeWindow,
		FreqToleranceMHz: cfg.MatchFreqTolMHz,
	})

	authH := handler.NewAuthHandler(cfg, operators, tokens)
	contactH := handler.NewContactHandler(operators, contacts, match)
	profileH := handler.NewProfileHandler(cfg, operators, tokens)
	adminH := handler.NewAdminHandler(operators)
	rankingH := handler.NewRankingHandler(contacts)

	e := echo.New() // Create Echo instance
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e) // Register application routes
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterLogbook(e, contactH, profileH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)
	router.RegisterPublic(e, rankingH, config.LoadCacheConfig(), rdb)

	// Background consumer mirrors confirmations into logs/confirmations.log.
	go queue.StartConfirmationConsumer()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
