package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openems/bed-allocation/internal/allocation"
	"github.com/openems/bed-allocation/internal/config"
	"github.com/openems/bed-allocation/internal/database"
	"github.com/openems/bed-allocation/internal/handler"
	"github.com/openems/bed-allocation/internal/ingest"
	"github.com/openems/bed-allocation/internal/queue"
	"github.com/openems/bed-allocation/internal/repository"
	"github.com/openems/bed-allocation/internal/router"
	"github.com/openems/bed-allocation/internal/routing"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	setupLogging()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("schema setup failed")
	}
	cancel()

	hospitalRepo := repository.NewHospitalRepo(db)
	bedRepo := repository.NewBedRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	sosRepo := repository.NewSOSRepo(db)

	if cfg.HospitalCSVDir != "" {
		ictx, icancel := context.WithTimeout(context.Background(), 10*time.Minute)
		if err := ingest.LoadDirectory(ictx, cfg.HospitalCSVDir, hospitalRepo); err != nil {
			log.Error().Err(err).Msg("hospital csv ingest failed, continuing with what loaded")
		}
		icancel()
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unreachable, response cache and rate limiting disabled")
	}

	go func() {
		if err := queue.StartAllocationConsumer(); err != nil {
			log.Error().Err(err).Msg("allocation consumer stopped")
		}
	}()

	provider := routing.WithFallback(remoteRouter(cfg), routing.NewStraightLine())
	engine := allocation.NewEngine(
		hospitalRepo, bedRepo, reservationRepo, provider, queue.NewPublisher(),
		allocation.WithHoldTTL(time.Duration(cfg.ReservationTTLMin)*time.Minute),
	)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAmbulance(e, &handler.AmbulanceHandler{Engine: engine}, rdb, config.LoadRateLimitConfig())
	router.RegisterHospitals(e, &handler.HospitalHandler{Repo: hospitalRepo}, rdb, config.LoadCacheConfig())
	router.RegisterSOS(e, &handler.SOSHandler{Repo: sosRepo}, rdb, config.LoadRateLimitConfig())

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// remoteRouter returns the GraphHopper provider when an API key is
// configured, nil otherwise.  A nil primary makes the failover wrapper
// go straight to the straight-line fallback.
func remoteRouter(cfg config.Config) routing.Provider {
	if cfg.GraphHopperAPIKey == "" {
		log.Warn().Msg("GRAPHHOPPER_API_KEY not set, using straight-line routing only")
		return nil
	}
	return routing.NewGraphHopper(cfg.GraphHopperAPIKey, cfg.RouteTimeout)
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		if l, err := zerolog.ParseLevel(s); err == nil {
			level = l
		}
	}
	zerolog.SetGlobalLevel(level)
}
