package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/askwhyharsh/deskfinder/internal/api"
	"github.com/askwhyharsh/deskfinder/internal/config"
	"github.com/askwhyharsh/deskfinder/internal/directions"
	"github.com/askwhyharsh/deskfinder/internal/directory"
	"github.com/askwhyharsh/deskfinder/internal/listing"
	"github.com/askwhyharsh/deskfinder/internal/location"
	"github.com/askwhyharsh/deskfinder/internal/ratelimit"
	"github.com/askwhyharsh/deskfinder/internal/render"
	"github.com/askwhyharsh/deskfinder/internal/session"
	"github.com/askwhyharsh/deskfinder/internal/storage"
	"github.com/askwhyharsh/deskfinder/internal/websocket"
	"github.com/askwhyharsh/deskfinder/pkg/logger"
	"github.com/askwhyharsh/deskfinder/pkg/validator"
)

const sessionSweepInterval = time.Minute

func main() {
	// Load configuration (reads .env when present)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewLogger(cfg.Server.Env, cfg.Monitoring.LogLevel)
	if syncer, ok := appLogger.(interface{ Sync() error }); ok {
		defer syncer.Sync()
	}
	appLogger.Info("Starting coworking space finder...")

	// Initialize Redis
	redisClient, err := storage.NewRedisClient(cfg)
	if err != nil {
		appLogger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", "address", cfg.RedisAddr())

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize services
	val := validator.NewValidator()
	sessionService := session.NewService(redisClient, cfg.SessionTTL())

	listingClient := listing.NewClient(cfg.Backend.BaseURL, cfg.BackendTimeout(), appLogger)

	var locator location.Locator
	if cfg.Geolocation.IPLookupURL != "" {
		locator = location.NewIPLocator(cfg.Geolocation.IPLookupURL, cfg.GeolocationTimeout())
		appLogger.Info("IP geolocation fallback enabled", "url", cfg.Geolocation.IPLookupURL)
	}

	directionsClient := directions.NewGoogleClient(
		cfg.Directions.BaseURL,
		cfg.Directions.APIKey,
		cfg.Directions.TravelMode,
		cfg.Directions.RequestsPerSecond,
		cfg.DirectionsTimeout(),
		appLogger,
	)
	if cfg.Directions.APIKey == "" {
		appLogger.Warn("GOOGLE_MAPS_API_KEY not set, directions will be denied")
	}
	viewer := directions.NewViewer(directionsClient, locator, val, appLogger)

	controller := directory.NewController(
		sessionService,
		listingClient,
		viewer,
		val,
		appLogger,
		cfg.Search.MinQueryLength,
	)

	rateLimiter := ratelimit.NewLimiter(redisClient, cfg.RateLimit)
	rateLimitMiddleware := ratelimit.NewMiddleware(rateLimiter)

	// Initialize WebSocket hub
	hub := websocket.NewHub(appLogger)
	sessionManager := session.NewManager(sessionService, hub, appLogger, sessionSweepInterval)

	// Initialize WebSocket handler
	wsHandler := websocket.NewHandler(
		hub,
		sessionManager,
		controller,
		rateLimiter,
		appLogger,
		cfg.Server.CORSOrigins,
	)

	// Initialize API handler
	apiHandler := api.NewHandler(
		sessionService,
		sessionManager,
		controller,
		rateLimiter,
		listingClient,
		render.PageData{
			Title:          "Coworking Spaces",
			MapsAPIKey:     cfg.Directions.APIKey,
			MinQueryLength: cfg.Search.MinQueryLength,
		},
		redisClient,
		appLogger,
	)

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestLogger(appLogger))

	// Setup routes
	api.SetupRoutes(router, apiHandler, wsHandler, rateLimitMiddleware, cfg.Server.CORSOrigins)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		sessionManager.Start(gctx)
		return nil
	})

	g.Go(func() error {
		appLogger.Info("Server starting", "address", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Server stopped with error", "error", err)
		return
	}

	appLogger.Info("Server stopped")
}
