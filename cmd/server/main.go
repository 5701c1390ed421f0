package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aditya/go-carpool/internal/cache"
	"github.com/aditya/go-carpool/internal/config"
	"github.com/aditya/go-carpool/internal/database"
	"github.com/aditya/go-carpool/internal/handler"
	"github.com/aditya/go-carpool/internal/middleware"
	"github.com/aditya/go-carpool/internal/repository"
	"github.com/aditya/go-carpool/internal/service"
	"github.com/aditya/go-carpool/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/newrelic/go-agent/v3/newrelic"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize New Relic (optional)
	var nrApp *newrelic.Application
	if cfg.NewRelicEnabled && cfg.NewRelicLicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelicAppName),
			newrelic.ConfigLicense(cfg.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
			newrelic.ConfigInfoLogger(os.Stdout),
		)
		if err != nil {
			log.Printf("Warning: Failed to initialize New Relic: %v", err)
		} else if err := nrApp.WaitForConnection(10 * time.Second); err != nil {
			log.Printf("Warning: New Relic connection timeout: %v", err)
		} else {
			log.Println("New Relic connected")
		}
	}

	// Initialize PostgreSQL
	db, err := database.NewPostgres(
		cfg.DatabaseURL,
		cfg.DBMaxConnections,
		cfg.DBMaxIdleConnections,
	)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis
	redis, err := database.NewRedis(cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()
	log.Println("Connected to Redis")

	// Initialize cache
	seatCache := cache.NewSeatAvailabilityCache(redis.Client, time.Duration(cfg.SeatCacheTTLSeconds)*time.Second)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	driverRepo := repository.NewDriverRepository(db.DB)
	rideRepo := repository.NewRideRepository(db.DB)
	bookingRepo := repository.NewBookingRepository(db.DB)
	paymentRepo := repository.NewPaymentRepository(db.DB)

	// Initialize services
	inventoryService := service.NewInventoryService(rideRepo, driverRepo, bookingRepo, seatCache)
	bookingService := service.NewBookingService(bookingRepo, rideRepo, driverRepo, seatCache)
	negotiationService := service.NewNegotiationService(bookingRepo, rideRepo)
	rideService := service.NewRideService(rideRepo, driverRepo, inventoryService, seatCache)
	driverService := service.NewDriverService(driverRepo, userRepo)
	paymentService := service.NewPaymentService(paymentRepo, bookingRepo, rideRepo)
	userService := service.NewUserService(userRepo)

	// Auth
	jwtManager := utils.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userService, jwtManager)
	rideHandler := handler.NewRideHandler(rideService, bookingService, inventoryService)
	bookingHandler := handler.NewBookingHandler(bookingService, negotiationService)
	driverHandler := handler.NewDriverHandler(driverService, bookingService)
	paymentHandler := handler.NewPaymentHandler(paymentService)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.Recovery)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// New Relic middleware
	if nrApp != nil {
		r.Use(middleware.NewRelicMiddleware(nrApp))
	}

	// Idempotency middleware
	idempotencyMw := middleware.NewIdempotencyMiddleware(redis.Client)
	r.Use(idempotencyMw.Handler)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := db.Health(ctx); err != nil {
			http.Error(w, "database unhealthy", http.StatusServiceUnavailable)
			return
		}

		if err := redis.Health(ctx); err != nil {
			http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","services":{"database":"up","redis":"up"}}`))
	})

	// Rate limiter: mounted after Auth on the authenticated group so
	// callers are keyed per account; public routes are keyed per IP.
	rateLimiter := middleware.NewRateLimiter(redis.Client, cfg.RateLimitPerMinute, time.Minute)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Public
		r.Group(func(r chi.Router) {
			r.Use(rateLimiter.Handler)
			userHandler.RegisterPublicRoutes(r)
			rideHandler.RegisterPublicRoutes(r)
		})

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(jwtManager))
			r.Use(rateLimiter.Handler)
			userHandler.RegisterRoutes(r)
			rideHandler.RegisterRoutes(r)
			bookingHandler.RegisterRoutes(r)
			driverHandler.RegisterRoutes(r)
			paymentHandler.RegisterRoutes(r)
		})
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped gracefully")
}
