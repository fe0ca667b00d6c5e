package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hotel-booking/auth"
	"hotel-booking/cache"
	"hotel-booking/config"
	"hotel-booking/controllers"
	"hotel-booking/events"
	"hotel-booking/middleware"
	"hotel-booking/routes"
	"hotel-booking/services"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string

	rootCmd = &cobra.Command{
		Use:   "hotel-booking",
		Short: "Hotel booking and operations API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(_ *gorm.DB, log *zap.Logger) error {
				log.Info("database migrated")
				return nil
			})
		},
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Seed the default admin and room types into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(config.SeedDatabase)
		},
	}

	createAdminCmd = &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin or reset an existing admin's password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *gorm.DB, log *zap.Logger) error {
				var name *string
				if adminName != "" {
					name = &adminName
				}
				admin, err := config.UpsertAdmin(db, adminEmail, adminPassword, name)
				if err != nil {
					return err
				}
				log.Info("admin saved", zap.Uint("id", admin.ID), zap.String("email", admin.Email))
				return nil
			})
		},
	}
)

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	createAdminCmd.Flags().StringVar(&adminName, "name", "", "display name")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, createAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withDatabase loads configuration, connects (which migrates) and runs fn.
func withDatabase(fn func(db *gorm.DB, log *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := config.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := config.ConnectDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("database connect failed: %w", err)
	}
	return fn(db, log)
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := config.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	gin.SetMode(cfg.GinMode)

	db, err := config.ConnectDatabase(cfg.Database)
	if err != nil {
		log.Error("database connect failed", zap.Error(err))
		return err
	}
	if err := config.SeedDatabase(db, log); err != nil {
		log.Error("seeding failed", zap.Error(err))
		return err
	}
	log.Info("database ready", zap.String("type", cfg.Database.Type))

	rdb := config.NewRedisClient(cfg.Redis, log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	publisher := events.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, log)
	defer func() { _ = publisher.Close() }()

	sessionManager, err := auth.NewSessionManager(auth.SessionConfig{
		Secret:       cfg.Session.Secret,
		TTL:          cfg.Session.TTL,
		SecureCookie: cfg.Session.SecureCookie,
	})
	if err != nil {
		return err
	}
	metrics := middleware.NewMetrics(cfg.Metrics.Namespace)

	// services
	ratingCache := cache.NewRatingCache(rdb, cfg.RatingCacheTTL, log)
	authService := services.NewAuthService(db, log)
	userService := services.NewUserService(db)
	reviewService := services.NewReviewService(db, ratingCache, publisher, log)
	storeService := services.NewStoreService(db, reviewService)
	roomTypeService := services.NewRoomTypeService(db)
	roomService := services.NewRoomService(db)
	availabilityService := services.NewAvailabilityService(db, reviewService)
	bookingService := services.NewBookingService(db, publisher, log)
	bookingService.Ratings = ratingCache
	bookingService.OnTransition = func(ev services.BookingEvent) {
		metrics.ObserveTransition(string(ev))
	}

	sessions := middleware.NewSessions(sessionManager, authService)

	var rateLimit *middleware.RateLimitConfig
	if cfg.RateLimit.Enabled {
		rateLimit = &middleware.RateLimitConfig{
			Limit:  cfg.RateLimit.Limit,
			Window: cfg.RateLimit.Window,
			Prefix: cfg.RateLimit.Prefix,
		}
	}

	router := routes.SetupRouter(routes.Router{
		Log:         log,
		Sessions:    sessions,
		Metrics:     metrics,
		Redis:       rdb,
		RateLimit:   rateLimit,
		CORSOrigins: cfg.CORSOrigins,

		Auth:      controllers.NewAuthController(authService, sessionManager, sessions),
		Admin:     controllers.NewAdminController(userService),
		Stores:    controllers.NewStoreController(storeService, reviewService),
		RoomTypes: controllers.NewRoomTypeController(roomTypeService),
		Rooms:     controllers.NewRoomController(roomService),
		Bookings:  controllers.NewBookingController(bookingService),
		Customer:  controllers.NewCustomerController(bookingService, reviewService, availabilityService),
		Staff:     controllers.NewStaffController(storeService, bookingService, roomService),
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		log.Error("listen failed", zap.Error(err))
		return err
	case <-quit:
	}
	log.Info("shutdown signal received, shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}
