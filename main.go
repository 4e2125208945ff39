package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-cart/cartstore"
	"storefront-cart/cartsync"
	"storefront-cart/config"
	"storefront-cart/database"
	"storefront-cart/events"
	"storefront-cart/gateway"
	"storefront-cart/middleware"
	"storefront-cart/routes"
	"storefront-cart/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load environment variables
	if err := config.LoadEnv(); err != nil {
		log.Fatal("Error loading .env file:", err)
	}

	// Validate critical environment variables
	if err := config.ValidateEnv(); err != nil {
		log.Fatal("Environment validation failed: ", err)
	}

	// Guest cart storage
	guestStorage, closeStorage, err := openStorage(context.Background())
	if err != nil {
		log.Fatal("Failed to open guest cart storage:", err)
	}

	// Cart API client and synchronizer
	client := gateway.New(gateway.Config{
		BaseURL: os.Getenv("CART_API_URL"),
		Timeout: config.GetEnvDuration("CART_API_TIMEOUT", 10*time.Second),
	})
	broadcaster := events.NewBroadcaster()
	syncer := cartsync.New(cartstore.New(guestStorage), client, broadcaster)

	// Setup Gin router
	r := gin.Default()

	frontendURL := os.Getenv("FRONTEND_URL")
	origins := []string{frontendURL}
	if frontendURL == "" {
		origins = []string{"http://localhost:3000"}
		log.Println("WARNING: No CORS origins configured, defaulting to http://localhost:3000")
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.GuestHeader, middleware.UserHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Setup routes
	routes.SetupRoutes(r, routes.Deps{
		Sync:          syncer,
		Broadcaster:   broadcaster,
		RateLimiter:   middleware.NewRateLimiter(config.GetEnvInt("RATE_LIMIT_PER_MINUTE", 120), time.Minute),
		IPRateLimiter: middleware.NewRateLimiter(config.GetEnvInt("RATE_LIMIT_IP_PER_MINUTE", 600), time.Minute),
		SecureCookie:  gin.Mode() == gin.ReleaseMode,
	})

	// Start server with graceful shutdown
	port := config.GetEnv("PORT", "8080")

	// Request contexts derive from baseCtx so open event streams end on shutdown
	baseCtx, cancelStreams := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     r,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}

	// Run server in a goroutine
	go func() {
		log.Printf("Storefront cart service starting on port %s (cart api %s)", port, os.Getenv("CART_API_URL"))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancelStreams()

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if err := broadcaster.Close(); err != nil {
		log.Printf("Error closing broadcaster: %v", err)
	}

	if err := closeStorage.Close(); err != nil {
		log.Printf("Error closing guest cart storage: %v", err)
	} else {
		log.Println("Guest cart storage closed")
	}

	log.Println("Server exited gracefully")
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openStorage builds the guest cart storage selected by STORAGE_DRIVER.
func openStorage(ctx context.Context) (storage.Storage, io.Closer, error) {
	switch driver := config.GetEnv("STORAGE_DRIVER", "memory"); driver {
	case "memory":
		return storage.NewMemoryStorage(), closerFunc(func() error { return nil }), nil

	case "database":
		db, err := database.Connect()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return storage.NewGormStorage(db), sqlDB, nil

	case "redis":
		ttl := config.GetEnvDuration("GUEST_CART_TTL", 30*24*time.Hour)
		rs, err := storage.NewRedisStorageFromURL(ctx, os.Getenv("REDIS_URL"), ttl)
		if err != nil {
			return nil, nil, err
		}
		return rs, rs, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_DRIVER %q", driver)
	}
}
