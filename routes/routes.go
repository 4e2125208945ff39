package routes

import (
	"net/http"

	"storefront-cart/cartsync"
	"storefront-cart/events"
	"storefront-cart/handlers"
	"storefront-cart/middleware"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Sync        *cartsync.Synchronizer
	Broadcaster *events.Broadcaster
	// RateLimiter throttles cart mutations per cart owner; nil disables it.
	RateLimiter *middleware.RateLimiter
	// IPRateLimiter throttles cart mutations per client IP, whatever guest id is sent.
	IPRateLimiter *middleware.RateLimiter
	SecureCookie  bool
}

func SetupRoutes(r *gin.Engine, deps Deps) {
	// Initialize handlers
	cartHandler := &handlers.CartHandler{Sync: deps.Sync}
	eventsHandler := &handlers.EventsHandler{Broadcaster: deps.Broadcaster}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middleware.SessionMiddleware(deps.SecureCookie))

	// Cart reads
	cart := api.Group("/cart")
	{
		cart.GET("", cartHandler.GetCart)
		cart.GET("/count", cartHandler.GetCartCount)
		cart.GET("/events", eventsHandler.Stream)
	}

	// Cart mutations
	mutations := cart.Group("")
	if deps.IPRateLimiter != nil {
		mutations.Use(deps.IPRateLimiter.Middleware())
	}
	if deps.RateLimiter != nil {
		mutations.Use(deps.RateLimiter.MiddlewareByKey(middleware.SessionOwner))
	}
	{
		mutations.POST("", cartHandler.AddToCart)
		mutations.POST("/merge", cartHandler.MergeGuestCart)
		mutations.PUT("/:id", cartHandler.UpdateCartItem)
		mutations.DELETE("/:id", cartHandler.RemoveFromCart)
	}
}
