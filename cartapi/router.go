package cartapi

import (
	"net/http"

	"storefront-cart/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes registers the Cart API on r.
func SetupRoutes(r *gin.Engine, db *gorm.DB) {
	cartHandler := &CartHandler{DB: db}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/products", cartHandler.ListProducts)

	cart := r.Group("/cart")
	cart.Use(middleware.AuthMiddleware())
	{
		cart.POST("", cartHandler.AddToCart)
		cart.GET("/count/:userId", cartHandler.GetCartCount)
		cart.GET("/:userId", cartHandler.GetCart)
		cart.PUT("/:cartItemId", cartHandler.UpdateCartItem)
		cart.DELETE("/:cartItemId", cartHandler.RemoveFromCart)
	}
}
