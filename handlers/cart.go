package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront-cart/cartstore"
	"storefront-cart/cartsync"
	"storefront-cart/gateway"
	"storefront-cart/middleware"
	"storefront-cart/models"
	"storefront-cart/utils"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	Sync *cartsync.Synchronizer
}

func (h *CartHandler) GetCart(c *gin.Context) {
	sess := middleware.GetSession(c)

	lines, err := h.Sync.Items(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}

	count := 0
	for _, line := range lines {
		count += line.Quantity
	}

	c.JSON(http.StatusOK, gin.H{
		"mode":  utils.ResolveIdentity(sess).Mode.String(),
		"items": lines,
		"count": count,
	})
}

func (h *CartHandler) GetCartCount(c *gin.Context) {
	count := h.Sync.Count(c.Request.Context(), middleware.GetSession(c))
	c.JSON(http.StatusOK, models.CountResponse{Count: count})
}

func (h *CartHandler) AddToCart(c *gin.Context) {
	var req struct {
		ProductID json.RawMessage `json:"productId"`
		Quantity  *int            `json:"quantity"`
		Size      string          `json:"size" binding:"max=32"`
		Color     string          `json:"color" binding:"max=32"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	res, err := h.Sync.AddToCart(c.Request.Context(), middleware.GetSession(c), cartsync.AddRequest{
		ProductID: utils.NormalizeID(req.ProductID),
		Quantity:  quantity,
		Size:      req.Size,
		Color:     req.Color,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		Quantity *int `json:"quantity" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if err := h.Sync.UpdateItem(c.Request.Context(), middleware.GetSession(c), id, *req.Quantity); err != nil {
		respondError(c, err)
		return
	}

	if *req.Quantity < 1 {
		c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart item updated"})
}

func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	if err := h.Sync.RemoveItem(c.Request.Context(), middleware.GetSession(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

// MergeGuestCart is called by the page right after sign-in.
func (h *CartHandler) MergeGuestCart(c *gin.Context) {
	report, err := h.Sync.MergeGuestCart(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		if errors.Is(err, cartsync.ErrMergeIncomplete) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Some cart items could not be merged", "report": report})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func respondError(c *gin.Context, err error) {
	var apiErr *gateway.APIError

	switch {
	case errors.Is(err, utils.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
	case errors.Is(err, cartsync.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be at least 1"})
	case errors.Is(err, cartsync.ErrMissingProduct):
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId is required"})
	case errors.Is(err, cartsync.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sign in required"})
	case errors.Is(err, gateway.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired, please sign in again"})
	case errors.Is(err, cartstore.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Cart service error: " + apiErr.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cart service unavailable"})
	}
}
