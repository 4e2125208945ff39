// Package cartapi is a reference implementation of the Cart API the storefront talks to.
package cartapi

import (
	"errors"
	"net/http"

	"storefront-cart/models"
	"storefront-cart/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CartHandler struct {
	DB *gorm.DB
}

func currentUser(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID.(string), true
}

func (h *CartHandler) AddToCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		UserID    string `json:"userId" binding:"required"`
		ProductID string `json:"productId" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required,min=1"`
		Size      string `json:"size" binding:"max=32"`
		Color     string `json:"color" binding:"max=32"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if !utils.IsValidID(req.UserID) || !utils.IsValidID(req.ProductID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	if req.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot modify another user's cart"})
		return
	}

	var product models.Product
	if err := h.DB.Where("id = ?", req.ProductID).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	if product.Stock < req.Quantity {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock"})
		return
	}

	// Same product in the same variant increments the existing line
	var cartItem models.CartItem
	err := h.DB.Where("user_id = ? AND product_id = ? AND size = ? AND color = ?",
		userID, req.ProductID, req.Size, req.Color).First(&cartItem).Error

	status := http.StatusOK
	switch {
	case err == nil:
		cartItem.Quantity += req.Quantity
		if cartItem.Quantity > product.Stock {
			cartItem.Quantity = product.Stock
		}
		if err := h.DB.Omit("Product").Save(&cartItem).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		cartItem = models.CartItem{
			UserID:    userID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			Size:      req.Size,
			Color:     req.Color,
		}
		if err := h.DB.Omit("Product").Create(&cartItem).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
			return
		}
		status = http.StatusCreated
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
		return
	}

	cartItem.Product = product
	c.JSON(status, cartItem.ToRemote())
}

func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	owner := c.Param("userId")
	if !utils.IsValidID(owner) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	if owner != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot read another user's cart"})
		return
	}

	var cartItems []models.CartItem
	if err := h.DB.Preload("Product").Where("user_id = ?", userID).Order("created_at").Find(&cartItems).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}

	items := make([]models.RemoteCartItem, 0, len(cartItems))
	for _, item := range cartItems {
		items = append(items, item.ToRemote())
	}
	c.JSON(http.StatusOK, items)
}

func (h *CartHandler) GetCartCount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	owner := c.Param("userId")
	if !utils.IsValidID(owner) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	if owner != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot read another user's cart"})
		return
	}

	var count int64
	if err := h.DB.Model(&models.CartItem{}).Where("user_id = ?", userID).
		Select("COALESCE(SUM(quantity), 0)").Scan(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count cart"})
		return
	}

	c.JSON(http.StatusOK, models.CountResponse{Count: int(count)})
}

func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id := c.Param("cartItemId")
	if !utils.IsValidID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var req struct {
		Quantity *int    `json:"quantity" binding:"omitempty,min=1"`
		Size     *string `json:"size" binding:"omitempty,max=32"`
		Color    *string `json:"color" binding:"omitempty,max=32"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	cartItem, ok := h.ownedItem(c, id, userID)
	if !ok {
		return
	}

	if req.Quantity != nil {
		if cartItem.Product.Stock < *req.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock"})
			return
		}
		cartItem.Quantity = *req.Quantity
	}
	if req.Size != nil {
		cartItem.Size = *req.Size
	}
	if req.Color != nil {
		cartItem.Color = *req.Color
	}

	if err := h.DB.Omit("Product").Save(&cartItem).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart item"})
		return
	}

	c.JSON(http.StatusOK, cartItem.ToRemote())
}

func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id := c.Param("cartItemId")
	if !utils.IsValidID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	cartItem, ok := h.ownedItem(c, id, userID)
	if !ok {
		return
	}

	if err := h.DB.Delete(&cartItem).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove item from cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

// ownedItem loads a line item with its product and checks that userID owns it.
func (h *CartHandler) ownedItem(c *gin.Context, id, userID string) (models.CartItem, bool) {
	var cartItem models.CartItem
	if err := h.DB.Preload("Product").Where("id = ?", id).First(&cartItem).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
		return cartItem, false
	}
	if cartItem.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot modify another user's cart"})
		return cartItem, false
	}
	return cartItem, true
}

// ListProducts returns the catalog so a local storefront has ids to add.
func (h *CartHandler) ListProducts(c *gin.Context) {
	var products []models.Product
	if err := h.DB.Order("name").Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, products)
}
