package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

// CartItem is a server-side line item owned by the reference Cart API.
type CartItem struct {
	ID        string         `gorm:"primaryKey;size:24" json:"id"`
	UserID    string         `gorm:"size:24;not null;index" json:"userId"`
	ProductID string         `gorm:"size:24;not null" json:"productId"`
	Product   Product        `gorm:"foreignKey:ProductID" json:"-"`
	Quantity  int            `gorm:"default:1" json:"quantity"`
	Size      string         `json:"size,omitempty"`
	Color     string         `json:"color,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = primitive.NewObjectID().Hex()
	}
	return nil
}

// ToRemote flattens the row and its preloaded product into the wire shape.
func (c CartItem) ToRemote() RemoteCartItem {
	return RemoteCartItem{
		ID:        c.ID,
		UserID:    c.UserID,
		ProductID: c.ProductID,
		Quantity:  c.Quantity,
		Size:      c.Size,
		Color:     c.Color,
		Price:     c.Product.Price,
		Name:      c.Product.Name,
		Image:     c.Product.Image,
		Category:  c.Product.Category,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
