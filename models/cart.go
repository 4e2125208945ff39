package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LocalIDPrefix marks line item ids that live in the guest cart rather than on the Cart API.
const LocalIDPrefix = "local_"

// GuestCartItem is one line of a guest cart as persisted in the local store.
type GuestCartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// UnmarshalJSON accepts productId as a JSON string or number.
func (g *GuestCartItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ProductID json.RawMessage `json:"productId"`
		Quantity  int             `json:"quantity"`
		Size      string          `json:"size"`
		Color     string          `json:"color"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	productID, err := decodeProductRef(raw.ProductID)
	if err != nil {
		return err
	}

	*g = GuestCartItem{
		ProductID: productID,
		Quantity:  raw.Quantity,
		Size:      raw.Size,
		Color:     raw.Color,
	}
	return nil
}

func decodeProductRef(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("productId must be a string or number: %w", err)
	}
	return n.String(), nil
}

// LocalID returns the guest marker id used to address this line.
func (g GuestCartItem) LocalID() string {
	return LocalIDPrefix + g.ProductID
}

// IsLocalID reports whether id addresses a guest cart line.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix) && len(id) > len(LocalIDPrefix)
}

// ProductIDFromLocalID strips the guest marker prefix.
func ProductIDFromLocalID(id string) string {
	return strings.TrimPrefix(id, LocalIDPrefix)
}

// RemoteCartItem is a server-persisted line item as returned by the Cart API.
// Price, Name, Image and Category are a display snapshot; the catalog stays authoritative.
type RemoteCartItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
	Price     float64   `json:"price"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AddItemRequest is the body of POST /cart on the Cart API.
type AddItemRequest struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// ItemPatch is a partial update of a remote line item. Nil fields are left untouched.
type ItemPatch struct {
	Quantity *int    `json:"quantity,omitempty"`
	Size     *string `json:"size,omitempty"`
	Color    *string `json:"color,omitempty"`
}

// CountResponse is the body of GET /cart/count/:userId.
type CountResponse struct {
	Count int `json:"count"`
}

// Cart line sources.
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
)

// CartLine is the unified view of a cart line handed to the storefront page.
type CartLine struct {
	ID        string  `json:"id"`
	Source    string  `json:"source"`
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
	Price     float64 `json:"price,omitempty"`
	Name      string  `json:"name,omitempty"`
	Image     string  `json:"image,omitempty"`
	Category  string  `json:"category,omitempty"`
}

// LineFromGuest converts a guest cart item to a cart line.
func LineFromGuest(item GuestCartItem) CartLine {
	return CartLine{
		ID:        item.LocalID(),
		Source:    SourceLocal,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Size:      item.Size,
		Color:     item.Color,
	}
}

// LineFromRemote converts a Cart API line item to a cart line.
func LineFromRemote(item RemoteCartItem) CartLine {
	return CartLine{
		ID:        item.ID,
		Source:    SourceRemote,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Size:      item.Size,
		Color:     item.Color,
		Price:     item.Price,
		Name:      item.Name,
		Image:     item.Image,
		Category:  item.Category,
	}
}
