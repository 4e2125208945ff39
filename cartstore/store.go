// Package cartstore keeps guest carts in a storage.Storage record per visitor.
package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"

	"storefront-cart/models"
	"storefront-cart/storage"
)

// DefaultKey is the record name used when the visitor has no guest id.
const DefaultKey = "guest_cart"

var (
	ErrItemNotFound    = errors.New("cartstore: item not found")
	ErrInvalidQuantity = errors.New("cartstore: quantity must be at least 1")
)

// Store hands out guest cart handles. All handles of one Store share a mutex, so each
// read-modify-write is atomic within the process.
type Store struct {
	storage storage.Storage
	mu      sync.Mutex
}

func New(s storage.Storage) *Store {
	return &Store{storage: s}
}

// KeyFor returns the stable record key of a guest's cart.
func KeyFor(guestID string) string {
	guestID = strings.TrimSpace(guestID)
	if guestID == "" {
		return DefaultKey
	}
	return DefaultKey + ":" + guestID
}

// Cart returns the handle of one guest's cart.
func (s *Store) Cart(guestID string) *GuestCart {
	return &GuestCart{store: s, key: KeyFor(guestID)}
}

// GuestCart is one visitor's cart record.
type GuestCart struct {
	store *Store
	key   string
}

func (c *GuestCart) Key() string {
	return c.key
}

// ReadAll returns the stored items, or an empty slice when the record is missing or
// cannot be decoded.
func (c *GuestCart) ReadAll(ctx context.Context) []models.GuestCartItem {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return c.read(ctx)
}

// WriteAll replaces the stored items with one write. Failures are logged, not returned.
func (c *GuestCart) WriteAll(ctx context.Context, items []models.GuestCartItem) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.write(ctx, items)
}

// Count sums quantities across the cart.
func (c *GuestCart) Count(ctx context.Context) int {
	total := 0
	for _, item := range c.ReadAll(ctx) {
		total += item.Quantity
	}
	return total
}

// Add increments the line for item.ProductID, or appends a new line.
func (c *GuestCart) Add(ctx context.Context, item models.GuestCartItem) []models.GuestCartItem {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	items := c.read(ctx)
	if idx := indexOf(items, item.ProductID); idx >= 0 {
		items[idx].Quantity += item.Quantity
	} else {
		items = append(items, item)
	}

	c.write(ctx, items)
	return items
}

// SetQuantity overwrites the quantity of an existing line.
func (c *GuestCart) SetQuantity(ctx context.Context, productID string, quantity int) ([]models.GuestCartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	items := c.read(ctx)
	idx := indexOf(items, productID)
	if idx < 0 {
		return items, ErrItemNotFound
	}
	items[idx].Quantity = quantity

	c.write(ctx, items)
	return items, nil
}

// Remove drops the line for productID.
func (c *GuestCart) Remove(ctx context.Context, productID string) ([]models.GuestCartItem, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	items := c.read(ctx)
	idx := indexOf(items, productID)
	if idx < 0 {
		return items, ErrItemNotFound
	}
	items = append(items[:idx], items[idx+1:]...)

	c.write(ctx, items)
	return items, nil
}

// Clear deletes the whole record.
func (c *GuestCart) Clear(ctx context.Context) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if err := c.store.storage.Remove(ctx, c.key); err != nil {
		log.Printf("WARNING: failed to clear guest cart %s: %v", c.key, err)
	}
}

func (c *GuestCart) read(ctx context.Context) []models.GuestCartItem {
	raw, err := c.store.storage.Read(ctx, c.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("WARNING: failed to read guest cart %s: %v", c.key, err)
		}
		return []models.GuestCartItem{}
	}

	var items []models.GuestCartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Printf("WARNING: guest cart %s is malformed, treating as empty: %v", c.key, err)
		return []models.GuestCartItem{}
	}
	if items == nil {
		items = []models.GuestCartItem{}
	}
	return items
}

func (c *GuestCart) write(ctx context.Context, items []models.GuestCartItem) {
	if len(items) == 0 {
		if err := c.store.storage.Remove(ctx, c.key); err != nil {
			log.Printf("WARNING: failed to remove empty guest cart %s: %v", c.key, err)
		}
		return
	}

	raw, err := json.Marshal(items)
	if err != nil {
		log.Printf("WARNING: failed to encode guest cart %s: %v", c.key, err)
		return
	}
	if err := c.store.storage.Write(ctx, c.key, raw); err != nil {
		log.Printf("WARNING: failed to write guest cart %s: %v", c.key, err)
	}
}

func indexOf(items []models.GuestCartItem, productID string) int {
	for i, item := range items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}
