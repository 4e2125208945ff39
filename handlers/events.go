package handlers

import (
	"net/http"
	"time"

	"storefront-cart/events"
	"storefront-cart/middleware"
	"storefront-cart/utils"

	"github.com/gin-gonic/gin"
)

const defaultKeepAlive = 25 * time.Second

// EventsHandler streams the cart-updated signal of the caller's cart as server-sent
// events. Events carry no payload; the page re-queries the cart on each one.
type EventsHandler struct {
	Broadcaster *events.Broadcaster
	KeepAlive   time.Duration
}

func (h *EventsHandler) Stream(c *gin.Context) {
	owner := utils.OwnerKey(middleware.GetSession(c))

	updates := make(chan struct{}, 1)
	unsubscribe, err := h.Broadcaster.Subscribe(owner, func() {
		// coalesce bursts; one pending signal is enough to trigger a re-query
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to subscribe to cart updates"})
		return
	}
	defer unsubscribe()

	keepAlive := h.KeepAlive
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("ready", "")
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			c.SSEvent(events.CartUpdated, "")
			c.Writer.Flush()
		case <-ticker.C:
			c.SSEvent("ping", "")
			c.Writer.Flush()
		}
	}
}
