package middleware

import (
	"net/http"
	"strings"

	"storefront-cart/models"
	"storefront-cart/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	GuestCookieName = "guest_id"
	GuestHeader     = "X-Guest-ID"
	UserHeader      = "X-User-ID"

	sessionKey        = "session"
	guestCookieMaxAge = 30 * 24 * 60 * 60
)

// SessionMiddleware builds the visitor's models.Session from the request. A guest id is
// minted and set as a cookie when the visitor has none. The bearer token is passed
// through untouched; the Cart API decides whether it is still valid.
func SessionMiddleware(secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		guestID := strings.TrimSpace(c.GetHeader(GuestHeader))
		if guestID == "" {
			if cookie, err := c.Cookie(GuestCookieName); err == nil {
				guestID = strings.TrimSpace(cookie)
			}
		}
		if guestID == "" {
			guestID = "guest_" + uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(GuestCookieName, guestID, guestCookieMaxAge, "/", "", secureCookie, true)
		}

		token := utils.BearerToken(c.GetHeader("Authorization"))
		userID := strings.TrimSpace(c.GetHeader(UserHeader))
		if userID == "" && token != "" {
			userID = utils.UserIDFromToken(token)
		}

		c.Set(sessionKey, models.Session{
			GuestID: guestID,
			UserID:  userID,
			Token:   token,
		})
		c.Next()
	}
}

// GetSession returns the session stored by SessionMiddleware, or a zero guest session.
func GetSession(c *gin.Context) models.Session {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(models.Session); ok {
			return sess
		}
	}
	return models.Session{}
}

// SessionOwner keys rate limiting by cart owner. Owners are client-chosen for guests,
// so pair it with the per-IP Middleware.
func SessionOwner(c *gin.Context) string {
	return utils.OwnerKey(GetSession(c))
}
