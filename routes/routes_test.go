package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"storefront-cart/cartstore"
	"storefront-cart/cartsync"
	"storefront-cart/events"
	"storefront-cart/gateway"
	"storefront-cart/middleware"
	"storefront-cart/storage"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret-for-routes")
}

func setupRouter(t *testing.T, limiter *middleware.RateLimiter) *gin.Engine {
	return setupRouterWithDeps(t, Deps{RateLimiter: limiter})
}

func setupRouterWithDeps(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()

	broadcaster := events.NewBroadcaster()
	t.Cleanup(func() { broadcaster.Close() })

	// nothing listens on port 1; remote calls fail fast
	client := gateway.New(gateway.Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	syncer := cartsync.New(cartstore.New(storage.NewMemoryStorage()), client, broadcaster)

	r := gin.New()
	deps.Sync = syncer
	deps.Broadcaster = broadcaster
	SetupRoutes(r, deps)
	return r
}

func TestHealthCheck(t *testing.T) {
	r := setupRouter(t, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGuestCartRoutes(t *testing.T) {
	r := setupRouter(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/cart", strings.NewReader(`{"productId":"65a1b2c3d4e5f6a7b8c9d0e1","quantity":2}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.GuestHeader, "guest_routes")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/cart/count", nil)
	req.Header.Set(middleware.GuestHeader, "guest_routes")
	r.ServeHTTP(w, req)
	if w.Body.String() != `{"count":2}` {
		t.Errorf("expected count 2, got %s", w.Body.String())
	}
}

func TestMergeRouteRequiresSignIn(t *testing.T) {
	r := setupRouter(t, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/api/cart/merge", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSignedInCartUnavailable(t *testing.T) {
	r := setupRouter(t, nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	req.Header.Set(middleware.UserHeader, "507f1f77bcf86cd799439011")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when the cart api is unreachable, got %d: %s", w.Code, w.Body.String())
	}

	// the badge degrades to zero instead of failing
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/cart/count", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	req.Header.Set(middleware.UserHeader, "507f1f77bcf86cd799439011")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != `{"count":0}` {
		t.Errorf("expected count 0, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMutationsAreRateLimited(t *testing.T) {
	r := setupRouter(t, middleware.NewRateLimiter(1, time.Minute))

	send := func(method, path string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set(middleware.GuestHeader, "guest_limited")
		r.ServeHTTP(w, req)
		return w.Code
	}

	send("DELETE", "/api/cart/local_p1")
	if code := send("DELETE", "/api/cart/local_p1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	// reads are not throttled
	if code := send("GET", "/api/cart/count"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestMutationsAreRateLimitedPerIP(t *testing.T) {
	r := setupRouterWithDeps(t, Deps{
		RateLimiter:   middleware.NewRateLimiter(10, time.Minute),
		IPRateLimiter: middleware.NewRateLimiter(2, time.Minute),
	})

	send := func(guestID string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("DELETE", "/api/cart/local_p1", nil)
		req.Header.Set(middleware.GuestHeader, guestID)
		r.ServeHTTP(w, req)
		return w.Code
	}

	// a fresh guest id per request does not reset the client's budget
	for _, guestID := range []string{"guest_1", "guest_2"} {
		if code := send(guestID); code == http.StatusTooManyRequests {
			t.Fatalf("expected request for %s to pass, got 429", guestID)
		}
	}
	if code := send("guest_3"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
}
