package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront-cart/middleware"
)

// readEvent returns the next "event:" name on the stream.
func readEvent(t *testing.T, lines chan string) string {
	t.Helper()
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatal("stream closed")
			}
			if strings.HasPrefix(line, "event:") {
				return strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func openStream(t *testing.T, srv *httptest.Server, guestID string) chan string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, _ := http.NewRequestWithContext(ctx, "GET", srv.URL+"/api/cart/events", nil)
	req.Header.Set(middleware.GuestHeader, guestID)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected event stream, got %q", ct)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func TestEventsStreamSignalsOwnCart(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	// registered before the stream so it runs after the stream is cancelled
	t.Cleanup(srv.Close)

	lines := openStream(t, srv, testGuestID)
	if ev := readEvent(t, lines); ev != "ready" {
		t.Fatalf("expected ready event, got %s", ev)
	}

	// another visitor's cart does not reach this stream
	other := jsonRequest("POST", "/api/cart", map[string]interface{}{"productId": productB, "quantity": 1})
	other.Header.Set(middleware.GuestHeader, "guest_someone_else")
	env.serve(other)

	w := env.serve(guestRequest("POST", "/api/cart", map[string]interface{}{"productId": productA, "quantity": 1}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	if ev := readEvent(t, lines); ev != "cart-updated" {
		t.Errorf("expected cart-updated, got %s", ev)
	}
}

func TestEventsStreamSeesMerge(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	// registered before the stream so it runs after the stream is cancelled
	t.Cleanup(srv.Close)

	env.serve(guestRequest("POST", "/api/cart", map[string]interface{}{"productId": productA, "quantity": 1}))

	lines := openStream(t, srv, testGuestID)
	readEvent(t, lines)

	w := env.serve(authRequest("POST", "/api/cart/merge", nil, newToken(testUserID)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	if ev := readEvent(t, lines); ev != "cart-updated" {
		t.Errorf("expected cart-updated after merge, got %s", ev)
	}
}
