package utils

import (
	"strings"

	"storefront-cart/models"
)

type Mode int

const (
	ModeGuest Mode = iota
	ModeAuthenticated
)

func (m Mode) String() string {
	if m == ModeAuthenticated {
		return "authenticated"
	}
	return "guest"
}

// Identity is the resolved actor behind a session.
type Identity struct {
	Mode   Mode
	UserID string
}

func (i Identity) Authenticated() bool {
	return i.Mode == ModeAuthenticated
}

// ResolveIdentity returns an authenticated identity only when the session carries both a
// user id and a credential; anything less is a guest.
func ResolveIdentity(s models.Session) Identity {
	userID := strings.TrimSpace(s.UserID)
	if userID == "" || strings.TrimSpace(s.Token) == "" {
		return Identity{Mode: ModeGuest}
	}
	return Identity{Mode: ModeAuthenticated, UserID: userID}
}

// OwnerKey names the cart a session reads and writes, for event routing and rate limiting.
func OwnerKey(s models.Session) string {
	if id := ResolveIdentity(s); id.Authenticated() {
		return "user:" + id.UserID
	}
	return GuestOwnerKey(s.GuestID)
}

// GuestOwnerKey names a guest cart regardless of sign-in state.
func GuestOwnerKey(guestID string) string {
	return "guest:" + strings.TrimSpace(guestID)
}
