package utils

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func init() {
	os.Setenv("JWT_SECRET", "test-secret-key-for-unit-tests")
}

const testUserID = "507f1f77bcf86cd799439011"

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(testUserID, time.Hour)
	if err != nil {
		t.Fatalf("expected no error generating token, got: %v", err)
	}

	if token == "" {
		t.Fatal("expected non-empty token string")
	}

	if dots := strings.Count(token, "."); dots != 2 {
		t.Errorf("expected JWT with 2 dots, got %d dots", dots)
	}
}

func TestValidateToken(t *testing.T) {
	token, err := GenerateToken(testUserID, time.Hour)
	if err != nil {
		t.Fatalf("expected no error generating token, got: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("expected no error validating token, got: %v", err)
	}

	if claims.UserID != testUserID {
		t.Errorf("expected user_id %s, got %s", testUserID, claims.UserID)
	}
	if claims.Issuer != "storefront-cart" {
		t.Errorf("expected issuer 'storefront-cart', got %s", claims.Issuer)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	expiredToken, err := GenerateToken(testUserID, -time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	_, err = ValidateToken(expiredToken)
	if err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
}

func TestTokenSignedWithOtherSecretRejected(t *testing.T) {
	claims := Claims{
		UserID: testUserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ValidateToken(forged); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}

func TestUserIDFromTokenIgnoresExpiry(t *testing.T) {
	expiredToken, err := GenerateToken(testUserID, -time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if got := UserIDFromToken(expiredToken); got != testUserID {
		t.Errorf("expected user_id %s from expired token, got %q", testUserID, got)
	}
}

func TestUserIDFromTokenGarbage(t *testing.T) {
	for _, token := range []string{"", "   ", "not-a-jwt", "a.b.c"} {
		if got := UserIDFromToken(token); got != "" {
			t.Errorf("expected empty user_id for %q, got %q", token, got)
		}
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc.def.ghi": "abc.def.ghi",
		"bearer abc":         "",
		"Bearer":             "",
		"":                   "",
		"Token abc":          "",
	}
	for header, want := range cases {
		if got := BearerToken(header); got != want {
			t.Errorf("BearerToken(%q): expected %q, got %q", header, want, got)
		}
	}
}
