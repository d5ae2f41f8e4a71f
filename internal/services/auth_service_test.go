package services

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-client/internal/models"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

func newTestAuthService(ttl time.Duration) *authServiceImpl {
	return NewAuthService(zerolog.Nop(), nil, "todo-api", []byte(testSigningKey), ttl).(*authServiceImpl)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestAuthService(time.Hour)
	user := &models.User{ID: "0190a7c2-0000-7000-8000-000000000001", Role: models.RoleAdmin}

	token, expiresAt, err := s.generateAccessToken(user)
	if err != nil {
		t.Fatalf("generateAccessToken() error = %v", err)
	}
	if until := time.Until(expiresAt); until < 59*time.Minute || until > time.Hour {
		t.Errorf("token expires in %v, want about 1h", until)
	}

	claims, err := s.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}
	if claims.Subject != user.ID {
		t.Errorf("Subject = %q, want %q", claims.Subject, user.ID)
	}
	if claims.Role != models.RoleAdmin {
		t.Errorf("Role = %q, want %q", claims.Role, models.RoleAdmin)
	}
	if claims.ID == "" {
		t.Error("token has no jti")
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	t.Parallel()

	s := newTestAuthService(time.Hour)
	user := &models.User{ID: "user-1", Role: models.RoleUser}

	expired, _, err := newTestAuthService(-time.Minute).generateAccessToken(user)
	if err != nil {
		t.Fatalf("generateAccessToken() error = %v", err)
	}

	otherKey := NewAuthService(zerolog.Nop(), nil, "todo-api", []byte("another-signing-key-of-enough-len"), time.Hour).(*authServiceImpl)
	forged, _, err := otherKey.generateAccessToken(user)
	if err != nil {
		t.Fatalf("generateAccessToken() error = %v", err)
	}

	otherIssuer := NewAuthService(zerolog.Nop(), nil, "someone-else", []byte(testSigningKey), time.Hour).(*authServiceImpl)
	foreign, _, err := otherIssuer.generateAccessToken(user)
	if err != nil {
		t.Fatalf("generateAccessToken() error = %v", err)
	}

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "todo-api",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSigningKey))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:  "todo-api",
			Subject: "user-1",
		},
	}).SignedString([]byte(testSigningKey))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	tests := map[string]string{
		"expired":      expired,
		"wrong key":    forged,
		"wrong issuer": foreign,
		"no subject":   noSubject,
		"no expiry":    noExpiry,
		"garbage":      "not.a.token",
	}
	for name, token := range tests {
		if _, err := s.ParseAccessToken(token); err == nil {
			t.Errorf("%s: ParseAccessToken() error = nil", name)
		}
	}

	_, err = s.ParseAccessToken(expired)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expired token error = %v, want jwt.ErrTokenExpired", err)
	}
}
