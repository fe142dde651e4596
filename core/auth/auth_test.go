package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPasswordHash("s3cret", hash) {
		t.Error("correct password rejected")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("test-secret", 42, "alice")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken("test-secret", token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	token, err := GenerateToken("secret-a", 1, "bob")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken("secret-b", token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenGarbageRejected(t *testing.T) {
	if _, err := ParseToken("secret", "not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := NewSession("id", "secret", "http://unused")

	if _, ok := s.AccessToken(); ok {
		t.Error("fresh session must not hold a token")
	}

	s.Connect("tok", "refresh", time.Hour)
	token, ok := s.AccessToken()
	if !ok || token != "tok" {
		t.Errorf("token = %q/%v, want tok/true", token, ok)
	}
	if !s.State().Connected {
		t.Error("expected connected")
	}

	s.Disconnect()
	if _, ok := s.AccessToken(); ok {
		t.Error("disconnected session must not hold a token")
	}
}

func TestSessionTokenExpiryMargin(t *testing.T) {
	s := NewSession("id", "secret", "http://unused")

	// Within the safety margin of expiry the token is already unusable.
	s.Connect("tok", "", time.Minute)
	if _, ok := s.AccessToken(); ok {
		t.Error("token inside the expiry margin must be rejected")
	}
}

func TestSessionObserversNotified(t *testing.T) {
	s := NewSession("id", "secret", "http://unused")

	var states []SessionState
	s.Observe(func(st SessionState) { states = append(states, st) })

	s.Connect("tok", "", time.Hour)
	s.Disconnect()

	if len(states) != 2 {
		t.Fatalf("notifications = %d, want 2", len(states))
	}
	if !states[0].Connected || states[1].Connected {
		t.Errorf("states = %+v, want connected then disconnected", states)
	}
}

func TestSessionRefreshWithoutRefreshTokenDisconnects(t *testing.T) {
	s := NewSession("id", "secret", "http://unused")
	s.Connect("tok", "", time.Hour)

	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh failure without a refresh token")
	}
	if s.State().Connected {
		t.Error("failed refresh must disconnect")
	}
}
