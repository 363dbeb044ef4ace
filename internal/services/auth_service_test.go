package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/core"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/ledger/memory"
)

func newAuthService(t *testing.T) (*AuthService, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewAuthService(store, store, "test-secret", time.Hour), store
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "mario@example.com", "correct horse", "Mario")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected a user ID")
	}
	if user.PasswordHash == "correct horse" {
		t.Fatal("password must not be stored in clear")
	}

	token, err := svc.Login(ctx, "mario@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	userID, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if userID != user.ID {
		t.Errorf("userID = %d, want %d", userID, user.ID)
	}
}

func TestRegisterShortPassword(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(context.Background(), "mario@example.com", "short", "Mario")
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "mario@example.com", "correct horse", ""); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Login(ctx, "mario@example.com", "battery staple")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "mario@example.com", "correct horse", ""); err != nil {
		t.Fatal(err)
	}
	token, err := svc.Login(ctx, "mario@example.com", "correct horse")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_, err = svc.Authenticate(ctx, token)
	if !errors.Is(err, core.ErrTokenBlacklisted) {
		t.Fatalf("expected ErrTokenBlacklisted, got %v", err)
	}
}

func TestAuthenticateGarbageToken(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Authenticate(context.Background(), "not.a.token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthenticateForeignSignature(t *testing.T) {
	svc, _ := newAuthService(t)
	other := NewAuthService(memory.New(), memory.New(), "other-secret", time.Hour)
	ctx := context.Background()

	if _, err := other.Register(ctx, "mario@example.com", "correct horse", ""); err != nil {
		t.Fatal(err)
	}
	token, err := other.Login(ctx, "mario@example.com", "correct horse")
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Authenticate(ctx, token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestPurgeExpiredTokens(t *testing.T) {
	svc, store := newAuthService(t)
	ctx := context.Background()

	entries := []core.BlacklistedToken{
		{JTI: "expired", UserID: 1, ExpiresAt: time.Now().Add(-time.Hour)},
		{JTI: "live", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)},
	}
	for _, e := range entries {
		if err := store.BlacklistToken(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	purged, err := svc.PurgeExpiredTokens(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	revoked, err := store.IsTokenBlacklisted(ctx, "live")
	if err != nil {
		t.Fatal(err)
	}
	if !revoked {
		t.Error("live entry must survive the purge")
	}
}
