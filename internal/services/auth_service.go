package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/core"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/ledger"
)

const minPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// AuthService issues JWTs on login and revokes them through the token
// blacklist on logout. Blacklist rows expire with the token itself.
type AuthService struct {
	users     ledger.UserStore
	blacklist ledger.TokenBlacklist
	secret    []byte
	tokenTTL  time.Duration
}

func NewAuthService(users ledger.UserStore, blacklist ledger.TokenBlacklist, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		blacklist: blacklist,
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
	}
}

// Register creates a user with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, email, password, displayName string) (core.User, error) {
	if len(password) < minPasswordLength {
		return core.User{}, core.NewValidationError("password",
			fmt.Errorf("must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := core.User{
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(displayName),
	}
	id, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return core.User{}, err
	}
	user.ID = id

	slog.InfoContext(ctx, "User registered", "user_id", id)
	return user, nil
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		ID:        newJTI(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID, "token_jti", claims.ID)
	return token, nil
}

// Logout revokes the token by recording its jti until the token expires.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parseClaims(token)
	if err != nil {
		return err
	}

	userID, _ := strconv.ParseInt(claims.Subject, 10, 64)
	entry := core.BlacklistedToken{
		JTI:       claims.ID,
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.blacklist.BlacklistToken(ctx, entry); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	slog.InfoContext(ctx, "User logged out", "user_id", userID, "token_jti", claims.ID)
	return nil
}

// Authenticate verifies a token and returns the owning user ID. Revoked
// tokens fail with core.ErrTokenBlacklisted.
func (s *AuthService) Authenticate(ctx context.Context, token string) (int64, error) {
	claims, err := s.parseClaims(token)
	if err != nil {
		return 0, err
	}

	revoked, err := s.blacklist.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return 0, fmt.Errorf("check blacklist: %w", err)
	}
	if revoked {
		return 0, core.ErrTokenBlacklisted
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return userID, nil
}

// PurgeExpiredTokens removes blacklist rows whose tokens have expired anyway.
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.blacklist.PurgeExpiredTokens(ctx, time.Now())
}

func (s *AuthService) parseClaims(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing jti or exp", ErrInvalidToken)
	}
	return claims, nil
}

func newJTI() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
