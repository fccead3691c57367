package service

import (
	"context"
	"time"

	"academy/internal/entity"

	"golang.org/x/crypto/bcrypt"
)

type AuthConfig struct {
	VerificationCodeTTL time.Duration
	ResetCodeTTL        time.Duration
	MinPasswordLength   int
}

// CodeMailer delivers freshly issued one-time codes.
type CodeMailer interface {
	SendVerificationCode(ctx context.Context, user *entity.User, code string, validFor time.Duration) error
	SendPasswordResetCode(ctx context.Context, user *entity.User, code string, validFor time.Duration) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

// RateLimiter gates requests per client identifier.
type RateLimiter interface {
	Allow(ctx context.Context, clientID string) (bool, error)
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
