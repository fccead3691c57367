package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput              = errors.New("invalid input")
	ErrUserNotFound              = errors.New("user not found")
	ErrEmailAlreadyRegistered    = errors.New("user already exists")
	ErrEmailAlreadyVerified      = errors.New("email already verified")
	ErrInvalidOrExpiredCode      = errors.New("invalid or expired code")
	ErrRateLimited               = errors.New("too many requests, please try again later")
	ErrNotificationFailed        = errors.New("failed to send email, please try again")
	ErrInvalidCredentials        = errors.New("invalid credentials")
	ErrEmailNotVerified          = errors.New("email not verified")
	ErrNoPasswordSet             = errors.New("account has no password, sign in with your identity provider")
	ErrFederatedEmailNotVerified = errors.New("identity provider did not verify the email address")
	ErrInvalidOAuthCode          = errors.New("invalid authorization code")
	ErrInvalidToken              = errors.New("invalid token")
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidField(field string, message string) error {
	return &ValidationError{Field: field, Message: message}
}
