package service

import (
	"context"
	"errors"

	"academy/internal/entity"
	"academy/internal/repository"
	"academy/internal/utils"
)

// RequestPasswordReset issues a reset code for email. The outcome is the
// same whether or not an account exists, apart from rate limiting and
// delivery failures.
func (s *AuthService) RequestPasswordReset(ctx context.Context, clientID string, email string) error {
	return s.issueResetCode(ctx, clientID, email, "request")
}

// ResendPasswordReset replaces any active reset code with a new one.
func (s *AuthService) ResendPasswordReset(ctx context.Context, clientID string, email string) error {
	return s.issueResetCode(ctx, clientID, email, "resend")
}

func (s *AuthService) issueResetCode(ctx context.Context, clientID string, email string, source string) error {
	if s.resetLimiter != nil {
		allowed, err := s.resetLimiter.Allow(ctx, clientID)
		if err != nil {
			return err
		}
		if !allowed {
			s.logger.WithField("client_id", clientID).Info("password reset rate limited")
			return ErrRateLimited
		}
	}

	email = utils.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		s.logger.WithField("source", source).Debug("password reset for unknown email")
		return nil
	}

	code, err := utils.GenerateCode()
	if err != nil {
		return err
	}
	ttl := s.resetCodeTTL()
	record := &entity.PasswordResetCode{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: utils.ExpirationTime(s.now(), ttl),
	}
	if err := s.resets.Issue(ctx, record); err != nil {
		return err
	}

	if err := s.deliverCode(ctx, user, purposePasswordReset, code, ttl, notifyRequired); err != nil {
		return err
	}
	s.logSecurity(ctx, &user.ID, clientID, entity.PasswordResetRequested, map[string]any{"source": source})
	return nil
}

// ConfirmPasswordReset consumes a reset code and replaces the password hash
// in one transaction.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, input ConfirmResetInput) error {
	if len(input.NewPassword) < s.minPasswordLength() {
		return invalidField("newPassword", "is too short")
	}
	email := utils.NormalizeEmail(input.Email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if !utils.IsCodeFormat(input.Code) {
		return invalidField("code", "must be 6 digits")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	now := s.now()
	record, err := s.resets.FindLatestValid(ctx, user.ID, input.Code, now)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrInvalidOrExpiredCode
	}

	hash, err := s.passwordHash.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	if err := s.resets.Consume(ctx, record.ID, user.ID, hash, now); err != nil {
		if errors.Is(err, repository.ErrCodeUnavailable) {
			return ErrInvalidOrExpiredCode
		}
		return err
	}

	s.logSecurity(ctx, &user.ID, "", entity.PasswordReset, nil)
	return nil
}
