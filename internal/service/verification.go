package service

import (
	"context"
	"errors"
	"strings"

	"academy/internal/entity"
	"academy/internal/repository"
	"academy/internal/utils"

	"github.com/go-playground/validator/v10"
)

var fieldValidator = validator.New()

// Register creates an unverified account with a fresh verification code.
// A failed verification email does not fail the registration.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*entity.User, error) {
	email := utils.NormalizeEmail(input.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(input.Password) < s.minPasswordLength() {
		return nil, invalidField("password", "is too short")
	}
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if firstName == "" {
		return nil, invalidField("firstName", "is required")
	}
	if lastName == "" {
		return nil, invalidField("lastName", "is required")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	code, err := utils.GenerateCode()
	if err != nil {
		return nil, err
	}

	now := s.now()
	ttl := s.verificationCodeTTL()
	user := &entity.User{
		Email:         email,
		PasswordHash:  &hash,
		FirstName:     firstName,
		LastName:      lastName,
		Phone:         input.Phone,
		Address:       input.Address,
		LicenseNumber: input.LicenseNumber,
		VerificationCodes: []entity.VerificationCode{{
			Code:      code,
			ExpiresAt: utils.ExpirationTime(now, ttl),
		}},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}

	_ = s.deliverCode(ctx, user, purposeVerification, code, ttl, notifyBestEffort)
	s.logSecurity(ctx, &user.ID, "", entity.Registered, nil)
	return user, nil
}

// ConfirmVerification consumes a verification code and marks the user's
// email verified. Code consumption and the user update commit together.
func (s *AuthService) ConfirmVerification(ctx context.Context, email string, code string) (*entity.User, error) {
	email = utils.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if !utils.IsCodeFormat(code) {
		return nil, invalidField("code", "must be 6 digits")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.EmailVerified {
		return nil, ErrEmailAlreadyVerified
	}

	now := s.now()
	record, err := s.verifications.FindLatestValid(ctx, user.ID, code, now)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrInvalidOrExpiredCode
	}

	if err := s.verifications.Consume(ctx, record.ID, user.ID, now); err != nil {
		switch {
		case errors.Is(err, repository.ErrCodeUnavailable):
			return nil, ErrInvalidOrExpiredCode
		case errors.Is(err, repository.ErrAlreadyVerified):
			return nil, ErrEmailAlreadyVerified
		}
		return nil, err
	}

	user.EmailVerified = true
	user.EmailVerifiedAt = &now
	s.logSecurity(ctx, &user.ID, "", entity.EmailVerified, nil)
	return user, nil
}

// ResendVerification issues another verification code. Unlike Register, a
// failed email fails the request; the new code stays usable.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.EmailVerified {
		return ErrEmailAlreadyVerified
	}

	code, err := utils.GenerateCode()
	if err != nil {
		return err
	}
	ttl := s.verificationCodeTTL()
	record := &entity.VerificationCode{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: utils.ExpirationTime(s.now(), ttl),
	}
	if err := s.verifications.Create(ctx, record); err != nil {
		return err
	}

	if err := s.deliverCode(ctx, user, purposeVerification, code, ttl, notifyRequired); err != nil {
		return err
	}
	s.logSecurity(ctx, &user.ID, "", entity.VerificationResent, nil)
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return invalidField("email", "is required")
	}
	if err := fieldValidator.Var(email, "email"); err != nil {
		return invalidField("email", "must be a valid email address")
	}
	return nil
}
