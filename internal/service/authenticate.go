package service

import (
	"context"
	"strings"

	"academy/internal/entity"
	"academy/internal/utils"

	"github.com/sirupsen/logrus"
)

// Authenticate checks a password login. Unknown email and wrong password
// both return ErrInvalidCredentials; only the logs tell them apart.
func (s *AuthService) Authenticate(ctx context.Context, email string, password string, ipAddress string) (*Identity, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = s.passwordHash.Verify(s.dummyHash, password)
		s.logger.WithField("reason", "unknown_email").Info("login rejected")
		s.logSecurity(ctx, nil, ipAddress, entity.LoginFailed, map[string]any{"reason": "unknown_email"})
		return nil, ErrInvalidCredentials
	}

	fields := logrus.Fields{"user_id": user.ID.String()}
	if !user.EmailVerified {
		s.logger.WithFields(fields).WithField("reason", "email_not_verified").Info("login rejected")
		return nil, ErrEmailNotVerified
	}
	if !user.HasPassword() {
		s.logger.WithFields(fields).WithField("reason", "no_password").Info("login rejected")
		return nil, ErrNoPasswordSet
	}
	if !s.passwordHash.Verify(*user.PasswordHash, password) {
		s.logger.WithFields(fields).WithField("reason", "wrong_password").Info("login rejected")
		s.logSecurity(ctx, &user.ID, ipAddress, entity.LoginFailed, map[string]any{"reason": "wrong_password"})
		return nil, ErrInvalidCredentials
	}

	s.logSecurity(ctx, &user.ID, ipAddress, entity.LoginSuccess, nil)
	return &Identity{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.DisplayName(),
	}, nil
}

// ProvisionFederatedUser returns the account for a federated sign-in,
// creating it on first sight. New accounts are verified and have no
// password; existing accounts are returned untouched.
func (s *AuthService) ProvisionFederatedUser(ctx context.Context, profile FederatedProfile) (*entity.User, error) {
	email := utils.NormalizeEmail(profile.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if !profile.EmailVerified {
		return nil, ErrFederatedEmailNotVerified
	}

	firstName, lastName := splitProfileName(profile)
	now := s.now()
	candidate := &entity.User{
		Email:           email,
		FirstName:       firstName,
		LastName:        lastName,
		EmailVerified:   true,
		EmailVerifiedAt: &now,
	}

	user, created, err := s.users.FirstOrCreateByEmail(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.WithFields(logrus.Fields{
			"user_id":  user.ID.String(),
			"provider": profile.Provider,
		}).Info("federated account provisioned")
		s.logSecurity(ctx, &user.ID, "", entity.FederatedSignup, map[string]any{"provider": profile.Provider})
	}
	return user, nil
}

func splitProfileName(profile FederatedProfile) (string, string) {
	given := strings.TrimSpace(profile.GivenName)
	family := strings.TrimSpace(profile.FamilyName)
	if given != "" {
		return given, family
	}
	parts := strings.Fields(profile.Name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
