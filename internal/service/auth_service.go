package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"academy/internal/entity"
	"academy/internal/repository"
	"academy/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type codePurpose string

const (
	purposeVerification  codePurpose = "email_verification"
	purposePasswordReset codePurpose = "password_reset"
)

// notifyPolicy decides whether a failed delivery fails the request.
type notifyPolicy int

const (
	notifyBestEffort notifyPolicy = iota
	notifyRequired
)

var errMailerNotConfigured = errors.New("mailer not configured")

type AuthService struct {
	users         repository.UserRepository
	verifications repository.VerificationCodeRepository
	resets        repository.PasswordResetCodeRepository
	securityLogs  repository.SecurityLogRepository

	mailer       CodeMailer
	passwordHash PasswordHasher
	resetLimiter RateLimiter
	clock        Clock
	logger       logrus.FieldLogger
	config       AuthConfig

	// dummyHash is compared against on unknown emails so that path costs
	// the same as a real password check.
	dummyHash string
}

func NewAuthService(
	users repository.UserRepository,
	verifications repository.VerificationCodeRepository,
	resets repository.PasswordResetCodeRepository,
	securityLogs repository.SecurityLogRepository,
	mailer CodeMailer,
	passwordHash PasswordHasher,
	resetLimiter RateLimiter,
	clock Clock,
	logger logrus.FieldLogger,
	config AuthConfig,
) *AuthService {
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	var dummyHash string
	if passwordHash != nil {
		seed, err := utils.GenerateRandomToken(16)
		if err == nil {
			dummyHash, err = passwordHash.Hash(seed)
		}
		if err != nil {
			logger.WithError(err).Warn("dummy password hash unavailable")
		}
	}
	return &AuthService{
		dummyHash:     dummyHash,
		users:         users,
		verifications: verifications,
		resets:        resets,
		securityLogs:  securityLogs,
		mailer:        mailer,
		passwordHash:  passwordHash,
		resetLimiter:  resetLimiter,
		clock:         clock,
		logger:        logger,
		config:        config,
	}
}

func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// deliverCode sends code to the user. Under notifyBestEffort a failure is
// logged and swallowed; under notifyRequired it surfaces as
// ErrNotificationFailed. The stored code stays valid either way.
func (s *AuthService) deliverCode(
	ctx context.Context,
	user *entity.User,
	purpose codePurpose,
	code string,
	validFor time.Duration,
	policy notifyPolicy,
) error {
	err := errMailerNotConfigured
	if s.mailer != nil {
		switch purpose {
		case purposeVerification:
			err = s.mailer.SendVerificationCode(ctx, user, code, validFor)
		case purposePasswordReset:
			err = s.mailer.SendPasswordResetCode(ctx, user, code, validFor)
		}
	}
	if err == nil {
		return nil
	}

	entry := s.logger.WithError(err).WithFields(logrus.Fields{
		"user_id": user.ID.String(),
		"purpose": string(purpose),
	})
	if policy == notifyBestEffort {
		entry.Warn("code notification failed")
		return nil
	}
	entry.Error("code notification failed")
	return errors.Join(ErrNotificationFailed, err)
}

func (s *AuthService) logSecurity(
	ctx context.Context,
	userID *uuid.UUID,
	ipAddress string,
	action entity.SecurityAction,
	metadata map[string]any,
) {
	if s.securityLogs == nil {
		return
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			s.logger.WithError(err).Warn("security log metadata")
			return
		}
		payload = datatypes.JSON(bytes)
	}

	log := &entity.SecurityLog{
		UserID:   userID,
		Action:   action,
		Metadata: payload,
	}
	if ip := strings.TrimSpace(ipAddress); ip != "" {
		log.IPAddress = &ip
	}
	if err := s.securityLogs.Log(ctx, log); err != nil {
		s.logger.WithError(err).WithField("action", string(action)).Warn("security log write failed")
	}
}

func (s *AuthService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func (s *AuthService) verificationCodeTTL() time.Duration {
	if s.config.VerificationCodeTTL > 0 {
		return s.config.VerificationCodeTTL
	}
	return 15 * time.Minute
}

func (s *AuthService) resetCodeTTL() time.Duration {
	if s.config.ResetCodeTTL > 0 {
		return s.config.ResetCodeTTL
	}
	return 15 * time.Minute
}

func (s *AuthService) minPasswordLength() int {
	if s.config.MinPasswordLength > 0 {
		return s.config.MinPasswordLength
	}
	return 6
}
