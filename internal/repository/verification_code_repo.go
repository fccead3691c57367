package repository

import (
	"context"
	"errors"
	"time"

	"academy/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VerificationCodeRepository interface {
	Create(ctx context.Context, code *entity.VerificationCode) error
	// FindLatestValid returns the newest unused code of the user matching
	// value that is still unexpired at now, or nil.
	FindLatestValid(ctx context.Context, userID uuid.UUID, value string, now time.Time) (*entity.VerificationCode, error)
	// Consume marks the code used and the user verified in one transaction.
	Consume(ctx context.Context, codeID uuid.UUID, userID uuid.UUID, now time.Time) error
}

type verificationCodeRepository struct {
	db *gorm.DB
}

func NewVerificationCodeRepository(db *gorm.DB) VerificationCodeRepository {
	return &verificationCodeRepository{db: db}
}

func (r *verificationCodeRepository) Create(ctx context.Context, code *entity.VerificationCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *verificationCodeRepository) FindLatestValid(
	ctx context.Context,
	userID uuid.UUID,
	value string,
	now time.Time,
) (*entity.VerificationCode, error) {

	var code entity.VerificationCode
	err := r.db.WithContext(ctx).
		Where(`
			user_id = ? AND
			code = ? AND
			used = ? AND
			expires_at > ?
		`, userID, value, false, now).
		Order("created_at DESC").
		First(&code).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &code, err
}

func (r *verificationCodeRepository) Consume(ctx context.Context, codeID uuid.UUID, userID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.VerificationCode{}).
			Where("id = ? AND used = ? AND expires_at > ?", codeID, false, now).
			Update("used", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCodeUnavailable
		}

		result = tx.Model(&entity.User{}).
			Where("id = ? AND email_verified = ?", userID, false).
			Updates(map[string]any{
				"email_verified":    true,
				"email_verified_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyVerified
		}
		return nil
	})
}
