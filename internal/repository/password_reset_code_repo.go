package repository

import (
	"context"
	"errors"
	"time"

	"academy/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PasswordResetCodeRepository interface {
	// Issue marks every unused code of the user as used and stores code,
	// leaving at most one active reset code per user.
	Issue(ctx context.Context, code *entity.PasswordResetCode) error
	FindLatestValid(ctx context.Context, userID uuid.UUID, value string, now time.Time) (*entity.PasswordResetCode, error)
	// Consume marks the code used and overwrites the password hash in one transaction.
	Consume(ctx context.Context, codeID uuid.UUID, userID uuid.UUID, passwordHash string, now time.Time) error
}

type passwordResetCodeRepository struct {
	db *gorm.DB
}

func NewPasswordResetCodeRepository(db *gorm.DB) PasswordResetCodeRepository {
	return &passwordResetCodeRepository{db: db}
}

func (r *passwordResetCodeRepository) Issue(ctx context.Context, code *entity.PasswordResetCode) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.PasswordResetCode{}).
			Where("user_id = ? AND used = ?", code.UserID, false).
			Update("used", true).Error; err != nil {
			return err
		}
		return tx.Create(code).Error
	})
}

func (r *passwordResetCodeRepository) FindLatestValid(
	ctx context.Context,
	userID uuid.UUID,
	value string,
	now time.Time,
) (*entity.PasswordResetCode, error) {

	var code entity.PasswordResetCode
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

func (r *passwordResetCodeRepository) Consume(
	ctx context.Context,
	codeID uuid.UUID,
	userID uuid.UUID,
	passwordHash string,
	now time.Time,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.PasswordResetCode{}).
			Where("id = ? AND used = ? AND expires_at > ?", codeID, false, now).
			Update("used", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCodeUnavailable
		}

		result = tx.Model(&entity.User{}).
			Where("id = ?", userID).
			Update("password_hash", passwordHash)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
