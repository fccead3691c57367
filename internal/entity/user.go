package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash *string   `gorm:"type:text"`

	FirstName     string  `gorm:"type:varchar(100);not null"`
	LastName      string  `gorm:"type:varchar(100);not null"`
	Phone         *string `gorm:"type:varchar(40)"`
	Address       *string `gorm:"type:text"`
	LicenseNumber *string `gorm:"type:varchar(100)"`

	EmailVerified   bool `gorm:"not null;default:false"`
	EmailVerifiedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	VerificationCodes  []VerificationCode  `gorm:"constraint:OnDelete:CASCADE"`
	PasswordResetCodes []PasswordResetCode `gorm:"constraint:OnDelete:CASCADE"`
}

// HasPassword reports whether the account can sign in with a local password.
// Accounts provisioned through a federated provider have no hash.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
