package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SecurityAction string

const (
	Registered             SecurityAction = "register"
	EmailVerified          SecurityAction = "email_verified"
	VerificationResent     SecurityAction = "verification_resent"
	PasswordResetRequested SecurityAction = "password_reset_requested"
	PasswordReset          SecurityAction = "password_reset"
	LoginSuccess           SecurityAction = "login_success"
	LoginFailed            SecurityAction = "login_failed"
	FederatedSignup        SecurityAction = "federated_signup"
)

type SecurityLog struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	UserID *uuid.UUID `gorm:"type:uuid;index"`
	User   *User      `gorm:"constraint:OnDelete:SET NULL"`

	IPAddress *string        `gorm:"type:varchar(45)"`
	Action    SecurityAction `gorm:"type:varchar(40);not null;index"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}
