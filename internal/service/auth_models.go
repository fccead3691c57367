package service

import "github.com/google/uuid"

type RegisterInput struct {
	Email         string
	Password      string
	FirstName     string
	LastName      string
	Phone         *string
	Address       *string
	LicenseNumber *string
}

type ConfirmResetInput struct {
	Email       string
	Code        string
	NewPassword string
}

// Identity is what a successful password check hands to the session layer.
type Identity struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// FederatedProfile is the subset of an identity provider profile used to
// provision a local account.
type FederatedProfile struct {
	Provider      string
	Email         string
	EmailVerified bool
	Name          string
	GivenName     string
	FamilyName    string
}
