package service

import (
	"time"

	"academy/internal/utils"
)

// JWTSessionIssuer turns an authenticated identity into a signed session token.
type JWTSessionIssuer struct {
	Manager *utils.JWTManager
}

func (j JWTSessionIssuer) IssueSession(identity Identity) (string, time.Duration, error) {
	if j.Manager == nil || len(j.Manager.Secret) == 0 {
		return "", 0, ErrInvalidToken
	}
	return j.Manager.IssueSessionToken(identity.ID.String(), identity.Email, identity.Name)
}
