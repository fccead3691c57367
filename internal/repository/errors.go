package repository

import "errors"

var (
	ErrDuplicate = errors.New("duplicate record")
	// ErrCodeUnavailable is returned when a conditional consume touched no
	// row: the code was used or expired by the time the write landed.
	ErrCodeUnavailable = errors.New("code already used or expired")
	ErrAlreadyVerified = errors.New("email already verified")
)
