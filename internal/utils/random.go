package utils

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
)

func GenerateRandomToken(size int) (string, error) {
	buffer := make([]byte, size)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// NormalizeEmail only trims surrounding whitespace. Stored emails are
// compared case-sensitively.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
