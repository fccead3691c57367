package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

const (
	CodeLength = 6

	minCode = 100000
	maxCode = 999999
)

// GenerateCode returns a uniformly random six digit code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+minCode, 10), nil
}

func ExpirationTime(now time.Time, ttl time.Duration) time.Time {
	return now.Add(ttl)
}

// CodeExpired treats an exact tie with expiresAt as expired.
func CodeExpired(expiresAt time.Time, now time.Time) bool {
	return !now.Before(expiresAt)
}

// IsCodeFormat reports whether value looks like a code this package issues.
func IsCodeFormat(value string) bool {
	if len(value) != CodeLength {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}
