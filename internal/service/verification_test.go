package service

import (
	"context"
	"testing"
	"time"

	"academy/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	t.Run("creates unverified user with code and notifies", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		user, err := h.svc.Register(context.Background(), RegisterInput{
			Email:     "a@x.com",
			Password:  "secret1",
			FirstName: "A",
			LastName:  "B",
		})
		require.NoError(t, err)
		assert.False(t, user.EmailVerified)
		assert.Nil(t, user.EmailVerifiedAt)
		require.NotNil(t, user.PasswordHash)
		assert.Equal(t, "hashed:secret1", *user.PasswordHash)

		codes := h.store.verificationCodes(user.ID)
		require.Len(t, codes, 1)
		assert.Equal(t, h.clock.Now().Add(15*time.Minute), codes[0].ExpiresAt)
		assert.False(t, codes[0].Used)

		sent := h.mailer.last()
		assert.Equal(t, purposeVerification, sent.Purpose)
		assert.Equal(t, "a@x.com", sent.Email)
		assert.Equal(t, codes[0].Code, sent.Code)
		assert.Equal(t, 15*time.Minute, sent.ValidFor)
		assert.Contains(t, h.store.securityActions(), entity.Registered)
	})

	t.Run("keeps optional profile fields", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		phone := "555-0100"
		license := "RE-1234"

		user, err := h.svc.Register(context.Background(), RegisterInput{
			Email:         "  a@x.com ",
			Password:      "secret1",
			FirstName:     "A",
			LastName:      "B",
			Phone:         &phone,
			LicenseNumber: &license,
		})
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", user.Email)
		assert.Equal(t, &phone, user.Phone)
		assert.Equal(t, &license, user.LicenseNumber)
		assert.Nil(t, user.Address)
	})

	t.Run("succeeds when notification fails", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.mailer.fail = errMailDown

		user, err := h.svc.Register(context.Background(), RegisterInput{
			Email: "a@x.com", Password: "secret1", FirstName: "A", LastName: "B",
		})
		require.NoError(t, err)
		assert.Len(t, h.store.verificationCodes(user.ID), 1)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.register(t, "a@x.com")

		_, err := h.svc.Register(context.Background(), RegisterInput{
			Email: "a@x.com", Password: "secret1", FirstName: "A", LastName: "B",
		})
		assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
	})

	t.Run("email comparison is case sensitive", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.register(t, "a@x.com")

		_, err := h.svc.Register(context.Background(), RegisterInput{
			Email: "A@x.com", Password: "secret1", FirstName: "A", LastName: "B",
		})
		assert.NoError(t, err)
	})

	tests := []struct {
		name  string
		input RegisterInput
		field string
	}{
		{"missing email", RegisterInput{Password: "secret1", FirstName: "A", LastName: "B"}, "email"},
		{"malformed email", RegisterInput{Email: "not-an-email", Password: "secret1", FirstName: "A", LastName: "B"}, "email"},
		{"short password", RegisterInput{Email: "a@x.com", Password: "12345", FirstName: "A", LastName: "B"}, "password"},
		{"missing first name", RegisterInput{Email: "a@x.com", Password: "secret1", FirstName: " ", LastName: "B"}, "firstName"},
		{"missing last name", RegisterInput{Email: "a@x.com", Password: "secret1", FirstName: "A"}, "lastName"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)

			_, err := h.svc.Register(context.Background(), tt.input)
			require.ErrorIs(t, err, ErrInvalidInput)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, h.store.writeCount())
			assert.Zero(t, h.mailer.count())
		})
	}
}

func TestAuthService_ConfirmVerification(t *testing.T) {
	t.Parallel()

	t.Run("verifies with issued code", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		user := h.register(t, "a@x.com")
		code := h.mailer.last().Code

		verified, err := h.svc.ConfirmVerification(context.Background(), "a@x.com", code)
		require.NoError(t, err)
		assert.True(t, verified.EmailVerified)
		require.NotNil(t, verified.EmailVerifiedAt)
		assert.Equal(t, h.clock.Now(), *verified.EmailVerifiedAt)

		stored := h.store.userByEmail("a@x.com")
		assert.True(t, stored.EmailVerified)
		codes := h.store.verificationCodes(user.ID)
		require.Len(t, codes, 1)
		assert.True(t, codes[0].Used)
		assert.Contains(t, h.store.securityActions(), entity.EmailVerified)
	})

	t.Run("unknown email is not found and mutates nothing", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.register(t, "a@x.com")
		writes := h.store.writeCount()

		_, err := h.svc.ConfirmVerification(context.Background(), "ghost@x.com", "123456")
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Equal(t, writes, h.store.writeCount())
	})

	t.Run("second confirm with same code is rejected", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.register(t, "a@x.com")
		code := h.mailer.last().Code

		_, err := h.svc.ConfirmVerification(context.Background(), "a@x.com", code)
		require.NoError(t, err)
		firstVerifiedAt := *h.store.userByEmail("a@x.com").EmailVerifiedAt
		writes := h.store.writeCount()

		h.clock.Advance(time.Minute)
		_, err = h.svc.ConfirmVerification(context.Background(), "a@x.com", code)
		assert.ErrorIs(t, err, ErrEmailAlreadyVerified)
		assert.Equal(t, writes, h.store.writeCount())
		assert.Equal(t, firstVerifiedAt, *h.store.userByEmail("a@x.com").EmailVerifiedAt)
	})

	t.Run("wrong code", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.register(t, "a@x.com")
		wrong := "100000"
		if h.mailer.last().Code == wrong {
			wrong = "100001"
		}

		_, err := h.svc.ConfirmVerification(context.Background(), "a@x.com", wrong)
		assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
	})

	t.Run("code expiring exactly now is expired", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.register(t, "a@x.com")
		code := h.mailer.last().Code

		h.clock.Advance(15 * time.Minute)
		_, err := h.svc.ConfirmVerification(context.Background(), "a@x.com", code)
		assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
	})

	t.Run("code just before expiry is accepted", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.register(t, "a@x.com")
		code := h.mailer.last().Code

		h.clock.Advance(15*time.Minute - time.Nanosecond)
		_, err := h.svc.ConfirmVerification(context.Background(), "a@x.com", code)
		assert.NoError(t, err)
	})

	t.Run("malformed code is a validation error", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.register(t, "a@x.com")

		_, err := h.svc.ConfirmVerification(context.Background(), "a@x.com", "12ab56")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestAuthService_ResendVerification(t *testing.T) {
	t.Parallel()

	t.Run("issues a new code and keeps history", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		user := h.register(t, "a@x.com")

		h.clock.Advance(time.Minute)
		require.NoError(t, h.svc.ResendVerification(context.Background(), "a@x.com"))
		assert.Len(t, h.store.verificationCodes(user.ID), 2)
		assert.Equal(t, 2, h.mailer.count())

		_, err := h.svc.ConfirmVerification(context.Background(), "a@x.com", h.mailer.last().Code)
		assert.NoError(t, err)
	})

	t.Run("notification failure is reported and code stays usable", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		user := h.register(t, "a@x.com")
		h.mailer.fail = errMailDown

		err := h.svc.ResendVerification(context.Background(), "a@x.com")
		require.ErrorIs(t, err, ErrNotificationFailed)

		codes := h.store.verificationCodes(user.ID)
		require.Len(t, codes, 2)
		_, err = h.svc.ConfirmVerification(context.Background(), "a@x.com", codes[1].Code)
		assert.NoError(t, err)
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		err := h.svc.ResendVerification(context.Background(), "ghost@x.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("already verified", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.registerVerified(t, "a@x.com")

		err := h.svc.ResendVerification(context.Background(), "a@x.com")
		assert.ErrorIs(t, err, ErrEmailAlreadyVerified)
	})
}
