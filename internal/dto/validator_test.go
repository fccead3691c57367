package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidator_UsesJSONNames(t *testing.T) {
	t.Parallel()

	validate := NewValidator()
	err := validate.Struct(PasswordResetRequest{Email: "a@x.com", Code: "12ab56", NewPassword: "123"})
	require.Error(t, err)

	details := FieldErrors(err)
	assert.ElementsMatch(t, []FieldError{
		{Field: "code", Message: "must contain only digits"},
		{Field: "newPassword", Message: "must be at least 6 characters"},
	}, details)
}

func TestNewValidator_Register(t *testing.T) {
	t.Parallel()

	validate := NewValidator()

	tests := []struct {
		name   string
		req    RegisterRequest
		fields []string
	}{
		{"valid", RegisterRequest{Email: "a@x.com", Password: "secret1", FirstName: "A", LastName: "B"}, nil},
		{"bad email", RegisterRequest{Email: "nope", Password: "secret1", FirstName: "A", LastName: "B"}, []string{"email"}},
		{"short password", RegisterRequest{Email: "a@x.com", Password: "12345", FirstName: "A", LastName: "B"}, []string{"password"}},
		{"missing names", RegisterRequest{Email: "a@x.com", Password: "secret1"}, []string{"firstName", "lastName"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validate.Struct(tt.req)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var got []string
			for _, fe := range FieldErrors(err) {
				got = append(got, fe.Field)
			}
			assert.ElementsMatch(t, tt.fields, got)
		})
	}
}

func TestFieldErrors_NonValidationError(t *testing.T) {
	t.Parallel()
	assert.Nil(t, FieldErrors(assert.AnError))
}
