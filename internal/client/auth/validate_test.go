package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	require.NoError(t, validateEmail("ada@example.com"))
	require.ErrorIs(t, validateEmail("not-an-email"), ErrInvalidEmail)
	require.ErrorIs(t, validateEmail(""), ErrInvalidEmail)
}

func TestValidateSignUp(t *testing.T) {
	tests := []struct {
		name        string
		email       string
		password    string
		displayName string
		wantErr     error
	}{
		{name: "valid", email: "ada@example.com", password: "correct-horse", displayName: "Ada"},
		{name: "bad email", email: "nope", password: "correct-horse", displayName: "Ada", wantErr: ErrInvalidEmail},
		{name: "short password", email: "ada@example.com", password: "short", displayName: "Ada", wantErr: ErrWeakPassword},
		{name: "missing password", email: "ada@example.com", password: "", displayName: "Ada", wantErr: ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSignUp(tt.email, tt.password, tt.displayName)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
