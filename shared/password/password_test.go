package password_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookery/shared/password"
)

func TestHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "valid password",
			password: "validPassword123",
			wantErr:  false,
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  true,
		},
		{
			name:     "password with special characters",
			password: "P@ssw0rd!#$%",
			wantErr:  false,
		},
		{
			name:     "password over the bcrypt 72 byte limit",
			password: strings.Repeat("a", 100),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := password.Hash(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, hash)

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)
			assert.NoError(t, password.Verify(tt.password, hash))
		})
	}
}

func TestVerify(t *testing.T) {
	hash, err := password.Hash("correct-password")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  error
	}{
		{
			name:     "matching password",
			password: "correct-password",
			hash:     hash,
		},
		{
			name:     "wrong password",
			password: "wrong-password",
			hash:     hash,
			wantErr:  password.ErrInvalidPassword,
		},
		{
			name:     "empty password",
			password: "",
			hash:     hash,
			wantErr:  password.ErrInvalidPassword,
		},
		{
			name:     "empty hash",
			password: "correct-password",
			hash:     "",
			wantErr:  password.ErrInvalidPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := password.Verify(tt.password, tt.hash)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	err := password.Verify("correct-password", "not-a-bcrypt-hash")

	require.Error(t, err)
	assert.NotErrorIs(t, err, password.ErrInvalidPassword)
}

func TestHash_Salted(t *testing.T) {
	first, err := password.Hash("same-password")
	require.NoError(t, err)

	second, err := password.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NoError(t, password.Verify("same-password", first))
	assert.NoError(t, password.Verify("same-password", second))
}
