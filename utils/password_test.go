package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("Sup3rSecret!")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3rSecret!", hashed)

	assert.NoError(t, CheckPassword(hashed, "Sup3rSecret!"))
	assert.Error(t, CheckPassword(hashed, "wrong-password"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Valid1Pass!"))

	assert.Error(t, ValidatePassword("Sh0rt!"))
	assert.Error(t, ValidatePassword("nouppercase1!"))
	assert.Error(t, ValidatePassword("NoDigitsHere!"))
	assert.Error(t, ValidatePassword("NoSpecial123"))
}

func TestGenerateRandomPassword(t *testing.T) {
	pw := GenerateRandomPassword()
	assert.Len(t, pw, 12)
}
