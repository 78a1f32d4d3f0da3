package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestValidatePIN(t *testing.T) {
	require.NoError(t, ValidatePIN("0000"))
	require.NoError(t, ValidatePIN("1234"))

	for _, bad := range []string{"", "123", "12345", "12a4", " 123", "１２３４"} {
		err := ValidatePIN(bad)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, "pin %q", bad)
		assert.Equal(t, "pin", vErr.Field)
	}
}

func TestHashPIN_Deterministic(t *testing.T) {
	a := HashPIN("1234", testSecret)
	b := HashPIN("1234", testSecret)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, HashPIN("1235", testSecret))
	assert.NotEqual(t, a, HashPIN("1234", "another-secret"))
}

func TestVerifyPIN(t *testing.T) {
	stored := HashPIN("4321", testSecret)
	assert.True(t, VerifyPIN("4321", testSecret, stored))
	assert.False(t, VerifyPIN("4322", testSecret, stored))
	assert.False(t, VerifyPIN("4321", "wrong", stored))
	assert.False(t, VerifyPIN("4321", testSecret, ""))
}
