package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"6 51 98 74 68", "+237651987468"},
		{"651987468", "+237651987468"},
		{"237651987468", "+237651987468"},
		{"+237 651-98-74-68", "+237651987468"},
		{"(+237) 651.98.74.68", "+237651987468"},
		{"222 23 45 67", "+237222234567"},
		{"7 00 00 00 00", "+237700000000"},
		// not a local pattern: returned cleaned only
		{"551987468", "551987468"},
		{"12345", "12345"},
		{"+33 6 12 34 56 78", "+33612345678"},
		{"", ""},
		{"65+1987468", "+237651987468"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizePhone(tc.in))
		})
	}
}

func TestNormalizePhone_LocalAndInternationalAgree(t *testing.T) {
	for _, local := range []string{"651987468", "699000111", "222334455", "777123456"} {
		require.Equal(t, NormalizePhone(local), NormalizePhone("+237"+local), local)
		require.Equal(t, NormalizePhone(local), NormalizePhone("237"+local), local)
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	once := NormalizePhone("6 51 98 74 68")
	assert.Equal(t, once, NormalizePhone(once))
}

func TestValidatePaymentNumber(t *testing.T) {
	got, err := ValidatePaymentNumber(" 651 98 74 68 ")
	require.NoError(t, err)
	assert.Equal(t, "651987468", got)

	got, err = ValidatePaymentNumber("0651987468")
	require.NoError(t, err)
	assert.Equal(t, "0651987468", got)

	for _, bad := range []string{"", "65198746", "06519874680", "+237651987468", "65198746a"} {
		_, err := ValidatePaymentNumber(bad)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, bad)
		assert.Equal(t, "phoneNumber", vErr.Field)
	}
}
