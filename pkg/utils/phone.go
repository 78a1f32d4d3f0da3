package utils

import (
	"regexp"
	"strings"
	"unicode"
)

// CountryCode is the international prefix for local subscriber numbers.
const CountryCode = "237"

var (
	localPhoneRegex    = regexp.MustCompile(`^[672]\d{8}$`)
	countryPhoneRegex  = regexp.MustCompile(`^` + CountryCode + `\d{9}$`)
	paymentNumberRegex = regexp.MustCompile(`^[0-9]{9,10}$`)
)

// NormalizePhone turns a user-entered number into the subscriber lookup key.
// Only digits and a leading '+' survive. Local 9-digit numbers starting with
// 6, 7 or 2 get +237; 237XXXXXXXXX gets a '+'. Anything else is returned
// cleaned but otherwise unchanged, so lookups on it simply miss.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	switch {
	case localPhoneRegex.MatchString(cleaned):
		return "+" + CountryCode + cleaned
	case countryPhoneRegex.MatchString(cleaned):
		return "+" + cleaned
	}
	return cleaned
}

// StripWhitespace removes every whitespace rune.
func StripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ValidatePaymentNumber checks a mobile-money payer number (9-10 digits once
// whitespace is removed) and returns the compact form.
func ValidatePaymentNumber(phone string) (string, error) {
	compact := StripWhitespace(phone)
	if !paymentNumberRegex.MatchString(compact) {
		return "", &ValidationError{Field: "phoneNumber", Message: "Numéro de téléphone invalide"}
	}
	return compact, nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
