package utils

import (
	"crypto/subtle"
	"encoding/hex"
	"regexp"

	"golang.org/x/crypto/argon2"
)

const (
	PINLength = 4

	pinKeyLength   = 32
	pinTimeCost    = 2
	pinMemoryCost  = 19 * 1024
	pinParallelism = 1
)

var pinRegex = regexp.MustCompile(`^\d{4}$`)

// ValidatePIN checks the PIN is exactly four ASCII digits.
func ValidatePIN(pin string) error {
	if !pinRegex.MatchString(pin) {
		return &ValidationError{Field: "pin", Message: "Le code PIN doit être 4 chiffres"}
	}
	return nil
}

// HashPIN derives the stored credential for a PIN. The derivation is
// deterministic for a given secret: Argon2id over pin+secret, salted with
// the secret, hex-encoded. Shape is validated by the caller.
func HashPIN(pin, secret string) string {
	key := argon2.IDKey([]byte(pin+secret), []byte(secret), pinTimeCost, pinMemoryCost, pinParallelism, pinKeyLength)
	return hex.EncodeToString(key)
}

// VerifyPIN compares a PIN against a stored hash in constant time.
func VerifyPIN(pin, secret, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	computed := HashPIN(pin, secret)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
