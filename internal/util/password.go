package util

import (
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost balances login latency against brute-force resistance for the
// single dashboard password.
const bcryptCost = 8

// HashPassword produces the bcrypt hash stored in config for the dashboard
// password; `digestctl hash-password` generates the value.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
