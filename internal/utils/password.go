package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash of plain with the given cost.
// Agent access codes go through the same function; they are secrets
// like any other.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt hash against a plain secret in
// constant time.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
