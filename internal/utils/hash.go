package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when hashing an empty admin password.
var ErrEmptyPassword = errors.New("admin password is empty")

// AdminPasswordCost is the bcrypt cost of ADMIN_PASSWORD_HASH values.
const AdminPasswordCost = 12

// HashAdminPassword produces a value for ADMIN_PASSWORD_HASH. The server's
// hash-password subcommand prints it.
func HashAdminPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), AdminPasswordCost)
	return string(hash), err
}

// CheckAdminPassword reports whether password matches the configured hash. An
// unset hash never matches, which keeps admin login closed.
func CheckAdminPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
