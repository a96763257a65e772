package auth

import (
	"errors"
	"net/mail"
	"regexp"

	"github.com/tomcamp/tomcamp-core/internal/store"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// IsValidUsername checks if a username meets format requirements.
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// IsValidEmail checks that email is a bare address (no display name).
func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// User is an account able to sign in with a password.
//
// The stored form includes the password hash; API responses use a view
// without it.
type User struct {
	store.Meta
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Role         Role   `json:"role"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrUsernameExists     = errors.New("auth: username already registered")
	ErrEmailExists        = errors.New("auth: email already registered")
	ErrInvalidUsername    = errors.New("auth: invalid username")
	ErrInvalidEmail       = errors.New("auth: invalid email")
	ErrInvalidPassword    = errors.New("auth: invalid password")
	ErrInvalidRole        = errors.New("auth: invalid role")
	ErrTokenInvalid       = errors.New("auth: invalid token")
	ErrForbidden          = errors.New("auth: insufficient permissions")
	ErrSelfModification   = errors.New("auth: cannot modify own account in this way")
)
