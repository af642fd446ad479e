// Package validation holds input rules for account fields.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 128
	minFullNameLength = 3
	maxFullNameLength = 100
	maxEmailLength    = 254
)

var (
	usernameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{1,28}[a-z0-9]$`)
	emailRegex    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@.]+$`)
)

var reservedUsernames = map[string]struct{}{
	"admin":       {},
	"api":         {},
	"c":           {},
	"healthcheck": {},
	"history":     {},
	"metrics":     {},
	"me":          {},
}

// ValidatePassword checks password length. No composition rules are enforced.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if n > maxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", maxPasswordLength)
	}
	return nil
}

// ValidateUsername checks an already-normalized username.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-30 characters of lowercase letters, numbers, '.', '_' or '-', starting and ending with a letter or number")
	}
	if _, reserved := reservedUsernames[username]; reserved {
		return fmt.Errorf("username is reserved")
	}
	return nil
}

// ValidateEmail checks basic address shape and length.
func ValidateEmail(email string) error {
	if len(email) > maxEmailLength {
		return fmt.Errorf("email must be at most %d characters", maxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateFullName checks display name length after trimming.
func ValidateFullName(fullName string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(fullName))
	if n < minFullNameLength {
		return fmt.Errorf("full name must be at least %d characters", minFullNameLength)
	}
	if n > maxFullNameLength {
		return fmt.Errorf("full name must be at most %d characters", maxFullNameLength)
	}
	return nil
}
