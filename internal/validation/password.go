// Package validation contains input validation rules shared by handlers.
package validation

import (
	"unicode"

	"peerhaven/internal/models"
)

const minPasswordLength = 8

// ValidatePassword enforces the minimum password policy: length, at least
// one letter and one digit.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return models.NewValidationError("Password must be at least 8 characters")
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return models.NewValidationError("Password must contain at least one letter and one digit")
	}
	return nil
}
