package entity

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	nameMinLen     = 20
	nameMaxLen     = 60
	passwordMinLen = 8
	passwordMaxLen = 16
	addressMaxLen  = 400
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// FieldError describes a single invalid input field. Validation never
// stops at the first failure; callers receive every violation at once.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateName checks the 20-60 character rule shared by user and
// store names.
func ValidateName(name string) []FieldError {
	length := utf8.RuneCountInString(strings.TrimSpace(name))
	if length < nameMinLen || length > nameMaxLen {
		return []FieldError{{
			Field:   "name",
			Message: fmt.Sprintf("name must be between %d and %d characters", nameMinLen, nameMaxLen),
		}}
	}
	return nil
}

// ValidateEmail checks basic address shape.
func ValidateEmail(email string) []FieldError {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return []FieldError{{Field: "email", Message: "email must be a valid email address"}}
	}
	return nil
}

// ValidatePassword enforces the 8-16 length plus at least one
// uppercase letter and one symbol.
func ValidatePassword(password string) []FieldError {
	var errs []FieldError
	length := utf8.RuneCountInString(password)
	if length < passwordMinLen || length > passwordMaxLen {
		errs = append(errs, FieldError{
			Field:   "password",
			Message: fmt.Sprintf("password must be between %d and %d characters", passwordMinLen, passwordMaxLen),
		})
	}
	hasUpper := false
	hasSymbol := false
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	if !hasUpper {
		errs = append(errs, FieldError{Field: "password", Message: "password must contain at least one uppercase letter"})
	}
	if !hasSymbol {
		errs = append(errs, FieldError{Field: "password", Message: "password must contain at least one special character"})
	}
	return errs
}

// ValidateAddress checks the 400 character ceiling.
func ValidateAddress(address string) []FieldError {
	if utf8.RuneCountInString(address) > addressMaxLen {
		return []FieldError{{
			Field:   "address",
			Message: fmt.Sprintf("address must not exceed %d characters", addressMaxLen),
		}}
	}
	return nil
}

// ValidateUserInput collects every violation for a full user payload.
func ValidateUserInput(name, email, password, address string) []FieldError {
	var errs []FieldError
	errs = append(errs, ValidateName(name)...)
	errs = append(errs, ValidateEmail(email)...)
	errs = append(errs, ValidatePassword(password)...)
	errs = append(errs, ValidateAddress(address)...)
	return errs
}

// ValidateStoreInput collects every violation for a store payload.
func ValidateStoreInput(name, email, address string) []FieldError {
	var errs []FieldError
	errs = append(errs, ValidateName(name)...)
	errs = append(errs, ValidateEmail(email)...)
	errs = append(errs, ValidateAddress(address)...)
	return errs
}
