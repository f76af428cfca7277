// Package validation holds the input allow-lists shared by the services
// and the HTTP DTOs.
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	MaxNameLength     = 30
	MaxBioLength      = 500
	MaxLocationLength = 100
)

var (
	// EmailRegex validates email format
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	nameRegex     = regexp.MustCompile(`^[A-Za-z\s\-']+$`)
	phoneRegex    = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_@.+\-]{3,150}$`)
	locationRegex = regexp.MustCompile(`^[A-Za-z0-9\s,.\-']+$`)
)

// IsValidEmail checks if the string is a valid email format
func IsValidEmail(email string) bool {
	if len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidName accepts letters, spaces, hyphens and apostrophes.
func IsValidName(name string) (bool, string) {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return false, "Must be at most 30 characters"
	}
	if name != "" && !nameRegex.MatchString(name) {
		return false, "Only letters, spaces, hyphens and apostrophes are allowed"
	}
	return true, ""
}

// NormalizePhone strips spaces from a phone number.
func NormalizePhone(phone string) string {
	return strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
}

// IsValidPhone checks a phone number after spaces are removed. Empty is
// valid; it clears the field.
func IsValidPhone(phone string) bool {
	phone = NormalizePhone(phone)
	return phone == "" || phoneRegex.MatchString(phone)
}

func IsValidUsername(username string) bool {
	return usernameRegex.MatchString(username)
}

func IsValidLocation(location string) (bool, string) {
	if utf8.RuneCountInString(location) > MaxLocationLength {
		return false, "Must be at most 100 characters"
	}
	if location != "" && !locationRegex.MatchString(location) {
		return false, "Only letters, digits, spaces and , . - ' are allowed"
	}
	return true, ""
}

// IsValidPassword checks password strength
func IsValidPassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters"
	}
	if len(password) > 128 {
		return false, "Password must be at most 128 characters"
	}

	var (
		hasUpper         bool
		hasLower         bool
		hasDigitOrSymbol bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char), unicode.IsPunct(char), unicode.IsSymbol(char):
			hasDigitOrSymbol = true
		}
	}

	if !hasUpper {
		return false, "Password must contain at least one uppercase letter"
	}
	if !hasLower {
		return false, "Password must contain at least one lowercase letter"
	}
	if !hasDigitOrSymbol {
		return false, "Password must contain at least one number or symbol"
	}

	return true, ""
}

// SanitizeString removes potentially dangerous characters for display
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	// Remove control characters except newlines and tabs
	var result strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// TruncateString truncates s to at most maxLen runes.
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	})
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		ok, _ := IsValidName(fl.Field().String())
		return ok
	})
	return v
}

// Struct runs the `validate` tags on s and returns one message per failing
// field, keyed by the field's JSON name.
func Struct(s interface{}) map[string]string {
	errs := make(map[string]string)
	err := structValidator.Struct(s)
	if err == nil {
		return errs
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["_"] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		if _, seen := errs[fe.Field()]; !seen {
			errs[fe.Field()] = messageFor(fe)
		}
	}
	return errs
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	case "min":
		return "Must be at least " + fe.Param()
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "phone":
		return "Enter a valid phone number"
	case "personname":
		return "Only letters, spaces, hyphens and apostrophes are allowed"
	case "gte", "lte", "gt":
		return "Value is out of range"
	}
	return "Invalid value"
}
