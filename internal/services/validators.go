package services

import (
	"net/mail"
	"regexp"
	"strings"
)

// Validation is the result of validating a single slot value. On success
// Value holds the normalized form; on failure Reason explains why.
type Validation struct {
	Valid  bool
	Value  string
	Reason string
}

var (
	nameRe       = regexp.MustCompile(`^[a-zA-Z][a-zA-Z\s.'\-]*$`)
	phoneStripRe = regexp.MustCompile(`[\s\-().+]`)
	digitsRe     = regexp.MustCompile(`^[0-9]+$`)
)

// ValidateName accepts names of letters, spaces, hyphens, apostrophes and
// dots, 2-100 characters long
func ValidateName(text string) Validation {
	name := strings.TrimSpace(text)
	if len(name) < 2 {
		return Validation{Reason: "name must be at least 2 characters long"}
	}
	if len(name) > 100 {
		return Validation{Reason: "name must be at most 100 characters long"}
	}
	if !nameRe.MatchString(name) {
		return Validation{Reason: "name can only contain letters, spaces, hyphens and apostrophes"}
	}
	return Validation{Valid: true, Value: name}
}

// ValidatePhone strips formatting characters and accepts 10-15 digits.
// The normalized value is digits only.
func ValidatePhone(text string) Validation {
	digits := phoneStripRe.ReplaceAllString(strings.TrimSpace(text), "")
	if digits == "" || !digitsRe.MatchString(digits) {
		return Validation{Reason: "phone number must contain only digits"}
	}
	if len(digits) < 10 || len(digits) > 15 {
		return Validation{Reason: "phone number must be between 10 and 15 digits"}
	}
	return Validation{Valid: true, Value: digits}
}

// ValidateEmail applies RFC syntax and domain plausibility checks and
// returns the lower-cased address
func ValidateEmail(text string) Validation {
	addr := strings.TrimSpace(text)

	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr {
		return Validation{Reason: "invalid email format"}
	}

	at := strings.LastIndex(addr, "@")
	domain := addr[at+1:]
	if !strings.Contains(domain, ".") ||
		strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") ||
		strings.HasPrefix(domain, "-") || strings.HasSuffix(domain, "-") {
		return Validation{Reason: "email domain is not valid"}
	}

	return Validation{Valid: true, Value: strings.ToLower(addr)}
}
