package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
		value string
	}{
		{"simple name", "John Doe", true, "John Doe"},
		{"hyphen and apostrophe", "Mary-Jane O'Brien", true, "Mary-Jane O'Brien"},
		{"surrounding whitespace trimmed", "  Jane Smith  ", true, "Jane Smith"},
		{"single character", "J", false, ""},
		{"digits rejected", "John123", false, ""},
		{"empty", "", false, ""},
		{"starts with punctuation", "-John", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidateName(tt.input)
			assert.Equal(t, tt.valid, v.Valid)
			if tt.valid {
				assert.Equal(t, tt.value, v.Value)
			} else {
				assert.NotEmpty(t, v.Reason)
			}
		})
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
		value string
	}{
		{"dashed", "555-123-4567", true, "5551234567"},
		{"plain digits", "5551234567", true, "5551234567"},
		{"international with plus and spaces", "+91 98765 43210", true, "919876543210"},
		{"parenthesized area code", "(555) 123-4567", true, "5551234567"},
		{"too short", "123", false, ""},
		{"too long", "1234567890123456", false, ""},
		{"letters", "call me maybe", false, ""},
		{"empty", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidatePhone(tt.input)
			assert.Equal(t, tt.valid, v.Valid)
			if tt.valid {
				assert.Equal(t, tt.value, v.Value)
			} else {
				assert.NotEmpty(t, v.Reason)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
		value string
	}{
		{"simple", "john@example.com", true, "john@example.com"},
		{"lower-cased", "John.Doe@Example.COM", true, "john.doe@example.com"},
		{"plus tag", "john+tag@example.co.uk", true, "john+tag@example.co.uk"},
		{"missing at", "johnexample.com", false, ""},
		{"missing domain dot", "john@example", false, ""},
		{"domain leading dot", "john@.example.com", false, ""},
		{"two words", "john doe@example.com", false, ""},
		{"empty", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidateEmail(tt.input)
			assert.Equal(t, tt.valid, v.Valid)
			if tt.valid {
				assert.Equal(t, tt.value, v.Value)
			} else {
				assert.NotEmpty(t, v.Reason)
			}
		})
	}
}
