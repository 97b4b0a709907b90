// Package notify delivers the localized summary to the patient over the
// WhatsApp Cloud API.
package notify

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	nonDigitRegex = regexp.MustCompile(`[^\d]`)
	mobileRegex   = regexp.MustCompile(`(?:\+91[-\s]*)?[6-9]\d{9}`)
	spaceRegex    = regexp.MustCompile(`\s+`)
)

// PhoneFormat describes the national numbering plan
type PhoneFormat struct {
	CountryCode    string // "91"
	NationalLength int    // 10
}

// DefaultPhoneFormat is the Indian mobile plan
var DefaultPhoneFormat = PhoneFormat{CountryCode: "91", NationalLength: 10}

// NormalizePhone converts a number to the digits-only international form
// WhatsApp expects: "+91 98765-43210" and "098765 43210" both become
// "919876543210".
func (f PhoneFormat) NormalizePhone(phone string) (string, error) {
	if f.CountryCode == "" {
		f.CountryCode = DefaultPhoneFormat.CountryCode
	}
	if f.NationalLength <= 0 {
		f.NationalLength = DefaultPhoneFormat.NationalLength
	}

	digits := nonDigitRegex.ReplaceAllString(phone, "")

	if len(digits) == f.NationalLength+1 && strings.HasPrefix(digits, "0") {
		digits = digits[1:]
	}

	switch {
	case len(digits) == len(f.CountryCode)+f.NationalLength && strings.HasPrefix(digits, f.CountryCode):
		return digits, nil
	case len(digits) == f.NationalLength:
		return f.CountryCode + digits, nil
	}

	return "", fmt.Errorf("invalid phone number %q: expected %d digits, optionally prefixed by 0 or %s", phone, f.NationalLength, f.CountryCode)
}

// NormalizePhone normalizes with the default format
func NormalizePhone(phone string) (string, error) {
	return DefaultPhoneFormat.NormalizePhone(phone)
}

// ExtractPhones finds Indian mobile numbers in report text, in order of
// appearance, without duplicates.
func ExtractPhones(text string) []string {
	var phones []string
	seen := make(map[string]bool)

	for _, m := range mobileRegex.FindAllString(text, -1) {
		if seen[m] {
			continue
		}
		seen[m] = true
		phones = append(phones, m)
	}
	return phones
}

// SanitizeParam makes text safe for a template parameter: newlines and
// runs of whitespace collapse to one space and the result is capped at
// max characters plus "...".
func SanitizeParam(text string, max int) string {
	cleaned := strings.TrimSpace(spaceRegex.ReplaceAllString(text, " "))

	if max > 0 && utf8.RuneCountInString(cleaned) > max {
		runes := []rune(cleaned)
		cleaned = string(runes[:max]) + "..."
	}
	return cleaned
}
