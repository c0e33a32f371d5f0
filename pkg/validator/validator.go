package validator

import (
	"regexp"
	"strings"
	"unicode"
)

const defaultCountryCode = "+91"

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(cleanPhone(phone))
}

func ValidateName(name string) bool {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return false
	}

	for _, r := range name {
		if !unicode.IsLetter(r) && r != '-' && r != ' ' && r != '\'' && r != '.' {
			return false
		}
	}

	return true
}

// FormatPhone normalizes a phone number to E.164-like form. Ten-digit numbers
// without a country code get the default +91 prefix.
func FormatPhone(phone string) string {
	cleaned := cleanPhone(phone)

	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	if len(cleaned) == 10 {
		return defaultCountryCode + cleaned
	}
	if len(cleaned) > 10 {
		return "+" + cleaned
	}

	return cleaned
}

func FormatName(name string) string {
	if len(name) == 0 {
		return ""
	}

	parts := strings.Fields(name)
	for i, part := range parts {
		if strings.Contains(part, "-") {
			subparts := strings.Split(part, "-")
			for j, subpart := range subparts {
				subparts[j] = capitalize(subpart)
			}
			parts[i] = strings.Join(subparts, "-")
		} else {
			parts[i] = capitalize(part)
		}
	}

	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return strings.ToUpper(string(runes[:1])) + strings.ToLower(string(runes[1:]))
}

func cleanPhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '+' {
			return r
		}
		return -1
	}, phone)
}
