package utils

import (
	"fmt"
	"strings"
)

// NormalizePhone converts a Chilean phone number to E.164 form.
//
// Accepted inputs after stripping punctuation and whitespace:
//   - "+56912345678"        already qualified
//   - "56912345678"         country code without plus
//   - "912345678"           9-digit mobile number
//   - "12345678"            8-digit local number, mobile prefix assumed
func NormalizePhone(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if cleaned == "" {
		return "", fmt.Errorf("empty phone number")
	}

	hasPlus := strings.HasPrefix(cleaned, "+")
	digits := strings.TrimPrefix(cleaned, "+")
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("phone number %q contains non-digit characters", raw)
		}
	}

	if hasPlus {
		if len(digits) < 8 || len(digits) > 15 {
			return "", fmt.Errorf("phone number %q is not a valid E.164 number", raw)
		}
		return "+" + digits, nil
	}

	switch {
	case len(digits) == 9 && strings.HasPrefix(digits, "9"):
		return "+56" + digits, nil
	case len(digits) == 8:
		return "+569" + digits, nil
	case len(digits) == 11 && strings.HasPrefix(digits, "56"):
		return "+" + digits, nil
	}
	return "", fmt.Errorf("cannot normalize phone number %q", raw)
}
