package utils

import "strings"

const (
	// VenezuelaCallingCode is prepended to local numbers.
	VenezuelaCallingCode = "58"
	trunkPrefix          = "0"
)

// Mobile operator area codes accepted without the trunk prefix.
var mobileAreaCodes = []string{"412", "414", "416", "424", "426"}

// NormalizeWhatsappNumber rewrites a customer-entered contact number into the
// digits-only international form used for wa.me links. It returns nil when the
// input is empty or too short to be a phone number. Rules are applied in order
// and the first match wins; the function is idempotent on its own output.
func NormalizeWhatsappNumber(raw string) *string {
	if raw == "" {
		return nil
	}

	// ASCII digits only; other scripts' digits are not dialable
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	switch {
	// 04141234567 -> local format with trunk prefix
	case len(cleaned) == 11 && strings.HasPrefix(cleaned, trunkPrefix):
		return strPtr(VenezuelaCallingCode + cleaned[1:])
	// 5804141234567 -> calling code followed by the trunk prefix
	case len(cleaned) == 13 && strings.HasPrefix(cleaned, VenezuelaCallingCode+trunkPrefix):
		return strPtr(VenezuelaCallingCode + cleaned[3:])
	case len(cleaned) == 12 && strings.HasPrefix(cleaned, VenezuelaCallingCode):
		return strPtr(cleaned)
	case len(cleaned) == 10 && hasMobileAreaCode(cleaned):
		return strPtr(VenezuelaCallingCode + cleaned)
	case len(cleaned) >= 10:
		// foreign or unrecognised number, passed through as-is
		return strPtr(cleaned)
	}
	return nil
}

func hasMobileAreaCode(digits string) bool {
	for _, code := range mobileAreaCodes {
		if strings.HasPrefix(digits, code) {
			return true
		}
	}
	return false
}

func strPtr(s string) *string { return &s }
