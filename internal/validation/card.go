package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	MsgCardDigits   = "Card number must contain only digits"
	MsgCardLength   = "Card number must be between 13 and 19 digits"
	MsgCardChecksum = "Invalid card number"
	MsgExpiryFormat = "Expiration must be in MM/YY format"
	MsgCardExpired  = "Card has expired"
)

var expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2})$`)

// StripSpaces removes every whitespace rune from s.
func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Luhn validates a card number and returns the failure message, or "".
func Luhn(number string) string {
	digits := StripSpaces(number)
	for _, r := range digits {
		if r < '0' || r > '9' {
			return MsgCardDigits
		}
	}
	if len(digits) < 13 || len(digits) > 19 {
		return MsgCardLength
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	if sum%10 != 0 {
		return MsgCardChecksum
	}
	return ""
}

func LuhnValid(number string) bool {
	return Luhn(number) == ""
}

// CheckExpiry validates an MM/YY expiry against now. A card expiring in the
// current month is still valid.
func CheckExpiry(value string, now time.Time) string {
	m := expiryPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return MsgExpiryFormat
	}
	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])

	curYear := now.Year() % 100
	curMonth := int(now.Month())
	if year < curYear || (year == curYear && month < curMonth) {
		return MsgCardExpired
	}
	return ""
}
