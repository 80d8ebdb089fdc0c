package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLuhn(t *testing.T) {
	cases := []struct {
		name   string
		number string
		want   string
	}{
		{"valid visa", "4532015112830366", ""},
		{"valid with spaces", "4532 0151 1283 0366", ""},
		{"valid test visa", "4111111111111111", ""},
		{"valid mastercard", "5555555555554444", ""},
		{"last digit incremented", "4532015112830367", MsgCardChecksum},
		{"too short", "453201511283", MsgCardLength},
		{"too long", "45320151128303661234", MsgCardLength},
		{"letters", "4532abcd12830366", MsgCardDigits},
		{"dashes", "4532-0151-1283-0366", MsgCardDigits},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Luhn(tc.number))
		})
	}
}

func TestLuhnValid(t *testing.T) {
	assert.True(t, LuhnValid("4532015112830366"))
	assert.False(t, LuhnValid("4532015112830367"))
}

func TestCheckExpiryBoundary(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "", CheckExpiry("06/25", now))
	assert.Equal(t, MsgCardExpired, CheckExpiry("05/25", now))
	assert.Equal(t, "", CheckExpiry("01/26", now))
	assert.Equal(t, MsgCardExpired, CheckExpiry("12/24", now))
	assert.Equal(t, "", CheckExpiry("12/25", now))
}

func TestCheckExpiryFormat(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{"13/25", "00/25", "6/25", "06/2025", "06-25", "", "ab/cd"} {
		assert.Equal(t, MsgExpiryFormat, CheckExpiry(in, now), "input %q", in)
	}
}
