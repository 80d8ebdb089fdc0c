package validation

import (
	"regexp"
	"strings"
	"time"

	"github.com/sleepoutside/backend/internal/models"
)

// Checkout form fields.
const (
	FieldFirstName  FieldName = "fname"
	FieldLastName   FieldName = "lname"
	FieldEmail      FieldName = "email"
	FieldStreet     FieldName = "street"
	FieldCity       FieldName = "city"
	FieldState      FieldName = "state"
	FieldZip        FieldName = "zip"
	FieldCardNumber FieldName = "cardNumber"
	FieldExpiration FieldName = "expiration"
	FieldCode       FieldName = "code"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	statePattern = regexp.MustCompile(`^[A-Za-z]{2}$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	codePattern  = regexp.MustCompile(`^\d{3,4}$`)
)

// CheckoutElementIDs maps checkout fields to their form element ids.
var CheckoutElementIDs = map[FieldName]string{
	FieldFirstName:  "fname",
	FieldLastName:   "lname",
	FieldEmail:      "email",
	FieldStreet:     "street",
	FieldCity:       "city",
	FieldState:      "state",
	FieldZip:        "zip",
	FieldCardNumber: "cardNumber",
	FieldExpiration: "expiration",
	FieldCode:       "code",
}

// NewCheckoutValidator returns the checkout form validator. clock supplies
// the current time for the expiry check; nil means time.Now.
func NewCheckoutValidator(clock func() time.Time) *Validator {
	if clock == nil {
		clock = time.Now
	}
	rules := []FieldRule{
		{Name: FieldFirstName, Label: "First name", Required: true, MaxLength: 50},
		{Name: FieldLastName, Label: "Last name", Required: true, MaxLength: 50},
		{Name: FieldEmail, Pattern: emailPattern, PatternMessage: "Please enter a valid email address"},
		{Name: FieldStreet, Label: "Street address", Required: true, MinLength: 3, MaxLength: 100},
		{Name: FieldCity, Required: true, MinLength: 2, MaxLength: 60},
		{Name: FieldState, Required: true, Pattern: statePattern, PatternMessage: "State must be a two-letter code"},
		{Name: FieldZip, Label: "Zip code", Required: true, Pattern: zipPattern, PatternMessage: "Zip code must be 5 digits or ZIP+4"},
		{Name: FieldCardNumber, Required: true, Custom: Luhn},
		{
			Name:           FieldExpiration,
			Required:       true,
			Pattern:        expiryPattern,
			PatternMessage: MsgExpiryFormat,
			Custom: func(value string) string {
				return CheckExpiry(value, clock())
			},
		},
		{Name: FieldCode, Label: "Security code", Required: true, Pattern: codePattern, PatternMessage: "Security code must be 3 or 4 digits"},
	}
	return New(rules, CheckoutElementIDs)
}

// NewOrder builds an order from a validated checkout form and a cart
// snapshot. Only the last four card digits are kept.
func NewOrder(id string, values map[FieldName]string, cart models.CartSummary, now time.Time) models.Order {
	card := StripSpaces(values[FieldCardNumber])
	last4 := card
	if len(card) > 4 {
		last4 = card[len(card)-4:]
	}
	return models.Order{
		ID:         id,
		FirstName:  strings.TrimSpace(values[FieldFirstName]),
		LastName:   strings.TrimSpace(values[FieldLastName]),
		Email:      strings.TrimSpace(values[FieldEmail]),
		Street:     strings.TrimSpace(values[FieldStreet]),
		City:       strings.TrimSpace(values[FieldCity]),
		State:      strings.ToUpper(strings.TrimSpace(values[FieldState])),
		Zip:        strings.TrimSpace(values[FieldZip]),
		CardLast4:  last4,
		Lines:      cart.Lines,
		ItemCount:  cart.ItemCount,
		OrderTotal: cart.Total,
		OrderDate:  now,
	}
}
