package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sleepoutside/backend/internal/models"
)

func fixedClock() time.Time {
	return time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
}

func validCheckoutForm() map[FieldName]string {
	return map[FieldName]string{
		FieldFirstName:  "Ada",
		FieldLastName:   "Lovelace",
		FieldStreet:     "12 Analytical Way",
		FieldCity:       "Rexburg",
		FieldState:      "ID",
		FieldZip:        "83440",
		FieldCardNumber: "4532 0151 1283 0366",
		FieldExpiration: "06/25",
		FieldCode:       "123",
	}
}

func TestCheckoutValidForm(t *testing.T) {
	res := NewCheckoutValidator(fixedClock).ValidateForm(validCheckoutForm())
	assert.True(t, res.IsValid, "errors: %v", res.Errors)
}

func TestCheckoutRequiredCompleteness(t *testing.T) {
	v := NewCheckoutValidator(fixedClock)
	res := v.ValidateForm(map[FieldName]string{})

	assert.False(t, res.IsValid)
	for _, f := range v.Fields() {
		rule, _ := v.Rule(f)
		if rule.Required {
			assert.Contains(t, res.Errors, f)
		} else {
			assert.NotContains(t, res.Errors, f)
		}
	}
	assert.NotContains(t, res.Errors, FieldEmail)
	assert.Equal(t, "Card Number is required", res.Errors[FieldCardNumber])
}

func TestCheckoutExpiry(t *testing.T) {
	v := NewCheckoutValidator(fixedClock)

	assert.Equal(t, "", v.ValidateField(FieldExpiration, "06/25"))
	assert.Equal(t, MsgCardExpired, v.ValidateField(FieldExpiration, "05/25"))
	assert.Equal(t, MsgExpiryFormat, v.ValidateField(FieldExpiration, "6/25"))
}

func TestCheckoutCardAndOtherFields(t *testing.T) {
	v := NewCheckoutValidator(fixedClock)

	assert.Equal(t, MsgCardChecksum, v.ValidateField(FieldCardNumber, "4532015112830367"))
	assert.Equal(t, MsgCardLength, v.ValidateField(FieldCardNumber, "4532"))
	assert.Equal(t, "State must be a two-letter code", v.ValidateField(FieldState, "Idaho"))
	assert.Equal(t, "", v.ValidateField(FieldZip, "83440-1234"))
	assert.Equal(t, "Zip code must be 5 digits or ZIP+4", v.ValidateField(FieldZip, "8344"))
	assert.Equal(t, "Security code must be 3 or 4 digits", v.ValidateField(FieldCode, "12a"))
	assert.Equal(t, "Please enter a valid email address", v.ValidateField(FieldEmail, "not-an-email"))
}

func TestNewOrder(t *testing.T) {
	form := validCheckoutForm()
	form[FieldState] = "id"
	cart := models.CartSummary{
		Lines:     []models.CartLine{{ID: "T1", UnitPrice: 10, Quantity: 2}},
		Total:     20,
		ItemCount: 2,
	}

	order := NewOrder("ORD1", form, cart, fixedClock())

	assert.Equal(t, "0366", order.CardLast4)
	assert.Equal(t, "ID", order.State)
	assert.Equal(t, 2, order.ItemCount)
	assert.Equal(t, 20.0, order.OrderTotal)
	assert.Equal(t, fixedClock(), order.OrderDate)
}
