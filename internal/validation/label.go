package validation

import (
	"strings"
	"unicode"
)

// FieldLabel turns a camelCase field name into a display label:
// "cardNumber" becomes "Card Number".
func FieldLabel(name FieldName) string {
	var b strings.Builder
	for i, r := range string(name) {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
