package validation

import (
	"math"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/sleepoutside/backend/internal/models"
)

// Product-entry form fields.
const (
	FieldProductName FieldName = "name"
	FieldCategory    FieldName = "category"
	FieldPrice       FieldName = "price"
	FieldDescription FieldName = "description"
	FieldImageURL    FieldName = "imageUrl"
)

// MaxPrice is the inclusive price ceiling.
const MaxPrice = 99999.0

const (
	MsgPriceNotNumber   = "Price must be a valid number"
	MsgPriceNotPositive = "Price must be greater than 0"
	MsgPriceTooHigh     = "Price cannot exceed $99,999"
	MsgInvalidURL       = "Please enter a valid URL"
	MsgImageExtension   = "Image URL must end in .jpg, .jpeg, .png, .gif or .webp"
	MsgInvalidCategory  = "Please select a valid category"
)

// ImageExtensions are the accepted image URL path suffixes.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// ProductElementIDs maps product-entry fields to their form element ids.
var ProductElementIDs = map[FieldName]string{
	FieldProductName: "product-name",
	FieldCategory:    "product-category",
	FieldPrice:       "product-price",
	FieldDescription: "product-description",
	FieldImageURL:    "product-image",
}

func productRules() []FieldRule {
	return []FieldRule{
		{Name: FieldProductName, Label: "Product name", Required: true, MinLength: 3, MaxLength: 100},
		{Name: FieldCategory, Label: "Category", Required: true, Custom: ValidateCategory},
		{Name: FieldPrice, Label: "Price", Required: true, Custom: ValidatePrice},
		{Name: FieldDescription, Label: "Description", Required: true, MinLength: 10, MaxLength: 1000},
		{Name: FieldImageURL, Label: "Image URL", Required: true, Custom: ValidateImageURL},
	}
}

// NewProductValidator returns the validator for the product-entry form.
func NewProductValidator() *Validator {
	return New(productRules(), ProductElementIDs)
}

func ValidateCategory(value string) string {
	if _, ok := models.ParseCategory(value); !ok {
		return MsgInvalidCategory
	}
	return ""
}

// ValidatePrice distinguishes unparsable, non-positive and over-ceiling
// prices.
func ValidatePrice(value string) string {
	p, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return MsgPriceNotNumber
	}
	if p <= 0 {
		return MsgPriceNotPositive
	}
	if p > MaxPrice {
		return MsgPriceTooHigh
	}
	return ""
}

// ValidateImageURL reports a malformed URL before it looks at the extension.
func ValidateImageURL(value string) string {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return MsgInvalidURL
	}
	ext := strings.ToLower(path.Ext(u.Path))
	for _, allowed := range ImageExtensions {
		if ext == allowed {
			return ""
		}
	}
	return MsgImageExtension
}

// ProductRequest converts an already validated product form into a typed
// request.
func ProductRequest(values map[FieldName]string) models.CreateRecordRequest {
	price, _ := strconv.ParseFloat(strings.TrimSpace(values[FieldPrice]), 64)
	category, _ := models.ParseCategory(strings.TrimSpace(values[FieldCategory]))
	return models.CreateRecordRequest{
		Name:        strings.TrimSpace(values[FieldProductName]),
		Category:    category,
		Price:       price,
		Description: strings.TrimSpace(values[FieldDescription]),
		ImageURL:    strings.TrimSpace(values[FieldImageURL]),
	}
}
