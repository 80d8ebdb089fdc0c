package models

import "math"

// Product is a catalog entry as published in the static category files.
// Field names follow the external JSON fixture.
type Product struct {
	ID                    string        `json:"Id"`
	Name                  string        `json:"Name"`
	NameWithoutBrand      string        `json:"NameWithoutBrand"`
	Image                 string        `json:"Image,omitempty"`
	Images                *ProductImage `json:"Images,omitempty"`
	FinalPrice            float64       `json:"FinalPrice"`
	ListPrice             float64       `json:"ListPrice,omitempty"`
	SuggestedRetailPrice  float64       `json:"SuggestedRetailPrice,omitempty"`
	Brand                 Brand         `json:"Brand"`
	Colors                []Color       `json:"Colors"`
	DescriptionHTMLSimple string        `json:"DescriptionHtmlSimple"`
}

type ProductImage struct {
	PrimarySmall      string `json:"PrimarySmall,omitempty"`
	PrimaryMedium     string `json:"PrimaryMedium,omitempty"`
	PrimaryLarge      string `json:"PrimaryLarge,omitempty"`
	PrimaryExtraLarge string `json:"PrimaryExtraLarge,omitempty"`
}

type Brand struct {
	Name string `json:"Name"`
}

type Color struct {
	ColorName         string `json:"ColorName"`
	ColorChipImageSrc string `json:"ColorChipImageSrc,omitempty"`
}

// PrimaryImage prefers the medium catalog image and falls back to Image.
func (p Product) PrimaryImage() string {
	if p.Images != nil {
		switch {
		case p.Images.PrimaryMedium != "":
			return p.Images.PrimaryMedium
		case p.Images.PrimaryLarge != "":
			return p.Images.PrimaryLarge
		case p.Images.PrimarySmall != "":
			return p.Images.PrimarySmall
		}
	}
	return p.Image
}

// DiscountPercent is the whole-percent markdown from the suggested retail
// price, or 0 when there is none.
func (p Product) DiscountPercent() int {
	if p.SuggestedRetailPrice <= 0 || p.FinalPrice >= p.SuggestedRetailPrice {
		return 0
	}
	return int(math.Round((p.SuggestedRetailPrice - p.FinalPrice) / p.SuggestedRetailPrice * 100))
}

// ProductDetail is a product plus the values the detail page derives from it.
type ProductDetail struct {
	Product
	PrimaryImageURL string `json:"primaryImage"`
	DiscountPercent int    `json:"discountPercent"`
}
