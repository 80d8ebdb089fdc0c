package models

import (
	"time"
)

// Category identifies one persisted inventory collection.
type Category string

const (
	CategoryTents        Category = "tents"
	CategoryBackpacks    Category = "backpacks"
	CategorySleepingBags Category = "sleeping-bags"
)

// Categories lists every inventory category in display order.
var Categories = []Category{
	CategoryTents,
	CategoryBackpacks,
	CategorySleepingBags,
}

// ParseCategory returns the category named by s, or false when s is not one
// of Categories.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// StorageKey is the persisted-collection key for the category.
func (c Category) StorageKey() string {
	return "so-inventory-" + string(c)
}

type InventoryRecord struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Category    Category   `json:"category"`
	Price       float64    `json:"price"`
	Description string     `json:"description"`
	ImageURL    string     `json:"imageUrl"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// CreateRecordRequest carries the product-entry form fields as typed values.
// Handlers build it only after the form has passed validation.
type CreateRecordRequest struct {
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
}

// UpdateRecordRequest is a partial patch; nil fields are left unchanged.
type UpdateRecordRequest struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	ImageURL    *string  `json:"imageUrl"`
}

// Apply merges the patch over rec in place.
func (r *UpdateRecordRequest) Apply(rec *InventoryRecord) {
	if r.Name != nil {
		rec.Name = *r.Name
	}
	if r.Price != nil {
		rec.Price = *r.Price
	}
	if r.Description != nil {
		rec.Description = *r.Description
	}
	if r.ImageURL != nil {
		rec.ImageURL = *r.ImageURL
	}
}
