package services

import (
	"sort"
	"strings"

	"github.com/sleepoutside/backend/internal/models"
)

// PriceRange is the min and max FinalPrice of a product set.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FilterProducts keeps the products whose name, short name, brand or
// description contains query (case-insensitive) and which satisfy pred.
// An empty query matches everything; a nil pred accepts everything.
func FilterProducts(products []models.Product, query string, pred func(models.Product) bool) []models.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if pred != nil && !pred(p) {
			continue
		}
		if q == "" || containsFold(q, p.Name, p.NameWithoutBrand, p.Brand.Name, p.DescriptionHTMLSimple) {
			out = append(out, p)
		}
	}
	return out
}

// Suggestions returns up to limit distinct names and brands containing
// query, in first-seen order.
func Suggestions(products []models.Product, query string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || limit <= 0 {
		return []string{}
	}

	seen := make(map[string]bool)
	out := []string{}
	for _, p := range products {
		for _, candidate := range []string{p.Name, p.Brand.Name} {
			key := strings.ToLower(candidate)
			if candidate == "" || seen[key] || !strings.Contains(key, q) {
				continue
			}
			seen[key] = true
			out = append(out, candidate)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

func GetPriceRange(products []models.Product) PriceRange {
	if len(products) == 0 {
		return PriceRange{}
	}
	r := PriceRange{Min: products[0].FinalPrice, Max: products[0].FinalPrice}
	for _, p := range products[1:] {
		if p.FinalPrice < r.Min {
			r.Min = p.FinalPrice
		}
		if p.FinalPrice > r.Max {
			r.Max = p.FinalPrice
		}
	}
	return r
}

// Sort keys accepted by SortProducts.
const (
	SortByName      = "name"
	SortByPriceAsc  = "price-asc"
	SortByPriceDesc = "price-desc"
)

// SortProducts returns a sorted copy. Unknown keys keep the input order.
func SortProducts(products []models.Product, key string) []models.Product {
	out := make([]models.Product, len(products))
	copy(out, products)

	switch key {
	case SortByName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	case SortByPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].FinalPrice < out[j].FinalPrice })
	case SortByPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].FinalPrice > out[j].FinalPrice })
	}
	return out
}

func containsFold(lowerQuery string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), lowerQuery) {
			return true
		}
	}
	return false
}
