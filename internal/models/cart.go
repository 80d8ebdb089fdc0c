package models

// CartLine is one cart entry. Quantity is at least 1 while the line exists.
type CartLine struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unitPrice"`
	Quantity   int     `json:"quantity"`
	ImageRef   string  `json:"imageRef"`
	ColorLabel string  `json:"colorLabel"`
}

// Subtotal is UnitPrice * Quantity.
func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// CartSummary is the read model returned by the cart endpoints.
type CartSummary struct {
	Lines     []CartLine `json:"lines"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"itemCount"`
}

// AddToCartRequest names a catalog product, or carries a ready-made line
// for items that are not in the catalog.
type AddToCartRequest struct {
	Category   string    `json:"category"`
	ProductID  string    `json:"productId"`
	ColorIndex int       `json:"colorIndex"`
	Line       *CartLine `json:"line,omitempty"`
}

func (r *AddToCartRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Line != nil {
		if r.Line.ID == "" {
			errors["line.id"] = "Line id is required"
		}
		if r.Line.UnitPrice < 0 {
			errors["line.unitPrice"] = "Unit price cannot be negative"
		}
		return errors
	}
	if r.Category == "" {
		errors["category"] = "Category is required"
	}
	if r.ProductID == "" {
		errors["productId"] = "Product id is required"
	}

	return errors
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}
