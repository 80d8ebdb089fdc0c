package models

import "time"

// Order is the confirmation produced by a successful checkout.
type Order struct {
	ID         string     `json:"id"`
	FirstName  string     `json:"fname"`
	LastName   string     `json:"lname"`
	Email      string     `json:"email,omitempty"`
	Street     string     `json:"street"`
	City       string     `json:"city"`
	State      string     `json:"state"`
	Zip        string     `json:"zip"`
	CardLast4  string     `json:"cardLast4"`
	Lines      []CartLine `json:"lines"`
	ItemCount  int        `json:"itemCount"`
	OrderTotal float64    `json:"orderTotal"`
	OrderDate  time.Time  `json:"orderDate"`
}
