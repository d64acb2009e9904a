package product

import (
	"errors"
	"strings"
)

// MaxBuyingOptions is the number of retailer links kept per product.
const MaxBuyingOptions = 3

var (
	ErrEmptyQuery = errors.New("empty query")
)

// ValidationMessage is shown to the user when a search is submitted without text.
const ValidationMessage = "Please enter a description of the electronic you're looking for."

// Query is a user supplied product description. Use NewQuery to build one.
type Query string

// NewQuery trims the raw input and rejects empty or whitespace-only text.
func NewQuery(raw string) (Query, error) {
	q := strings.TrimSpace(raw)
	if q == "" {
		return "", ErrEmptyQuery
	}
	return Query(q), nil
}

func (q Query) String() string {
	return string(q)
}

// Product is a single suggestion. Its position in the result list identifies it
// within a search session.
type Product struct {
	Name           string        `json:"name"`
	Category       string        `json:"category"`
	KeySpecs       []string      `json:"key_specs"`
	Reasoning      string        `json:"reasoning"`
	EstimatedPrice string        `json:"estimated_price"`
	ImageURL       string        `json:"imageUrl,omitempty"`
	BuyingOptions  BuyingOptions `json:"buyingOptions"`
}

// Bare returns a copy of p with enrichment fields reset.
func (p Product) Bare() Product {
	p.KeySpecs = append([]string(nil), p.KeySpecs...)
	p.ImageURL = ""
	p.BuyingOptions = PendingOptions()
	return p
}

// BuyingOption is a link to a page where the product can be purchased.
type BuyingOption struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}
