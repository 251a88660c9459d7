package domain

import "fmt"

// CartEntry is a line item written by the cart-building flow. It is never
// modified here.
type CartEntry struct {
	Label      string `json:"label"`
	Size       string `json:"size"`
	Quantity   int    `json:"quantity"`
	FinalPrice string `json:"finalPrice"`
}

func (e CartEntry) Line() string {
	return fmt.Sprintf("%s (%s) x%d", e.Label, e.Size, e.Quantity)
}

func (e CartEntry) PriceLabel() string {
	return "$" + e.FinalPrice
}
