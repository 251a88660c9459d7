package checkout

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-client/internal/domain"
)

// decodeCart parses the stored cart blob. A cart containing an entry whose
// finalPrice is not a decimal number is rejected as a whole.
func decodeCart(raw string) ([]domain.CartEntry, error) {
	var entries []domain.CartEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}

	for i, entry := range entries {
		if _, err := parsePrice(entry.FinalPrice); err != nil {
			return nil, fmt.Errorf("cart entry %d (%s): %w", i, entry.Label, err)
		}
	}

	if entries == nil {
		entries = []domain.CartEntry{}
	}
	return entries, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid final price %q: %w", s, err)
	}
	return d, nil
}

// TotalAmount sums finalPrice over the cart.
func TotalAmount(entries []domain.CartEntry) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, entry := range entries {
		price, err := parsePrice(entry.FinalPrice)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(price)
	}
	return total, nil
}
