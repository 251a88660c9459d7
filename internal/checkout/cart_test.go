package checkout

import (
	"testing"

	"github.com/joao-fontenele/storefront-client/internal/domain"
)

func TestTotalAmount(t *testing.T) {
	tests := []struct {
		name    string
		entries []domain.CartEntry
		want    string
		wantErr bool
	}{
		{name: "empty cart", entries: nil, want: "0.00"},
		{name: "single entry", entries: []domain.CartEntry{{FinalPrice: "19.99"}}, want: "19.99"},
		{name: "decimal sum without float drift", entries: []domain.CartEntry{{FinalPrice: "0.1"}, {FinalPrice: "0.2"}}, want: "0.30"},
		{name: "rounds to two places", entries: []domain.CartEntry{{FinalPrice: "1.005"}, {FinalPrice: "2"}}, want: "3.01"},
		{name: "trims whitespace", entries: []domain.CartEntry{{FinalPrice: " 5.50 "}}, want: "5.50"},
		{name: "unparseable price", entries: []domain.CartEntry{{FinalPrice: "abc"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TotalAmount(tt.entries)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.StringFixed(2) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.StringFixed(2))
			}
		})
	}
}

func TestDecodeCart(t *testing.T) {
	t.Run("null blob is empty", func(t *testing.T) {
		entries, err := decodeCart("null")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if entries == nil || len(entries) != 0 {
			t.Errorf("expected empty non-nil cart, got %#v", entries)
		}
	})

	t.Run("rejects non-array", func(t *testing.T) {
		if _, err := decodeCart(`{"label":"x"}`); err == nil {
			t.Error("expected error")
		}
	})
}
