package domain

import (
	"encoding/json"
	"fmt"
)

type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryGroceries   Category = "Groceries"
	CategoryClothing    Category = "Clothing"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryGroceries, CategoryClothing:
		return true
	}
	return false
}

// ItemImage is either a LocalFile picked by the user and not yet uploaded,
// or a StoredReference returned by the Item Service after creation.
type ItemImage interface {
	isItemImage()
}

type LocalFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (LocalFile) isItemImage() {}

// StoredReference is the opaque filename the Item Service assigned to an
// uploaded image.
type StoredReference string

func (StoredReference) isItemImage() {}

type StockItem struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Qty         int
	Image       ItemImage
	Category    Category
}

type stockItemJSON struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Qty         int      `json:"qty"`
	Image       string   `json:"image,omitempty"`
	Category    Category `json:"category"`
}

// MarshalJSON only carries stored image references; local files never
// leave the client as JSON.
func (s StockItem) MarshalJSON() ([]byte, error) {
	out := stockItemJSON{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price,
		Qty:         s.Qty,
		Category:    s.Category,
	}
	if ref, ok := s.Image.(StoredReference); ok {
		out.Image = string(ref)
	}
	return json.Marshal(out)
}

func (s *StockItem) UnmarshalJSON(data []byte) error {
	var in stockItemJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode stock item: %w", err)
	}

	*s = StockItem{
		ID:          in.ID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Qty:         in.Qty,
		Category:    in.Category,
	}
	if in.Image != "" {
		s.Image = StoredReference(in.Image)
	}
	return nil
}
