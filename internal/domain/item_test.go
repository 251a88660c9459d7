package domain

import (
	"encoding/json"
	"testing"
)

func TestStockItem_JSON(t *testing.T) {
	t.Run("image string decodes as stored reference", func(t *testing.T) {
		var item StockItem
		if err := json.Unmarshal([]byte(`{"name":"TV","price":120.5,"qty":3,"image":"tv.png","category":"Electronics"}`), &item); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ref, ok := item.Image.(StoredReference)
		if !ok || ref != "tv.png" {
			t.Errorf("expected StoredReference tv.png, got %#v", item.Image)
		}
		if item.Qty != 3 || item.Price != 120.5 {
			t.Errorf("unexpected item %+v", item)
		}
	})

	t.Run("missing image decodes as nil", func(t *testing.T) {
		var item StockItem
		if err := json.Unmarshal([]byte(`{"name":"Rice"}`), &item); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item.Image != nil {
			t.Errorf("expected nil image, got %#v", item.Image)
		}
	})

	t.Run("local file is never encoded", func(t *testing.T) {
		data, err := json.Marshal(StockItem{Name: "Hat", Image: LocalFile{Filename: "hat.png", Data: []byte("raw")}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var out map[string]any
		_ = json.Unmarshal(data, &out)
		if _, ok := out["image"]; ok {
			t.Errorf("expected no image key, got %s", data)
		}
	})
}

func TestCategory_Valid(t *testing.T) {
	for _, c := range []Category{CategoryElectronics, CategoryGroceries, CategoryClothing} {
		if !c.Valid() {
			t.Errorf("expected %s to be valid", c)
		}
	}
	if Category("Toys").Valid() || Category("").Valid() {
		t.Error("expected unknown categories to be invalid")
	}
}

func TestCardDetails_Complete(t *testing.T) {
	full := CardDetails{CardholderName: "A", CardNumber: "1", ExpiryDate: "01/30", CVV: "1"}
	if !full.Complete() {
		t.Error("expected complete card")
	}
	partial := full
	partial.CVV = ""
	if partial.Complete() {
		t.Error("expected incomplete card")
	}
}
