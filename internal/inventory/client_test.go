package inventory

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joao-fontenele/storefront-client/internal/domain"
)

func TestItemClient_ListItems(t *testing.T) {
	t.Run("decodes items with stored image references", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("expected GET, got %s", r.Method)
			}
			if r.URL.Path != "/api/items" {
				t.Errorf("expected /api/items, got %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":"1","name":"TV","description":"","price":300,"qty":2,"image":"tv.png","category":"Electronics"},{"id":"2","name":"Rice","price":1.25,"qty":40,"category":"Groceries"}]`))
		}))
		defer server.Close()

		client := NewItemClient(server.URL, server.Client())
		items, err := client.ListItems(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		if ref, ok := items[0].Image.(domain.StoredReference); !ok || ref != "tv.png" {
			t.Errorf("expected stored reference tv.png, got %#v", items[0].Image)
		}
		if items[1].Image != nil {
			t.Errorf("expected no image, got %#v", items[1].Image)
		}
		if items[1].Qty != 40 || items[1].Category != domain.CategoryGroceries {
			t.Errorf("unexpected item: %+v", items[1])
		}
	})

	t.Run("null body yields empty list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`null`))
		}))
		defer server.Close()

		items, err := NewItemClient(server.URL, server.Client()).ListItems(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if items == nil || len(items) != 0 {
			t.Errorf("expected empty non-nil list, got %#v", items)
		}
	})

	t.Run("non-200 is a transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := NewItemClient(server.URL, server.Client()).ListItems(context.Background())
		if !errors.Is(err, domain.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})

	t.Run("unreachable service is a transport error", func(t *testing.T) {
		_, err := NewItemClient("http://localhost:99999", &http.Client{}).ListItems(context.Background())
		if !errors.Is(err, domain.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})
}

func TestItemClient_CreateItem(t *testing.T) {
	t.Run("sends multipart form with stock and image", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("failed to parse multipart form: %v", err)
				return
			}

			want := map[string]string{
				"name":        "Jacket",
				"description": "Warm",
				"price":       "49.5",
				"category":    "Clothing",
				"stock":       "7",
			}
			for field, value := range want {
				if got := r.FormValue(field); got != value {
					t.Errorf("field %s: expected %q, got %q", field, value, got)
				}
			}
			if r.FormValue("qty") != "" {
				t.Error("quantity must travel as stock, not qty")
			}

			file, header, err := r.FormFile("image")
			if err != nil {
				t.Errorf("expected image part: %v", err)
				return
			}
			defer func() { _ = file.Close() }()
			data, _ := io.ReadAll(file)
			if header.Filename != "jacket.jpg" || string(data) != "jpeg-bytes" {
				t.Errorf("unexpected image %s: %q", header.Filename, data)
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"42","name":"Jacket","description":"Warm","price":49.5,"qty":7,"image":"42.jpg","category":"Clothing"}`))
		}))
		defer server.Close()

		client := NewItemClient(server.URL, server.Client())
		created, err := client.CreateItem(context.Background(), domain.StockItem{
			Name:        "Jacket",
			Description: "Warm",
			Price:       49.5,
			Qty:         7,
			Category:    domain.CategoryClothing,
			Image:       domain.LocalFile{Filename: "jacket.jpg", ContentType: "image/jpeg", Data: []byte("jpeg-bytes")},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if created.ID != "42" {
			t.Errorf("expected id 42, got %s", created.ID)
		}
		if ref, ok := created.Image.(domain.StoredReference); !ok || ref != "42.jpg" {
			t.Errorf("expected stored reference, got %#v", created.Image)
		}
	})

	t.Run("omits image part without local file", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("failed to parse multipart form: %v", err)
				return
			}
			if _, _, err := r.FormFile("image"); err == nil {
				t.Error("expected no image part")
			}
			_, _ = w.Write([]byte(`{"name":"Rice","price":1,"qty":1,"category":"Groceries"}`))
		}))
		defer server.Close()

		_, err := NewItemClient(server.URL, server.Client()).CreateItem(context.Background(), domain.StockItem{
			Name: "Rice", Price: 1, Qty: 1, Category: domain.CategoryGroceries,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("rejected create is a transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid price"}`))
		}))
		defer server.Close()

		_, err := NewItemClient(server.URL, server.Client()).CreateItem(context.Background(), domain.StockItem{Name: "x"})
		if !errors.Is(err, domain.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})
}
