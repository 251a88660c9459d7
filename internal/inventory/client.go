package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/joao-fontenele/storefront-client/internal/domain"
)

// ItemClient talks to the Item Service over HTTP.
type ItemClient struct {
	baseURL string
	client  *http.Client
}

func NewItemClient(baseURL string, client *http.Client) *ItemClient {
	return &ItemClient{
		baseURL: baseURL,
		client:  client,
	}
}

func (c *ItemClient) ListItems(ctx context.Context) ([]domain.StockItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/items", nil)
	if err != nil {
		return nil, fmt.Errorf("create list request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: list items: %w", domain.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: item service returned status %d", domain.ErrTransport, resp.StatusCode)
	}

	var items []domain.StockItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: decode items: %w", domain.ErrTransport, err)
	}
	if items == nil {
		items = []domain.StockItem{}
	}

	return items, nil
}

func (c *ItemClient) CreateItem(ctx context.Context, item domain.StockItem) (domain.StockItem, error) {
	body, contentType, err := encodeItemForm(item)
	if err != nil {
		return domain.StockItem{}, fmt.Errorf("encode item form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/items", body)
	if err != nil {
		return domain.StockItem{}, fmt.Errorf("create item request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.StockItem{}, fmt.Errorf("%w: create item: %w", domain.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return domain.StockItem{}, fmt.Errorf("%w: item service returned status %d", domain.ErrTransport, resp.StatusCode)
	}

	var created domain.StockItem
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return domain.StockItem{}, fmt.Errorf("%w: decode created item: %w", domain.ErrTransport, err)
	}

	return created, nil
}

// encodeItemForm writes the multipart body of POST /api/items. Quantity
// travels under the wire name "stock".
func encodeItemForm(item domain.StockItem) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := []struct{ name, value string }{
		{"name", item.Name},
		{"description", item.Description},
		{"price", strconv.FormatFloat(item.Price, 'f', -1, 64)},
		{"category", string(item.Category)},
		{"stock", strconv.Itoa(item.Qty)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	if file, ok := item.Image.(domain.LocalFile); ok {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, file.Filename))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return buf, w.FormDataContentType(), nil
}
