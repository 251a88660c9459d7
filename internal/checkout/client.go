package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/joao-fontenele/storefront-client/internal/domain"
)

// PaymentClient sends payment requests to the Payment Service.
type PaymentClient struct {
	baseURL string
	client  *http.Client
}

func NewPaymentClient(baseURL string, client *http.Client) *PaymentClient {
	return &PaymentClient{
		baseURL: baseURL,
		client:  client,
	}
}

// SubmitPayment posts the request with the bearer token attached. An empty
// token sends no Authorization header.
func (c *PaymentClient) SubmitPayment(ctx context.Context, payment domain.PaymentRequest, token string) (domain.PaymentResponse, error) {
	data, err := json.Marshal(payment)
	if err != nil {
		return domain.PaymentResponse{}, fmt.Errorf("marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/payment", bytes.NewReader(data))
	if err != nil {
		return domain.PaymentResponse{}, fmt.Errorf("create payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.PaymentResponse{}, fmt.Errorf("%w: submit payment: %w", domain.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.PaymentResponse{}, fmt.Errorf("%w: payment service returned status %d", domain.ErrTransport, resp.StatusCode)
	}

	var out domain.PaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.PaymentResponse{}, fmt.Errorf("%w: decode payment response: %w", domain.ErrTransport, err)
	}

	return out, nil
}
