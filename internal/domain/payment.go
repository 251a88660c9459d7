package domain

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "Card"
	// PaymentMethodCashOnDelivery is the CashOnDelivery method. Its wire
	// value is the abbreviated "COD"; the long name is not accepted.
	PaymentMethodCashOnDelivery PaymentMethod = "COD"
)

type CardDetails struct {
	CardholderName string `json:"cardholderName"`
	CardNumber     string `json:"cardNumber"`
	ExpiryDate     string `json:"expiryDate"`
	CVV            string `json:"cvv"`
}

func (c CardDetails) Complete() bool {
	return c.CardholderName != "" && c.CardNumber != "" && c.ExpiryDate != "" && c.CVV != ""
}

// PaymentRequest is the body of POST /api/payment. CardDetails is nil unless
// PaymentMethod is PaymentMethodCard.
type PaymentRequest struct {
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	TransactionID string        `json:"transactionId"`
	CardDetails   *CardDetails  `json:"cardDetails"`
}

type PaymentResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId,omitempty"`
	Error         string `json:"error,omitempty"`
}
