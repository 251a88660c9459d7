package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/storefront-client/internal/domain"
)

var (
	ErrSubmitInFlight       = errors.New("payment submission already in flight")
	ErrUnknownCardField     = errors.New("unknown card field")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrPaymentRejected      = errors.New("payment rejected")
)

const (
	CardDetailsRequiredMessage = "All card details are required for card payments."
	PaymentFailedMessage       = "Payment failed. Please try again."
	PaymentSucceededNotice     = "Payment successful!"
)

var (
	tracer = otel.Tracer("checkout")
	meter  = otel.Meter("checkout")
)

type Status int

const (
	StatusIdle Status = iota
	StatusInFlight
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusInFlight:
		return "in_flight"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// SubmissionState is Idle, InFlight or Failed(Message).
type SubmissionState struct {
	Status  Status
	Message string
}

type CardField string

const (
	FieldCardholderName CardField = "cardholderName"
	FieldCardNumber     CardField = "cardNumber"
	FieldExpiryDate     CardField = "expiryDate"
	FieldCVV            CardField = "cvv"
)

// CartStore returns the serialized cart, or ok=false when none is stored.
type CartStore interface {
	LoadCart(ctx context.Context) (raw string, ok bool, err error)
}

type AuthStore interface {
	Token(ctx context.Context) (token string, ok bool, err error)
}

type PaymentService interface {
	SubmitPayment(ctx context.Context, payment domain.PaymentRequest, token string) (domain.PaymentResponse, error)
}

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type View interface {
	Refresh()
	Notice(message string)
}

type nopView struct{}

func (nopView) Refresh()       {}
func (nopView) Notice(string) {}

type Option func(*Controller)

func WithPublisher(p Publisher) Option {
	return func(c *Controller) {
		c.publisher = p
	}
}

func WithView(v View) Option {
	return func(c *Controller) {
		c.view = v
	}
}

// WithIDGenerator replaces the transaction id source.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		c.newID = fn
	}
}

// Controller drives the cart-to-payment flow.
type Controller struct {
	payments    PaymentService
	carts       CartStore
	auth        AuthStore
	logger      *slog.Logger
	publisher   Publisher
	view        View
	newID       func() string
	submissions metric.Int64Counter

	mu     sync.Mutex
	cart   []domain.CartEntry
	total  decimal.Decimal
	method domain.PaymentMethod
	card   domain.CardDetails
	state  SubmissionState
}

func NewController(payments PaymentService, carts CartStore, auth AuthStore, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		payments: payments,
		carts:    carts,
		auth:     auth,
		logger:   logger,
		view:     nopView{},
		newID:    func() string { return uuid.New().String() },
		cart:     []domain.CartEntry{},
		total:    decimal.Zero,
		method:   domain.PaymentMethodCard,
	}

	for _, opt := range opts {
		opt(c)
	}

	counter, err := meter.Int64Counter("checkout.payment.submissions",
		metric.WithDescription("Payment submissions by outcome"),
	)
	if err != nil {
		logger.Warn("failed to create submissions counter", "error", err)
		counter = noop.Int64Counter{}
	}
	c.submissions = counter

	return c
}

// LoadCart reads the stored cart. Missing, unreadable or malformed carts
// load as empty.
func (c *Controller) LoadCart(ctx context.Context) {
	entries := []domain.CartEntry{}

	raw, ok, err := c.carts.LoadCart(ctx)
	switch {
	case err != nil:
		c.logger.Error("failed to read cart", "error", fmt.Errorf("%w: %w", domain.ErrSoftLoad, err))
	case !ok:
		c.logger.Info("no cart stored")
	default:
		decoded, err := decodeCart(raw)
		if err != nil {
			c.logger.Warn("discarding malformed cart", "error", fmt.Errorf("%w: %w", domain.ErrSoftLoad, err))
		} else {
			entries = decoded
		}
	}

	total, err := TotalAmount(entries)
	if err != nil {
		// decodeCart already validated every price.
		total = decimal.Zero
	}

	c.mu.Lock()
	c.cart = entries
	c.total = total
	c.mu.Unlock()

	c.logger.Info("cart loaded", "entries", len(entries), "total", total.StringFixed(2))
	c.view.Refresh()
}

// SetPaymentMethod changes the method without touching the card fields.
func (c *Controller) SetPaymentMethod(method domain.PaymentMethod) error {
	if method != domain.PaymentMethodCard && method != domain.PaymentMethodCashOnDelivery {
		return fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, method)
	}

	c.mu.Lock()
	c.method = method
	c.mu.Unlock()

	c.view.Refresh()
	return nil
}

func (c *Controller) SetCardField(field CardField, value string) error {
	c.mu.Lock()
	switch field {
	case FieldCardholderName:
		c.card.CardholderName = value
	case FieldCardNumber:
		c.card.CardNumber = value
	case FieldExpiryDate:
		c.card.ExpiryDate = value
	case FieldCVV:
		c.card.CVV = value
	default:
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownCardField, field)
	}
	c.mu.Unlock()

	c.view.Refresh()
	return nil
}

// SubmitPayment runs Idle/Failed -> InFlight -> Idle|Failed. Card fields are
// cleared after every attempt, including a rejected validation.
func (c *Controller) SubmitPayment(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Status == StatusInFlight {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}

	method := c.method
	card := c.card
	if method == domain.PaymentMethodCard && !card.Complete() {
		c.state = SubmissionState{Status: StatusFailed, Message: CardDetailsRequiredMessage}
		c.card = domain.CardDetails{}
		c.mu.Unlock()

		c.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "invalid")))
		c.view.Refresh()
		return fmt.Errorf("%w: incomplete card details", domain.ErrValidation)
	}

	c.state = SubmissionState{Status: StatusInFlight}
	amount := c.total.StringFixed(2)
	c.mu.Unlock()
	c.view.Refresh()

	payment := domain.PaymentRequest{
		PaymentMethod: method,
		TransactionID: c.newID(),
	}
	if method == domain.PaymentMethodCard {
		payment.CardDetails = &card
	}

	ctx, span := tracer.Start(ctx, "checkout.submit_payment",
		trace.WithAttributes(
			attribute.String("payment.method", string(method)),
			attribute.String("payment.transaction_id", payment.TransactionID),
		),
	)
	defer span.End()

	token := c.bearerToken(ctx)
	resp, err := c.payments.SubmitPayment(ctx, payment, token)
	if err == nil && !resp.Success {
		err = fmt.Errorf("%w: transaction %s", ErrPaymentRejected, payment.TransactionID)
	}

	c.mu.Lock()
	c.card = domain.CardDetails{}
	if err != nil {
		c.state = SubmissionState{Status: StatusFailed, Message: PaymentFailedMessage}
	} else {
		c.state = SubmissionState{Status: StatusIdle}
	}
	c.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
		c.logger.Error("payment failed", "error", err, "transaction_id", payment.TransactionID, "method", method)
		c.publish(ctx, domain.EventPaymentFailed, payment, amount)
		c.view.Refresh()
		return err
	}

	c.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "succeeded")))
	c.logger.Info("payment completed", "transaction_id", payment.TransactionID, "method", method, "amount", amount)
	c.publish(ctx, domain.EventPaymentCompleted, payment, amount)
	c.view.Notice(PaymentSucceededNotice)
	c.view.Refresh()
	return nil
}

func (c *Controller) bearerToken(ctx context.Context) string {
	token, ok, err := c.auth.Token(ctx)
	if err != nil {
		c.logger.Warn("failed to read auth token", "error", err)
		return ""
	}
	if !ok {
		c.logger.Warn("no auth token stored")
		return ""
	}
	return token
}

func (c *Controller) publish(ctx context.Context, eventType domain.EventType, payment domain.PaymentRequest, amount string) {
	if c.publisher == nil {
		return
	}

	event := domain.ActivityEvent{
		Type:          eventType,
		TransactionID: payment.TransactionID,
		PaymentMethod: payment.PaymentMethod,
		Amount:        amount,
		Timestamp:     time.Now().UTC(),
	}
	if err := c.publisher.Publish(ctx, payment.TransactionID, event); err != nil {
		c.logger.Error("failed to publish payment event", "error", err, "transaction_id", payment.TransactionID)
	}
}

func (c *Controller) Cart() []domain.CartEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.CartEntry, len(c.cart))
	copy(out, c.cart)
	return out
}

func (c *Controller) CartEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cart) == 0
}

// TotalAmount is the cart total with exactly two decimal places.
func (c *Controller) TotalAmount() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total.StringFixed(2)
}

func (c *Controller) PaymentMethod() domain.PaymentMethod {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.method
}

// CardFieldsVisible reports whether the card inputs are shown and required.
func (c *Controller) CardFieldsVisible() bool {
	return c.PaymentMethod() == domain.PaymentMethodCard
}

func (c *Controller) CardDetails() domain.CardDetails {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.card
}

func (c *Controller) State() SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) PayButtonLabel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Status == StatusInFlight {
		return "Processing..."
	}
	return "Pay $" + c.total.StringFixed(2)
}
