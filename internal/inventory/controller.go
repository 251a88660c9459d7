package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/joao-fontenele/storefront-client/internal/domain"
)

var (
	ErrUnknownField   = errors.New("unknown draft field")
	ErrSubmitInFlight = errors.New("item submission already in flight")
)

// RequiredFieldsNotice is shown to the user when the draft fails validation.
const RequiredFieldsNotice = "Please fill in all required fields!"

var (
	tracer = otel.Tracer("inventory")
	meter  = otel.Meter("inventory")
)

type DraftField string

const (
	FieldName        DraftField = "name"
	FieldDescription DraftField = "description"
	FieldPrice       DraftField = "price"
	FieldQty         DraftField = "qty"
	FieldCategory    DraftField = "category"
)

type ItemService interface {
	ListItems(ctx context.Context) ([]domain.StockItem, error)
	CreateItem(ctx context.Context, item domain.StockItem) (domain.StockItem, error)
}

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// View is notified after every state change. Notice carries a blocking
// user-facing message.
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

func WithImageBaseURL(baseURL string) Option {
	return func(c *Controller) {
		c.imageBaseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// Controller owns the confirmed catalog and the uncommitted draft item.
type Controller struct {
	service      ItemService
	logger       *slog.Logger
	publisher    Publisher
	view         View
	imageBaseURL string
	submissions  metric.Int64Counter

	mu         sync.Mutex
	catalog    []domain.StockItem
	draft      domain.StockItem
	submitting bool
}

func NewController(service ItemService, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		service:      service,
		logger:       logger,
		view:         nopView{},
		imageBaseURL: "/uploads",
		catalog:      []domain.StockItem{},
	}

	for _, opt := range opts {
		opt(c)
	}

	counter, err := meter.Int64Counter("inventory.item.submissions",
		metric.WithDescription("Item draft submissions by outcome"),
	)
	if err != nil {
		logger.Warn("failed to create submissions counter", "error", err)
		counter = noop.Int64Counter{}
	}
	c.submissions = counter

	return c
}

// LoadCatalog replaces the catalog with the Item Service's list. A failed
// load keeps the previous catalog and is only logged.
func (c *Controller) LoadCatalog(ctx context.Context) {
	items, err := c.service.ListItems(ctx)
	if err != nil {
		c.logger.Error("failed to load catalog", "error", fmt.Errorf("%w: %w", domain.ErrSoftLoad, err))
		return
	}

	c.mu.Lock()
	c.catalog = items
	c.mu.Unlock()

	c.logger.Info("catalog loaded", "count", len(items))
	c.view.Refresh()
}

// UpdateDraftField sets one scalar field of the draft. Numeric input that
// does not parse to a finite number is stored as zero and rejected at
// submit time.
func (c *Controller) UpdateDraftField(field DraftField, value string) error {
	c.mu.Lock()
	switch field {
	case FieldName:
		c.draft.Name = value
	case FieldDescription:
		c.draft.Description = value
	case FieldPrice:
		price, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			price = 0
		}
		c.draft.Price = price
	case FieldQty:
		qty, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			qty = 0
		}
		c.draft.Qty = qty
	case FieldCategory:
		c.draft.Category = domain.Category(value)
	default:
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	c.mu.Unlock()

	c.view.Refresh()
	return nil
}

func (c *Controller) SetDraftImage(file domain.LocalFile) {
	c.mu.Lock()
	c.draft.Image = file
	c.mu.Unlock()

	c.view.Refresh()
}

// SubmitDraft validates the draft and sends it to the Item Service. On
// success the created item is appended to the catalog and the draft is
// cleared; on failure the draft is kept for retry.
func (c *Controller) SubmitDraft(ctx context.Context) error {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}
	draft := c.draft
	if err := validateDraft(draft); err != nil {
		c.mu.Unlock()
		c.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "invalid")))
		c.view.Notice(RequiredFieldsNotice)
		return err
	}
	c.submitting = true
	c.mu.Unlock()

	ctx, span := tracer.Start(ctx, "inventory.submit_item")
	defer span.End()

	created, err := c.service.CreateItem(ctx, draft)

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		c.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
		c.logger.Error("failed to submit item", "error", err, "name", draft.Name)
		c.view.Refresh()
		return err
	}
	c.catalog = append(c.catalog, created)
	c.draft = domain.StockItem{}
	c.mu.Unlock()

	c.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "created")))
	c.logger.Info("item created", "item_id", created.ID, "name", created.Name)
	c.publish(ctx, created)
	c.view.Refresh()
	return nil
}

func (c *Controller) publish(ctx context.Context, item domain.StockItem) {
	if c.publisher == nil {
		return
	}

	event := domain.ActivityEvent{
		Type:      domain.EventItemCreated,
		ItemID:    item.ID,
		ItemName:  item.Name,
		Category:  item.Category,
		Timestamp: time.Now().UTC(),
	}
	key := item.ID
	if key == "" {
		key = item.Name
	}
	if err := c.publisher.Publish(ctx, key, event); err != nil {
		c.logger.Error("failed to publish item created event", "error", err, "item_id", item.ID)
	}
}

// validateDraft rejects zero price and zero quantity as missing, matching
// the storefront form's truthiness check.
func validateDraft(d domain.StockItem) error {
	var missing []string
	if d.Name == "" {
		missing = append(missing, string(FieldName))
	}
	if d.Category == "" {
		missing = append(missing, string(FieldCategory))
	}
	if d.Price == 0 || math.IsNaN(d.Price) || math.IsInf(d.Price, 0) {
		missing = append(missing, string(FieldPrice))
	}
	if d.Qty == 0 {
		missing = append(missing, string(FieldQty))
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", domain.ErrValidation, strings.Join(missing, ", "))
	}

	if !d.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", domain.ErrValidation, d.Category)
	}

	return nil
}

func (c *Controller) Draft() domain.StockItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Controller) Catalog() []domain.StockItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.StockItem, len(c.catalog))
	copy(out, c.catalog)
	return out
}

// CatalogEmpty reports whether the "no stock items" state should show.
func (c *Controller) CatalogEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.catalog) == 0
}

func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

type Summary struct {
	ItemCount  int
	TotalValue decimal.Decimal
}

func (s Summary) TotalValueLabel() string {
	return s.TotalValue.StringFixed(2)
}

// Summary derives the catalog header figures on every call.
func (c *Controller) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, item := range c.catalog {
		total = total.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Qty))))
	}

	return Summary{
		ItemCount:  len(c.catalog),
		TotalValue: total,
	}
}

// ImageURL returns the display URL of an item's stored image.
func (c *Controller) ImageURL(item domain.StockItem) (string, bool) {
	ref, ok := item.Image.(domain.StoredReference)
	if !ok || ref == "" {
		return "", false
	}
	return c.imageBaseURL + "/" + string(ref), true
}
