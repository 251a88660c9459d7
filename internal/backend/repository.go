package backend

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront-client/internal/domain"
)

var ErrDuplicateTransaction = errors.New("duplicate transaction id")

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

type Payment struct {
	ID             string
	TransactionID  string
	Method         domain.PaymentMethod
	CardholderName string
	CardLast4      string
	CreatedAt      time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListItems(ctx context.Context) ([]domain.StockItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price, stock, category, image
		FROM items
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []domain.StockItem{}
	for rows.Next() {
		var (
			item  domain.StockItem
			image sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Price, &item.Qty, &item.Category, &image); err != nil {
			return nil, err
		}
		if image.Valid && image.String != "" {
			item.Image = domain.StoredReference(image.String)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *domain.StockItem) error {
	item.ID = uuid.New().String()

	var image sql.NullString
	if ref, ok := item.Image.(domain.StoredReference); ok && ref != "" {
		image = sql.NullString{String: string(ref), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO items (id, name, description, price, stock, category, image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, item.ID, item.Name, item.Description, item.Price, item.Qty, item.Category, image, time.Now().UTC())
	return err
}

func (r *Repository) RecordPayment(ctx context.Context, payment *Payment) error {
	payment.ID = uuid.New().String()
	payment.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, transaction_id, payment_method, cardholder_name, card_last4, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, payment.ID, payment.TransactionID, payment.Method, payment.CardholderName, payment.CardLast4, payment.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateTransaction
		}
		return err
	}

	return nil
}

func (r *Repository) GetPayment(ctx context.Context, transactionID string) (*Payment, error) {
	payment := &Payment{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, transaction_id, payment_method, cardholder_name, card_last4, created_at
		FROM payments
		WHERE transaction_id = $1
	`, transactionID).Scan(&payment.ID, &payment.TransactionID, &payment.Method, &payment.CardholderName, &payment.CardLast4, &payment.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return payment, nil
}
