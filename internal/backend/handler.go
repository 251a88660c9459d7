package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront-client/internal/domain"
)

const maxUploadSize = 10 << 20

// Handler serves the Item Service and Payment Service contracts the
// storefront controllers talk to.
type Handler struct {
	repo         *Repository
	uploadDir    string
	paymentToken string
	logger       *slog.Logger
}

// NewHandler builds the handler. An empty paymentToken accepts any
// non-empty bearer token.
func NewHandler(repo *Repository, uploadDir, paymentToken string, logger *slog.Logger) *Handler {
	return &Handler{
		repo:         repo,
		uploadDir:    uploadDir,
		paymentToken: paymentToken,
		logger:       logger,
	}
}

func (h *Handler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListItems(r.Context())
	if err != nil {
		h.logger.Error("failed to list items", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("items listed", "count", len(items))
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) HandleCreateItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	item, err := parseItemForm(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filename, err := h.saveImage(r)
	if err != nil {
		h.logger.Error("failed to store image", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if filename != "" {
		item.Image = domain.StoredReference(filename)
	}

	if err := h.repo.CreateItem(r.Context(), &item); err != nil {
		h.logger.Error("failed to create item", "error", err)
		h.removeImage(filename)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("item created", "item_id", item.ID, "name", item.Name, "category", item.Category)
	h.writeJSON(w, http.StatusCreated, item)
}

func parseItemForm(r *http.Request) (domain.StockItem, error) {
	name := r.FormValue("name")
	priceStr := r.FormValue("price")
	stockStr := r.FormValue("stock")
	category := domain.Category(r.FormValue("category"))

	if name == "" || priceStr == "" || stockStr == "" || category == "" {
		return domain.StockItem{}, errors.New("missing required fields")
	}

	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return domain.StockItem{}, errors.New("invalid price")
	}

	stock, err := strconv.Atoi(stockStr)
	if err != nil {
		return domain.StockItem{}, errors.New("invalid stock")
	}

	if !category.Valid() {
		return domain.StockItem{}, errors.New("invalid category")
	}

	return domain.StockItem{
		Name:        name,
		Description: r.FormValue("description"),
		Price:       price,
		Qty:         stock,
		Category:    category,
	}, nil
}

// saveImage writes the optional image part under a generated name and
// returns that name, or "" when no image was sent.
func (h *Handler) saveImage(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read image part: %w", err)
	}
	defer func() { _ = file.Close() }()

	filename := uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	dst, err := os.Create(filepath.Join(h.uploadDir, filename))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}

	_, err = io.Copy(dst, file)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		h.removeImage(filename)
		return "", fmt.Errorf("write image file: %w", err)
	}

	return filename, nil
}

// removeImage deletes an upload that has no matching item row.
func (h *Handler) removeImage(filename string) {
	if filename == "" {
		return
	}
	if err := os.Remove(filepath.Join(h.uploadDir, filename)); err != nil && !errors.Is(err, os.ErrNotExist) {
		h.logger.Warn("failed to remove orphaned image", "error", err, "filename", filename)
	}
}

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" || name != filepath.Base(name) {
		h.writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	http.ServeFile(w, r, filepath.Join(h.uploadDir, name))
}

func (h *Handler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" || (h.paymentToken != "" && token != h.paymentToken) {
		h.writeJSON(w, http.StatusUnauthorized, domain.PaymentResponse{Error: "unauthorized"})
		return
	}

	var req domain.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, domain.PaymentResponse{Error: "invalid request body"})
		return
	}

	payment, err := paymentFromRequest(req)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, domain.PaymentResponse{TransactionID: req.TransactionID, Error: err.Error()})
		return
	}

	if err := h.repo.RecordPayment(r.Context(), payment); err != nil {
		if errors.Is(err, ErrDuplicateTransaction) {
			h.writeJSON(w, http.StatusConflict, domain.PaymentResponse{TransactionID: req.TransactionID, Error: "duplicate transaction"})
			return
		}
		h.logger.Error("failed to record payment", "error", err, "transaction_id", req.TransactionID)
		h.writeJSON(w, http.StatusInternalServerError, domain.PaymentResponse{Error: "internal server error"})
		return
	}

	h.logger.Info("payment recorded", "transaction_id", payment.TransactionID, "method", payment.Method)
	h.writeJSON(w, http.StatusOK, domain.PaymentResponse{Success: true, TransactionID: payment.TransactionID})
}

func paymentFromRequest(req domain.PaymentRequest) (*Payment, error) {
	if req.TransactionID == "" {
		return nil, errors.New("missing transaction id")
	}

	payment := &Payment{
		TransactionID: req.TransactionID,
		Method:        req.PaymentMethod,
	}

	switch req.PaymentMethod {
	case domain.PaymentMethodCard:
		if req.CardDetails == nil || !req.CardDetails.Complete() {
			return nil, errors.New("card details required")
		}
		payment.CardholderName = req.CardDetails.CardholderName
		payment.CardLast4 = last4(req.CardDetails.CardNumber)
	case domain.PaymentMethodCashOnDelivery:
		if req.CardDetails != nil {
			return nil, errors.New("card details not allowed for cash on delivery")
		}
	default:
		return nil, errors.New("unknown payment method")
	}

	return payment, nil
}

func last4(number string) string {
	if len(number) <= 4 {
		return number
	}
	return number[len(number)-4:]
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
