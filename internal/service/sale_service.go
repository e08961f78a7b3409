package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pos-backend/internal/apperr"
	"pos-backend/internal/model"
	"pos-backend/internal/repository"
	ws "pos-backend/internal/websocket"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProductRequest struct {
	Name  string          `json:"name" binding:"required"`
	Price decimal.Decimal `json:"price" binding:"required"`
}

type UpdateProductRequest struct {
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"price"`
}

type ProductResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

type RecordSaleRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

type TransactionResponse struct {
	ID          uint   `json:"id"`
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Total       string `json:"total"`
	Timestamp   string `json:"timestamp"`
}

// SaleEvent is pushed to websocket listeners whenever a sale is recorded.
type SaleEvent struct {
	Type        string `json:"type"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Total       string `json:"total"`
	Timestamp   string `json:"timestamp"`
}

// SaleService covers the product catalog and the append-only sale ledger.
type SaleService interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error)
	UpdateProduct(ctx context.Context, id uint, req UpdateProductRequest) (*ProductResponse, error)
	DeleteProduct(ctx context.Context, id uint) error
	GetProduct(ctx context.Context, id uint) (*ProductResponse, error)
	ListProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error)

	RecordSale(ctx context.Context, req RecordSaleRequest) (*TransactionResponse, error)
	ListTransactions(ctx context.Context, page, limit int) ([]TransactionResponse, int64, error)
	RunningTotal(ctx context.Context) (decimal.Decimal, error)
}

type saleService struct {
	products repository.ProductRepository
	txs      repository.TransactionRepository
	txm      repository.TransactionManager
	hub      *ws.Hub
}

func NewSaleService(products repository.ProductRepository, txs repository.TransactionRepository, txm repository.TransactionManager, hub *ws.Hub) SaleService {
	return &saleService{products: products, txs: txs, txm: txm, hub: hub}
}

func toProductResponse(p *model.Product) *ProductResponse {
	return &ProductResponse{ID: p.ID, Name: p.Name, Price: p.Price.StringFixed(2)}
}

func toTransactionResponse(t *model.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:          t.ID,
		ProductID:   t.ProductID,
		ProductName: t.Product.Name,
		Quantity:    t.Quantity,
		Total:       t.Total.StringFixed(2),
		Timestamp:   t.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *saleService) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if req.Name == "" {
		return nil, apperr.Validation("name", "must not be empty")
	}
	if req.Price.IsNegative() {
		return nil, apperr.Validation("price", "must not be negative")
	}

	product := &model.Product{Name: req.Name, Price: req.Price}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	return toProductResponse(product), nil
}

func (s *saleService) UpdateProduct(ctx context.Context, id uint, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, apperr.Validation("price", "must not be negative")
		}
		product.Price = *req.Price
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	return toProductResponse(product), nil
}

func (s *saleService) DeleteProduct(ctx context.Context, id uint) error {
	if _, err := s.products.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %d: %w", id, apperr.ErrNotFound)
		}
		return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	return s.products.Delete(ctx, id)
}

func (s *saleService) GetProduct(ctx context.Context, id uint) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	return toProductResponse(product), nil
}

func (s *saleService) ListProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error) {
	products, total, err := s.products.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, *toProductResponse(&products[i]))
	}
	return res, total, nil
}

// RecordSale appends one transaction with total = price × quantity. The
// product lookup and the insert share a transaction so a price change cannot
// slip between them.
func (s *saleService) RecordSale(ctx context.Context, req RecordSaleRequest) (*TransactionResponse, error) {
	if req.Quantity < 1 {
		return nil, apperr.Validation("quantity", "must be a positive integer")
	}

	var sale model.Transaction
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.products.FindByID(txCtx, req.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %d: %w", req.ProductID, apperr.ErrNotFound)
			}
			return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
		}

		sale = model.Transaction{
			ProductID: product.ID,
			Quantity:  req.Quantity,
			Total:     product.Price.Mul(decimal.NewFromInt(int64(req.Quantity))),
		}
		if err := s.txs.Create(txCtx, &sale); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
		}
		sale.Product = *product
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toTransactionResponse(&sale)
	s.broadcastSale(resp)
	return resp, nil
}

func (s *saleService) broadcastSale(t *TransactionResponse) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(SaleEvent{
		Type:        "sale_recorded",
		ProductName: t.ProductName,
		Quantity:    t.Quantity,
		Total:       t.Total,
		Timestamp:   t.Timestamp,
	})
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}

func (s *saleService) ListTransactions(ctx context.Context, page, limit int) ([]TransactionResponse, int64, error) {
	txs, total, err := s.txs.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	res := make([]TransactionResponse, 0, len(txs))
	for i := range txs {
		res = append(res, *toTransactionResponse(&txs[i]))
	}
	return res, total, nil
}

func (s *saleService) RunningTotal(ctx context.Context) (decimal.Decimal, error) {
	total, err := s.txs.SumTotals(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	return total, nil
}
