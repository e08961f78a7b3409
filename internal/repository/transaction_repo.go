package repository

import (
	"context"

	"pos-backend/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionRepository records sales. The ledger is append-only: there is
// deliberately no update or delete.
type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) error
	List(ctx context.Context, page, limit int) ([]model.Transaction, int64, error)
	// SumTotals adds up every recorded total. Summation happens in Go with
	// decimal arithmetic so the result is exact on every backend.
	SumTotals(ctx context.Context) (decimal.Decimal, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *transactionRepository) List(ctx context.Context, page, limit int) ([]model.Transaction, int64, error) {
	var txs []model.Transaction
	var total int64

	if err := GetDB(ctx, r.db).Model(&model.Transaction{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := GetDB(ctx, r.db).Preload("Product").Order("timestamp desc, id desc").
		Offset(offset).Limit(limit).Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

func (r *transactionRepository) SumTotals(ctx context.Context) (decimal.Decimal, error) {
	var totals []decimal.Decimal
	if err := GetDB(ctx, r.db).Model(&model.Transaction{}).Pluck("total", &totals).Error; err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, totals...), nil
}
