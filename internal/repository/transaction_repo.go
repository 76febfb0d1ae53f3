package repository

import (
	"context"

	"cafe-inventory/internal/model"

	"gorm.io/gorm"
)

//go:generate mockgen -source=transaction_repo.go -destination=transaction_repo_mock.go -package=repository

// TransactionRepository is the append-only stock ledger. There is no update or delete.
type TransactionRepository interface {
	WithTx(tx *gorm.DB) TransactionRepository
	Append(ctx context.Context, entry *model.StockTransaction) error
	FindAll(ctx context.Context) ([]model.StockTransaction, error)
	FindByProduct(ctx context.Context, productID uint) ([]model.StockTransaction, error)
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) WithTx(tx *gorm.DB) TransactionRepository {
	return &transactionRepo{tx}
}

func (r *transactionRepo) Append(ctx context.Context, entry *model.StockTransaction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindAll returns the ledger oldest first; ids are assigned in insertion order
func (r *transactionRepo) FindAll(ctx context.Context) ([]model.StockTransaction, error) {
	var transactions []model.StockTransaction
	err := r.db.WithContext(ctx).Order("id ASC").Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) FindByProduct(ctx context.Context, productID uint) ([]model.StockTransaction, error) {
	var transactions []model.StockTransaction
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id ASC").
		Find(&transactions).Error
	return transactions, err
}
