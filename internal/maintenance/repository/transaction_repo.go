package repository

import (
	"context"
	"strings"
	"time"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"gorm.io/gorm"
)

// TransactionRepository append-only access to inventory_transactions.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *entity.InventoryTransaction) error {
	if txn.ID == "" {
		txn.ID = NewID()
	}
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*entity.InventoryTransaction, error) {
	var txn entity.InventoryTransaction
	if err := r.db.WithContext(ctx).Preload("SparePart").Where("id = ?", id).First(&txn).Error; err != nil {
		return nil, notFound(err)
	}
	return &txn, nil
}

// FindByReference entries written for one reference number, oldest first.
func (r *TransactionRepository) FindByReference(ctx context.Context, referenceNumber string) ([]entity.InventoryTransaction, error) {
	var items []entity.InventoryTransaction
	err := r.db.WithContext(ctx).
		Where("reference_number = ?", referenceNumber).
		Order("transaction_date ASC").
		Find(&items).Error
	return items, err
}

// FindBySparePart all entries for a part in the order they were applied.
// transaction_date may be back-dated, so it is not used for ordering.
func (r *TransactionRepository) FindBySparePart(ctx context.Context, sparePartID string) ([]entity.InventoryTransaction, error) {
	var items []entity.InventoryTransaction
	err := r.db.WithContext(ctx).
		Where("spare_part_id = ?", sparePartID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

type TransactionListParams struct {
	TransactionType string
	ReferenceType   string
	SparePartID     string
	PerformedBy     string
	Search          string
	DateFrom        *time.Time
	DateTo          *time.Time
	SortBy          string
	SortOrder       string
	Page            int
	PageSize        int
}

var transactionSortColumns = map[string]string{
	"transaction_date": "transaction_date",
	"quantity":         "quantity",
	"total_value":      "total_value",
}

func (r *TransactionRepository) List(ctx context.Context, params TransactionListParams) ([]entity.InventoryTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.InventoryTransaction{})
	if params.TransactionType != "" {
		query = query.Where("transaction_type = ?", params.TransactionType)
	}
	if params.ReferenceType != "" {
		query = query.Where("reference_type = ?", params.ReferenceType)
	}
	if params.SparePartID != "" {
		query = query.Where("spare_part_id = ?", params.SparePartID)
	}
	if params.PerformedBy != "" {
		query = query.Where("performed_by_id = ?", params.PerformedBy)
	}
	if params.DateFrom != nil {
		query = query.Where("transaction_date >= ?", *params.DateFrom)
	}
	if params.DateTo != nil {
		query = query.Where("transaction_date <= ?", *params.DateTo)
	}
	if params.Search != "" {
		kw := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(reference_number) LIKE ? OR LOWER(notes) LIKE ?", kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := transactionSortColumns[params.SortBy]
	if !ok {
		column = "transaction_date"
	}
	direction := "DESC"
	if strings.EqualFold(params.SortOrder, "asc") {
		direction = "ASC"
	}

	var items []entity.InventoryTransaction
	q := query.Preload("SparePart").Order(column + " " + direction)
	err := q.Scopes(paginate(params.Page, params.PageSize)).Find(&items).Error
	return items, total, err
}
