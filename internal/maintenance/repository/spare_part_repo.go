package repository

import (
	"context"
	"strings"
	"time"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"gorm.io/gorm"
)

// SparePartRepository spare parts. current_stock is written only through
// UpdateStock, which the stock ledger owns.
type SparePartRepository struct {
	db *gorm.DB
}

func NewSparePartRepository(db *gorm.DB) *SparePartRepository {
	return &SparePartRepository{db: db}
}

func (r *SparePartRepository) WithTx(tx *gorm.DB) *SparePartRepository {
	return &SparePartRepository{db: tx}
}

// Create inserts a part with an empty counter; opening stock goes through the ledger.
func (r *SparePartRepository) Create(ctx context.Context, part *entity.SparePart) error {
	if part.ID == "" {
		part.ID = NewID()
	}
	part.CurrentStock = 0
	if part.Version == 0 {
		part.Version = 1
	}
	return r.db.WithContext(ctx).Create(part).Error
}

func (r *SparePartRepository) FindByID(ctx context.Context, id string) (*entity.SparePart, error) {
	var part entity.SparePart
	if err := r.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&part).Error; err != nil {
		return nil, notFound(err)
	}
	return &part, nil
}

// FindByIDForUpdate reads and locks the part row for the rest of the transaction.
func (r *SparePartRepository) FindByIDForUpdate(ctx context.Context, id string) (*entity.SparePart, error) {
	var part entity.SparePart
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&part).Error; err != nil {
		return nil, notFound(err)
	}
	return &part, nil
}

func (r *SparePartRepository) FindByPartNumber(ctx context.Context, partNumber string) (*entity.SparePart, error) {
	var part entity.SparePart
	if err := r.db.WithContext(ctx).Where("part_number = ?", partNumber).First(&part).Error; err != nil {
		return nil, notFound(err)
	}
	return &part, nil
}

// UpdateFields updates descriptive fields. current_stock and version are never touched here.
func (r *SparePartRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	delete(fields, "current_stock")
	delete(fields, "version")
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&entity.SparePart{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStock sets the counter if the row still carries expectedVersion.
func (r *SparePartRepository) UpdateStock(ctx context.Context, id string, stock, expectedVersion int) error {
	result := r.db.WithContext(ctx).Model(&entity.SparePart{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"current_stock": stock,
			"version":       gorm.Expr("version + 1"),
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

type SparePartListParams struct {
	CategoryID string
	Location   string
	Keyword    string
	ActiveOnly bool
	LowStock   bool
	Page       int
	PageSize   int
}

func (r *SparePartRepository) List(ctx context.Context, params SparePartListParams) ([]entity.SparePart, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.SparePart{})
	if params.CategoryID != "" {
		query = query.Where("category_id = ?", params.CategoryID)
	}
	if params.Location != "" {
		query = query.Where("location = ?", params.Location)
	}
	if params.Keyword != "" {
		kw := "%" + strings.ToLower(params.Keyword) + "%"
		query = query.Where("LOWER(part_number) LIKE ? OR LOWER(part_name) LIKE ?", kw, kw)
	}
	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if params.LowStock {
		query = query.Where("current_stock <= minimum_stock")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []entity.SparePart
	q := query.Preload("Category").Order("part_number ASC")
	err := q.Scopes(paginate(params.Page, params.PageSize)).Find(&items).Error
	return items, total, err
}
