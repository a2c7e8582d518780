package repository

import (
	"context"
	"time"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"gorm.io/gorm"
)

// PartsRequestRepository spare parts requests
type PartsRequestRepository struct {
	db *gorm.DB
}

func NewPartsRequestRepository(db *gorm.DB) *PartsRequestRepository {
	return &PartsRequestRepository{db: db}
}

func (r *PartsRequestRepository) WithTx(tx *gorm.DB) *PartsRequestRepository {
	return &PartsRequestRepository{db: tx}
}

func (r *PartsRequestRepository) Create(ctx context.Context, req *entity.SparePartsRequest) error {
	if req.ID == "" {
		req.ID = NewID()
	}
	if req.Version == 0 {
		req.Version = 1
	}
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *PartsRequestRepository) FindByID(ctx context.Context, id string) (*entity.SparePartsRequest, error) {
	var req entity.SparePartsRequest
	err := r.db.WithContext(ctx).
		Preload("SparePart").
		Preload("MaintenanceWork").
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

// FindByIDForUpdate reads and locks the request row.
func (r *PartsRequestRepository) FindByIDForUpdate(ctx context.Context, id string) (*entity.SparePartsRequest, error) {
	var req entity.SparePartsRequest
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

// Update writes fields if the row still carries req.Version, then bumps the
// in-memory version to match.
func (r *PartsRequestRepository) Update(ctx context.Context, req *entity.SparePartsRequest, fields map[string]interface{}) error {
	fields["version"] = gorm.Expr("version + 1")
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&entity.SparePartsRequest{}).
		Where("id = ? AND version = ?", req.ID, req.Version).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	req.Version++
	return nil
}

// CountOutstandingByWork requests for a work order that still block it on parts.
func (r *PartsRequestRepository) CountOutstandingByWork(ctx context.Context, workID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.SparePartsRequest{}).
		Where("maintenance_work_id = ? AND status IN ?", workID, entity.OutstandingPartsRequestStatuses).
		Count(&count).Error
	return count, err
}

type PartsRequestListParams struct {
	Status            string
	MaintenanceWorkID string
	SparePartID       string
	RequestedBy       string
	Page              int
	PageSize          int
}

func (r *PartsRequestRepository) List(ctx context.Context, params PartsRequestListParams) ([]entity.SparePartsRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.SparePartsRequest{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.MaintenanceWorkID != "" {
		query = query.Where("maintenance_work_id = ?", params.MaintenanceWorkID)
	}
	if params.SparePartID != "" {
		query = query.Where("spare_part_id = ?", params.SparePartID)
	}
	if params.RequestedBy != "" {
		query = query.Where("requested_by = ?", params.RequestedBy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []entity.SparePartsRequest
	err := query.Preload("SparePart").
		Order("created_at DESC").
		Scopes(paginate(params.Page, params.PageSize)).
		Find(&items).Error
	return items, total, err
}
