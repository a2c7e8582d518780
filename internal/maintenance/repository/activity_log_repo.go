package repository

import (
	"context"
	"time"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"gorm.io/gorm"
)

// ActivityLogRepository audit rows. Append and read only.
type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) WithTx(tx *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: tx}
}

func (r *ActivityLogRepository) Create(ctx context.Context, log *entity.ActivityLog) error {
	if log.ID == "" {
		log.ID = NewID()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByEntity history of one entity, newest first
func (r *ActivityLogRepository) FindByEntity(ctx context.Context, entityType, entityID string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	return r.List(ctx, ActivityLogListParams{
		EntityType: entityType,
		EntityID:   entityID,
		Page:       page,
		PageSize:   pageSize,
	})
}

type ActivityLogListParams struct {
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}

func (r *ActivityLogRepository) List(ctx context.Context, params ActivityLogListParams) ([]entity.ActivityLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.ActivityLog{})
	if params.UserID != "" {
		query = query.Where("user_id = ?", params.UserID)
	}
	if params.Action != "" {
		query = query.Where("action = ?", params.Action)
	}
	if params.EntityType != "" {
		query = query.Where("entity_type = ?", params.EntityType)
	}
	if params.EntityID != "" {
		query = query.Where("entity_id = ?", params.EntityID)
	}
	if params.DateFrom != nil {
		query = query.Where(`"timestamp" >= ?`, *params.DateFrom)
	}
	if params.DateTo != nil {
		query = query.Where(`"timestamp" <= ?`, *params.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []entity.ActivityLog
	err := query.
		Order(`"timestamp" DESC`).
		Scopes(paginate(params.Page, params.PageSize)).
		Find(&items).Error
	return items, total, err
}
