package repository

import (
	"context"
	"time"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"gorm.io/gorm"
)

// MaintenanceRequestRepository maintenance requests
type MaintenanceRequestRepository struct {
	db *gorm.DB
}

func NewMaintenanceRequestRepository(db *gorm.DB) *MaintenanceRequestRepository {
	return &MaintenanceRequestRepository{db: db}
}

func (r *MaintenanceRequestRepository) WithTx(tx *gorm.DB) *MaintenanceRequestRepository {
	return &MaintenanceRequestRepository{db: tx}
}

func (r *MaintenanceRequestRepository) Create(ctx context.Context, req *entity.MaintenanceRequest) error {
	if req.ID == "" {
		req.ID = NewID()
	}
	if req.Version == 0 {
		req.Version = 1
	}
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *MaintenanceRequestRepository) FindByID(ctx context.Context, id string) (*entity.MaintenanceRequest, error) {
	var req entity.MaintenanceRequest
	if err := r.db.WithContext(ctx).Preload("Machine").Where("id = ?", id).First(&req).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (r *MaintenanceRequestRepository) FindByIDForUpdate(ctx context.Context, id string) (*entity.MaintenanceRequest, error) {
	var req entity.MaintenanceRequest
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

// UpdateStatus moves the request to status if it still carries expectedVersion.
func (r *MaintenanceRequestRepository) UpdateStatus(ctx context.Context, req *entity.MaintenanceRequest, status string, extra map[string]interface{}) error {
	fields := map[string]interface{}{"status": status}
	for k, v := range extra {
		fields[k] = v
	}
	if err := r.UpdateFields(ctx, req, fields); err != nil {
		return err
	}
	req.Status = status
	return nil
}

// UpdateFields writes fields if the row still carries req.Version, then bumps it.
func (r *MaintenanceRequestRepository) UpdateFields(ctx context.Context, req *entity.MaintenanceRequest, fields map[string]interface{}) error {
	fields["version"] = gorm.Expr("version + 1")
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&entity.MaintenanceRequest{}).
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

// CountActiveForMachine active requests on a machine, excluding one request.
func (r *MaintenanceRequestRepository) CountActiveForMachine(ctx context.Context, machineID, excludeID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.MaintenanceRequest{}).
		Where("machine_id = ? AND id <> ? AND status IN ?", machineID, excludeID, entity.ActiveRequestStatuses).
		Count(&count).Error
	return count, err
}

// MaintenanceRequestListParams list filters. Statuses wins over Status;
// WithoutWork keeps requests nobody has taken; AssignedToID keeps requests
// whose work order belongs to that user.
type MaintenanceRequestListParams struct {
	Status        string
	Statuses      []string
	Priority      string
	MachineID     string
	RequestedByID string
	WithoutWork   bool
	HasWork       bool
	AssignedToID  string
	Page          int
	PageSize      int
}

func (r *MaintenanceRequestRepository) List(ctx context.Context, params MaintenanceRequestListParams) ([]entity.MaintenanceRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.MaintenanceRequest{})
	switch {
	case len(params.Statuses) > 0:
		query = query.Where("status IN ?", params.Statuses)
	case params.Status != "":
		query = query.Where("status = ?", params.Status)
	}
	if params.WithoutWork {
		query = query.Where("NOT EXISTS (SELECT 1 FROM maintenance_works w WHERE w.request_id = maintenance_requests.id)")
	}
	if params.HasWork || params.AssignedToID != "" {
		sub := r.db.Model(&entity.MaintenanceWork{}).Select("request_id")
		if params.AssignedToID != "" {
			sub = sub.Where("assigned_to_id = ?", params.AssignedToID)
		}
		query = query.Where("id IN (?)", sub)
	}
	if params.Priority != "" {
		query = query.Where("priority = ?", params.Priority)
	}
	if params.MachineID != "" {
		query = query.Where("machine_id = ?", params.MachineID)
	}
	if params.RequestedByID != "" {
		query = query.Where("requested_by_id = ?", params.RequestedByID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []entity.MaintenanceRequest
	err := query.Preload("Machine").
		Order("requested_date DESC").
		Scopes(paginate(params.Page, params.PageSize)).
		Find(&items).Error
	return items, total, err
}

// MaintenanceWorkRepository work orders
type MaintenanceWorkRepository struct {
	db *gorm.DB
}

func NewMaintenanceWorkRepository(db *gorm.DB) *MaintenanceWorkRepository {
	return &MaintenanceWorkRepository{db: db}
}

func (r *MaintenanceWorkRepository) WithTx(tx *gorm.DB) *MaintenanceWorkRepository {
	return &MaintenanceWorkRepository{db: tx}
}

func (r *MaintenanceWorkRepository) Create(ctx context.Context, work *entity.MaintenanceWork) error {
	if work.ID == "" {
		work.ID = NewID()
	}
	return r.db.WithContext(ctx).Create(work).Error
}

func (r *MaintenanceWorkRepository) FindByID(ctx context.Context, id string) (*entity.MaintenanceWork, error) {
	var work entity.MaintenanceWork
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&work).Error; err != nil {
		return nil, notFound(err)
	}
	return &work, nil
}

func (r *MaintenanceWorkRepository) FindByIDForUpdate(ctx context.Context, id string) (*entity.MaintenanceWork, error) {
	var work entity.MaintenanceWork
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&work).Error; err != nil {
		return nil, notFound(err)
	}
	return &work, nil
}

func (r *MaintenanceWorkRepository) FindByRequestID(ctx context.Context, requestID string) (*entity.MaintenanceWork, error) {
	var work entity.MaintenanceWork
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&work).Error; err != nil {
		return nil, notFound(err)
	}
	return &work, nil
}

func (r *MaintenanceWorkRepository) Updates(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Model(&entity.MaintenanceWork{}).Where("id = ?", id).Updates(fields).Error
}

// DowntimeRepository machine downtime periods
type DowntimeRepository struct {
	db *gorm.DB
}

func NewDowntimeRepository(db *gorm.DB) *DowntimeRepository {
	return &DowntimeRepository{db: db}
}

func (r *DowntimeRepository) WithTx(tx *gorm.DB) *DowntimeRepository {
	return &DowntimeRepository{db: tx}
}

func (r *DowntimeRepository) Create(ctx context.Context, d *entity.MachineDowntime) error {
	if d.ID == "" {
		d.ID = NewID()
	}
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DowntimeRepository) FindByWork(ctx context.Context, workID string) (*entity.MachineDowntime, error) {
	var d entity.MachineDowntime
	if err := r.db.WithContext(ctx).Where("maintenance_work_id = ?", workID).First(&d).Error; err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}
