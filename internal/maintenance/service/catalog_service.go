package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"gorm.io/gorm"
)

// DepartmentService departments
type DepartmentService struct {
	repo     *repository.DepartmentRepository
	machines *repository.MachineRepository
	audit    *AuditWriter
}

func NewDepartmentService(repos *repository.Repositories, audit *AuditWriter) *DepartmentService {
	return &DepartmentService{repo: repos.Department, machines: repos.Machine, audit: audit}
}

// DepartmentRequest create/update payload
type DepartmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (s *DepartmentService) List(ctx context.Context) ([]entity.Department, error) {
	return s.repo.List(ctx)
}

func (s *DepartmentService) Get(ctx context.Context, id string) (*entity.Department, error) {
	dept, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "Department")
	}
	return dept, nil
}

func (s *DepartmentService) Create(ctx context.Context, actor entity.Actor, req *DepartmentRequest) (*entity.Department, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newError(ErrInvalidInput, "Department name is required")
	}
	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	dept := &entity.Department{Name: name, Description: req.Description}
	if err := s.repo.Create(ctx, dept); err != nil {
		return nil, fmt.Errorf("create department: %w", err)
	}

	s.audit.Record(ctx, nil, AuditEntry{
		UserID:      actor.UserID,
		Action:      entity.ActionCreate,
		EntityType:  entity.EntityDepartment,
		EntityID:    dept.ID,
		Description: "Department created: " + dept.Name,
		NewValues:   dept,
	})
	return dept, nil
}

func (s *DepartmentService) Update(ctx context.Context, actor entity.Actor, id string, req *DepartmentRequest) (*entity.Department, error) {
	dept, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newError(ErrInvalidInput, "Department name is required")
	}
	if err := s.ensureNameFree(ctx, name, dept.ID); err != nil {
		return nil, err
	}

	old := *dept
	dept.Name = name
	dept.Description = req.Description
	if err := s.repo.Update(ctx, dept); err != nil {
		return nil, fmt.Errorf("update department: %w", err)
	}

	s.audit.Record(ctx, nil, AuditEntry{
		UserID:      actor.UserID,
		Action:      entity.ActionUpdate,
		EntityType:  entity.EntityDepartment,
		EntityID:    dept.ID,
		Description: "Department updated: " + dept.Name,
		OldValues:   old,
		NewValues:   dept,
	})
	return dept, nil
}

// Delete refuses while machines still belong to the department.
func (s *DepartmentService) Delete(ctx context.Context, actor entity.Actor, id string) error {
	dept, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.machines.CountByDepartment(ctx, id)
	if err != nil {
		return fmt.Errorf("count machines: %w", err)
	}
	if count > 0 {
		return newError(ErrInvalidInput, "Cannot delete department with %d assigned machines", count)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete department: %w", err)
	}

	s.audit.Record(ctx, nil, AuditEntry{
		UserID:      actor.UserID,
		Action:      entity.ActionDelete,
		EntityType:  entity.EntityDepartment,
		EntityID:    dept.ID,
		Description: "Department deleted: " + dept.Name,
		OldValues:   dept,
	})
	return nil
}

func (s *DepartmentService) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find department: %w", err)
	}
	if existing.ID != selfID {
		return newError(ErrInvalidInput, "Department with this name already exists")
	}
	return nil
}

// MachineService machines
type MachineService struct {
	db          *gorm.DB
	repo        *repository.MachineRepository
	departments *repository.DepartmentRepository
	audit       *AuditWriter
}

func NewMachineService(db *gorm.DB, repos *repository.Repositories, audit *AuditWriter) *MachineService {
	return &MachineService{db: db, repo: repos.Machine, departments: repos.Department, audit: audit}
}

// CreateMachineRequest new machine
type CreateMachineRequest struct {
	QRCode           string     `json:"qr_code" binding:"required"`
	Name             string     `json:"name" binding:"required"`
	Model            string     `json:"model"`
	SerialNumber     string     `json:"serial_number"`
	Location         string     `json:"location"`
	InstallationDate *time.Time `json:"installation_date"`
	Status           string     `json:"status"`
	DepartmentID     string     `json:"department_id" binding:"required"`
}

func (s *MachineService) Create(ctx context.Context, actor entity.Actor, req *CreateMachineRequest) (*entity.Machine, error) {
	status := req.Status
	if status == "" {
		status = entity.MachineStatusOperational
	}
	if !entity.ValidMachineStatuses[status] {
		return nil, newError(ErrInvalidInput, "Invalid machine status: %s", status)
	}
	if _, err := s.departments.FindByID(ctx, req.DepartmentID); err != nil {
		return nil, fromRepo(err, "Department")
	}
	if _, err := s.repo.FindByQRCode(ctx, req.QRCode); err == nil {
		return nil, newError(ErrInvalidInput, "Machine with this QR code already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find machine: %w", err)
	}

	machine := &entity.Machine{
		QRCode:           req.QRCode,
		Name:             req.Name,
		Model:            req.Model,
		SerialNumber:     req.SerialNumber,
		Location:         req.Location,
		InstallationDate: req.InstallationDate,
		Status:           status,
		DepartmentID:     req.DepartmentID,
	}
	if err := s.repo.Create(ctx, machine); err != nil {
		return nil, fmt.Errorf("create machine: %w", err)
	}

	s.audit.Record(ctx, nil, AuditEntry{
		UserID:      actor.UserID,
		Action:      entity.ActionCreate,
		EntityType:  entity.EntityMachine,
		EntityID:    machine.ID,
		Description: "Machine created: " + machine.Name,
		NewValues:   machine,
	})
	return s.Get(ctx, machine.ID)
}

func (s *MachineService) Get(ctx context.Context, id string) (*entity.Machine, error) {
	machine, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "Machine")
	}
	return machine, nil
}

func (s *MachineService) GetByQRCode(ctx context.Context, code string) (*entity.Machine, error) {
	machine, err := s.repo.FindByQRCode(ctx, code)
	if err != nil {
		return nil, fromRepo(err, "Machine")
	}
	return machine, nil
}

func (s *MachineService) List(ctx context.Context, params repository.MachineListParams) ([]entity.Machine, int64, error) {
	return s.repo.List(ctx, params)
}

// UpdateMachineStatusRequest status change
type UpdateMachineStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *MachineService) UpdateStatus(ctx context.Context, actor entity.Actor, id string, req *UpdateMachineStatusRequest) (*entity.Machine, error) {
	if !entity.ValidMachineStatuses[req.Status] {
		return nil, newError(ErrInvalidInput, "Invalid machine status: %s", req.Status)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return setMachineStatus(ctx, tx, s.repo, s.audit, actor.UserID, id, req.Status)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// setMachineStatus moves a machine and audits the change. No-op when unchanged.
func setMachineStatus(ctx context.Context, tx *gorm.DB, repo *repository.MachineRepository, audit *AuditWriter, actorID, machineID, status string) error {
	machines := repo.WithTx(tx)
	machine, err := machines.FindByID(ctx, machineID)
	if err != nil {
		return fromRepo(err, "Machine")
	}
	if machine.Status == status {
		return nil
	}
	if err := machines.UpdateStatus(ctx, machine.ID, status); err != nil {
		return fmt.Errorf("update machine status: %w", err)
	}

	audit.Record(ctx, tx, AuditEntry{
		UserID:      actorID,
		Action:      entity.ActionUpdate,
		EntityType:  entity.EntityMachine,
		EntityID:    machine.ID,
		Description: fmt.Sprintf("Machine status changed from %s to %s", machine.Status, status),
		OldValues:   map[string]interface{}{"status": machine.Status},
		NewValues:   map[string]interface{}{"status": status},
	})
	return nil
}

// CategoryService spare part categories
type CategoryService struct {
	repo  *repository.CategoryRepository
	audit *AuditWriter
}

func NewCategoryService(repos *repository.Repositories, audit *AuditWriter) *CategoryService {
	return &CategoryService{repo: repos.Category, audit: audit}
}

// CreateCategoryRequest new category
type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Code        *string `json:"code"`
	Description string  `json:"description"`
}

func (s *CategoryService) Create(ctx context.Context, actor entity.Actor, req *CreateCategoryRequest) (*entity.SparePartCategory, error) {
	category := &entity.SparePartCategory{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsActive:    true,
	}
	if category.Name == "" {
		return nil, newError(ErrInvalidInput, "Category name is required")
	}
	if req.Code != nil && strings.TrimSpace(*req.Code) != "" {
		code := strings.TrimSpace(*req.Code)
		category.Code = &code
	}
	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
			return nil, newError(ErrInvalidInput, "Category with this code already exists")
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.audit.Record(ctx, nil, AuditEntry{
		UserID:      actor.UserID,
		Action:      entity.ActionCreate,
		EntityType:  entity.EntitySparePartCategory,
		EntityID:    category.ID,
		Description: "Spare part category created: " + category.Name,
		NewValues:   category,
	})
	return category, nil
}

func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]entity.SparePartCategory, error) {
	return s.repo.List(ctx, activeOnly)
}
