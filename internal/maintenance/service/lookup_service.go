package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
)

// LookupService failure code and maintenance type catalogs
type LookupService struct {
	failureCodes *repository.FailureCodeRepository
	types        *repository.MaintenanceTypeRepository
	audit        *AuditWriter
}

func NewLookupService(repos *repository.Repositories, audit *AuditWriter) *LookupService {
	return &LookupService{failureCodes: repos.FailureCode, types: repos.MaintType, audit: audit}
}

// CreateFailureCodeRequest new failure code
type CreateFailureCodeRequest struct {
	Code        string `json:"code" binding:"required,max=20"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category" binding:"max=100"`
	IsActive    *bool  `json:"is_active"`
}

func (s *LookupService) ListFailureCodes(ctx context.Context, category string, isActive *bool) ([]entity.FailureCode, error) {
	return s.failureCodes.List(ctx, category, isActive)
}

func (s *LookupService) CreateFailureCode(ctx context.Context, actor entity.Actor, req *CreateFailureCodeRequest) (*entity.FailureCode, error) {
	if !actor.IsAdmin() {
		return nil, newError(ErrForbidden, "Only administrators can manage failure codes")
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" || strings.TrimSpace(req.Description) == "" {
		return nil, newError(ErrInvalidInput, "Code and description are required")
	}
	if _, err := s.failureCodes.FindByCode(ctx, code); err == nil {
		return nil, newError(ErrDuplicate, "Failure code already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find failure code: %w", err)
	}

	fc := &entity.FailureCode{
		Code:        code,
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := s.failureCodes.Create(ctx, fc); err != nil {
		return nil, fmt.Errorf("create failure code: %w", err)
	}

	s.audit.Record(ctx, nil, AuditEntry{
		UserID:      actor.UserID,
		Action:      entity.ActionCreate,
		EntityType:  entity.EntityFailureCode,
		EntityID:    fc.ID,
		Description: "Failure code created: " + fc.Code,
		NewValues:   fc,
	})
	return fc, nil
}

// CreateMaintenanceTypeRequest new maintenance type
type CreateMaintenanceTypeRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"max=100"`
	IsActive    *bool  `json:"is_active"`
}

func (s *LookupService) ListMaintenanceTypes(ctx context.Context, category string, isActive *bool) ([]entity.MaintenanceType, error) {
	return s.types.List(ctx, category, isActive)
}

func (s *LookupService) CreateMaintenanceType(ctx context.Context, actor entity.Actor, req *CreateMaintenanceTypeRequest) (*entity.MaintenanceType, error) {
	if !actor.IsAdmin() {
		return nil, newError(ErrForbidden, "Only administrators can manage maintenance types")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newError(ErrInvalidInput, "Maintenance type name is required")
	}
	if _, err := s.types.FindByName(ctx, name); err == nil {
		return nil, newError(ErrDuplicate, "Maintenance type already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find maintenance type: %w", err)
	}

	mt := &entity.MaintenanceType{
		Name:        name,
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := s.types.Create(ctx, mt); err != nil {
		return nil, fmt.Errorf("create maintenance type: %w", err)
	}

	s.audit.Record(ctx, nil, AuditEntry{
		UserID:      actor.UserID,
		Action:      entity.ActionCreate,
		EntityType:  entity.EntityMaintenanceType,
		EntityID:    mt.ID,
		Description: "Maintenance type created: " + mt.Name,
		NewValues:   mt,
	})
	return mt, nil
}

// checkClassification verifies optional failure code and maintenance type references.
func (s *LookupService) checkClassification(ctx context.Context, failureCodeID, maintenanceTypeID *string) error {
	if failureCodeID != nil && *failureCodeID != "" {
		if _, err := s.failureCodes.FindByID(ctx, *failureCodeID); err != nil {
			return fromRepo(err, "Failure code")
		}
	}
	if maintenanceTypeID != nil && *maintenanceTypeID != "" {
		if _, err := s.types.FindByID(ctx, *maintenanceTypeID); err != nil {
			return fromRepo(err, "Maintenance type")
		}
	}
	return nil
}
