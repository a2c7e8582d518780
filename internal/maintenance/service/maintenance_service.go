package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/shared/cache"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaintenanceService maintenance requests and their work orders
type MaintenanceService struct {
	db      *gorm.DB
	repos   *repository.Repositories
	coupler *StatusCoupler
	lookups *LookupService
	audit   *AuditWriter
	cache   *cache.Cache
}

func NewMaintenanceService(db *gorm.DB, repos *repository.Repositories, coupler *StatusCoupler, lookups *LookupService, audit *AuditWriter, c *cache.Cache) *MaintenanceService {
	return &MaintenanceService{db: db, repos: repos, coupler: coupler, lookups: lookups, audit: audit, cache: c}
}

// invalidateReports drops cached maintenance reports after a committed change.
func (s *MaintenanceService) invalidateReports(ctx context.Context) {
	s.cache.DeletePrefix(ctx, maintenanceReportPrefix)
}

var validPriorities = map[string]bool{
	entity.PriorityLow:      true,
	entity.PriorityMedium:   true,
	entity.PriorityHigh:     true,
	entity.PriorityCritical: true,
}

// CreateMaintenanceRequestRequest problem report; MachineStatus optionally
// flags the machine at the same time
type CreateMaintenanceRequestRequest struct {
	MachineID              string     `json:"machine_id" binding:"required"`
	Title                  string     `json:"title" binding:"required"`
	Description            string     `json:"description" binding:"required"`
	Priority               string     `json:"priority"`
	ExpectedCompletionDate *time.Time `json:"expected_completion_date"`
	MachineStatus          string     `json:"machine_status"`
	FailureCodeID          *string    `json:"failure_code_id"`
	MaintenanceTypeID      *string    `json:"maintenance_type_id"`
}

func (s *MaintenanceService) CreateRequest(ctx context.Context, actor entity.Actor, req *CreateMaintenanceRequestRequest) (*entity.MaintenanceRequest, error) {
	if !actor.HasAnyRole(entity.RoleSupervisor, entity.RoleMaintenanceManager, entity.RoleMaintenanceTech) {
		return nil, newError(ErrForbidden, "You are not allowed to create maintenance requests")
	}
	priority := strings.ToUpper(req.Priority)
	if priority == "" {
		priority = entity.PriorityMedium
	}
	if !validPriorities[priority] {
		return nil, newError(ErrInvalidInput, "Invalid priority: %s", req.Priority)
	}
	if req.MachineStatus != "" && !entity.ValidMachineStatuses[req.MachineStatus] {
		return nil, newError(ErrInvalidInput, "Invalid machine status: %s", req.MachineStatus)
	}
	if err := s.lookups.checkClassification(ctx, req.FailureCodeID, req.MaintenanceTypeID); err != nil {
		return nil, err
	}

	var created *entity.MaintenanceRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		machine, err := s.repos.Machine.WithTx(tx).FindByID(ctx, req.MachineID)
		if err != nil {
			return fromRepo(err, "Machine")
		}

		mr := &entity.MaintenanceRequest{
			Title:                  req.Title,
			Description:            req.Description,
			Priority:               priority,
			Status:                 entity.RequestStatusPending,
			RequestedDate:          time.Now(),
			ExpectedCompletionDate: req.ExpectedCompletionDate,
			MachineID:              machine.ID,
			RequestedByID:          actor.UserID,
			FailureCodeID:          emptyToNil(req.FailureCodeID),
			MaintenanceTypeID:      emptyToNil(req.MaintenanceTypeID),
		}
		if err := s.repos.Request.WithTx(tx).Create(ctx, mr); err != nil {
			return fmt.Errorf("create maintenance request: %w", err)
		}

		if req.MachineStatus != "" {
			if err := setMachineStatus(ctx, tx, s.repos.Machine, s.audit, actor.UserID, machine.ID, req.MachineStatus); err != nil {
				return err
			}
		}

		s.audit.Record(ctx, tx, AuditEntry{
			UserID:      actor.UserID,
			Action:      entity.ActionCreate,
			EntityType:  entity.EntityMaintenanceRequest,
			EntityID:    mr.ID,
			Description: fmt.Sprintf("Maintenance request created for machine %s: %s", machine.Name, mr.Title),
			NewValues: map[string]interface{}{
				"title":      mr.Title,
				"priority":   mr.Priority,
				"status":     mr.Status,
				"machine_id": mr.MachineID,
			},
		})
		created = mr
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return s.GetRequest(ctx, created.ID)
}

func (s *MaintenanceService) GetRequest(ctx context.Context, id string) (*entity.MaintenanceRequest, error) {
	req, err := s.repos.Request.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "Maintenance request")
	}
	return req, nil
}

func (s *MaintenanceService) ListRequests(ctx context.Context, params repository.MaintenanceRequestListParams) ([]entity.MaintenanceRequest, int64, error) {
	return s.repos.Request.List(ctx, params)
}

// AcceptRequest assigns a pending request to the technician and opens an
// in-progress work order.
func (s *MaintenanceService) AcceptRequest(ctx context.Context, actor entity.Actor, id string) (*entity.MaintenanceWork, error) {
	if !actor.HasRole(entity.RoleMaintenanceTech) {
		return nil, newError(ErrForbidden, "Only maintenance technicians can accept maintenance requests")
	}

	var work *entity.MaintenanceWork
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requests := s.repos.Request.WithTx(tx)
		works := s.repos.Work.WithTx(tx)

		mr, err := requests.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fromRepo(err, "Maintenance request")
		}
		if mr.Status != entity.RequestStatusPending {
			return newError(ErrInvalidTransition, "Only pending requests can be accepted. Current status: %s", mr.Status)
		}
		if _, err := works.FindByRequestID(ctx, mr.ID); err == nil {
			return newError(ErrInvalidTransition, "Work has already been created for this request")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("find work: %w", err)
		}

		now := time.Now()
		work = &entity.MaintenanceWork{
			RequestID:       mr.ID,
			MachineID:       mr.MachineID,
			AssignedToID:    actor.UserID,
			WorkDescription: fmt.Sprintf("Maintenance work started for request #%s", mr.ID),
			Status:          entity.WorkStatusInProgress,
			StartTime:       &now,
		}
		if err := works.Create(ctx, work); err != nil {
			return fmt.Errorf("create maintenance work: %w", err)
		}
		if err := requests.UpdateStatus(ctx, mr, entity.RequestStatusInProgress, nil); err != nil {
			return fromRepo(err, "Maintenance request")
		}

		s.audit.Record(ctx, tx, AuditEntry{
			UserID:      actor.UserID,
			Action:      entity.ActionAccept,
			EntityType:  entity.EntityMaintenanceRequest,
			EntityID:    mr.ID,
			Description: "Maintenance request accepted",
			OldValues:   map[string]interface{}{"status": entity.RequestStatusPending},
			NewValues: map[string]interface{}{
				"status":         entity.RequestStatusInProgress,
				"work_id":        work.ID,
				"assigned_to_id": actor.UserID,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetWork(ctx, work.ID)
}

func (s *MaintenanceService) GetWork(ctx context.Context, id string) (*entity.MaintenanceWork, error) {
	work, err := s.repos.Work.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "Maintenance work")
	}
	return work, nil
}

func canWorkOn(actor entity.Actor, work *entity.MaintenanceWork) bool {
	if actor.IsAdmin() || actor.HasRole(entity.RoleMaintenanceManager) {
		return true
	}
	return work.AssignedToID == actor.UserID
}

// StartWork moves a pending work order and its request to IN_PROGRESS.
func (s *MaintenanceService) StartWork(ctx context.Context, actor entity.Actor, id string) (*entity.MaintenanceWork, error) {
	if !actor.HasAnyRole(entity.RoleMaintenanceTech, entity.RoleMaintenanceManager) {
		return nil, newError(ErrForbidden, "Only maintenance technicians can start work")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		works := s.repos.Work.WithTx(tx)
		work, err := works.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fromRepo(err, "Maintenance work")
		}
		if !canWorkOn(actor, work) {
			return newError(ErrForbidden, "You can only start work assigned to you")
		}
		if work.Status != entity.WorkStatusPending {
			return newError(ErrInvalidTransition, "Work can only be started from PENDING status. Current status: %s", work.Status)
		}

		now := time.Now()
		if err := works.Updates(ctx, work.ID, map[string]interface{}{
			"status":     entity.WorkStatusInProgress,
			"start_time": now,
		}); err != nil {
			return fmt.Errorf("start work: %w", err)
		}

		work.Status = entity.WorkStatusInProgress
		work.StartTime = &now

		requests := s.repos.Request.WithTx(tx)
		mr, err := requests.FindByIDForUpdate(ctx, work.RequestID)
		if err != nil {
			return fromRepo(err, "Maintenance request")
		}
		if mr.Status == entity.RequestStatusPending {
			if err := requests.UpdateStatus(ctx, mr, entity.RequestStatusInProgress, nil); err != nil {
				return fromRepo(err, "Maintenance request")
			}
		}

		// parts requested before the start park the request right away
		outstanding, err := s.repos.PartsRequest.WithTx(tx).CountOutstandingByWork(ctx, work.ID)
		if err != nil {
			return fmt.Errorf("count outstanding parts requests: %w", err)
		}
		if outstanding > 0 {
			if err := s.coupler.OnPartsRequested(ctx, tx, work, actor.UserID); err != nil {
				return err
			}
		}

		s.audit.Record(ctx, tx, AuditEntry{
			UserID:      actor.UserID,
			Action:      entity.ActionStart,
			EntityType:  entity.EntityMaintenanceWork,
			EntityID:    work.ID,
			Description: "Maintenance work started",
			OldValues:   map[string]interface{}{"status": entity.WorkStatusPending},
			NewValues:   map[string]interface{}{"status": entity.WorkStatusInProgress, "start_time": now},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetWork(ctx, id)
}

// CompleteWorkRequest completion details
type CompleteWorkRequest struct {
	ActualHours  *float64         `json:"actual_hours"`
	LaborCost    *decimal.Decimal `json:"labor_cost"`
	MaterialCost *decimal.Decimal `json:"material_cost"`
	Notes        string           `json:"notes"`
}

// CompleteWork closes the work order and its request, and puts the machine
// back in service when nothing else is open on it.
func (s *MaintenanceService) CompleteWork(ctx context.Context, actor entity.Actor, id string, req *CompleteWorkRequest) (*entity.MaintenanceWork, error) {
	if !actor.HasAnyRole(entity.RoleMaintenanceTech, entity.RoleMaintenanceManager) {
		return nil, newError(ErrForbidden, "Only maintenance technicians can complete work")
	}
	if req.ActualHours != nil && *req.ActualHours < 0 {
		return nil, newError(ErrInvalidInput, "Actual hours cannot be negative")
	}
	if req.LaborCost != nil && req.LaborCost.IsNegative() {
		return nil, newError(ErrInvalidInput, "Labor cost cannot be negative")
	}
	if req.MaterialCost != nil && req.MaterialCost.IsNegative() {
		return nil, newError(ErrInvalidInput, "Material cost cannot be negative")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		works := s.repos.Work.WithTx(tx)
		work, err := works.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fromRepo(err, "Maintenance work")
		}
		if !canWorkOn(actor, work) {
			return newError(ErrForbidden, "You can only complete work assigned to you")
		}
		switch work.Status {
		case entity.WorkStatusCompleted:
			return newError(ErrAlreadyProcessed, "Work is already completed")
		case entity.WorkStatusPending:
			return newError(ErrInvalidTransition, "Cannot complete work that hasn't been started")
		case entity.WorkStatusCancelled:
			return newError(ErrInvalidTransition, "Cannot complete cancelled work")
		}

		requests := s.repos.Request.WithTx(tx)
		mr, err := requests.FindByIDForUpdate(ctx, work.RequestID)
		if err != nil {
			return fromRepo(err, "Maintenance request")
		}
		if mr.Status != entity.RequestStatusInProgress && mr.Status != entity.RequestStatusWaitingParts {
			return newError(ErrInvalidTransition, "Cannot complete work for a request with status %s", mr.Status)
		}

		now := time.Now()
		labor, material := work.LaborCost, work.MaterialCost
		if req.LaborCost != nil {
			labor = *req.LaborCost
		}
		if req.MaterialCost != nil {
			material = *req.MaterialCost
		}
		fields := map[string]interface{}{
			"status":        entity.WorkStatusCompleted,
			"end_time":      now,
			"labor_cost":    labor,
			"material_cost": material,
			"total_cost":    labor.Add(material),
		}
		if req.ActualHours != nil {
			fields["actual_hours"] = *req.ActualHours
		}
		if req.Notes != "" {
			fields["work_description"] = work.WorkDescription + "\n" + req.Notes
		}
		if err := works.Updates(ctx, work.ID, fields); err != nil {
			return fmt.Errorf("complete work: %w", err)
		}

		oldRequestStatus := mr.Status
		if err := requests.UpdateStatus(ctx, mr, entity.RequestStatusCompleted, map[string]interface{}{
			"actual_completion_date": now,
		}); err != nil {
			return fromRepo(err, "Maintenance request")
		}

		if err := s.recordDowntime(ctx, tx, work, mr, now); err != nil {
			return err
		}
		if err := s.releaseMachine(ctx, tx, actor.UserID, mr); err != nil {
			return err
		}

		s.audit.Record(ctx, tx, AuditEntry{
			UserID:      actor.UserID,
			Action:      entity.ActionComplete,
			EntityType:  entity.EntityMaintenanceWork,
			EntityID:    work.ID,
			Description: "Maintenance work completed",
			OldValues: map[string]interface{}{
				"status":         work.Status,
				"request_status": oldRequestStatus,
			},
			NewValues: map[string]interface{}{
				"status":         entity.WorkStatusCompleted,
				"request_status": entity.RequestStatusCompleted,
				"total_cost":     labor.Add(material),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return s.GetWork(ctx, id)
}

// recordDowntime books the machine's out-of-service period for a finished work order.
func (s *MaintenanceService) recordDowntime(ctx context.Context, tx *gorm.DB, work *entity.MaintenanceWork, mr *entity.MaintenanceRequest, end time.Time) error {
	start := mr.RequestedDate
	if work.StartTime != nil {
		start = *work.StartTime
	}
	hours := end.Sub(start).Hours()
	if hours < 0 {
		hours = 0
	}
	workID := work.ID
	downtime := &entity.MachineDowntime{
		MachineID:         work.MachineID,
		MaintenanceWorkID: &workID,
		Reason:            fmt.Sprintf("Maintenance work completed for request %s", mr.ID),
		StartTime:         start,
		EndTime:           &end,
		DurationHours:     &hours,
	}
	if err := s.repos.Downtime.WithTx(tx).Create(ctx, downtime); err != nil {
		return fmt.Errorf("record downtime: %w", err)
	}
	return nil
}

// releaseMachine returns a MAINTENANCE or DOWN machine to OPERATIONAL once
// no other active request is open on it.
func (s *MaintenanceService) releaseMachine(ctx context.Context, tx *gorm.DB, actorID string, mr *entity.MaintenanceRequest) error {
	active, err := s.repos.Request.WithTx(tx).CountActiveForMachine(ctx, mr.MachineID, mr.ID)
	if err != nil {
		return fmt.Errorf("count active requests: %w", err)
	}
	if active > 0 {
		return nil
	}
	machine, err := s.repos.Machine.WithTx(tx).FindByID(ctx, mr.MachineID)
	if err != nil {
		return fromRepo(err, "Machine")
	}
	if machine.Status != entity.MachineStatusMaintenance && machine.Status != entity.MachineStatusDown {
		return nil
	}
	return setMachineStatus(ctx, tx, s.repos.Machine, s.audit, actorID, machine.ID, entity.MachineStatusOperational)
}
