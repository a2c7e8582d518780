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

// manualRequestTransitions status moves a user may make directly. IN_PROGRESS,
// WAITING_PARTS and COMPLETED are driven by the work order and its parts requests.
var manualRequestTransitions = map[string][]string{
	entity.RequestStatusPending:      {entity.RequestStatusCancelled},
	entity.RequestStatusInProgress:   {entity.RequestStatusCancelled},
	entity.RequestStatusWaitingParts: {entity.RequestStatusCancelled},
}

func canMoveRequest(from, to string) bool {
	for _, next := range manualRequestTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// UpdateMaintenanceRequestRequest partial update; nil fields are left alone
type UpdateMaintenanceRequestRequest struct {
	Title                  *string    `json:"title"`
	Description            *string    `json:"description"`
	Priority               *string    `json:"priority"`
	Status                 *string    `json:"status"`
	FailureCodeID          *string    `json:"failure_code_id"`
	MaintenanceTypeID      *string    `json:"maintenance_type_id"`
	ExpectedCompletionDate *time.Time `json:"expected_completion_date"`
}

// UpdateRequest edits a request's details. A status in the payload goes
// through the same rules as ChangeRequestStatus.
func (s *MaintenanceService) UpdateRequest(ctx context.Context, actor entity.Actor, id string, req *UpdateMaintenanceRequestRequest) (*entity.MaintenanceRequest, error) {
	if !actor.HasAnyRole(entity.RoleSupervisor, entity.RoleMaintenanceManager, entity.RoleMaintenanceTech) {
		return nil, newError(ErrForbidden, "You are not allowed to update maintenance requests")
	}
	fields := map[string]interface{}{}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, newError(ErrInvalidInput, "Title cannot be empty")
		}
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, newError(ErrInvalidInput, "Description cannot be empty")
		}
		fields["description"] = *req.Description
	}
	if req.Priority != nil {
		priority := strings.ToUpper(*req.Priority)
		if !validPriorities[priority] {
			return nil, newError(ErrInvalidInput, "Invalid priority: %s", *req.Priority)
		}
		fields["priority"] = priority
	}
	if req.FailureCodeID != nil {
		fields["failure_code_id"] = emptyToNil(req.FailureCodeID)
	}
	if req.MaintenanceTypeID != nil {
		fields["maintenance_type_id"] = emptyToNil(req.MaintenanceTypeID)
	}
	if req.ExpectedCompletionDate != nil {
		fields["expected_completion_date"] = *req.ExpectedCompletionDate
	}
	status := ""
	if req.Status != nil {
		status = strings.ToUpper(*req.Status)
		if !entity.ValidRequestStatuses[status] {
			return nil, newError(ErrInvalidInput, "Invalid status: %s", *req.Status)
		}
	}
	if err := s.lookups.checkClassification(ctx, req.FailureCodeID, req.MaintenanceTypeID); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		mr, err := s.repos.Request.WithTx(tx).FindByIDForUpdate(ctx, id)
		if err != nil {
			return fromRepo(err, "Maintenance request")
		}
		if len(fields) > 0 {
			old := map[string]interface{}{
				"title":                    mr.Title,
				"description":              mr.Description,
				"priority":                 mr.Priority,
				"failure_code_id":          mr.FailureCodeID,
				"maintenance_type_id":      mr.MaintenanceTypeID,
				"expected_completion_date": mr.ExpectedCompletionDate,
			}
			changed := map[string]interface{}{}
			previous := map[string]interface{}{}
			for k, v := range fields {
				changed[k] = v
				previous[k] = old[k]
			}
			if err := s.repos.Request.WithTx(tx).UpdateFields(ctx, mr, fields); err != nil {
				return fromRepo(err, "Maintenance request")
			}
			s.audit.Record(ctx, tx, AuditEntry{
				UserID:      actor.UserID,
				Action:      entity.ActionUpdate,
				EntityType:  entity.EntityMaintenanceRequest,
				EntityID:    mr.ID,
				Description: "Maintenance request updated: " + mr.Title,
				OldValues:   previous,
				NewValues:   changed,
			})
		}
		if status != "" && status != mr.Status {
			return s.moveRequest(ctx, tx, actor, mr, status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return s.GetRequest(ctx, id)
}

// ChangeRequestStatus applies a manual status move. Cancelling closes the
// open work order and may return the machine to service.
func (s *MaintenanceService) ChangeRequestStatus(ctx context.Context, actor entity.Actor, id, status string) (*entity.MaintenanceRequest, error) {
	if !actor.HasAnyRole(entity.RoleMaintenanceManager, entity.RoleMaintenanceTech) {
		return nil, newError(ErrForbidden, "You are not allowed to change maintenance request status")
	}
	status = strings.ToUpper(strings.TrimSpace(status))
	if !entity.ValidRequestStatuses[status] {
		return nil, newError(ErrInvalidInput, "Invalid status: %s", status)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		mr, err := s.repos.Request.WithTx(tx).FindByIDForUpdate(ctx, id)
		if err != nil {
			return fromRepo(err, "Maintenance request")
		}
		if mr.Status == status {
			return nil
		}
		return s.moveRequest(ctx, tx, actor, mr, status)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return s.GetRequest(ctx, id)
}

func (s *MaintenanceService) moveRequest(ctx context.Context, tx *gorm.DB, actor entity.Actor, mr *entity.MaintenanceRequest, status string) error {
	if !canMoveRequest(mr.Status, status) {
		return newError(ErrInvalidTransition, "Cannot change maintenance request status from %s to %s", mr.Status, status)
	}

	works := s.repos.Work.WithTx(tx)
	work, err := works.FindByRequestID(ctx, mr.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		work = nil
	case err != nil:
		return fmt.Errorf("find work: %w", err)
	}
	if work != nil {
		outstanding, err := s.repos.PartsRequest.WithTx(tx).CountOutstandingByWork(ctx, work.ID)
		if err != nil {
			return fmt.Errorf("count outstanding parts requests: %w", err)
		}
		if outstanding > 0 {
			return newError(ErrInvalidTransition, "Resolve the %d open spare parts requests before cancelling", outstanding)
		}
	}

	from := mr.Status
	if err := s.repos.Request.WithTx(tx).UpdateStatus(ctx, mr, status, nil); err != nil {
		return fromRepo(err, "Maintenance request")
	}
	if work != nil && work.Status != entity.WorkStatusCompleted && work.Status != entity.WorkStatusCancelled {
		if err := works.Updates(ctx, work.ID, map[string]interface{}{
			"status":   entity.WorkStatusCancelled,
			"end_time": time.Now(),
		}); err != nil {
			return fmt.Errorf("cancel work: %w", err)
		}
	}
	if err := s.releaseMachine(ctx, tx, actor.UserID, mr); err != nil {
		return err
	}

	s.audit.Record(ctx, tx, AuditEntry{
		UserID:      actor.UserID,
		Action:      entity.ActionUpdate,
		EntityType:  entity.EntityMaintenanceRequest,
		EntityID:    mr.ID,
		Description: fmt.Sprintf("Status changed from %s to %s", from, status),
		OldValues:   map[string]interface{}{"status": from},
		NewValues:   map[string]interface{}{"status": status},
	})
	return nil
}

func validateListFilters(status, priority string) error {
	if status != "" && !entity.ValidRequestStatuses[status] {
		return newError(ErrInvalidInput, "Invalid status: %s", status)
	}
	if priority != "" && !validPriorities[priority] {
		return newError(ErrInvalidInput, "Invalid priority: %s", priority)
	}
	return nil
}

// ListAvailable requests nobody has taken yet, PENDING unless another status is asked for.
func (s *MaintenanceService) ListAvailable(ctx context.Context, params repository.MaintenanceRequestListParams) ([]entity.MaintenanceRequest, int64, error) {
	if err := validateListFilters(params.Status, params.Priority); err != nil {
		return nil, 0, err
	}
	if params.Status == "" {
		params.Status = entity.RequestStatusPending
	}
	params.WithoutWork = true
	return s.repos.Request.List(ctx, params)
}

// ListMyWork requests with a running work order. Technicians see only their
// own; managers see everyone's.
func (s *MaintenanceService) ListMyWork(ctx context.Context, actor entity.Actor, params repository.MaintenanceRequestListParams) ([]entity.MaintenanceRequest, int64, error) {
	if err := validateListFilters(params.Status, params.Priority); err != nil {
		return nil, 0, err
	}
	if params.Status == "" {
		params.Statuses = []string{entity.RequestStatusInProgress, entity.RequestStatusWaitingParts}
	}
	params.HasWork = true
	if !actor.HasRole(entity.RoleMaintenanceManager) {
		params.AssignedToID = actor.UserID
	}
	return s.repos.Request.List(ctx, params)
}

// GetWorkByRequest the work order of a request, nil when nobody has taken it.
func (s *MaintenanceService) GetWorkByRequest(ctx context.Context, actor entity.Actor, requestID string) (*entity.MaintenanceWork, error) {
	work, err := s.repos.Work.FindByRequestID(ctx, requestID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find work: %w", err)
	}
	if !canWorkOn(actor, work) {
		return nil, newError(ErrForbidden, "You can only view your own maintenance work")
	}
	return work, nil
}

// UpdateProgressRequest checklist update; Status optionally puts the work on
// hold or resumes it.
type UpdateProgressRequest struct {
	Steps  entity.MaintenanceSteps `json:"maintenance_steps" binding:"required"`
	Status string                  `json:"status"`
}

// UpdateProgress records checklist progress. Steps must be completed in order.
func (s *MaintenanceService) UpdateProgress(ctx context.Context, actor entity.Actor, id string, req *UpdateProgressRequest) (*entity.MaintenanceWork, error) {
	if !actor.HasAnyRole(entity.RoleMaintenanceTech, entity.RoleMaintenanceManager) {
		return nil, newError(ErrForbidden, "Only maintenance technicians can update work progress")
	}
	for i := 1; i < len(req.Steps); i++ {
		if req.Steps[i].Completed && !req.Steps[i-1].Completed {
			return nil, newError(ErrInvalidInput, "Step %d cannot be completed before step %d", req.Steps[i].Step, req.Steps[i-1].Step)
		}
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		works := s.repos.Work.WithTx(tx)
		work, err := works.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fromRepo(err, "Maintenance work")
		}
		if !canWorkOn(actor, work) {
			return newError(ErrForbidden, "You can only update your own maintenance work")
		}
		if work.Status == entity.WorkStatusCompleted || work.Status == entity.WorkStatusCancelled {
			return newError(ErrInvalidTransition, "Cannot update progress on %s work", strings.ToLower(work.Status))
		}

		now := time.Now()
		steps := make(entity.MaintenanceSteps, len(req.Steps))
		for i, step := range req.Steps {
			switch {
			case !step.Completed:
				step.CompletedAt = nil
			case step.CompletedAt == nil:
				step.CompletedAt = &now
			}
			steps[i] = step
		}
		fields := map[string]interface{}{"maintenance_steps": steps}
		oldValues := map[string]interface{}{"completed_steps": work.Steps.CompletedSteps()}
		newValues := map[string]interface{}{"completed_steps": steps.CompletedSteps()}

		if status != "" && status != work.Status {
			switch {
			case status == entity.WorkStatusOnHold && work.Status == entity.WorkStatusInProgress,
				status == entity.WorkStatusInProgress && work.Status == entity.WorkStatusOnHold:
			default:
				return newError(ErrInvalidTransition, "Cannot move work from %s to %s", work.Status, status)
			}
			fields["status"] = status
			oldValues["status"] = work.Status
			newValues["status"] = status
		}
		if err := works.Updates(ctx, work.ID, fields); err != nil {
			return fmt.Errorf("update progress: %w", err)
		}

		s.audit.Record(ctx, tx, AuditEntry{
			UserID:      actor.UserID,
			Action:      entity.ActionUpdate,
			EntityType:  entity.EntityMaintenanceWork,
			EntityID:    work.ID,
			Description: fmt.Sprintf("Maintenance work progress updated by %s. Completed steps: %v", actor.Name, steps.CompletedSteps()),
			OldValues:   oldValues,
			NewValues:   newValues,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetWork(ctx, id)
}
