package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/shared/events"
	"github.com/mkhaled501333/maintaince-management/internal/shared/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PartsRequestService spare parts request workflow. Every action runs in one
// transaction covering the status write, the ledger entry, the coupler and
// the audit row.
type PartsRequestService struct {
	db      *gorm.DB
	repos   *repository.Repositories
	ledger  *LedgerService
	coupler *StatusCoupler
	audit   *AuditWriter
	bus     *events.Bus
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewPartsRequestService(
	db *gorm.DB,
	repos *repository.Repositories,
	ledger *LedgerService,
	coupler *StatusCoupler,
	audit *AuditWriter,
	bus *events.Bus,
	m *metrics.Metrics,
	logger *zap.Logger,
) *PartsRequestService {
	return &PartsRequestService{
		db:      db,
		repos:   repos,
		ledger:  ledger,
		coupler: coupler,
		audit:   audit,
		bus:     bus,
		metrics: m,
		logger:  logger,
	}
}

// outcome of one committed action, published after commit
type partsOutcome struct {
	action string
	ledger *LedgerResult
	events []events.Event
}

func (s *PartsRequestService) run(ctx context.Context, fn func(tx *gorm.DB, out *partsOutcome) error) error {
	out := &partsOutcome{}
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx, out)
	}); err != nil {
		return err
	}

	s.metrics.ObserveTransition(out.action)
	if out.ledger != nil {
		s.ledger.Committed(ctx, out.ledger)
	}
	s.bus.Forward(ctx, out.events...)
	return nil
}

func (s *PartsRequestService) resolve(ctx context.Context, tx *gorm.DB, out *partsOutcome, req *entity.SparePartsRequest, actorID string) error {
	event := events.NewPartsRequestResolved(req.ID, req.MaintenanceWorkID, req.Status, actorID)
	if err := s.bus.Dispatch(ctx, tx, event); err != nil {
		return err
	}
	out.events = append(out.events, event)
	return nil
}

func lockPartsRequest(ctx context.Context, repo *repository.PartsRequestRepository, id string) (*entity.SparePartsRequest, error) {
	req, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "Spare parts request")
	}
	return req, nil
}

// checkTransition classifies an illegal status move. A repeated issue is
// AlreadyProcessed; every other illegal move is InvalidTransition.
func checkTransition(req *entity.SparePartsRequest, to, verb string) error {
	if entity.CanTransition(req.Status, to) {
		return nil
	}
	if to == entity.PartsRequestStatusIssued && req.Status == entity.PartsRequestStatusIssued {
		return newError(ErrAlreadyProcessed, "Spare parts have already been issued")
	}
	return newError(ErrInvalidTransition, "Cannot %s a spare parts request with status %s", verb, req.Status)
}

// partPrice the part's unit price, zero when unpriced
func partPrice(part *entity.SparePart) decimal.NullDecimal {
	if part.UnitPrice.Valid {
		return part.UnitPrice
	}
	return decimal.NewNullDecimal(decimal.Zero)
}

// CreatePartsRequestRequest new spare parts request
type CreatePartsRequestRequest struct {
	MaintenanceWorkID string `json:"maintenance_work_id" binding:"required"`
	SparePartID       string `json:"spare_part_id" binding:"required"`
	QuantityRequested int    `json:"quantity_requested" binding:"required"`
}

// Create records a PENDING request against a work order.
func (s *PartsRequestService) Create(ctx context.Context, actor entity.Actor, input *CreatePartsRequestRequest) (*entity.SparePartsRequest, error) {
	if !actor.HasRole(entity.RoleMaintenanceTech) {
		return nil, newError(ErrForbidden, "Only maintenance technicians can create spare parts requests")
	}
	if input.QuantityRequested <= 0 {
		return nil, newError(ErrInvalidInput, "Quantity requested must be greater than 0")
	}

	var created *entity.SparePartsRequest
	err := s.run(ctx, func(tx *gorm.DB, out *partsOutcome) error {
		out.action = entity.ActionCreate

		work, err := s.repos.Work.WithTx(tx).FindByID(ctx, input.MaintenanceWorkID)
		if err != nil {
			return fromRepo(err, "Maintenance work")
		}
		part, err := s.repos.SparePart.WithTx(tx).FindByID(ctx, input.SparePartID)
		if err != nil {
			return fromRepo(err, "Spare part")
		}
		if !part.IsActive {
			return newError(ErrInactivePart, "Spare part %s is not active", part.PartNumber)
		}
		if !actor.IsAdmin() && work.AssignedToID != actor.UserID {
			return newError(ErrForbidden, "You can only request parts for work assigned to you")
		}

		req := &entity.SparePartsRequest{
			MaintenanceWorkID: work.ID,
			SparePartID:       part.ID,
			QuantityRequested: input.QuantityRequested,
			Status:            entity.PartsRequestStatusPending,
			RequestedBy:       actor.UserID,
		}
		if err := s.repos.PartsRequest.WithTx(tx).Create(ctx, req); err != nil {
			return fmt.Errorf("create spare parts request: %w", err)
		}

		if err := s.coupler.OnPartsRequested(ctx, tx, work, actor.UserID); err != nil {
			return err
		}

		s.audit.Record(ctx, tx, AuditEntry{
			UserID:      actor.UserID,
			Action:      entity.ActionCreate,
			EntityType:  entity.EntitySparePartsRequest,
			EntityID:    req.ID,
			Description: fmt.Sprintf("Requested %d x %s for maintenance work %s", req.QuantityRequested, part.PartNumber, work.ID),
			NewValues: map[string]interface{}{
				"maintenance_work_id": req.MaintenanceWorkID,
				"spare_part_id":       req.SparePartID,
				"quantity_requested":  req.QuantityRequested,
				"status":              req.Status,
			},
		})
		created = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, created.ID)
}

// ApprovePartsRequestRequest approval payload
type ApprovePartsRequestRequest struct {
	ApprovalNotes string `json:"approval_notes"`
}

func (s *PartsRequestService) Approve(ctx context.Context, actor entity.Actor, id string, input *ApprovePartsRequestRequest) (*entity.SparePartsRequest, error) {
	if !actor.HasRole(entity.RoleMaintenanceManager) {
		return nil, newError(ErrForbidden, "Only maintenance managers can approve spare parts requests")
	}

	err := s.run(ctx, func(tx *gorm.DB, out *partsOutcome) error {
		out.action = entity.ActionApprove
		repo := s.repos.PartsRequest.WithTx(tx)

		req, err := lockPartsRequest(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := checkTransition(req, entity.PartsRequestStatusApproved, "approve"); err != nil {
			return err
		}

		oldStatus := req.Status
		now := time.Now()
		if err := repo.Update(ctx, req, map[string]interface{}{
			"status":         entity.PartsRequestStatusApproved,
			"approved_by":    actor.UserID,
			"approved_at":    now,
			"approval_notes": input.ApprovalNotes,
		}); err != nil {
			return fromRepo(err, "Spare parts request")
		}

		s.audit.Record(ctx, tx, AuditEntry{
			UserID:      actor.UserID,
			Action:      entity.ActionApprove,
			EntityType:  entity.EntitySparePartsRequest,
			EntityID:    req.ID,
			Description: "Spare parts request approved",
			OldValues:   map[string]interface{}{"status": oldStatus},
			NewValues: map[string]interface{}{
				"status":         entity.PartsRequestStatusApproved,
				"approved_by":    actor.UserID,
				"approval_notes": input.ApprovalNotes,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// RejectPartsRequestRequest rejection payload
type RejectPartsRequestRequest struct {
	RejectionReason string `json:"rejection_reason"`
}

func (s *PartsRequestService) Reject(ctx context.Context, actor entity.Actor, id string, input *RejectPartsRequestRequest) (*entity.SparePartsRequest, error) {
	if !actor.HasRole(entity.RoleMaintenanceManager) {
		return nil, newError(ErrForbidden, "Only maintenance managers can reject spare parts requests")
	}
	reason := strings.TrimSpace(input.RejectionReason)
	if reason == "" {
		return nil, newError(ErrInvalidInput, "Rejection reason is required")
	}

	err := s.run(ctx, func(tx *gorm.DB, out *partsOutcome) error {
		out.action = entity.ActionReject
		repo := s.repos.PartsRequest.WithTx(tx)

		req, err := lockPartsRequest(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := checkTransition(req, entity.PartsRequestStatusRejected, "reject"); err != nil {
			return err
		}

		oldStatus := req.Status
		now := time.Now()
		if err := repo.Update(ctx, req, map[string]interface{}{
			"status":           entity.PartsRequestStatusRejected,
			"rejection_reason": reason,
			"approved_by":      actor.UserID,
			"approved_at":      now,
		}); err != nil {
			return fromRepo(err, "Spare parts request")
		}
		req.Status = entity.PartsRequestStatusRejected

		if err := s.resolve(ctx, tx, out, req, actor.UserID); err != nil {
			return err
		}

		s.audit.Record(ctx, tx, AuditEntry{
			UserID:      actor.UserID,
			Action:      entity.ActionReject,
			EntityType:  entity.EntitySparePartsRequest,
			EntityID:    req.ID,
			Description: "Spare parts request rejected: " + reason,
			OldValues:   map[string]interface{}{"status": oldStatus},
			NewValues: map[string]interface{}{
				"status":           entity.PartsRequestStatusRejected,
				"rejection_reason": reason,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Issue takes the approved quantity out of stock.
func (s *PartsRequestService) Issue(ctx context.Context, actor entity.Actor, id string) (*entity.SparePartsRequest, error) {
	if !actor.HasRole(entity.RoleInventoryManager) {
		return nil, newError(ErrForbidden, "Only inventory managers can issue spare parts")
	}

	err := s.run(ctx, func(tx *gorm.DB, out *partsOutcome) error {
		out.action = entity.ActionIssue
		repo := s.repos.PartsRequest.WithTx(tx)

		req, err := lockPartsRequest(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := checkTransition(req, entity.PartsRequestStatusIssued, "issue"); err != nil {
			return err
		}

		part, err := s.repos.SparePart.WithTx(tx).FindByIDForUpdate(ctx, req.SparePartID)
		if err != nil {
			return fromRepo(err, "Spare part")
		}
		if part.CurrentStock < req.QuantityRequested {
			return newError(ErrInsufficientStock, "Insufficient stock. Available: %d, Requested: %d", part.CurrentStock, req.QuantityRequested)
		}

		result, err := s.ledger.Apply(ctx, tx, LedgerEntry{
			SparePartID:     part.ID,
			TransactionType: entity.TransactionTypeOut,
			Quantity:        req.QuantityRequested,
			UnitPrice:       partPrice(part),
			ReferenceType:   entity.ReferenceTypeMaintenance,
			ReferenceNumber: req.ReferenceNumber(),
			Notes:           fmt.Sprintf("Issued for maintenance work %s", req.MaintenanceWorkID),
			PerformedByID:   actor.UserID,
		})
		if err != nil {
			return err
		}
		out.ledger = result

		oldStatus := req.Status
		if err := repo.Update(ctx, req, map[string]interface{}{
			"status": entity.PartsRequestStatusIssued,
		}); err != nil {
			return fromRepo(err, "Spare parts request")
		}
		req.Status = entity.PartsRequestStatusIssued

		if err := s.resolve(ctx, tx, out, req, actor.UserID); err != nil {
			return err
		}

		s.audit.Record(ctx, tx, AuditEntry{
			UserID:      actor.UserID,
			Action:      entity.ActionIssue,
			EntityType:  entity.EntitySparePartsRequest,
			EntityID:    req.ID,
			Description: fmt.Sprintf("Issued %d x %s", req.QuantityRequested, part.PartNumber),
			OldValues: map[string]interface{}{
				"status":        oldStatus,
				"current_stock": result.BeforeQuantity,
			},
			NewValues: map[string]interface{}{
				"status":         entity.PartsRequestStatusIssued,
				"current_stock":  result.AfterQuantity,
				"transaction_id": result.Transaction.ID,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// RequestReturn flags issued parts for return by the technician.
func (s *PartsRequestService) RequestReturn(ctx context.Context, actor entity.Actor, id string) (*entity.SparePartsRequest, error) {
	if !actor.HasRole(entity.RoleMaintenanceTech) {
		return nil, newError(ErrForbidden, "Only maintenance technicians can request returns")
	}

	err := s.run(ctx, func(tx *gorm.DB, out *partsOutcome) error {
		out.action = entity.ActionReturnRequest
		repo := s.repos.PartsRequest.WithTx(tx)

		req, err := lockPartsRequest(ctx, repo, id)
		if err != nil {
			return err
		}
		if req.Status != entity.PartsRequestStatusIssued {
			return newError(ErrInvalidTransition, "Only issued spare parts can be returned")
		}
		if req.IsReturned {
			return newError(ErrAlreadyProcessed, "Spare parts have already been returned")
		}
		if req.IsRequestedReturn {
			return newError(ErrAlreadyProcessed, "Return has already been requested")
		}

		work, err := s.repos.Work.WithTx(tx).FindByID(ctx, req.MaintenanceWorkID)
		if err != nil {
			return fromRepo(err, "Maintenance work")
		}
		if !actor.IsAdmin() && work.AssignedToID != actor.UserID {
			return newError(ErrForbidden, "You can only request returns for work assigned to you")
		}

		if err := repo.Update(ctx, req, map[string]interface{}{
			"is_requested_return": true,
		}); err != nil {
			return fromRepo(err, "Spare parts request")
		}

		s.audit.Record(ctx, tx, AuditEntry{
			UserID:      actor.UserID,
			Action:      entity.ActionReturnRequest,
			EntityType:  entity.EntitySparePartsRequest,
			EntityID:    req.ID,
			Description: "Return requested for issued spare parts",
			OldValues:   map[string]interface{}{"is_requested_return": false},
			NewValues:   map[string]interface{}{"is_requested_return": true},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// ProcessReturn books returned parts back into stock.
func (s *PartsRequestService) ProcessReturn(ctx context.Context, actor entity.Actor, id string) (*entity.SparePartsRequest, error) {
	if !actor.HasRole(entity.RoleInventoryManager) {
		return nil, newError(ErrForbidden, "Only inventory managers can process returns")
	}

	err := s.run(ctx, func(tx *gorm.DB, out *partsOutcome) error {
		out.action = entity.ActionProcessReturn
		repo := s.repos.PartsRequest.WithTx(tx)

		req, err := lockPartsRequest(ctx, repo, id)
		if err != nil {
			return err
		}
		if !req.IsRequestedReturn {
			return newError(ErrInvalidTransition, "Return must be requested first before processing")
		}
		if req.IsReturned {
			return newError(ErrAlreadyProcessed, "Return has already been processed")
		}

		part, err := s.repos.SparePart.WithTx(tx).FindByID(ctx, req.SparePartID)
		if err != nil {
			return fromRepo(err, "Spare part")
		}

		result, err := s.ledger.Apply(ctx, tx, LedgerEntry{
			SparePartID:     part.ID,
			TransactionType: entity.TransactionTypeIn,
			Quantity:        req.QuantityRequested,
			UnitPrice:       partPrice(part),
			ReferenceType:   entity.ReferenceTypeReturn,
			ReferenceNumber: req.ReturnReferenceNumber(),
			Notes:           fmt.Sprintf("Returned from maintenance work %s", req.MaintenanceWorkID),
			PerformedByID:   actor.UserID,
		})
		if err != nil {
			return err
		}
		out.ledger = result

		now := time.Now()
		if err := repo.Update(ctx, req, map[string]interface{}{
			"is_returned": true,
			"return_date": now,
		}); err != nil {
			return fromRepo(err, "Spare parts request")
		}

		s.audit.Record(ctx, tx, AuditEntry{
			UserID:      actor.UserID,
			Action:      entity.ActionProcessReturn,
			EntityType:  entity.EntitySparePartsRequest,
			EntityID:    req.ID,
			Description: fmt.Sprintf("Returned %d x %s to stock", req.QuantityRequested, part.PartNumber),
			OldValues: map[string]interface{}{
				"is_returned":   false,
				"current_stock": result.BeforeQuantity,
			},
			NewValues: map[string]interface{}{
				"is_returned":    true,
				"current_stock":  result.AfterQuantity,
				"transaction_id": result.Transaction.ID,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *PartsRequestService) Get(ctx context.Context, id string) (*entity.SparePartsRequest, error) {
	req, err := s.repos.PartsRequest.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "Spare parts request")
	}
	return req, nil
}

// GetFor returns the request if actor may see it.
func (s *PartsRequestService) GetFor(ctx context.Context, actor entity.Actor, id string) (*entity.SparePartsRequest, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !seesAllPartsRequests(actor) && req.RequestedBy != actor.UserID {
		return nil, newError(ErrForbidden, "You can only view your own spare parts requests")
	}
	return req, nil
}

// List technicians are limited to their own requests.
func (s *PartsRequestService) List(ctx context.Context, actor entity.Actor, params repository.PartsRequestListParams) ([]entity.SparePartsRequest, int64, error) {
	if !seesAllPartsRequests(actor) {
		params.RequestedBy = actor.UserID
	}
	return s.repos.PartsRequest.List(ctx, params)
}

func seesAllPartsRequests(actor entity.Actor) bool {
	return actor.HasAnyRole(entity.RoleMaintenanceManager, entity.RoleInventoryManager, entity.RoleSupervisor)
}
