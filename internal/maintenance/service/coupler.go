package service

import (
	"context"
	"fmt"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/shared/events"
	"gorm.io/gorm"
)

// StatusCoupler keeps a maintenance request's IN_PROGRESS / WAITING_PARTS
// status in step with the spare parts requests of its work order.
type StatusCoupler struct {
	repos *repository.Repositories
	audit *AuditWriter
}

func NewStatusCoupler(repos *repository.Repositories, audit *AuditWriter) *StatusCoupler {
	return &StatusCoupler{repos: repos, audit: audit}
}

// Register subscribes the coupler to parts request resolutions.
func (c *StatusCoupler) Register(bus *events.Bus) {
	bus.Subscribe(events.TopicPartsRequestResolved, c.HandlePartsRequestResolved)
}

// OnPartsRequested parks an in-progress request on WAITING_PARTS when parts
// are requested for its running work order.
func (c *StatusCoupler) OnPartsRequested(ctx context.Context, tx *gorm.DB, work *entity.MaintenanceWork, actorID string) error {
	if work.Status != entity.WorkStatusInProgress {
		return nil
	}
	return c.move(ctx, tx, work.RequestID, entity.RequestStatusInProgress, entity.RequestStatusWaitingParts, actorID)
}

// HandlePartsRequestResolved releases a WAITING_PARTS request once no
// request of the work order is still pending or approved.
func (c *StatusCoupler) HandlePartsRequestResolved(ctx context.Context, tx *gorm.DB, event events.Event) error {
	resolved, ok := event.(events.PartsRequestResolved)
	if !ok {
		return fmt.Errorf("coupler: unexpected event %T", event)
	}

	work, err := c.repos.Work.WithTx(tx).FindByID(ctx, resolved.MaintenanceWorkID)
	if err != nil {
		return fromRepo(err, "Maintenance work")
	}

	outstanding, err := c.repos.PartsRequest.WithTx(tx).CountOutstandingByWork(ctx, work.ID)
	if err != nil {
		return fmt.Errorf("coupler: count outstanding: %w", err)
	}
	if outstanding > 0 {
		return nil
	}
	return c.move(ctx, tx, work.RequestID, entity.RequestStatusWaitingParts, entity.RequestStatusInProgress, resolved.ActorID)
}

func (c *StatusCoupler) move(ctx context.Context, tx *gorm.DB, requestID, from, to, actorID string) error {
	requests := c.repos.Request.WithTx(tx)
	req, err := requests.FindByIDForUpdate(ctx, requestID)
	if err != nil {
		return fromRepo(err, "Maintenance request")
	}
	if req.Status != from {
		return nil
	}
	if err := requests.UpdateStatus(ctx, req, to, nil); err != nil {
		return fromRepo(err, "Maintenance request")
	}

	c.audit.Record(ctx, tx, AuditEntry{
		UserID:      actorID,
		Action:      entity.ActionUpdate,
		EntityType:  entity.EntityMaintenanceRequest,
		EntityID:    req.ID,
		Description: fmt.Sprintf("Maintenance request status changed from %s to %s", from, to),
		OldValues:   map[string]interface{}{"status": from},
		NewValues:   map[string]interface{}{"status": to},
	})
	return nil
}
