package service

import (
	"context"
	"testing"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/testutil"
	"github.com/mkhaled501333/maintaince-management/internal/shared/metrics"
	"gorm.io/gorm"
)

type fixture struct {
	ctx       context.Context
	db        *gorm.DB
	repos     *repository.Repositories
	svc       *Services
	metrics   *metrics.Metrics
	tech      *entity.User
	manager   *entity.User
	inventory *entity.User
	admin     *entity.User
	machine   *entity.Machine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	m := metrics.New()
	return &fixture{
		ctx:       WithRequestMeta(context.Background(), RequestMeta{IPAddress: "10.0.0.7", UserAgent: "service-test"}),
		db:        db,
		repos:     repos,
		svc:       NewServices(db, repos, Dependencies{Metrics: m}),
		metrics:   m,
		tech:      testutil.SeedUser(t, db, entity.RoleMaintenanceTech),
		manager:   testutil.SeedUser(t, db, entity.RoleMaintenanceManager),
		inventory: testutil.SeedUser(t, db, entity.RoleInventoryManager),
		admin:     testutil.SeedUser(t, db, entity.RoleAdmin),
		machine:   testutil.SeedMachine(t, db, entity.MachineStatusMaintenance),
	}
}

func actorOf(u *entity.User) entity.Actor {
	return entity.Actor{UserID: u.ID, Name: u.FullName, Roles: []string{u.Role}}
}

// runningWork a request and work order both IN_PROGRESS, assigned to the fixture technician
func (f *fixture) runningWork(t *testing.T) (*entity.MaintenanceRequest, *entity.MaintenanceWork) {
	t.Helper()
	return testutil.SeedWork(t, f.db, f.machine, f.tech, entity.RequestStatusInProgress, entity.WorkStatusInProgress)
}

func (f *fixture) createRequest(t *testing.T, work *entity.MaintenanceWork, part *entity.SparePart, qty int) *entity.SparePartsRequest {
	t.Helper()
	req, err := f.svc.PartsRequest.Create(f.ctx, actorOf(f.tech), &CreatePartsRequestRequest{
		MaintenanceWorkID: work.ID,
		SparePartID:       part.ID,
		QuantityRequested: qty,
	})
	if err != nil {
		t.Fatalf("create parts request: %v", err)
	}
	return req
}

func (f *fixture) approve(t *testing.T, id string) {
	t.Helper()
	if _, err := f.svc.PartsRequest.Approve(f.ctx, actorOf(f.manager), id, &ApprovePartsRequestRequest{}); err != nil {
		t.Fatalf("approve parts request: %v", err)
	}
}

func (f *fixture) auditActions(t *testing.T, entityType, entityID string) []string {
	t.Helper()
	logs, _, err := f.repos.ActivityLog.FindByEntity(f.ctx, entityType, entityID, 0, 0)
	if err != nil {
		t.Fatalf("load audit rows: %v", err)
	}
	actions := make([]string, 0, len(logs))
	for i := len(logs) - 1; i >= 0; i-- {
		actions = append(actions, logs[i].Action)
	}
	return actions
}
