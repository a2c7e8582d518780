package service

import (
	"context"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/shared/cache"
	"github.com/mkhaled501333/maintaince-management/internal/shared/events"
	"github.com/mkhaled501333/maintaince-management/internal/shared/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies shared infrastructure. Cache, Metrics and Bus publisher may be nil.
type Dependencies struct {
	Cache         *cache.Cache
	Metrics       *metrics.Metrics
	Publisher     events.Publisher
	Logger        *zap.Logger
	ExportMaxRows int
}

// Services maintenance service set
type Services struct {
	Ledger       *LedgerService
	PartsRequest *PartsRequestService
	Coupler      *StatusCoupler
	Audit        *AuditWriter
	Department   *DepartmentService
	Machine      *MachineService
	Category     *CategoryService
	SparePart    *SparePartService
	Transaction  *TransactionService
	Maintenance  *MaintenanceService
	Report       *ReportService
	ActivityLog  *ActivityLogService
	Lookup       *LookupService
	User         *UserService
	Bus          *events.Bus
}

func NewServices(db *gorm.DB, repos *repository.Repositories, deps Dependencies) *Services {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bus := events.NewBus(deps.Publisher, logger)
	audit := NewAuditWriter(repos.ActivityLog, logger)
	ledger := NewLedgerService(db, repos, deps.Cache, deps.Metrics)
	coupler := NewStatusCoupler(repos, audit)
	coupler.Register(bus)
	lookups := NewLookupService(repos, audit)

	return &Services{
		Ledger:       ledger,
		PartsRequest: NewPartsRequestService(db, repos, ledger, coupler, audit, bus, deps.Metrics, logger),
		Coupler:      coupler,
		Audit:        audit,
		Department:   NewDepartmentService(repos, audit),
		Machine:      NewMachineService(db, repos, audit),
		Category:     NewCategoryService(repos, audit),
		SparePart:    NewSparePartService(db, repos, ledger, audit),
		Transaction:  NewTransactionService(db, repos, ledger, audit, deps.ExportMaxRows),
		Maintenance:  NewMaintenanceService(db, repos, coupler, lookups, audit, deps.Cache),
		Report:       NewReportService(repos, deps.Cache, audit),
		ActivityLog:  NewActivityLogService(repos.ActivityLog),
		Lookup:       lookups,
		User:         NewUserService(repos, audit),
		Bus:          bus,
	}
}

// ActivityLogService audit trail queries
type ActivityLogService struct {
	repo *repository.ActivityLogRepository
}

func NewActivityLogService(repo *repository.ActivityLogRepository) *ActivityLogService {
	return &ActivityLogService{repo: repo}
}

func (s *ActivityLogService) List(ctx context.Context, params repository.ActivityLogListParams) ([]entity.ActivityLog, int64, error) {
	return s.repo.List(ctx, params)
}

func (s *ActivityLogService) EntityHistory(ctx context.Context, entityType, entityID string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	return s.repo.FindByEntity(ctx, entityType, entityID, page, pageSize)
}
