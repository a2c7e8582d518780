package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record was modified by another transaction")
)

// Repositories maintenance repository set
type Repositories struct {
	User         *UserRepository
	Department   *DepartmentRepository
	Machine      *MachineRepository
	Category     *CategoryRepository
	SparePart    *SparePartRepository
	Transaction  *TransactionRepository
	Request      *MaintenanceRequestRepository
	Work         *MaintenanceWorkRepository
	PartsRequest *PartsRequestRepository
	ActivityLog  *ActivityLogRepository
	Report       *ReportRepository
	FailureCode  *FailureCodeRepository
	MaintType    *MaintenanceTypeRepository
	Downtime     *DowntimeRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Department:   NewDepartmentRepository(db),
		Machine:      NewMachineRepository(db),
		Category:     NewCategoryRepository(db),
		SparePart:    NewSparePartRepository(db),
		Transaction:  NewTransactionRepository(db),
		Request:      NewMaintenanceRequestRepository(db),
		Work:         NewMaintenanceWorkRepository(db),
		PartsRequest: NewPartsRequestRepository(db),
		ActivityLog:  NewActivityLogRepository(db),
		Report:       NewReportRepository(db),
		FailureCode:  NewFailureCodeRepository(db),
		MaintType:    NewMaintenanceTypeRepository(db),
		Downtime:     NewDowntimeRepository(db),
	}
}

// NewID generates a 32 char primary key.
func NewID() string {
	return uuid.New().String()[:32]
}

// forUpdate locks the selected rows until the transaction ends. SQLite has no
// row locks; its single writer already serialises the transaction.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// paginate applies page/pageSize; pageSize <= 0 returns every row.
func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pageSize <= 0 {
			return db
		}
		if page < 1 {
			page = 1
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}
