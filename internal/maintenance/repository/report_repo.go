package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportRepository read-only aggregate queries for inventory reports. Runs
// plain SQL through sqlx on the pool gorm already owns.
type ReportRepository struct {
	gdb *gorm.DB

	once  sync.Once
	db    *sqlx.DB
	dbErr error
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{gdb: db}
}

// conn lazily wraps the gorm pool; sqlite dialector names map to the sqlite3 bind style.
func (r *ReportRepository) conn() (*sqlx.DB, error) {
	r.once.Do(func() {
		sqlDB, err := r.gdb.DB()
		if err != nil {
			r.dbErr = fmt.Errorf("report: get sql.DB: %w", err)
			return
		}
		driver := r.gdb.Dialector.Name()
		if driver == "sqlite" {
			driver = "sqlite3"
		}
		r.db = sqlx.NewDb(sqlDB, driver)
	})
	return r.db, r.dbErr
}

// PartStockRow one active spare part with its category
type PartStockRow struct {
	ID           string              `db:"id" json:"id"`
	PartNumber   string              `db:"part_number" json:"part_number"`
	PartName     string              `db:"part_name" json:"part_name"`
	Description  *string             `db:"description" json:"description"`
	CategoryCode *string             `db:"category_code" json:"category_code"`
	CategoryName *string             `db:"category_name" json:"category_name"`
	CurrentStock int                 `db:"current_stock" json:"current_stock"`
	MinimumStock int                 `db:"minimum_stock" json:"minimum_stock"`
	MaximumStock *int                `db:"maximum_stock" json:"maximum_stock"`
	UnitPrice    decimal.NullDecimal `db:"unit_price" json:"unit_price"`
	Location     *string             `db:"location" json:"location"`
}

type PartStockFilter struct {
	GroupNumber  string
	GroupName    string
	Location     string
	BelowMinimum bool
}

// PartStock active parts matching filter, ordered by part number.
func (r *ReportRepository) PartStock(ctx context.Context, filter PartStockFilter) ([]PartStockRow, error) {
	db, err := r.conn()
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT p.id, p.part_number, p.part_name, p.description,
		       c.code AS category_code, c.name AS category_name,
		       p.current_stock, p.minimum_stock, p.maximum_stock, p.unit_price, p.location
		FROM spareparts p
		LEFT JOIN sparepart_categories c ON c.id = p.category_id
		WHERE p.is_active = ?`)
	args := []interface{}{true}

	if filter.GroupNumber != "" {
		sb.WriteString(" AND c.code = ?")
		args = append(args, filter.GroupNumber)
	}
	if filter.GroupName != "" {
		sb.WriteString(" AND c.name = ?")
		args = append(args, filter.GroupName)
	}
	if filter.Location != "" {
		sb.WriteString(" AND p.location = ?")
		args = append(args, filter.Location)
	}
	if filter.BelowMinimum {
		sb.WriteString(" AND p.current_stock < p.minimum_stock")
	}
	sb.WriteString(" ORDER BY p.part_number ASC")

	var rows []PartStockRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(sb.String()), args...); err != nil {
		return nil, fmt.Errorf("report: part stock: %w", err)
	}
	return rows, nil
}

// ConsumptionRow OUT movements aggregated per part
type ConsumptionRow struct {
	PartID           string              `db:"part_id" json:"part_id"`
	PartNumber       string              `db:"part_number" json:"part_number"`
	PartName         string              `db:"part_name" json:"part_name"`
	CategoryCode     *string             `db:"category_code" json:"category_code"`
	CategoryName     *string             `db:"category_name" json:"category_name"`
	Location         *string             `db:"location" json:"location"`
	QuantityConsumed int64               `db:"quantity_consumed" json:"quantity_consumed"`
	TotalValue       decimal.NullDecimal `db:"total_value" json:"total_value"`
	TransactionCount int64               `db:"transaction_count" json:"transaction_count"`
}

type ConsumptionFilter struct {
	DateFrom    *time.Time
	DateTo      *time.Time
	GroupNumber string
	Location    string
}

func (r *ReportRepository) Consumption(ctx context.Context, filter ConsumptionFilter) ([]ConsumptionRow, error) {
	db, err := r.conn()
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT p.id AS part_id, p.part_number, p.part_name,
		       c.code AS category_code, c.name AS category_name, p.location,
		       COALESCE(SUM(t.quantity), 0) AS quantity_consumed,
		       SUM(t.total_value) AS total_value,
		       COUNT(t.id) AS transaction_count
		FROM inventory_transactions t
		JOIN spareparts p ON p.id = t.spare_part_id
		LEFT JOIN sparepart_categories c ON c.id = p.category_id
		WHERE t.transaction_type = ?`)
	args := []interface{}{"OUT"}

	if filter.DateFrom != nil {
		sb.WriteString(" AND t.transaction_date >= ?")
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		sb.WriteString(" AND t.transaction_date <= ?")
		args = append(args, *filter.DateTo)
	}
	if filter.GroupNumber != "" {
		sb.WriteString(" AND c.code = ?")
		args = append(args, filter.GroupNumber)
	}
	if filter.Location != "" {
		sb.WriteString(" AND p.location = ?")
		args = append(args, filter.Location)
	}
	sb.WriteString(`
		GROUP BY p.id, p.part_number, p.part_name, c.code, c.name, p.location
		ORDER BY quantity_consumed DESC, p.part_number ASC`)

	var rows []ConsumptionRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(sb.String()), args...); err != nil {
		return nil, fmt.Errorf("report: consumption: %w", err)
	}
	return rows, nil
}

// DowntimeRow closed downtime aggregated per machine
type DowntimeRow struct {
	MachineID      string  `db:"machine_id" json:"machine_id"`
	MachineName    string  `db:"machine_name" json:"machine_name"`
	DepartmentID   string  `db:"department_id" json:"department_id"`
	DepartmentName *string `db:"department_name" json:"department_name"`
	TotalHours     float64 `db:"total_hours" json:"total_downtime"`
	Frequency      int64   `db:"frequency" json:"frequency"`
}

// MaintenanceReportFilter shared filters of the maintenance reports. Dates
// bound downtime start, work completion, or request date respectively.
type MaintenanceReportFilter struct {
	MachineID         string     `json:"machine_id,omitempty"`
	DepartmentID      string     `json:"department_id,omitempty"`
	MaintenanceTypeID string     `json:"maintenance_type_id,omitempty"`
	FailureCategory   string     `json:"failure_category,omitempty"`
	DateFrom          *time.Time `json:"date_from,omitempty"`
	DateTo            *time.Time `json:"date_to,omitempty"`
}

func (r *ReportRepository) Downtime(ctx context.Context, filter MaintenanceReportFilter) ([]DowntimeRow, error) {
	db, err := r.conn()
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT d.machine_id, m.name AS machine_name, m.department_id, dep.name AS department_name,
		       COALESCE(SUM(d.duration), 0) AS total_hours,
		       COUNT(d.id) AS frequency
		FROM machine_downtimes d
		JOIN machines m ON m.id = d.machine_id
		LEFT JOIN departments dep ON dep.id = m.department_id
		WHERE d.end_time IS NOT NULL`)
	var args []interface{}

	if filter.MachineID != "" {
		sb.WriteString(" AND d.machine_id = ?")
		args = append(args, filter.MachineID)
	}
	if filter.DepartmentID != "" {
		sb.WriteString(" AND m.department_id = ?")
		args = append(args, filter.DepartmentID)
	}
	if filter.DateFrom != nil {
		sb.WriteString(" AND d.start_time >= ?")
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		sb.WriteString(" AND d.start_time <= ?")
		args = append(args, *filter.DateTo)
	}
	sb.WriteString(`
		GROUP BY d.machine_id, m.name, m.department_id, dep.name
		ORDER BY total_hours DESC, m.name ASC`)

	var rows []DowntimeRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(sb.String()), args...); err != nil {
		return nil, fmt.Errorf("report: downtime: %w", err)
	}
	return rows, nil
}

// WorkCostRow one completed work order with its labor and net parts cost.
// Parts cost is issued value less processed returns.
type WorkCostRow struct {
	WorkID              string              `db:"work_id"`
	MachineID           string              `db:"machine_id"`
	MachineName         string              `db:"machine_name"`
	MaintenanceTypeID   *string             `db:"maintenance_type_id"`
	MaintenanceTypeName *string             `db:"maintenance_type_name"`
	LaborCost           decimal.NullDecimal `db:"labor_cost"`
	PartsCost           decimal.NullDecimal `db:"parts_cost"`
}

func (r *ReportRepository) WorkCosts(ctx context.Context, filter MaintenanceReportFilter) ([]WorkCostRow, error) {
	db, err := r.conn()
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT w.id AS work_id, w.machine_id, m.name AS machine_name,
		       mr.maintenance_type_id, mt.name AS maintenance_type_name,
		       w.labor_cost,
		       (SELECT SUM(CASE WHEN t.transaction_type = ? THEN t.total_value ELSE -t.total_value END)
		          FROM inventory_transactions t
		          JOIN spare_parts_requests pr
		            ON t.reference_number = 'SPR-' || pr.id OR t.reference_number = 'SPR-RET-' || pr.id
		         WHERE pr.maintenance_work_id = w.id AND t.reference_type IN (?, ?)) AS parts_cost
		FROM maintenance_works w
		JOIN maintenance_requests mr ON mr.id = w.request_id
		JOIN machines m ON m.id = w.machine_id
		LEFT JOIN maintenancetypes mt ON mt.id = mr.maintenance_type_id
		WHERE w.status = ?`)
	args := []interface{}{"OUT", "MAINTENANCE", "RETURN", "COMPLETED"}

	if filter.MachineID != "" {
		sb.WriteString(" AND w.machine_id = ?")
		args = append(args, filter.MachineID)
	}
	if filter.MaintenanceTypeID != "" {
		sb.WriteString(" AND mr.maintenance_type_id = ?")
		args = append(args, filter.MaintenanceTypeID)
	}
	if filter.DateFrom != nil {
		sb.WriteString(" AND w.end_time >= ?")
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		sb.WriteString(" AND w.end_time <= ?")
		args = append(args, *filter.DateTo)
	}
	sb.WriteString(" ORDER BY m.name ASC, w.end_time ASC")

	var rows []WorkCostRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(sb.String()), args...); err != nil {
		return nil, fmt.Errorf("report: work costs: %w", err)
	}
	return rows, nil
}

// FailureRow one request carrying a failure code
type FailureRow struct {
	RequestID     string     `db:"request_id"`
	FailureCodeID string     `db:"failure_code_id"`
	Code          string     `db:"code"`
	Description   string     `db:"description"`
	Category      *string    `db:"category"`
	MachineID     string     `db:"machine_id"`
	Status        string     `db:"status"`
	RequestedDate time.Time  `db:"requested_date"`
	WorkEndTime   *time.Time `db:"work_end_time"`
}

func (r *ReportRepository) Failures(ctx context.Context, filter MaintenanceReportFilter) ([]FailureRow, error) {
	db, err := r.conn()
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT mr.id AS request_id, mr.failure_code_id, fc.code, fc.description, fc.category,
		       mr.machine_id, mr.status, mr.requested_date, w.end_time AS work_end_time
		FROM maintenance_requests mr
		JOIN failurecodes fc ON fc.id = mr.failure_code_id
		JOIN machines m ON m.id = mr.machine_id
		LEFT JOIN maintenance_works w ON w.request_id = mr.id
		WHERE 1 = 1`)
	var args []interface{}

	if filter.MachineID != "" {
		sb.WriteString(" AND mr.machine_id = ?")
		args = append(args, filter.MachineID)
	}
	if filter.DepartmentID != "" {
		sb.WriteString(" AND m.department_id = ?")
		args = append(args, filter.DepartmentID)
	}
	if filter.FailureCategory != "" {
		sb.WriteString(" AND fc.category = ?")
		args = append(args, filter.FailureCategory)
	}
	if filter.DateFrom != nil {
		sb.WriteString(" AND mr.requested_date >= ?")
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		sb.WriteString(" AND mr.requested_date <= ?")
		args = append(args, *filter.DateTo)
	}
	sb.WriteString(" ORDER BY fc.code ASC, mr.requested_date ASC")

	var rows []FailureRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(sb.String()), args...); err != nil {
		return nil, fmt.Errorf("report: failures: %w", err)
	}
	return rows, nil
}
