package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Request priorities
const (
	PriorityLow      = "LOW"
	PriorityMedium   = "MEDIUM"
	PriorityHigh     = "HIGH"
	PriorityCritical = "CRITICAL"
)

// Maintenance request statuses
const (
	RequestStatusPending      = "PENDING"
	RequestStatusInProgress   = "IN_PROGRESS"
	RequestStatusWaitingParts = "WAITING_PARTS"
	RequestStatusCompleted    = "COMPLETED"
	RequestStatusCancelled    = "CANCELLED"
)

// ValidRequestStatuses allowed maintenance request statuses
var ValidRequestStatuses = map[string]bool{
	RequestStatusPending:      true,
	RequestStatusInProgress:   true,
	RequestStatusWaitingParts: true,
	RequestStatusCompleted:    true,
	RequestStatusCancelled:    true,
}

// ActiveRequestStatuses keep a machine out of OPERATIONAL
var ActiveRequestStatuses = []string{
	RequestStatusPending,
	RequestStatusInProgress,
	RequestStatusWaitingParts,
}

// MaintenanceRequest is a reported problem on a machine.
type MaintenanceRequest struct {
	ID                     string     `json:"id" gorm:"primaryKey;size:32"`
	Title                  string     `json:"title" gorm:"size:200;not null"`
	Description            string     `json:"description" gorm:"type:text;not null"`
	Priority               string     `json:"priority" gorm:"size:20;not null;default:MEDIUM"`
	Status                 string     `json:"status" gorm:"size:20;index;not null;default:PENDING"`
	RequestedDate          time.Time  `json:"requested_date" gorm:"not null"`
	ExpectedCompletionDate *time.Time `json:"expected_completion_date"`
	ActualCompletionDate   *time.Time `json:"actual_completion_date"`
	MachineID              string     `json:"machine_id" gorm:"size:32;index;not null"`
	Machine                *Machine   `json:"machine,omitempty" gorm:"foreignKey:MachineID"`
	RequestedByID          string     `json:"requested_by_id" gorm:"size:32;index;not null"`
	FailureCodeID          *string    `json:"failure_code_id" gorm:"size:32;index"`
	MaintenanceTypeID      *string    `json:"maintenance_type_id" gorm:"size:32;index"`
	Version                int        `json:"version" gorm:"not null;default:1"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

func (MaintenanceRequest) TableName() string {
	return "maintenance_requests"
}

// Work statuses
const (
	WorkStatusPending    = "PENDING"
	WorkStatusInProgress = "IN_PROGRESS"
	WorkStatusCompleted  = "COMPLETED"
	WorkStatusOnHold     = "ON_HOLD"
	WorkStatusCancelled  = "CANCELLED"
)

// MaintenanceWork is the work order a technician carries out for a request.
type MaintenanceWork struct {
	ID              string              `json:"id" gorm:"primaryKey;size:32"`
	RequestID       string              `json:"request_id" gorm:"size:32;index;not null"`
	Request         *MaintenanceRequest `json:"request,omitempty" gorm:"foreignKey:RequestID"`
	MachineID       string              `json:"machine_id" gorm:"size:32;index;not null"`
	AssignedToID    string              `json:"assigned_to_id" gorm:"size:32;index;not null"`
	WorkDescription string              `json:"work_description" gorm:"type:text;not null"`
	Status          string              `json:"status" gorm:"size:20;index;not null;default:PENDING"`
	StartTime       *time.Time          `json:"start_time"`
	EndTime         *time.Time          `json:"end_time"`
	EstimatedHours  *float64            `json:"estimated_hours"`
	ActualHours     *float64            `json:"actual_hours"`
	LaborCost       decimal.Decimal     `json:"labor_cost" gorm:"type:decimal(12,2);not null;default:0"`
	MaterialCost    decimal.Decimal     `json:"material_cost" gorm:"type:decimal(12,2);not null;default:0"`
	TotalCost       decimal.Decimal     `json:"total_cost" gorm:"type:decimal(12,2);not null;default:0"`
	Steps           MaintenanceSteps    `json:"maintenance_steps" gorm:"column:maintenance_steps;type:text"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func (MaintenanceWork) TableName() string {
	return "maintenance_works"
}

// MaintenanceStep one checklist step of a work order.
type MaintenanceStep struct {
	Step        int        `json:"step"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// MaintenanceSteps is stored as a JSON text column.
type MaintenanceSteps []MaintenanceStep

func (s MaintenanceSteps) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (s *MaintenanceSteps) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("maintenance steps: unsupported type %T", value)
	}
	if len(raw) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(raw, s)
}

// CompletedSteps step numbers marked done
func (s MaintenanceSteps) CompletedSteps() []int {
	done := []int{}
	for _, step := range s {
		if step.Completed {
			done = append(done, step.Step)
		}
	}
	return done
}

// MachineDowntime is the period a machine was out of service for a work order.
type MachineDowntime struct {
	ID                string          `json:"id" gorm:"primaryKey;size:32"`
	MachineID         string          `json:"machine_id" gorm:"size:32;index;not null"`
	MaintenanceWorkID *string         `json:"maintenance_work_id" gorm:"size:32;index"`
	Reason            string          `json:"reason" gorm:"type:text;not null"`
	StartTime         time.Time       `json:"start_time" gorm:"index;not null"`
	EndTime           *time.Time      `json:"end_time"`
	DurationHours     *float64        `json:"duration_hours" gorm:"column:duration"`
	ProductionLoss    *float64        `json:"production_loss"`
	CostImpact        decimal.Decimal `json:"cost_impact" gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (MachineDowntime) TableName() string {
	return "machine_downtimes"
}
