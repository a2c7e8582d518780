package entity

import "time"

// Department groups machines.
type Department struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Name        string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Department) TableName() string {
	return "departments"
}

// Machine statuses
const (
	MachineStatusOperational    = "OPERATIONAL"
	MachineStatusDown           = "DOWN"
	MachineStatusMaintenance    = "MAINTENANCE"
	MachineStatusDecommissioned = "DECOMMISSIONED"
)

// ValidMachineStatuses allowed machine statuses
var ValidMachineStatuses = map[string]bool{
	MachineStatusOperational:    true,
	MachineStatusDown:           true,
	MachineStatusMaintenance:    true,
	MachineStatusDecommissioned: true,
}

// Machine is a piece of equipment identified by its QR code.
type Machine struct {
	ID               string      `json:"id" gorm:"primaryKey;size:32"`
	QRCode           string      `json:"qr_code" gorm:"column:qr_code;size:255;uniqueIndex;not null"`
	Name             string      `json:"name" gorm:"size:100;not null"`
	Model            string      `json:"model" gorm:"size:100"`
	SerialNumber     string      `json:"serial_number" gorm:"size:100"`
	Location         string      `json:"location" gorm:"size:200"`
	InstallationDate *time.Time  `json:"installation_date"`
	Status           string      `json:"status" gorm:"size:20;not null;default:OPERATIONAL"`
	DepartmentID     string      `json:"department_id" gorm:"size:32;index;not null"`
	Department       *Department `json:"department,omitempty" gorm:"foreignKey:DepartmentID"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

func (Machine) TableName() string {
	return "machines"
}

// SparePartCategory groups spare parts; Code doubles as the report group number.
type SparePartCategory struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Name        string    `json:"name" gorm:"size:200;not null"`
	Code        *string   `json:"code" gorm:"size:50;uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`
	IsActive    bool      `json:"is_active" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (SparePartCategory) TableName() string {
	return "sparepart_categories"
}

// FailureCode classifies what went wrong on a machine.
type FailureCode struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Code        string    `json:"code" gorm:"size:20;uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Category    string    `json:"category" gorm:"size:100;index"`
	IsActive    bool      `json:"is_active" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (FailureCode) TableName() string {
	return "failurecodes"
}

// MaintenanceType classifies the kind of work done (corrective, preventive...).
type MaintenanceType struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Name        string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Category    string    `json:"category" gorm:"size:100;index"`
	IsActive    bool      `json:"is_active" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (MaintenanceType) TableName() string {
	return "maintenancetypes"
}
