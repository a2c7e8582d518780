package entity

import "time"

// Audit actions
const (
	ActionCreate        = "CREATE"
	ActionUpdate        = "UPDATE"
	ActionDelete        = "DELETE"
	ActionApprove       = "APPROVE"
	ActionReject        = "REJECT"
	ActionIssue         = "ISSUE"
	ActionReturnRequest = "RETURN_REQUEST"
	ActionProcessReturn = "PROCESS_RETURN"
	ActionStart         = "START"
	ActionComplete      = "COMPLETE"
	ActionAccept        = "ACCEPT"
	ActionRead          = "READ"
)

// Audited entity types
const (
	EntitySparePartsRequest    = "SPARE_PARTS_REQUEST"
	EntityInventoryTransaction = "INVENTORY_TRANSACTION"
	EntitySparePart            = "SPARE_PART"
	EntitySparePartCategory    = "SPARE_PART_CATEGORY"
	EntityMaintenanceRequest   = "MAINTENANCE_REQUEST"
	EntityMaintenanceWork      = "MAINTENANCE_WORK"
	EntityMachine              = "MACHINE"
	EntityDepartment           = "DEPARTMENT"
	EntityFailureCode          = "FAILURE_CODE"
	EntityMaintenanceType      = "MAINTENANCE_TYPE"
	EntityUser                 = "USER"
	EntityDowntimeReport       = "DOWNTIME_REPORT"
	EntityCostReport           = "COST_REPORT"
	EntityFailureReport        = "FAILURE_REPORT"
)

// ActivityLog is an append-only audit row. OldValues/NewValues hold JSON text.
type ActivityLog struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	UserID      string    `json:"user_id" gorm:"size:32;index;not null"`
	Action      string    `json:"action" gorm:"size:100;index;not null"`
	EntityType  string    `json:"entity_type" gorm:"size:50;not null;index:idx_activity_entity"`
	EntityID    string    `json:"entity_id" gorm:"size:32;not null;index:idx_activity_entity"`
	Description string    `json:"description" gorm:"type:text"`
	OldValues   string    `json:"old_values" gorm:"type:text"`
	NewValues   string    `json:"new_values" gorm:"type:text"`
	IPAddress   string    `json:"ip_address" gorm:"size:45"`
	UserAgent   string    `json:"user_agent" gorm:"size:500"`
	Timestamp   time.Time `json:"timestamp" gorm:"index;not null"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// AllModels returns every table the service owns, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Department{},
		&Machine{},
		&SparePartCategory{},
		&FailureCode{},
		&MaintenanceType{},
		&SparePart{},
		&InventoryTransaction{},
		&MaintenanceRequest{},
		&MaintenanceWork{},
		&MachineDowntime{},
		&SparePartsRequest{},
		&ActivityLog{},
	}
}
