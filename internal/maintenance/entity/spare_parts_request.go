package entity

import "time"

// Spare parts request statuses
const (
	PartsRequestStatusPending  = "PENDING"
	PartsRequestStatusApproved = "APPROVED"
	PartsRequestStatusRejected = "REJECTED"
	PartsRequestStatusIssued   = "ISSUED"
)

// ValidPartsRequestTransitions allowed status moves. Return handling is
// tracked by flags on ISSUED and never moves status.
var ValidPartsRequestTransitions = map[string][]string{
	PartsRequestStatusPending:  {PartsRequestStatusApproved, PartsRequestStatusRejected},
	PartsRequestStatusApproved: {PartsRequestStatusIssued},
}

// OutstandingPartsRequestStatuses block the parent request on parts
var OutstandingPartsRequestStatuses = []string{
	PartsRequestStatusPending,
	PartsRequestStatusApproved,
}

// CanTransition reports whether from -> to is a legal status move.
func CanTransition(from, to string) bool {
	for _, next := range ValidPartsRequestTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SparePartsRequest is a technician's request for stock against a work order.
type SparePartsRequest struct {
	ID                string           `json:"id" gorm:"primaryKey;size:32"`
	MaintenanceWorkID string           `json:"maintenance_work_id" gorm:"size:32;index;not null"`
	MaintenanceWork   *MaintenanceWork `json:"maintenance_work,omitempty" gorm:"foreignKey:MaintenanceWorkID"`
	SparePartID       string           `json:"spare_part_id" gorm:"size:32;index;not null"`
	SparePart         *SparePart       `json:"spare_part,omitempty" gorm:"foreignKey:SparePartID"`
	QuantityRequested int              `json:"quantity_requested" gorm:"not null"`
	Status            string           `json:"status" gorm:"size:20;index;not null;default:PENDING"`
	RequestedBy       string           `json:"requested_by" gorm:"size:32;index;not null"`
	ApprovedBy        *string          `json:"approved_by" gorm:"size:32"`
	ApprovedAt        *time.Time       `json:"approved_at"`
	RejectionReason   string           `json:"rejection_reason" gorm:"type:text"`
	ApprovalNotes     string           `json:"approval_notes" gorm:"type:text"`
	IsRequestedReturn bool             `json:"is_requested_return" gorm:"column:is_requested_return;not null;default:false"`
	ReturnDate        *time.Time       `json:"return_date" gorm:"column:return_date"`
	IsReturned        bool             `json:"is_returned" gorm:"column:is_returned;not null;default:false"`
	Version           int              `json:"version" gorm:"not null;default:1"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func (SparePartsRequest) TableName() string {
	return "spare_parts_requests"
}

// ReferenceNumber is the ledger reference written when the request is issued.
func (r *SparePartsRequest) ReferenceNumber() string {
	return "SPR-" + r.ID
}

// ReturnReferenceNumber is the ledger reference written when a return is processed.
func (r *SparePartsRequest) ReturnReferenceNumber() string {
	return "SPR-RET-" + r.ID
}
