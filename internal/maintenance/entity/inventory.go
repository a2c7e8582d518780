package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SparePart is a stocked item. CurrentStock is a cached counter over inventory_transactions
// and is written only by the stock ledger.
type SparePart struct {
	ID                 string              `json:"id" gorm:"primaryKey;size:32"`
	PartNumber         string              `json:"part_number" gorm:"size:100;uniqueIndex;not null"`
	PartName           string              `json:"part_name" gorm:"size:200;not null"`
	Description        string              `json:"description" gorm:"type:text"`
	CategoryID         *string             `json:"category_id" gorm:"size:32;index"`
	Category           *SparePartCategory  `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	CurrentStock       int                 `json:"current_stock" gorm:"not null;default:0"`
	MinimumStock       int                 `json:"minimum_stock" gorm:"not null;default:0"`
	MaximumStock       *int                `json:"maximum_stock"`
	UnitPrice          decimal.NullDecimal `json:"unit_price" gorm:"type:decimal(12,2)"`
	Supplier           string              `json:"supplier" gorm:"size:200"`
	SupplierPartNumber string              `json:"supplier_part_number" gorm:"size:100"`
	Location           string              `json:"location" gorm:"size:200"`
	IsActive           bool                `json:"is_active" gorm:"not null"`
	Version            int                 `json:"version" gorm:"not null;default:1"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`

	StockStatus string `json:"stock_status,omitempty" gorm:"-"`
}

func (SparePart) TableName() string {
	return "spareparts"
}

// Stock statuses
const (
	StockStatusCritical = "CRITICAL"
	StockStatusLow      = "LOW"
	StockStatusExcess   = "EXCESS"
	StockStatusAdequate = "ADEQUATE"
)

// CalculateStockStatus classifies current stock against the part's thresholds.
// LOW means under one and a half times the minimum.
func CalculateStockStatus(current, minimum int, maximum *int) string {
	switch {
	case current < minimum:
		return StockStatusCritical
	case current*2 < minimum*3:
		return StockStatusLow
	case maximum != nil && *maximum > 0 && current > *maximum:
		return StockStatusExcess
	default:
		return StockStatusAdequate
	}
}

// Transaction types
const (
	TransactionTypeIn         = "IN"
	TransactionTypeOut        = "OUT"
	TransactionTypeAdjustment = "ADJUSTMENT"
	TransactionTypeTransfer   = "TRANSFER"
)

// ValidTransactionTypes ledger entry types
var ValidTransactionTypes = map[string]bool{
	TransactionTypeIn:         true,
	TransactionTypeOut:        true,
	TransactionTypeAdjustment: true,
	TransactionTypeTransfer:   true,
}

// Reference types written by the parts request workflow
const (
	ReferenceTypeMaintenance = "MAINTENANCE"
	ReferenceTypeReturn      = "RETURN"
)

// InventoryTransaction is one stock ledger entry. Rows are immutable; corrections are new
// offsetting entries.
type InventoryTransaction struct {
	ID              string              `json:"id" gorm:"primaryKey;size:32"`
	SparePartID     string              `json:"spare_part_id" gorm:"size:32;index;not null"`
	SparePart       *SparePart          `json:"spare_part,omitempty" gorm:"foreignKey:SparePartID"`
	TransactionType string              `json:"transaction_type" gorm:"size:20;index;not null"`
	Quantity        int                 `json:"quantity" gorm:"not null"`
	UnitPrice       decimal.NullDecimal `json:"unit_price" gorm:"type:decimal(12,2)"`
	TotalValue      decimal.NullDecimal `json:"total_value" gorm:"type:decimal(14,2)"`
	ReferenceType   string              `json:"reference_type" gorm:"size:50;index"`
	ReferenceNumber string              `json:"reference_number" gorm:"size:100;index"`
	Notes           string              `json:"notes" gorm:"type:text"`
	BeforeQuantity  int                 `json:"before_quantity"`
	AfterQuantity   int                 `json:"after_quantity"`
	TransactionDate time.Time           `json:"transaction_date" gorm:"index;not null"`
	PerformedByID   string              `json:"performed_by_id" gorm:"size:32;index"`
	CreatedAt       time.Time           `json:"created_at"`
}

func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}
