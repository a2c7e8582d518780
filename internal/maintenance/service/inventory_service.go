package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// SparePartService spare part catalog. Stock moves go through the ledger.
type SparePartService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	ledger *LedgerService
	audit  *AuditWriter
}

func NewSparePartService(db *gorm.DB, repos *repository.Repositories, ledger *LedgerService, audit *AuditWriter) *SparePartService {
	return &SparePartService{db: db, repos: repos, ledger: ledger, audit: audit}
}

// CreateSparePartRequest new spare part; InitialStock is booked as an IN entry
type CreateSparePartRequest struct {
	PartNumber         string           `json:"part_number" binding:"required"`
	PartName           string           `json:"part_name" binding:"required"`
	Description        string           `json:"description"`
	CategoryID         *string          `json:"category_id"`
	MinimumStock       int              `json:"minimum_stock"`
	MaximumStock       *int             `json:"maximum_stock"`
	UnitPrice          *decimal.Decimal `json:"unit_price"`
	Supplier           string           `json:"supplier"`
	SupplierPartNumber string           `json:"supplier_part_number"`
	Location           string           `json:"location"`
	InitialStock       int              `json:"initial_stock"`
}

func validateStockLimits(minimum int, maximum *int, price *decimal.Decimal) error {
	if minimum < 0 {
		return newError(ErrInvalidInput, "Minimum stock cannot be negative")
	}
	if maximum != nil && *maximum < minimum {
		return newError(ErrInvalidInput, "Maximum stock cannot be lower than minimum stock")
	}
	if price != nil && price.IsNegative() {
		return newError(ErrInvalidInput, "Unit price cannot be negative")
	}
	return nil
}

func (s *SparePartService) Create(ctx context.Context, actor entity.Actor, req *CreateSparePartRequest) (*entity.SparePart, error) {
	if err := validateStockLimits(req.MinimumStock, req.MaximumStock, req.UnitPrice); err != nil {
		return nil, err
	}
	if req.InitialStock < 0 {
		return nil, newError(ErrInvalidInput, "Initial stock cannot be negative")
	}
	partNumber := strings.TrimSpace(req.PartNumber)
	if _, err := s.repos.SparePart.FindByPartNumber(ctx, partNumber); err == nil {
		return nil, newError(ErrInvalidInput, "Spare part with this part number already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find spare part: %w", err)
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		if _, err := s.repos.Category.FindByID(ctx, *req.CategoryID); err != nil {
			return nil, fromRepo(err, "Spare part category")
		}
	} else {
		req.CategoryID = nil
	}

	part := &entity.SparePart{
		PartNumber:         partNumber,
		PartName:           req.PartName,
		Description:        req.Description,
		CategoryID:         req.CategoryID,
		MinimumStock:       req.MinimumStock,
		MaximumStock:       req.MaximumStock,
		Supplier:           req.Supplier,
		SupplierPartNumber: req.SupplierPartNumber,
		Location:           req.Location,
		IsActive:           true,
	}
	if req.UnitPrice != nil {
		part.UnitPrice = decimal.NewNullDecimal(*req.UnitPrice)
	}

	var opening *LedgerResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repos.SparePart.WithTx(tx).Create(ctx, part); err != nil {
			return fmt.Errorf("create spare part: %w", err)
		}
		if req.InitialStock > 0 {
			result, err := s.ledger.Apply(ctx, tx, LedgerEntry{
				SparePartID:     part.ID,
				TransactionType: entity.TransactionTypeIn,
				Quantity:        req.InitialStock,
				UnitPrice:       part.UnitPrice,
				ReferenceType:   "INITIAL",
				Notes:           "Initial stock",
				PerformedByID:   actor.UserID,
			})
			if err != nil {
				return err
			}
			opening = result
		}

		s.audit.Record(ctx, tx, AuditEntry{
			UserID:      actor.UserID,
			Action:      entity.ActionCreate,
			EntityType:  entity.EntitySparePart,
			EntityID:    part.ID,
			Description: "Spare part created: " + part.PartNumber,
			NewValues: map[string]interface{}{
				"part_number":   part.PartNumber,
				"part_name":     part.PartName,
				"minimum_stock": part.MinimumStock,
				"initial_stock": req.InitialStock,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if opening != nil {
		s.ledger.Committed(ctx, opening)
	}
	return s.Get(ctx, part.ID)
}

func (s *SparePartService) Get(ctx context.Context, id string) (*entity.SparePart, error) {
	part, err := s.repos.SparePart.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "Spare part")
	}
	withStockStatus(part)
	return part, nil
}

func (s *SparePartService) List(ctx context.Context, params repository.SparePartListParams) ([]entity.SparePart, int64, error) {
	items, total, err := s.repos.SparePart.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		withStockStatus(&items[i])
	}
	return items, total, nil
}

// LowStock active parts at or below their minimum
func (s *SparePartService) LowStock(ctx context.Context, page, pageSize int) ([]entity.SparePart, int64, error) {
	return s.List(ctx, repository.SparePartListParams{
		ActiveOnly: true,
		LowStock:   true,
		Page:       page,
		PageSize:   pageSize,
	})
}

// UpdateSparePartRequest partial update. Stock is not updatable here.
type UpdateSparePartRequest struct {
	PartName           *string          `json:"part_name"`
	Description        *string          `json:"description"`
	CategoryID         *string          `json:"category_id"`
	MinimumStock       *int             `json:"minimum_stock"`
	MaximumStock       *int             `json:"maximum_stock"`
	UnitPrice          *decimal.Decimal `json:"unit_price"`
	Supplier           *string          `json:"supplier"`
	SupplierPartNumber *string          `json:"supplier_part_number"`
	Location           *string          `json:"location"`
}

func (s *SparePartService) Update(ctx context.Context, actor entity.Actor, id string, req *UpdateSparePartRequest) (*entity.SparePart, error) {
	part, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	minimum := part.MinimumStock
	if req.MinimumStock != nil {
		minimum = *req.MinimumStock
	}
	maximum := part.MaximumStock
	if req.MaximumStock != nil {
		maximum = req.MaximumStock
	}
	if err := validateStockLimits(minimum, maximum, req.UnitPrice); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	oldValues := map[string]interface{}{}
	set := func(column string, old, value interface{}) {
		fields[column] = value
		oldValues[column] = old
	}
	if req.PartName != nil {
		set("part_name", part.PartName, *req.PartName)
	}
	if req.Description != nil {
		set("description", part.Description, *req.Description)
	}
	if req.CategoryID != nil {
		if *req.CategoryID == "" {
			set("category_id", part.CategoryID, nil)
		} else {
			if _, err := s.repos.Category.FindByID(ctx, *req.CategoryID); err != nil {
				return nil, fromRepo(err, "Spare part category")
			}
			set("category_id", part.CategoryID, *req.CategoryID)
		}
	}
	if req.MinimumStock != nil {
		set("minimum_stock", part.MinimumStock, *req.MinimumStock)
	}
	if req.MaximumStock != nil {
		set("maximum_stock", part.MaximumStock, *req.MaximumStock)
	}
	if req.UnitPrice != nil {
		set("unit_price", part.UnitPrice, decimal.NewNullDecimal(*req.UnitPrice))
	}
	if req.Supplier != nil {
		set("supplier", part.Supplier, *req.Supplier)
	}
	if req.SupplierPartNumber != nil {
		set("supplier_part_number", part.SupplierPartNumber, *req.SupplierPartNumber)
	}
	if req.Location != nil {
		set("location", part.Location, *req.Location)
	}
	if len(fields) == 0 {
		return part, nil
	}

	newValues := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		newValues[k] = v
	}
	if err := s.repos.SparePart.UpdateFields(ctx, id, fields); err != nil {
		return nil, fromRepo(err, "Spare part")
	}

	s.audit.Record(ctx, nil, AuditEntry{
		UserID:      actor.UserID,
		Action:      entity.ActionUpdate,
		EntityType:  entity.EntitySparePart,
		EntityID:    id,
		Description: "Spare part updated: " + part.PartNumber,
		OldValues:   oldValues,
		NewValues:   newValues,
	})
	return s.Get(ctx, id)
}

// Deactivate soft-deletes a part; its ledger history stays intact.
func (s *SparePartService) Deactivate(ctx context.Context, actor entity.Actor, id string) error {
	part, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !part.IsActive {
		return newError(ErrInvalidInput, "Spare part is already inactive")
	}
	if err := s.repos.SparePart.UpdateFields(ctx, id, map[string]interface{}{"is_active": false}); err != nil {
		return fromRepo(err, "Spare part")
	}

	s.audit.Record(ctx, nil, AuditEntry{
		UserID:      actor.UserID,
		Action:      entity.ActionDelete,
		EntityType:  entity.EntitySparePart,
		EntityID:    id,
		Description: "Spare part deactivated: " + part.PartNumber,
		OldValues:   map[string]interface{}{"is_active": true},
		NewValues:   map[string]interface{}{"is_active": false},
	})
	return nil
}

func (s *SparePartService) Reconcile(ctx context.Context, id string) (*ReconcileResult, error) {
	return s.ledger.Reconcile(ctx, id)
}

func withStockStatus(part *entity.SparePart) {
	part.StockStatus = entity.CalculateStockStatus(part.CurrentStock, part.MinimumStock, part.MaximumStock)
}

// TransactionService manual ledger entries and ledger queries
type TransactionService struct {
	db            *gorm.DB
	repos         *repository.Repositories
	ledger        *LedgerService
	audit         *AuditWriter
	exportMaxRows int
}

func NewTransactionService(db *gorm.DB, repos *repository.Repositories, ledger *LedgerService, audit *AuditWriter, exportMaxRows int) *TransactionService {
	if exportMaxRows <= 0 {
		exportMaxRows = 10000
	}
	return &TransactionService{db: db, repos: repos, ledger: ledger, audit: audit, exportMaxRows: exportMaxRows}
}

// CreateTransactionRequest manual ledger entry
type CreateTransactionRequest struct {
	SparePartID     string           `json:"spare_part_id" binding:"required"`
	TransactionType string           `json:"transaction_type" binding:"required"`
	Quantity        int              `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	ReferenceType   string           `json:"reference_type"`
	ReferenceNumber string           `json:"reference_number"`
	Notes           string           `json:"notes"`
	TransactionDate *time.Time       `json:"transaction_date"`
}

func (s *TransactionService) Create(ctx context.Context, actor entity.Actor, req *CreateTransactionRequest) (*LedgerResult, error) {
	if !actor.HasRole(entity.RoleInventoryManager) {
		return nil, newError(ErrForbidden, "Only inventory managers can create inventory transactions")
	}
	txType := strings.ToUpper(strings.TrimSpace(req.TransactionType))
	if !entity.ValidTransactionTypes[txType] {
		return nil, newError(ErrInvalidInput, "Invalid transaction type: %s", req.TransactionType)
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, newError(ErrInvalidInput, "Unit price cannot be negative")
	}

	var result *LedgerResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		part, err := s.repos.SparePart.WithTx(tx).FindByID(ctx, req.SparePartID)
		if err != nil {
			return fromRepo(err, "Spare part")
		}
		if !part.IsActive {
			return newError(ErrInactivePart, "Spare part %s is not active", part.PartNumber)
		}

		entry := LedgerEntry{
			SparePartID:     part.ID,
			TransactionType: txType,
			Quantity:        req.Quantity,
			ReferenceType:   req.ReferenceType,
			ReferenceNumber: req.ReferenceNumber,
			Notes:           req.Notes,
			TransactionDate: req.TransactionDate,
			PerformedByID:   actor.UserID,
		}
		if req.UnitPrice != nil {
			entry.UnitPrice = decimal.NewNullDecimal(*req.UnitPrice)
		}
		result, err = s.ledger.Apply(ctx, tx, entry)
		if err != nil {
			return err
		}

		s.audit.Record(ctx, tx, AuditEntry{
			UserID:      actor.UserID,
			Action:      entity.ActionCreate,
			EntityType:  entity.EntityInventoryTransaction,
			EntityID:    result.Transaction.ID,
			Description: fmt.Sprintf("%s %d x %s", txType, req.Quantity, part.PartNumber),
			OldValues:   map[string]interface{}{"current_stock": result.BeforeQuantity},
			NewValues: map[string]interface{}{
				"current_stock":    result.AfterQuantity,
				"transaction_type": txType,
				"quantity":         req.Quantity,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.ledger.Committed(ctx, result)
	return result, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (*entity.InventoryTransaction, error) {
	txn, err := s.repos.Transaction.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "Inventory transaction")
	}
	return txn, nil
}

func (s *TransactionService) List(ctx context.Context, params repository.TransactionListParams) ([]entity.InventoryTransaction, int64, error) {
	return s.repos.Transaction.List(ctx, params)
}

var ledgerExportHeaders = []string{
	"Date", "Part Number", "Part Name", "Type", "Quantity", "Before", "After",
	"Unit Price", "Total Value", "Reference Type", "Reference Number", "Notes", "Performed By",
}

// Export renders the filtered ledger as an xlsx workbook.
func (s *TransactionService) Export(ctx context.Context, params repository.TransactionListParams) (*excelize.File, string, error) {
	params.Page = 1
	params.PageSize = s.exportMaxRows
	items, _, err := s.repos.Transaction.List(ctx, params)
	if err != nil {
		return nil, "", fmt.Errorf("list transactions: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Ledger"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range ledgerExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	total := decimal.Zero
	for idx, txn := range items {
		row := idx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), txn.TransactionDate.Format("2006-01-02 15:04"))
		if txn.SparePart != nil {
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), txn.SparePart.PartNumber)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), txn.SparePart.PartName)
		}
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), txn.TransactionType)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), txn.Quantity)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), txn.BeforeQuantity)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), txn.AfterQuantity)
		if txn.UnitPrice.Valid {
			f.SetCellValue(sheet, fmt.Sprintf("H%d", row), txn.UnitPrice.Decimal.InexactFloat64())
		}
		if txn.TotalValue.Valid {
			f.SetCellValue(sheet, fmt.Sprintf("I%d", row), txn.TotalValue.Decimal.InexactFloat64())
			total = total.Add(txn.TotalValue.Decimal)
		}
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), txn.ReferenceType)
		f.SetCellValue(sheet, fmt.Sprintf("K%d", row), txn.ReferenceNumber)
		f.SetCellValue(sheet, fmt.Sprintf("L%d", row), txn.Notes)
		f.SetCellValue(sheet, fmt.Sprintf("M%d", row), txn.PerformedByID)
	}

	summaryRow := len(items) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("E%d", summaryRow), fmt.Sprintf("%d entries", len(items)))
	f.SetCellValue(sheet, fmt.Sprintf("I%d", summaryRow), total.InexactFloat64())
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("M%d", summaryRow), summaryStyle)

	colWidths := []float64{17, 16, 24, 12, 10, 10, 10, 12, 14, 16, 22, 30, 34}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, Split: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	filename := fmt.Sprintf("inventory_ledger_%s.xlsx", time.Now().Format("20060102"))
	return f, filename, nil
}
