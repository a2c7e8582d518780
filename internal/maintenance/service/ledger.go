package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/shared/cache"
	"github.com/mkhaled501333/maintaince-management/internal/shared/metrics"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// reportCachePrefix keys of every cached report; stock movements touch them all
const reportCachePrefix = "report:"

// LedgerEntry one stock movement to apply
type LedgerEntry struct {
	SparePartID     string
	TransactionType string
	Quantity        int
	UnitPrice       decimal.NullDecimal
	ReferenceType   string
	ReferenceNumber string
	Notes           string
	TransactionDate *time.Time
	PerformedByID   string
}

// LedgerResult the written ledger row and the counter it produced
type LedgerResult struct {
	Transaction    *entity.InventoryTransaction `json:"transaction"`
	Part           *entity.SparePart            `json:"spare_part"`
	BeforeQuantity int                          `json:"before_quantity"`
	AfterQuantity  int                          `json:"after_quantity"`
}

// LedgerService is the only writer of spare part stock counters.
type LedgerService struct {
	db      *gorm.DB
	parts   *repository.SparePartRepository
	txns    *repository.TransactionRepository
	cache   *cache.Cache
	metrics *metrics.Metrics
}

func NewLedgerService(db *gorm.DB, repos *repository.Repositories, c *cache.Cache, m *metrics.Metrics) *LedgerService {
	return &LedgerService{
		db:      db,
		parts:   repos.SparePart,
		txns:    repos.Transaction,
		cache:   c,
		metrics: m,
	}
}

// nextQuantity computes the counter after applying a movement of qty.
func nextQuantity(transactionType string, before, qty int) (int, error) {
	switch transactionType {
	case entity.TransactionTypeIn:
		if qty <= 0 {
			return 0, newError(ErrInvalidInput, "Quantity must be greater than 0")
		}
		return before + qty, nil
	case entity.TransactionTypeOut, entity.TransactionTypeTransfer:
		if qty <= 0 {
			return 0, newError(ErrInvalidInput, "Quantity must be greater than 0")
		}
		if qty > before {
			return 0, newError(ErrInsufficientStock, "Insufficient stock. Available: %d, Requested: %d", before, qty)
		}
		return before - qty, nil
	case entity.TransactionTypeAdjustment:
		if qty < 0 {
			return 0, newError(ErrInvalidInput, "Adjusted quantity cannot be negative")
		}
		return qty, nil
	default:
		return 0, newError(ErrInvalidInput, "Invalid transaction type: %s", transactionType)
	}
}

// Apply locks the part, writes one ledger row and moves the counter, all on
// tx. The caller owns commit and must call Committed afterwards.
func (s *LedgerService) Apply(ctx context.Context, tx *gorm.DB, entry LedgerEntry) (*LedgerResult, error) {
	if tx == nil {
		return nil, errors.New("ledger: apply requires a transaction")
	}
	if !entity.ValidTransactionTypes[entry.TransactionType] {
		return nil, newError(ErrInvalidInput, "Invalid transaction type: %s", entry.TransactionType)
	}

	parts := s.parts.WithTx(tx)
	part, err := parts.FindByIDForUpdate(ctx, entry.SparePartID)
	if err != nil {
		return nil, fromRepo(err, "Spare part")
	}

	before := part.CurrentStock
	after, err := nextQuantity(entry.TransactionType, before, entry.Quantity)
	if err != nil {
		return nil, err
	}

	if err := parts.UpdateStock(ctx, part.ID, after, part.Version); err != nil {
		return nil, fromRepo(err, "Spare part")
	}
	part.CurrentStock = after
	part.Version++
	part.StockStatus = entity.CalculateStockStatus(part.CurrentStock, part.MinimumStock, part.MaximumStock)

	date := time.Now()
	if entry.TransactionDate != nil && !entry.TransactionDate.IsZero() {
		date = *entry.TransactionDate
	}
	txn := &entity.InventoryTransaction{
		SparePartID:     part.ID,
		TransactionType: entry.TransactionType,
		Quantity:        entry.Quantity,
		UnitPrice:       entry.UnitPrice,
		ReferenceType:   entry.ReferenceType,
		ReferenceNumber: entry.ReferenceNumber,
		Notes:           entry.Notes,
		BeforeQuantity:  before,
		AfterQuantity:   after,
		TransactionDate: date,
		PerformedByID:   entry.PerformedByID,
	}
	if entry.UnitPrice.Valid {
		txn.TotalValue = decimal.NewNullDecimal(entry.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(entry.Quantity))))
	}
	if err := s.txns.WithTx(tx).Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("ledger: write entry: %w", err)
	}

	return &LedgerResult{
		Transaction:    txn,
		Part:           part,
		BeforeQuantity: before,
		AfterQuantity:  after,
	}, nil
}

// Committed publishes metrics and drops cached reports for applied entries.
func (s *LedgerService) Committed(ctx context.Context, results ...*LedgerResult) {
	if len(results) == 0 {
		return
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		s.metrics.ObserveLedgerEntry(r.Transaction.TransactionType, r.Transaction.Quantity)
	}
	s.cache.DeletePrefix(ctx, reportCachePrefix)
}

// Record applies a standalone entry in its own transaction.
func (s *LedgerService) Record(ctx context.Context, entry LedgerEntry) (*LedgerResult, error) {
	var result *LedgerResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.Apply(ctx, tx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Committed(ctx, result)
	return result, nil
}

// ReconcileResult counter versus ledger replay for one part
type ReconcileResult struct {
	SparePartID   string `json:"spare_part_id"`
	PartNumber    string `json:"part_number"`
	RecordedStock int    `json:"recorded_stock"`
	LedgerStock   int    `json:"ledger_stock"`
	Drift         int    `json:"drift"`
	Entries       int    `json:"entries"`
}

// Reconcile replays the part's ledger and reports drift from the counter.
func (s *LedgerService) Reconcile(ctx context.Context, partID string) (*ReconcileResult, error) {
	part, err := s.parts.FindByID(ctx, partID)
	if err != nil {
		return nil, fromRepo(err, "Spare part")
	}
	entries, err := s.txns.FindBySparePart(ctx, partID)
	if err != nil {
		return nil, fmt.Errorf("ledger: load entries: %w", err)
	}

	stock := 0
	for _, e := range entries {
		switch e.TransactionType {
		case entity.TransactionTypeIn:
			stock += e.Quantity
		case entity.TransactionTypeOut, entity.TransactionTypeTransfer:
			stock -= e.Quantity
		case entity.TransactionTypeAdjustment:
			stock = e.Quantity
		}
	}

	return &ReconcileResult{
		SparePartID:   part.ID,
		PartNumber:    part.PartNumber,
		RecordedStock: part.CurrentStock,
		LedgerStock:   stock,
		Drift:         part.CurrentStock - stock,
		Entries:       len(entries),
	}, nil
}
