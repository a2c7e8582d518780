package service

import (
	"testing"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intPtr(v int) *int { return &v }

func TestCreateSparePartBooksInitialStock(t *testing.T) {
	f := newFixture(t)

	part, err := f.svc.SparePart.Create(f.ctx, actorOf(f.inventory), &CreateSparePartRequest{
		PartNumber:   " BRG-6204 ",
		PartName:     "Deep groove bearing",
		MinimumStock: 4,
		MaximumStock: intPtr(40),
		UnitPrice:    decimalPtr("3.20"),
		Location:     "B-02",
		InitialStock: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "BRG-6204", part.PartNumber)
	assert.Equal(t, 5, part.CurrentStock)
	assert.True(t, part.IsActive)
	assert.Equal(t, entity.StockStatusLow, part.StockStatus)

	txns, err := f.repos.Transaction.FindBySparePart(f.ctx, part.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, entity.TransactionTypeIn, txns[0].TransactionType)
	assert.Equal(t, "INITIAL", txns[0].ReferenceType)
	assert.Equal(t, 5, txns[0].AfterQuantity)

	_, err = f.svc.SparePart.Create(f.ctx, actorOf(f.inventory), &CreateSparePartRequest{PartNumber: "BRG-6204", PartName: "dup"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateSparePartWithoutStockHasNoLedger(t *testing.T) {
	f := newFixture(t)
	part, err := f.svc.SparePart.Create(f.ctx, actorOf(f.inventory), &CreateSparePartRequest{PartNumber: "SEAL-1", PartName: "Seal"})
	require.NoError(t, err)
	assert.Equal(t, 0, part.CurrentStock)
	assert.Equal(t, int64(0), testutil.CountRows(t, f.db, &entity.InventoryTransaction{}, "spare_part_id = ?", part.ID))
}

func TestSparePartLimitValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		req  CreateSparePartRequest
	}{
		{"negative minimum", CreateSparePartRequest{PartNumber: "X1", PartName: "x", MinimumStock: -1}},
		{"maximum below minimum", CreateSparePartRequest{PartNumber: "X2", PartName: "x", MinimumStock: 5, MaximumStock: intPtr(2)}},
		{"negative price", CreateSparePartRequest{PartNumber: "X3", PartName: "x", UnitPrice: decimalPtr("-1")}},
		{"negative initial stock", CreateSparePartRequest{PartNumber: "X4", PartName: "x", InitialStock: -3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.svc.SparePart.Create(f.ctx, actorOf(f.inventory), &req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	missing := "missing"
	_, err := f.svc.SparePart.Create(f.ctx, actorOf(f.inventory), &CreateSparePartRequest{PartNumber: "X5", PartName: "x", CategoryID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeactivateSparePart(t *testing.T) {
	f := newFixture(t)
	part := testutil.SeedSparePart(t, f.db, 3, 0, "")

	require.NoError(t, f.svc.SparePart.Deactivate(f.ctx, actorOf(f.inventory), part.ID))
	assert.False(t, testutil.ReloadPart(t, f.db, part.ID).IsActive)

	err := f.svc.SparePart.Deactivate(f.ctx, actorOf(f.inventory), part.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Transaction.Create(f.ctx, actorOf(f.inventory), &CreateTransactionRequest{
		SparePartID: part.ID, TransactionType: "in", Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrInactivePart)
	assert.Equal(t, int64(1), testutil.CountRows(t, f.db, &entity.InventoryTransaction{}, "spare_part_id = ?", part.ID))
}

func TestManualTransactions(t *testing.T) {
	f := newFixture(t)
	part := testutil.SeedSparePart(t, f.db, 10, 0, "2.00")
	inv := actorOf(f.inventory)

	res, err := f.svc.Transaction.Create(f.ctx, inv, &CreateTransactionRequest{
		SparePartID: part.ID, TransactionType: "transfer", Quantity: 4, ReferenceNumber: "TR-7",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, res.BeforeQuantity)
	assert.Equal(t, 6, res.AfterQuantity)
	assert.Equal(t, entity.TransactionTypeTransfer, res.Transaction.TransactionType)

	res, err = f.svc.Transaction.Create(f.ctx, inv, &CreateTransactionRequest{
		SparePartID: part.ID, TransactionType: "ADJUSTMENT", Quantity: 9, UnitPrice: decimalPtr("2.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, 9, res.AfterQuantity)
	assert.True(t, res.Transaction.TotalValue.Decimal.Equal(decimal.RequireFromString("22.5")))

	_, err = f.svc.Transaction.Create(f.ctx, inv, &CreateTransactionRequest{
		SparePartID: part.ID, TransactionType: "OUT", Quantity: 10,
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = f.svc.Transaction.Create(f.ctx, inv, &CreateTransactionRequest{
		SparePartID: part.ID, TransactionType: "SWAP", Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Transaction.Create(f.ctx, actorOf(f.tech), &CreateTransactionRequest{
		SparePartID: part.ID, TransactionType: "IN", Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrForbidden)

	items, total, err := f.svc.Transaction.List(f.ctx, repository.TransactionListParams{SparePartID: part.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 3)
	assert.Equal(t, 9, testutil.ReloadPart(t, f.db, part.ID).CurrentStock)
}

func TestExportLedgerWorkbook(t *testing.T) {
	f := newFixture(t)
	part := testutil.SeedSparePart(t, f.db, 10, 0, "2.00")
	_, err := f.svc.Transaction.Create(f.ctx, actorOf(f.inventory), &CreateTransactionRequest{
		SparePartID: part.ID, TransactionType: "OUT", Quantity: 3, UnitPrice: decimalPtr("2.00"), ReferenceNumber: "WO-1",
	})
	require.NoError(t, err)

	wb, filename, err := f.svc.Transaction.Export(f.ctx, repository.TransactionListParams{SparePartID: part.ID})
	require.NoError(t, err)
	defer wb.Close()
	assert.Regexp(t, `^inventory_ledger_\d{8}\.xlsx$`, filename)

	rows, err := wb.GetRows("Ledger")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, ledgerExportHeaders, rows[0])
	assert.Equal(t, "Total", rows[3][0])
	assert.Equal(t, "2 entries", rows[3][4])
	assert.Equal(t, "6", rows[3][8])
}
