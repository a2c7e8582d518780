package repository

import (
	"context"
	"testing"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateStockRejectsStaleVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewSparePartRepository(db)
	ctx := context.Background()
	part := testutil.SeedSparePart(t, db, 5, 1, "")

	require.NoError(t, repo.UpdateStock(ctx, part.ID, 7, 1))
	stored := testutil.ReloadPart(t, db, part.ID)
	assert.Equal(t, 7, stored.CurrentStock)
	assert.Equal(t, 2, stored.Version)

	err := repo.UpdateStock(ctx, part.ID, 9, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, 7, testutil.ReloadPart(t, db, part.ID).CurrentStock)
}

func TestUpdateFieldsLeavesStockAlone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewSparePartRepository(db)
	part := testutil.SeedSparePart(t, db, 5, 1, "")

	err := repo.UpdateFields(context.Background(), part.ID, map[string]interface{}{
		"part_name":     "Roller bearing",
		"current_stock": 99,
		"version":       42,
	})
	require.NoError(t, err)

	stored := testutil.ReloadPart(t, db, part.ID)
	assert.Equal(t, "Roller bearing", stored.PartName)
	assert.Equal(t, 5, stored.CurrentStock)
	assert.Equal(t, 1, stored.Version)
}

func TestFindByIDMapsNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	_, err := NewSparePartRepository(db).FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = NewPartsRequestRepository(db).FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCountOutstandingByWork(t *testing.T) {
	db := testutil.SetupTestDB(t)
	tech := testutil.SeedUser(t, db, entity.RoleMaintenanceTech)
	machine := testutil.SeedMachine(t, db, entity.MachineStatusDown)
	part := testutil.SeedSparePart(t, db, 5, 1, "")
	_, work := testutil.SeedWork(t, db, machine, tech, entity.RequestStatusWaitingParts, entity.WorkStatusInProgress)
	_, other := testutil.SeedWork(t, db, machine, tech, entity.RequestStatusInProgress, entity.WorkStatusInProgress)

	repo := NewPartsRequestRepository(db)
	ctx := context.Background()
	for _, status := range []string{
		entity.PartsRequestStatusPending,
		entity.PartsRequestStatusApproved,
		entity.PartsRequestStatusRejected,
		entity.PartsRequestStatusIssued,
	} {
		require.NoError(t, repo.Create(ctx, &entity.SparePartsRequest{
			MaintenanceWorkID: work.ID,
			SparePartID:       part.ID,
			QuantityRequested: 1,
			Status:            status,
			RequestedBy:       tech.ID,
		}))
	}

	count, err := repo.CountOutstandingByWork(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.CountOutstandingByWork(ctx, other.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPartStockBelowMinimum(t *testing.T) {
	db := testutil.SetupTestDB(t)
	short := testutil.SeedSparePart(t, db, 1, 3, "2.50")
	testutil.SeedSparePart(t, db, 10, 2, "")

	rows, err := NewReportRepository(db).PartStock(context.Background(), PartStockFilter{BelowMinimum: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, short.ID, rows[0].ID)
	assert.Equal(t, 1, rows[0].CurrentStock)
	require.True(t, rows[0].UnitPrice.Valid)
	assert.True(t, decimal.RequireFromString("2.50").Equal(rows[0].UnitPrice.Decimal))
	assert.Nil(t, rows[0].CategoryCode)
}
