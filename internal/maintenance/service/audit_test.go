package service

import (
	"context"
	"testing"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func TestAuditRecordCarriesRequestMeta(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	w := NewAuditWriter(repos.ActivityLog, zap.NewNop())

	ctx := WithRequestMeta(context.Background(), RequestMeta{IPAddress: "192.168.1.20", UserAgent: "scanner/1.0", RequestID: "req-1"})
	w.Record(ctx, nil, AuditEntry{
		UserID:      "u1",
		Action:      entity.ActionUpdate,
		EntityType:  entity.EntityMachine,
		EntityID:    "m1",
		Description: "Machine status changed",
		OldValues:   map[string]interface{}{"status": "OPERATIONAL"},
		NewValues:   map[string]interface{}{"status": "DOWN"},
	})

	logs, total, err := repos.ActivityLog.FindByEntity(ctx, entity.EntityMachine, "m1", 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, "192.168.1.20", logs[0].IPAddress)
	assert.Equal(t, "scanner/1.0", logs[0].UserAgent)
	assert.JSONEq(t, `{"status":"OPERATIONAL"}`, logs[0].OldValues)
	assert.JSONEq(t, `{"status":"DOWN"}`, logs[0].NewValues)
	assert.False(t, logs[0].Timestamp.IsZero())
}

func TestAuditFailureIsLoggedAndTransactionSurvives(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	core, recorded := observer.New(zap.ErrorLevel)
	w := NewAuditWriter(repos.ActivityLog, zap.New(core))
	require.NoError(t, db.Migrator().DropTable(&entity.ActivityLog{}))

	ctx := WithRequestMeta(context.Background(), RequestMeta{RequestID: "req-9"})
	machine := testutil.SeedMachine(t, db, entity.MachineStatusOperational)
	err := db.Transaction(func(tx *gorm.DB) error {
		w.Record(ctx, tx, AuditEntry{UserID: "u1", Action: entity.ActionUpdate, EntityType: entity.EntityMachine, EntityID: machine.ID})
		return tx.Model(&entity.Machine{}).Where("id = ?", machine.ID).Update("status", entity.MachineStatusDown).Error
	})
	require.NoError(t, err)

	var got entity.Machine
	require.NoError(t, db.First(&got, "id = ?", machine.ID).Error)
	assert.Equal(t, entity.MachineStatusDown, got.Status)

	entries := recorded.FilterMessage("audit write failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-9", entries[0].ContextMap()["request_id"])
}
