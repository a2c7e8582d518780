package service

import (
	"testing"
	"time"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDowntimeReport(t *testing.T) {
	f := newFixture(t)
	other := testutil.SeedMachine(t, f.db, entity.MachineStatusOperational)
	start := time.Now().Add(-48 * time.Hour)

	testutil.SeedDowntime(t, f.db, f.machine, start, 2)
	testutil.SeedDowntime(t, f.db, f.machine, start.Add(6*time.Hour), 4)
	testutil.SeedDowntime(t, f.db, f.machine, start.Add(12*time.Hour), 0)
	testutil.SeedDowntime(t, f.db, other, start, 1)

	report, err := f.svc.Report.Downtime(f.ctx, actorOf(f.manager), repository.MaintenanceReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, 7.0, report.TotalDowntimeHours)
	assert.Equal(t, 420.0, report.TotalDowntimeMinutes)
	assert.EqualValues(t, 3, report.Frequency)
	assert.Equal(t, 2.33, report.AvgDowntimeHours)

	require.Len(t, report.ByMachine, 2)
	assert.Equal(t, f.machine.ID, report.ByMachine[0].MachineID)
	assert.Equal(t, 6.0, report.ByMachine[0].TotalDowntime)
	assert.Equal(t, 3.0, report.ByMachine[0].AvgDowntime)

	require.Len(t, report.ByDepartment, 2)
	assert.Equal(t, f.machine.DepartmentID, report.ByDepartment[0].DepartmentID)
	assert.Equal(t, other.DepartmentID, report.ByDepartment[1].DepartmentID)
	assert.Equal(t, 1.0, report.ByDepartment[1].TotalDowntime)

	filtered, err := f.svc.Report.Downtime(f.ctx, actorOf(f.manager), repository.MaintenanceReportFilter{DepartmentID: other.DepartmentID})
	require.NoError(t, err)
	assert.Equal(t, 1.0, filtered.TotalDowntimeHours)
	assert.EqualValues(t, 1, filtered.Frequency)

	assert.Equal(t, []string{entity.ActionRead, entity.ActionRead}, f.auditActions(t, entity.EntityDowntimeReport, "0"))
}

func TestEmptyDowntimeReport(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.Report.Downtime(f.ctx, actorOf(f.manager), repository.MaintenanceReportFilter{})
	require.NoError(t, err)
	assert.Zero(t, report.TotalDowntimeHours)
	assert.Zero(t, report.AvgDowntimeHours)
	assert.Empty(t, report.ByMachine)
	assert.Empty(t, report.ByDepartment)
}

func TestMaintenanceCostReport(t *testing.T) {
	f := newFixture(t)
	part := testutil.SeedSparePart(t, f.db, 10, 0, "10.00")
	corrective, err := f.svc.Lookup.CreateMaintenanceType(f.ctx, actorOf(f.admin), &CreateMaintenanceTypeRequest{Name: "Corrective"})
	require.NoError(t, err)

	mr, work := f.runningWork(t)
	_, err = f.svc.Maintenance.UpdateRequest(f.ctx, actorOf(f.tech), mr.ID, &UpdateMaintenanceRequestRequest{MaintenanceTypeID: &corrective.ID})
	require.NoError(t, err)
	pr := f.createRequest(t, work, part, 2)
	f.approve(t, pr.ID)
	_, err = f.svc.PartsRequest.Issue(f.ctx, actorOf(f.inventory), pr.ID)
	require.NoError(t, err)
	labor := decimal.RequireFromString("50")
	_, err = f.svc.Maintenance.CompleteWork(f.ctx, actorOf(f.tech), work.ID, &CompleteWorkRequest{LaborCost: &labor})
	require.NoError(t, err)

	// completed work without a maintenance type
	_, untyped := f.runningWork(t)
	small := decimal.RequireFromString("5")
	_, err = f.svc.Maintenance.CompleteWork(f.ctx, actorOf(f.tech), untyped.ID, &CompleteWorkRequest{LaborCost: &small})
	require.NoError(t, err)

	// running work is not counted
	f.runningWork(t)

	report, err := f.svc.Report.MaintenanceCosts(f.ctx, actorOf(f.manager), repository.MaintenanceReportFilter{})
	require.NoError(t, err)
	assert.True(t, report.TotalPartsCost.Equal(decimal.NewFromInt(20)), report.TotalPartsCost.String())
	assert.True(t, report.TotalLaborCost.Equal(decimal.NewFromInt(55)), report.TotalLaborCost.String())
	assert.True(t, report.TotalCost.Equal(decimal.NewFromInt(75)), report.TotalCost.String())

	require.Len(t, report.ByMachine, 1)
	assert.Equal(t, 2, report.ByMachine[0].MaintenanceCount)

	require.Len(t, report.ByMaintenanceType, 1)
	byType := report.ByMaintenanceType[0]
	assert.Equal(t, corrective.ID, byType.ID)
	assert.Equal(t, "Corrective", byType.Name)
	assert.True(t, byType.PartsCost.Equal(decimal.NewFromInt(20)), byType.PartsCost.String())
	assert.True(t, byType.TotalCost.Equal(decimal.NewFromInt(70)), byType.TotalCost.String())
	assert.Equal(t, 1, byType.MaintenanceCount)

	typed, err := f.svc.Report.MaintenanceCosts(f.ctx, actorOf(f.manager), repository.MaintenanceReportFilter{MaintenanceTypeID: corrective.ID})
	require.NoError(t, err)
	assert.True(t, typed.TotalCost.Equal(decimal.NewFromInt(70)), typed.TotalCost.String())
}

func TestFailureAnalysisReport(t *testing.T) {
	f := newFixture(t)
	other := testutil.SeedMachine(t, f.db, entity.MachineStatusOperational)
	admin := actorOf(f.admin)
	electrical, err := f.svc.Lookup.CreateFailureCode(f.ctx, admin, &CreateFailureCodeRequest{Code: "ELE-01", Description: "Short circuit", Category: "ELECTRICAL"})
	require.NoError(t, err)
	mechanical, err := f.svc.Lookup.CreateFailureCode(f.ctx, admin, &CreateFailureCodeRequest{Code: "MEC-01", Description: "Bearing wear", Category: "MECHANICAL"})
	require.NoError(t, err)

	done, work := f.runningWork(t)
	_, err = f.svc.Maintenance.UpdateRequest(f.ctx, actorOf(f.tech), done.ID, &UpdateMaintenanceRequestRequest{FailureCodeID: &electrical.ID})
	require.NoError(t, err)
	_, err = f.svc.Maintenance.CompleteWork(f.ctx, actorOf(f.tech), work.ID, &CompleteWorkRequest{})
	require.NoError(t, err)

	for _, item := range []struct {
		machine string
		code    string
	}{
		{other.ID, electrical.ID},
		{f.machine.ID, mechanical.ID},
	} {
		code := item.code
		_, err := f.svc.Maintenance.CreateRequest(f.ctx, actorOf(f.tech), &CreateMaintenanceRequestRequest{
			MachineID: item.machine, Title: "Fault", Description: "Machine stopped", FailureCodeID: &code,
		})
		require.NoError(t, err)
	}
	// unclassified requests stay out of the analysis
	_, err = f.svc.Maintenance.CreateRequest(f.ctx, actorOf(f.tech), &CreateMaintenanceRequestRequest{
		MachineID: other.ID, Title: "Noise", Description: "Unclassified",
	})
	require.NoError(t, err)

	report, err := f.svc.Report.FailureAnalysis(f.ctx, actorOf(f.manager), repository.MaintenanceReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalFailures)
	assert.Equal(t, 2, report.UniqueFailureCodes)
	require.Len(t, report.FailurePatterns, 2)

	top := report.FailurePatterns[0]
	assert.Equal(t, "ELE-01", top.FailureCode)
	assert.Equal(t, "ELECTRICAL", top.FailureCategory)
	assert.Equal(t, 2, top.Frequency)
	assert.Equal(t, 2, top.AffectedMachineCount)
	assert.ElementsMatch(t, []string{f.machine.ID, other.ID}, top.AffectedMachines)
	assert.Equal(t, 1, top.ResolutionCount)
	assert.GreaterOrEqual(t, top.AvgResolutionMinutes, 0.0)

	assert.Equal(t, "MEC-01", report.FailurePatterns[1].FailureCode)
	assert.Zero(t, report.FailurePatterns[1].ResolutionCount)
	assert.Equal(t, report.FailurePatterns, report.RecurringIssues)

	mech, err := f.svc.Report.FailureAnalysis(f.ctx, actorOf(f.manager), repository.MaintenanceReportFilter{FailureCategory: "MECHANICAL"})
	require.NoError(t, err)
	assert.Equal(t, 1, mech.TotalFailures)
	require.Len(t, mech.FailurePatterns, 1)
	assert.Equal(t, mechanical.ID, mech.FailurePatterns[0].FailureCodeID)

	assert.Len(t, f.auditActions(t, entity.EntityFailureReport, "0"), 2)
}
