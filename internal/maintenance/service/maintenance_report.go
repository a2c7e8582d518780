package service

import (
	"context"
	"math"
	"sort"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/shopspring/decimal"
)

const recurringIssueLimit = 10

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// recordRead audits a report access.
func (s *ReportService) recordRead(ctx context.Context, actor entity.Actor, entityType, description string, filter repository.MaintenanceReportFilter) {
	s.audit.Record(ctx, nil, AuditEntry{
		UserID:      actor.UserID,
		Action:      entity.ActionRead,
		EntityType:  entityType,
		EntityID:    "0",
		Description: description,
		NewValues:   filter,
	})
}

// DowntimeGroup downtime of one machine or department, in hours
type DowntimeGroup struct {
	MachineID      string  `json:"machine_id,omitempty"`
	MachineName    string  `json:"machine_name,omitempty"`
	DepartmentID   string  `json:"department_id"`
	DepartmentName string  `json:"department_name"`
	TotalDowntime  float64 `json:"total_downtime"`
	Frequency      int64   `json:"frequency"`
	AvgDowntime    float64 `json:"avg_downtime"`
}

type DowntimeReport struct {
	TotalDowntimeHours   float64         `json:"total_downtime_hours"`
	TotalDowntimeMinutes float64         `json:"total_downtime_minutes"`
	Frequency            int64           `json:"frequency"`
	AvgDowntimeHours     float64         `json:"avg_downtime_hours"`
	AvgDowntimeMinutes   float64         `json:"avg_downtime_minutes"`
	ByMachine            []DowntimeGroup `json:"by_machine"`
	ByDepartment         []DowntimeGroup `json:"by_department"`
}

// Downtime closed downtime periods per machine and department.
func (s *ReportService) Downtime(ctx context.Context, actor entity.Actor, filter repository.MaintenanceReportFilter) (*DowntimeReport, error) {
	s.recordRead(ctx, actor, entity.EntityDowntimeReport, "Downtime report viewed", filter)
	return cached(ctx, s.cache, reportKey(maintenanceReportPrefix, "downtime", filter), func() (*DowntimeReport, error) {
		rows, err := s.repo.Downtime(ctx, filter)
		if err != nil {
			return nil, err
		}

		report := &DowntimeReport{ByMachine: make([]DowntimeGroup, 0, len(rows)), ByDepartment: []DowntimeGroup{}}
		departments := map[string]*DowntimeGroup{}
		var order []string
		var total float64
		for _, row := range rows {
			deptName := ""
			if row.DepartmentName != nil {
				deptName = *row.DepartmentName
			}
			report.ByMachine = append(report.ByMachine, DowntimeGroup{
				MachineID:      row.MachineID,
				MachineName:    row.MachineName,
				DepartmentID:   row.DepartmentID,
				DepartmentName: deptName,
				TotalDowntime:  round2(row.TotalHours),
				Frequency:      row.Frequency,
				AvgDowntime:    round2(row.TotalHours / float64(row.Frequency)),
			})

			d, ok := departments[row.DepartmentID]
			if !ok {
				d = &DowntimeGroup{DepartmentID: row.DepartmentID, DepartmentName: deptName}
				departments[row.DepartmentID] = d
				order = append(order, row.DepartmentID)
			}
			d.TotalDowntime += row.TotalHours
			d.Frequency += row.Frequency

			total += row.TotalHours
			report.Frequency += row.Frequency
		}

		for _, id := range order {
			d := departments[id]
			d.AvgDowntime = round2(d.TotalDowntime / float64(d.Frequency))
			d.TotalDowntime = round2(d.TotalDowntime)
			report.ByDepartment = append(report.ByDepartment, *d)
		}
		sort.SliceStable(report.ByDepartment, func(i, j int) bool {
			return report.ByDepartment[i].TotalDowntime > report.ByDepartment[j].TotalDowntime
		})

		report.TotalDowntimeHours = round2(total)
		report.TotalDowntimeMinutes = round2(total * 60)
		if report.Frequency > 0 {
			avg := total / float64(report.Frequency)
			report.AvgDowntimeHours = round2(avg)
			report.AvgDowntimeMinutes = round2(avg * 60)
		}
		return report, nil
	})
}

// CostGroup maintenance spend of one machine or maintenance type
type CostGroup struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	PartsCost        decimal.Decimal `json:"parts_cost"`
	LaborCost        decimal.Decimal `json:"labor_cost"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	MaintenanceCount int             `json:"maintenance_count"`
}

type CostReport struct {
	TotalPartsCost    decimal.Decimal `json:"total_parts_cost"`
	TotalLaborCost    decimal.Decimal `json:"total_labor_cost"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	ByMachine         []CostGroup     `json:"by_machine"`
	ByMaintenanceType []CostGroup     `json:"by_maintenance_type"`
}

type costGroups struct {
	groups map[string]*CostGroup
	order  []string
}

func (g *costGroups) add(id, name string, parts, labor decimal.Decimal) {
	c, ok := g.groups[id]
	if !ok {
		c = &CostGroup{ID: id, Name: name, PartsCost: decimal.Zero, LaborCost: decimal.Zero, TotalCost: decimal.Zero}
		g.groups[id] = c
		g.order = append(g.order, id)
	}
	c.PartsCost = c.PartsCost.Add(parts)
	c.LaborCost = c.LaborCost.Add(labor)
	c.TotalCost = c.PartsCost.Add(c.LaborCost)
	c.MaintenanceCount++
}

func (g *costGroups) list() []CostGroup {
	out := make([]CostGroup, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, *g.groups[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalCost.GreaterThan(out[j].TotalCost)
	})
	return out
}

// MaintenanceCosts labor and net parts spend of completed work orders.
// Work without a maintenance type only counts toward the machine totals.
func (s *ReportService) MaintenanceCosts(ctx context.Context, actor entity.Actor, filter repository.MaintenanceReportFilter) (*CostReport, error) {
	s.recordRead(ctx, actor, entity.EntityCostReport, "Maintenance cost report viewed", filter)
	return cached(ctx, s.cache, reportKey(maintenanceReportPrefix, "costs", filter), func() (*CostReport, error) {
		rows, err := s.repo.WorkCosts(ctx, filter)
		if err != nil {
			return nil, err
		}

		machines := &costGroups{groups: map[string]*CostGroup{}}
		types := &costGroups{groups: map[string]*CostGroup{}}
		report := &CostReport{TotalPartsCost: decimal.Zero, TotalLaborCost: decimal.Zero}
		for _, row := range rows {
			parts, labor := decimal.Zero, decimal.Zero
			if row.PartsCost.Valid {
				parts = row.PartsCost.Decimal
			}
			if row.LaborCost.Valid {
				labor = row.LaborCost.Decimal
			}
			machines.add(row.MachineID, row.MachineName, parts, labor)
			if row.MaintenanceTypeID != nil {
				name := ""
				if row.MaintenanceTypeName != nil {
					name = *row.MaintenanceTypeName
				}
				types.add(*row.MaintenanceTypeID, name, parts, labor)
			}
			report.TotalPartsCost = report.TotalPartsCost.Add(parts)
			report.TotalLaborCost = report.TotalLaborCost.Add(labor)
		}
		report.TotalCost = report.TotalPartsCost.Add(report.TotalLaborCost)
		report.ByMachine = machines.list()
		report.ByMaintenanceType = types.list()
		return report, nil
	})
}

// FailurePattern requests sharing one failure code
type FailurePattern struct {
	FailureCodeID        string   `json:"failure_code_id"`
	FailureCode          string   `json:"failure_code"`
	FailureDescription   string   `json:"failure_description"`
	FailureCategory      string   `json:"failure_category"`
	Frequency            int      `json:"frequency"`
	AffectedMachines     []string `json:"affected_machines"`
	AffectedMachineCount int      `json:"affected_machine_count"`
	AvgResolutionMinutes float64  `json:"avg_resolution_time_minutes"`
	ResolutionCount      int      `json:"resolution_count"`
}

type FailureReport struct {
	TotalFailures      int              `json:"total_failures"`
	UniqueFailureCodes int              `json:"unique_failure_codes"`
	FailurePatterns    []FailurePattern `json:"failure_patterns"`
	RecurringIssues    []FailurePattern `json:"recurring_issues"`
}

// FailureAnalysis groups classified requests by failure code, most frequent
// first. Resolution time runs from the request to the end of its completed work.
func (s *ReportService) FailureAnalysis(ctx context.Context, actor entity.Actor, filter repository.MaintenanceReportFilter) (*FailureReport, error) {
	s.recordRead(ctx, actor, entity.EntityFailureReport, "Failure analysis report viewed", filter)
	return cached(ctx, s.cache, reportKey(maintenanceReportPrefix, "failures", filter), func() (*FailureReport, error) {
		rows, err := s.repo.Failures(ctx, filter)
		if err != nil {
			return nil, err
		}

		patterns := map[string]*FailurePattern{}
		machines := map[string]map[string]bool{}
		resolution := map[string]float64{}
		var order []string
		for _, row := range rows {
			p, ok := patterns[row.FailureCodeID]
			if !ok {
				p = &FailurePattern{
					FailureCodeID:      row.FailureCodeID,
					FailureCode:        row.Code,
					FailureDescription: row.Description,
					AffectedMachines:   []string{},
				}
				if row.Category != nil {
					p.FailureCategory = *row.Category
				}
				patterns[row.FailureCodeID] = p
				machines[row.FailureCodeID] = map[string]bool{}
				order = append(order, row.FailureCodeID)
			}
			p.Frequency++
			if !machines[row.FailureCodeID][row.MachineID] {
				machines[row.FailureCodeID][row.MachineID] = true
				p.AffectedMachines = append(p.AffectedMachines, row.MachineID)
			}
			if row.Status == entity.RequestStatusCompleted && row.WorkEndTime != nil {
				resolution[row.FailureCodeID] += row.WorkEndTime.Sub(row.RequestedDate).Minutes()
				p.ResolutionCount++
			}
		}

		report := &FailureReport{TotalFailures: len(rows), UniqueFailureCodes: len(patterns)}
		report.FailurePatterns = make([]FailurePattern, 0, len(order))
		for _, id := range order {
			p := patterns[id]
			p.AffectedMachineCount = len(p.AffectedMachines)
			if p.ResolutionCount > 0 {
				p.AvgResolutionMinutes = round2(resolution[id] / float64(p.ResolutionCount))
			}
			report.FailurePatterns = append(report.FailurePatterns, *p)
		}
		sort.SliceStable(report.FailurePatterns, func(i, j int) bool {
			return report.FailurePatterns[i].Frequency > report.FailurePatterns[j].Frequency
		})
		report.RecurringIssues = report.FailurePatterns
		if len(report.RecurringIssues) > recurringIssueLimit {
			report.RecurringIssues = report.RecurringIssues[:recurringIssueLimit]
		}
		return report, nil
	})
}
