package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/service"
)

type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func partStockFilter(c *gin.Context) repository.PartStockFilter {
	return repository.PartStockFilter{
		GroupNumber: c.Query("group_number"),
		GroupName:   c.Query("group_name"),
		Location:    c.Query("location"),
	}
}

// StockLevels GET /reports/inventory/stock-levels
func (h *ReportHandler) StockLevels(c *gin.Context) {
	report, err := h.svc.StockLevels(reqCtx(c), partStockFilter(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, report)
}

// Consumption GET /reports/inventory/consumption
func (h *ReportHandler) Consumption(c *gin.Context) {
	from, to, err := queryRange(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	report, err := h.svc.Consumption(reqCtx(c), repository.ConsumptionFilter{
		DateFrom:    from,
		DateTo:      to,
		GroupNumber: c.Query("group_number"),
		Location:    c.Query("location"),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, report)
}

// Valuation GET /reports/inventory/valuation
func (h *ReportHandler) Valuation(c *gin.Context) {
	report, err := h.svc.Valuation(reqCtx(c), partStockFilter(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, report)
}

// Reorder GET /reports/inventory/reorder
func (h *ReportHandler) Reorder(c *gin.Context) {
	report, err := h.svc.Reorder(reqCtx(c), partStockFilter(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, report)
}

func maintenanceReportFilter(c *gin.Context) (repository.MaintenanceReportFilter, bool) {
	from, to, err := queryRange(c)
	if err != nil {
		BadRequest(c, err.Error())
		return repository.MaintenanceReportFilter{}, false
	}
	return repository.MaintenanceReportFilter{
		MachineID:         c.Query("machine_id"),
		DepartmentID:      c.Query("department_id"),
		MaintenanceTypeID: c.Query("maintenance_type_id"),
		FailureCategory:   c.Query("failure_category"),
		DateFrom:          from,
		DateTo:            to,
	}, true
}

// Downtime GET /reports/downtime
func (h *ReportHandler) Downtime(c *gin.Context) {
	filter, ok := maintenanceReportFilter(c)
	if !ok {
		return
	}
	report, err := h.svc.Downtime(reqCtx(c), actor(c), filter)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, report)
}

// MaintenanceCosts GET /reports/maintenance-costs
func (h *ReportHandler) MaintenanceCosts(c *gin.Context) {
	filter, ok := maintenanceReportFilter(c)
	if !ok {
		return
	}
	report, err := h.svc.MaintenanceCosts(reqCtx(c), actor(c), filter)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, report)
}

// FailureAnalysis GET /reports/failure-analysis
func (h *ReportHandler) FailureAnalysis(c *gin.Context) {
	filter, ok := maintenanceReportFilter(c)
	if !ok {
		return
	}
	report, err := h.svc.FailureAnalysis(reqCtx(c), actor(c), filter)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, report)
}

type ActivityLogHandler struct {
	svc *service.ActivityLogService
}

func NewActivityLogHandler(svc *service.ActivityLogService) *ActivityLogHandler {
	return &ActivityLogHandler{svc: svc}
}

// List GET /activity-logs
func (h *ActivityLogHandler) List(c *gin.Context) {
	from, to, err := queryRange(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(reqCtx(c), repository.ActivityLogListParams{
		UserID:     c.Query("user_id"),
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		DateFrom:   from,
		DateTo:     to,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	pagedList(c, items, total, page, pageSize)
}

// EntityHistory GET /activity-logs/:entityType/:entityId
func (h *ActivityLogHandler) EntityHistory(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.EntityHistory(reqCtx(c), c.Param("entityType"), c.Param("entityId"), page, pageSize)
	if err != nil {
		handleError(c, err)
		return
	}
	pagedList(c, items, total, page, pageSize)
}
