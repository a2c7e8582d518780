package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/middleware"
)

// RegisterRoutes mounts every maintenance route on an authenticated group.
func RegisterRoutes(api *gin.RouterGroup, h *Handlers) {
	var (
		tech      = middleware.RequireRole(entity.RoleMaintenanceTech)
		manager   = middleware.RequireRole(entity.RoleMaintenanceManager)
		inventory = middleware.RequireRole(entity.RoleInventoryManager)
		admin     = middleware.RequireRole(entity.RoleAdmin)
		stockView = middleware.RequireRole(entity.RoleInventoryManager, entity.RoleMaintenanceManager)
		reporters = middleware.RequireRole(entity.RoleSupervisor, entity.RoleMaintenanceManager, entity.RoleMaintenanceTech)
		workers   = middleware.RequireRole(entity.RoleMaintenanceTech, entity.RoleMaintenanceManager)
	)

	pr := api.Group("/spare-parts-requests")
	{
		pr.GET("", h.PartsRequest.List)
		pr.GET("/:id", h.PartsRequest.Get)
		pr.POST("", tech, h.PartsRequest.Create)
		pr.PATCH("/:id/approve", manager, h.PartsRequest.Approve)
		pr.PATCH("/:id/reject", manager, h.PartsRequest.Reject)
		pr.PATCH("/:id/issue", inventory, h.PartsRequest.Issue)
		pr.POST("/:id/return-request", tech, h.PartsRequest.RequestReturn)
		pr.PATCH("/:id/process-return", inventory, h.PartsRequest.ProcessReturn)
	}

	parts := api.Group("/spare-parts")
	{
		parts.GET("", h.SparePart.List)
		parts.GET("/low-stock", h.SparePart.LowStock)
		parts.GET("/:id", h.SparePart.Get)
		parts.GET("/:id/reconcile", inventory, h.SparePart.Reconcile)
		parts.POST("", inventory, h.SparePart.Create)
		parts.PATCH("/:id", inventory, h.SparePart.Update)
		parts.DELETE("/:id", inventory, h.SparePart.Delete)
	}

	categories := api.Group("/spare-part-categories")
	{
		categories.GET("", h.Category.List)
		categories.POST("", inventory, h.Category.Create)
	}

	txns := api.Group("/inventory-transactions", stockView)
	{
		txns.GET("", h.Transaction.List)
		txns.GET("/export", h.Transaction.Export)
		txns.GET("/:id", h.Transaction.Get)
		txns.POST("", inventory, h.Transaction.Create)
	}

	depts := api.Group("/departments")
	{
		depts.GET("", h.Department.List)
		depts.GET("/:id", h.Department.Get)
		depts.POST("", admin, h.Department.Create)
		depts.PUT("/:id", admin, h.Department.Update)
		depts.DELETE("/:id", admin, h.Department.Delete)
	}

	machines := api.Group("/machines")
	{
		machines.GET("", h.Machine.List)
		machines.GET("/qr/:code", h.Machine.GetByQRCode)
		machines.GET("/:id", h.Machine.Get)
		machines.POST("", middleware.RequireRole(entity.RoleMaintenanceManager), h.Machine.Create)
		machines.PATCH("/:id/status", reporters, h.Machine.UpdateStatus)
	}

	requests := api.Group("/maintenance-requests")
	{
		requests.GET("", h.Maintenance.ListRequests)
		requests.GET("/available", workers, h.Maintenance.ListAvailable)
		requests.GET("/my-work", workers, h.Maintenance.ListMyWork)
		requests.GET("/:id", h.Maintenance.GetRequest)
		requests.POST("", reporters, h.Maintenance.CreateRequest)
		requests.PATCH("/:id", reporters, h.Maintenance.UpdateRequest)
		requests.PATCH("/:id/status", workers, h.Maintenance.ChangeRequestStatus)
		requests.POST("/:id/accept", tech, h.Maintenance.AcceptRequest)
	}

	work := api.Group("/maintenance-work")
	{
		work.GET("/by-request/:requestId", h.Maintenance.GetWorkByRequest)
		work.GET("/:id", h.Maintenance.GetWork)
		work.PATCH("/:id/start", workers, h.Maintenance.StartWork)
		work.PATCH("/:id/update-progress", workers, h.Maintenance.UpdateProgress)
		work.PATCH("/:id/complete", workers, h.Maintenance.CompleteWork)
	}

	failureCodes := api.Group("/failure-codes")
	{
		failureCodes.GET("", h.Lookup.ListFailureCodes)
		failureCodes.POST("", admin, h.Lookup.CreateFailureCode)
	}

	maintTypes := api.Group("/maintenance-types")
	{
		maintTypes.GET("", h.Lookup.ListMaintenanceTypes)
		maintTypes.POST("", admin, h.Lookup.CreateMaintenanceType)
	}

	reports := api.Group("/reports/inventory", stockView)
	{
		reports.GET("/stock-levels", h.Report.StockLevels)
		reports.GET("/consumption", h.Report.Consumption)
		reports.GET("/valuation", h.Report.Valuation)
		reports.GET("/reorder", h.Report.Reorder)
	}

	maintReports := api.Group("/reports", manager)
	{
		maintReports.GET("/downtime", h.Report.Downtime)
		maintReports.GET("/maintenance-costs", h.Report.MaintenanceCosts)
		maintReports.GET("/failure-analysis", h.Report.FailureAnalysis)
	}

	usersGroup := api.Group("/users", admin)
	{
		usersGroup.GET("", h.User.List)
		usersGroup.GET("/:id", h.User.Get)
		usersGroup.POST("", h.User.Create)
		usersGroup.PUT("/:id", h.User.Update)
		usersGroup.DELETE("/:id", h.User.Delete)
	}

	logs := api.Group("/activity-logs", admin)
	{
		logs.GET("", h.ActivityLog.List)
		logs.GET("/:entityType/:entityId", h.ActivityLog.EntityHistory)
	}

	if h.Stream != nil {
		api.GET("/events/stream", h.Stream.Stream)
	}
}
