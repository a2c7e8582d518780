package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/service"
)

type MaintenanceHandler struct {
	svc *service.MaintenanceService
}

func NewMaintenanceHandler(svc *service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{svc: svc}
}

// ListRequests GET /maintenance-requests
func (h *MaintenanceHandler) ListRequests(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListRequests(reqCtx(c), repository.MaintenanceRequestListParams{
		Status:        strings.ToUpper(c.Query("status")),
		Priority:      strings.ToUpper(c.Query("priority")),
		MachineID:     c.Query("machine_id"),
		RequestedByID: c.Query("requested_by"),
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	pagedList(c, items, total, page, pageSize)
}

// GetRequest GET /maintenance-requests/:id
func (h *MaintenanceHandler) GetRequest(c *gin.Context) {
	req, err := h.svc.GetRequest(reqCtx(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, req)
}

// CreateRequest POST /maintenance-requests
func (h *MaintenanceHandler) CreateRequest(c *gin.Context) {
	var input service.CreateMaintenanceRequestRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	input.MachineStatus = strings.ToUpper(input.MachineStatus)
	req, err := h.svc.CreateRequest(reqCtx(c), actor(c), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, req)
}

// AcceptRequest POST /maintenance-requests/:id/accept
func (h *MaintenanceHandler) AcceptRequest(c *gin.Context) {
	work, err := h.svc.AcceptRequest(reqCtx(c), actor(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, work)
}

// GetWork GET /maintenance-work/:id
func (h *MaintenanceHandler) GetWork(c *gin.Context) {
	work, err := h.svc.GetWork(reqCtx(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, work)
}

// StartWork PATCH /maintenance-work/:id/start
func (h *MaintenanceHandler) StartWork(c *gin.Context) {
	work, err := h.svc.StartWork(reqCtx(c), actor(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, work)
}

// CompleteWork PATCH /maintenance-work/:id/complete
func (h *MaintenanceHandler) CompleteWork(c *gin.Context) {
	var input service.CompleteWorkRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			BadRequest(c, "Invalid request: "+err.Error())
			return
		}
	}
	work, err := h.svc.CompleteWork(reqCtx(c), actor(c), c.Param("id"), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, work)
}

// UpdateRequest PATCH /maintenance-requests/:id
func (h *MaintenanceHandler) UpdateRequest(c *gin.Context) {
	var input service.UpdateMaintenanceRequestRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	req, err := h.svc.UpdateRequest(reqCtx(c), actor(c), c.Param("id"), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, req)
}

// ChangeRequestStatus PATCH /maintenance-requests/:id/status
func (h *MaintenanceHandler) ChangeRequestStatus(c *gin.Context) {
	var input struct {
		Status string `json:"status"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			BadRequest(c, "Invalid request: "+err.Error())
			return
		}
	}
	if input.Status == "" {
		input.Status = c.Query("status")
	}
	if input.Status == "" {
		BadRequest(c, "status is required")
		return
	}
	req, err := h.svc.ChangeRequestStatus(reqCtx(c), actor(c), c.Param("id"), input.Status)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, req)
}

func requestListParams(c *gin.Context) repository.MaintenanceRequestListParams {
	page, pageSize := GetPagination(c)
	return repository.MaintenanceRequestListParams{
		Status:    strings.ToUpper(c.Query("status")),
		Priority:  strings.ToUpper(c.Query("priority")),
		MachineID: c.Query("machine_id"),
		Page:      page,
		PageSize:  pageSize,
	}
}

// ListAvailable GET /maintenance-requests/available
func (h *MaintenanceHandler) ListAvailable(c *gin.Context) {
	params := requestListParams(c)
	items, total, err := h.svc.ListAvailable(reqCtx(c), params)
	if err != nil {
		handleError(c, err)
		return
	}
	pagedList(c, items, total, params.Page, params.PageSize)
}

// ListMyWork GET /maintenance-requests/my-work
func (h *MaintenanceHandler) ListMyWork(c *gin.Context) {
	params := requestListParams(c)
	items, total, err := h.svc.ListMyWork(reqCtx(c), actor(c), params)
	if err != nil {
		handleError(c, err)
		return
	}
	pagedList(c, items, total, params.Page, params.PageSize)
}

// GetWorkByRequest GET /maintenance-work/by-request/:requestId
func (h *MaintenanceHandler) GetWorkByRequest(c *gin.Context) {
	work, err := h.svc.GetWorkByRequest(reqCtx(c), actor(c), c.Param("requestId"))
	if err != nil {
		handleError(c, err)
		return
	}
	if work == nil {
		c.Status(http.StatusNoContent)
		return
	}
	Success(c, work)
}

// UpdateProgress PATCH /maintenance-work/:id/update-progress
func (h *MaintenanceHandler) UpdateProgress(c *gin.Context) {
	var input service.UpdateProgressRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	if input.Status != "" {
		input.Status = strings.ToUpper(input.Status)
		if input.Status != entity.WorkStatusOnHold && input.Status != entity.WorkStatusInProgress {
			BadRequest(c, "status must be ON_HOLD or IN_PROGRESS")
			return
		}
	}
	work, err := h.svc.UpdateProgress(reqCtx(c), actor(c), c.Param("id"), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, work)
}
