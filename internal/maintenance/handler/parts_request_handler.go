package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/service"
)

type PartsRequestHandler struct {
	svc *service.PartsRequestService
}

func NewPartsRequestHandler(svc *service.PartsRequestService) *PartsRequestHandler {
	return &PartsRequestHandler{svc: svc}
}

// Create POST /spare-parts-requests
func (h *PartsRequestHandler) Create(c *gin.Context) {
	var input service.CreatePartsRequestRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	req, err := h.svc.Create(reqCtx(c), actor(c), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, req)
}

// List GET /spare-parts-requests
func (h *PartsRequestHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(reqCtx(c), actor(c), repository.PartsRequestListParams{
		Status:            strings.ToUpper(c.Query("status")),
		MaintenanceWorkID: c.Query("maintenance_work_id"),
		SparePartID:       c.Query("spare_part_id"),
		RequestedBy:       c.Query("requested_by"),
		Page:              page,
		PageSize:          pageSize,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	pagedList(c, items, total, page, pageSize)
}

// Get GET /spare-parts-requests/:id
func (h *PartsRequestHandler) Get(c *gin.Context) {
	req, err := h.svc.GetFor(reqCtx(c), actor(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, req)
}

// Approve PATCH /spare-parts-requests/:id/approve
func (h *PartsRequestHandler) Approve(c *gin.Context) {
	var input service.ApprovePartsRequestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			BadRequest(c, "Invalid request: "+err.Error())
			return
		}
	}

	req, err := h.svc.Approve(reqCtx(c), actor(c), c.Param("id"), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, req)
}

// Reject PATCH /spare-parts-requests/:id/reject
func (h *PartsRequestHandler) Reject(c *gin.Context) {
	var input service.RejectPartsRequestRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	req, err := h.svc.Reject(reqCtx(c), actor(c), c.Param("id"), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, req)
}

// Issue PATCH /spare-parts-requests/:id/issue
func (h *PartsRequestHandler) Issue(c *gin.Context) {
	req, err := h.svc.Issue(reqCtx(c), actor(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, req)
}

// RequestReturn POST /spare-parts-requests/:id/return-request
func (h *PartsRequestHandler) RequestReturn(c *gin.Context) {
	req, err := h.svc.RequestReturn(reqCtx(c), actor(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, req)
}

// ProcessReturn PATCH /spare-parts-requests/:id/process-return
func (h *PartsRequestHandler) ProcessReturn(c *gin.Context) {
	req, err := h.svc.ProcessReturn(reqCtx(c), actor(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, req)
}
