package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/service"
)

type DepartmentHandler struct {
	svc *service.DepartmentService
}

func NewDepartmentHandler(svc *service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{svc: svc}
}

// List GET /departments
func (h *DepartmentHandler) List(c *gin.Context) {
	items, err := h.svc.List(reqCtx(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// Get GET /departments/:id
func (h *DepartmentHandler) Get(c *gin.Context) {
	dept, err := h.svc.Get(reqCtx(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, dept)
}

// Create POST /departments
func (h *DepartmentHandler) Create(c *gin.Context) {
	var input service.DepartmentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	dept, err := h.svc.Create(reqCtx(c), actor(c), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, dept)
}

// Update PUT /departments/:id
func (h *DepartmentHandler) Update(c *gin.Context) {
	var input service.DepartmentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	dept, err := h.svc.Update(reqCtx(c), actor(c), c.Param("id"), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, dept)
}

// Delete DELETE /departments/:id
func (h *DepartmentHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(reqCtx(c), actor(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"message": "Department deleted successfully"})
}

type MachineHandler struct {
	svc *service.MachineService
}

func NewMachineHandler(svc *service.MachineService) *MachineHandler {
	return &MachineHandler{svc: svc}
}

// List GET /machines
func (h *MachineHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(reqCtx(c), repository.MachineListParams{
		DepartmentID: c.Query("department_id"),
		Status:       strings.ToUpper(c.Query("status")),
		Keyword:      c.Query("keyword"),
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	pagedList(c, items, total, page, pageSize)
}

// Get GET /machines/:id
func (h *MachineHandler) Get(c *gin.Context) {
	machine, err := h.svc.Get(reqCtx(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, machine)
}

// GetByQRCode GET /machines/qr/:code
func (h *MachineHandler) GetByQRCode(c *gin.Context) {
	machine, err := h.svc.GetByQRCode(reqCtx(c), c.Param("code"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, machine)
}

// Create POST /machines
func (h *MachineHandler) Create(c *gin.Context) {
	var input service.CreateMachineRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	input.Status = strings.ToUpper(input.Status)
	machine, err := h.svc.Create(reqCtx(c), actor(c), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, machine)
}

// UpdateStatus PATCH /machines/:id/status
func (h *MachineHandler) UpdateStatus(c *gin.Context) {
	var input service.UpdateMachineStatusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	input.Status = strings.ToUpper(input.Status)
	machine, err := h.svc.UpdateStatus(reqCtx(c), actor(c), c.Param("id"), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, machine)
}
