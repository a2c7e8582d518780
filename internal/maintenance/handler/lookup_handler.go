package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/service"
)

type LookupHandler struct {
	svc *service.LookupService
}

func NewLookupHandler(svc *service.LookupService) *LookupHandler {
	return &LookupHandler{svc: svc}
}

// activeFilter is_active query; defaults to active only, "all" lists both.
func activeFilter(c *gin.Context) (*bool, bool) {
	raw := strings.TrimSpace(c.Query("is_active"))
	switch raw {
	case "":
		active := true
		return &active, true
	case "all":
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		BadRequest(c, "Invalid is_active: "+raw)
		return nil, false
	}
	return &v, true
}

// ListFailureCodes GET /failure-codes
func (h *LookupHandler) ListFailureCodes(c *gin.Context) {
	active, ok := activeFilter(c)
	if !ok {
		return
	}
	items, err := h.svc.ListFailureCodes(reqCtx(c), c.Query("category"), active)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// CreateFailureCode POST /failure-codes
func (h *LookupHandler) CreateFailureCode(c *gin.Context) {
	var input service.CreateFailureCodeRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	fc, err := h.svc.CreateFailureCode(reqCtx(c), actor(c), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, fc)
}

// ListMaintenanceTypes GET /maintenance-types
func (h *LookupHandler) ListMaintenanceTypes(c *gin.Context) {
	active, ok := activeFilter(c)
	if !ok {
		return
	}
	items, err := h.svc.ListMaintenanceTypes(reqCtx(c), c.Query("category"), active)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// CreateMaintenanceType POST /maintenance-types
func (h *LookupHandler) CreateMaintenanceType(c *gin.Context) {
	var input service.CreateMaintenanceTypeRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	mt, err := h.svc.CreateMaintenanceType(reqCtx(c), actor(c), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, mt)
}
