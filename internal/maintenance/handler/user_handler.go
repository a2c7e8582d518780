package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/service"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// List GET /users
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.UserListParams{
		Role:     strings.ToUpper(c.Query("role")),
		Keyword:  c.Query("keyword"),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := c.Query("is_active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			BadRequest(c, "Invalid is_active: "+raw)
			return
		}
		params.IsActive = &v
	}
	items, total, err := h.svc.List(reqCtx(c), params)
	if err != nil {
		handleError(c, err)
		return
	}
	pagedList(c, items, total, page, pageSize)
}

// Get GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.Get(reqCtx(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, user)
}

// Create POST /users
func (h *UserHandler) Create(c *gin.Context) {
	var input service.CreateUserRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	user, err := h.svc.Create(reqCtx(c), actor(c), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, user)
}

// Update PUT /users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var input service.UpdateUserRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	user, err := h.svc.Update(reqCtx(c), actor(c), c.Param("id"), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, user)
}

// Delete DELETE /users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.svc.Deactivate(reqCtx(c), actor(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"message": "User deleted successfully"})
}
