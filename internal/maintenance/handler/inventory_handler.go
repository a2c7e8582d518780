package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/service"
)

// ============================================================
// Spare parts
// ============================================================

type SparePartHandler struct {
	svc *service.SparePartService
}

func NewSparePartHandler(svc *service.SparePartService) *SparePartHandler {
	return &SparePartHandler{svc: svc}
}

// List GET /spare-parts
func (h *SparePartHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(reqCtx(c), repository.SparePartListParams{
		CategoryID: c.Query("category_id"),
		Location:   c.Query("location"),
		Keyword:    c.Query("keyword"),
		ActiveOnly: c.Query("include_inactive") != "true",
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	pagedList(c, items, total, page, pageSize)
}

// LowStock GET /spare-parts/low-stock
func (h *SparePartHandler) LowStock(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.LowStock(reqCtx(c), page, pageSize)
	if err != nil {
		handleError(c, err)
		return
	}
	pagedList(c, items, total, page, pageSize)
}

// Get GET /spare-parts/:id
func (h *SparePartHandler) Get(c *gin.Context) {
	part, err := h.svc.Get(reqCtx(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, part)
}

// Create POST /spare-parts
func (h *SparePartHandler) Create(c *gin.Context) {
	var input service.CreateSparePartRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	part, err := h.svc.Create(reqCtx(c), actor(c), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, part)
}

// Update PATCH /spare-parts/:id
func (h *SparePartHandler) Update(c *gin.Context) {
	var input service.UpdateSparePartRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	part, err := h.svc.Update(reqCtx(c), actor(c), c.Param("id"), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, part)
}

// Delete DELETE /spare-parts/:id
func (h *SparePartHandler) Delete(c *gin.Context) {
	if err := h.svc.Deactivate(reqCtx(c), actor(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"message": "Spare part deactivated successfully"})
}

// Reconcile GET /spare-parts/:id/reconcile
func (h *SparePartHandler) Reconcile(c *gin.Context) {
	result, err := h.svc.Reconcile(reqCtx(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, result)
}

// ============================================================
// Categories
// ============================================================

type CategoryHandler struct {
	svc *service.CategoryService
}

func NewCategoryHandler(svc *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

// List GET /spare-part-categories
func (h *CategoryHandler) List(c *gin.Context) {
	items, err := h.svc.List(reqCtx(c), c.Query("include_inactive") != "true")
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// Create POST /spare-part-categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var input service.CreateCategoryRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	category, err := h.svc.Create(reqCtx(c), actor(c), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, category)
}

// ============================================================
// Inventory transactions
// ============================================================

type TransactionHandler struct {
	svc *service.TransactionService
}

func NewTransactionHandler(svc *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

func (h *TransactionHandler) listParams(c *gin.Context) (repository.TransactionListParams, error) {
	from, to, err := queryRange(c)
	if err != nil {
		return repository.TransactionListParams{}, err
	}
	page, pageSize := GetPagination(c)
	return repository.TransactionListParams{
		TransactionType: strings.ToUpper(c.Query("transaction_type")),
		ReferenceType:   c.Query("reference_type"),
		SparePartID:     c.Query("spare_part_id"),
		PerformedBy:     c.Query("performed_by"),
		Search:          c.Query("search"),
		DateFrom:        from,
		DateTo:          to,
		SortBy:          c.Query("sort_by"),
		SortOrder:       c.Query("sort_order"),
		Page:            page,
		PageSize:        pageSize,
	}, nil
}

// List GET /inventory-transactions
func (h *TransactionHandler) List(c *gin.Context) {
	params, err := h.listParams(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	items, total, err := h.svc.List(reqCtx(c), params)
	if err != nil {
		handleError(c, err)
		return
	}
	pagedList(c, items, total, params.Page, params.PageSize)
}

// Get GET /inventory-transactions/:id
func (h *TransactionHandler) Get(c *gin.Context) {
	txn, err := h.svc.Get(reqCtx(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, txn)
}

// Create POST /inventory-transactions
func (h *TransactionHandler) Create(c *gin.Context) {
	var input service.CreateTransactionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.svc.Create(reqCtx(c), actor(c), &input)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, result)
}

// Export GET /inventory-transactions/export
func (h *TransactionHandler) Export(c *gin.Context) {
	params, err := h.listParams(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	f, filename, err := h.svc.Export(reqCtx(c), params)
	if err != nil {
		handleError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		c.Error(err)
	}
}
