package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/service"
	"github.com/mkhaled501333/maintaince-management/internal/middleware"
	"github.com/mkhaled501333/maintaince-management/internal/shared/sse"
)

// Handlers handler set
type Handlers struct {
	PartsRequest *PartsRequestHandler
	SparePart    *SparePartHandler
	Category     *CategoryHandler
	Transaction  *TransactionHandler
	Department   *DepartmentHandler
	Machine      *MachineHandler
	Maintenance  *MaintenanceHandler
	Report       *ReportHandler
	ActivityLog  *ActivityLogHandler
	Lookup       *LookupHandler
	User         *UserHandler
	Stream       *StreamHandler
}

func NewHandlers(svc *service.Services, hub *sse.Hub) *Handlers {
	return &Handlers{
		PartsRequest: NewPartsRequestHandler(svc.PartsRequest),
		SparePart:    NewSparePartHandler(svc.SparePart),
		Category:     NewCategoryHandler(svc.Category),
		Transaction:  NewTransactionHandler(svc.Transaction),
		Department:   NewDepartmentHandler(svc.Department),
		Machine:      NewMachineHandler(svc.Machine),
		Maintenance:  NewMaintenanceHandler(svc.Maintenance),
		Report:       NewReportHandler(svc.Report),
		ActivityLog:  NewActivityLogHandler(svc.ActivityLog),
		Lookup:       NewLookupHandler(svc.Lookup),
		User:         NewUserHandler(svc.User),
		Stream:       NewStreamHandler(hub),
	}
}

// Response common envelope. Detail repeats the message on errors.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Detail  string      `json:"detail,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse paged list
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error status is code/100
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
		Detail:  message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// handleError maps service error kinds to responses. Unclassified errors are
// attached to the context for the request logger and reported as 500.
func handleError(c *gin.Context, err error) {
	detail := service.Detail(err)
	switch {
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, detail)
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, detail)
	case errors.Is(err, service.ErrAlreadyProcessed),
		errors.Is(err, service.ErrConcurrentUpdate),
		errors.Is(err, service.ErrDuplicate):
		Conflict(c, detail)
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInactivePart),
		errors.Is(err, service.ErrInvalidInput):
		BadRequest(c, detail)
	default:
		c.Error(err)
		InternalError(c, "Internal server error")
	}
}

// actor the authenticated caller
func actor(c *gin.Context) entity.Actor {
	a := entity.Actor{
		UserID: c.GetString(middleware.KeyUserID),
		Name:   c.GetString(middleware.KeyUserName),
	}
	if roles, ok := c.Get(middleware.KeyRoles); ok {
		a.Roles, _ = roles.([]string)
	}
	return a
}

// reqCtx request context carrying the audit metadata
func reqCtx(c *gin.Context) context.Context {
	return service.WithRequestMeta(c.Request.Context(), service.RequestMeta{
		IPAddress: c.GetString(middleware.KeyClientIP),
		UserAgent: c.GetString(middleware.KeyUserAgent),
		RequestID: c.GetString(middleware.KeyRequestID),
	})
}

// GetPagination page (default 1) and page_size (default 20, max 100)
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

func pagedList(c *gin.Context, items interface{}, total int64, page, pageSize int) {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// queryTime parses an RFC3339 or YYYY-MM-DD query value. A bare date used as
// an upper bound covers the whole day.
func queryTime(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, errors.New("invalid " + key + ": expected YYYY-MM-DD or RFC3339")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func queryRange(c *gin.Context) (from, to *time.Time, err error) {
	if from, err = queryTime(c, "date_from", false); err != nil {
		return nil, nil, err
	}
	if to, err = queryTime(c, "date_to", true); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
