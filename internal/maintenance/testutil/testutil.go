package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/middleware"
	"github.com/mkhaled501333/maintaince-management/internal/shared/sse"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "maintenance-test-secret"

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	Hub    *sse.Hub
	T      *testing.T
}

var dbSeq int64

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func loadEnv() {
	if root := projectRoot(); root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB opens a private in-memory sqlite database with every table migrated.
// The pool holds a single connection, so code under test must route all
// statements inside a transaction through that transaction.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	dsn := fmt.Sprintf("file:maint_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(entity.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth and audit metadata middleware
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret), middleware.AuditMeta())
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name string, roles ...string) string {
	if roles == nil {
		roles = []string{}
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"roles": roles,
		"iss":   "maintenance-api",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// TokenFor issues a token for a seeded user
func TokenFor(user *entity.User) string {
	return GenerateTestToken(user.ID, user.FullName, user.Role)
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "testutil")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

func newID() string {
	return uuid.New().String()[:32]
}

// SeedUser creates an active user holding role
func SeedUser(t *testing.T, db *gorm.DB, role string) *entity.User {
	t.Helper()
	id := newID()
	user := &entity.User{
		ID:       id,
		Username: "user_" + id[:8],
		FullName: "Test " + role,
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

// SeedMachine creates a department and a machine in status
func SeedMachine(t *testing.T, db *gorm.DB, status string) *entity.Machine {
	t.Helper()
	dept := &entity.Department{ID: newID(), Name: "Dept " + newID()[:8]}
	if err := db.Create(dept).Error; err != nil {
		t.Fatalf("Failed to seed department: %v", err)
	}
	machine := &entity.Machine{
		ID:           newID(),
		QRCode:       "QR-" + newID()[:12],
		Name:         "Press 1",
		Status:       status,
		DepartmentID: dept.ID,
	}
	if err := db.Create(machine).Error; err != nil {
		t.Fatalf("Failed to seed machine: %v", err)
	}
	return machine
}

// SeedSparePart creates an active part. Opening stock is booked as an IN
// ledger row so the counter and the ledger agree.
func SeedSparePart(t *testing.T, db *gorm.DB, stock, minimum int, price string) *entity.SparePart {
	t.Helper()
	part := &entity.SparePart{
		ID:           newID(),
		PartNumber:   "P-" + newID()[:10],
		PartName:     "Bearing",
		CurrentStock: stock,
		MinimumStock: minimum,
		Location:     "A-01",
		IsActive:     true,
		Version:      1,
	}
	if price != "" {
		part.UnitPrice = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
	if err := db.Create(part).Error; err != nil {
		t.Fatalf("Failed to seed spare part: %v", err)
	}
	if stock > 0 {
		opening := &entity.InventoryTransaction{
			ID:              newID(),
			SparePartID:     part.ID,
			TransactionType: entity.TransactionTypeIn,
			Quantity:        stock,
			ReferenceType:   "OPENING",
			BeforeQuantity:  0,
			AfterQuantity:   stock,
			TransactionDate: time.Now().Add(-time.Hour),
		}
		if err := db.Create(opening).Error; err != nil {
			t.Fatalf("Failed to seed opening stock: %v", err)
		}
	}
	return part
}

// SeedWork creates a maintenance request in requestStatus with a work order
// in workStatus assigned to assignee.
func SeedWork(t *testing.T, db *gorm.DB, machine *entity.Machine, assignee *entity.User, requestStatus, workStatus string) (*entity.MaintenanceRequest, *entity.MaintenanceWork) {
	t.Helper()
	req := &entity.MaintenanceRequest{
		ID:            newID(),
		Title:         "Spindle noise",
		Description:   "Loud grinding on startup",
		Priority:      entity.PriorityHigh,
		Status:        requestStatus,
		RequestedDate: time.Now(),
		MachineID:     machine.ID,
		RequestedByID: assignee.ID,
		Version:       1,
	}
	if err := db.Create(req).Error; err != nil {
		t.Fatalf("Failed to seed maintenance request: %v", err)
	}
	work := &entity.MaintenanceWork{
		ID:              newID(),
		RequestID:       req.ID,
		MachineID:       machine.ID,
		AssignedToID:    assignee.ID,
		WorkDescription: "Replace spindle bearing",
		Status:          workStatus,
	}
	if workStatus != entity.WorkStatusPending {
		now := time.Now()
		work.StartTime = &now
	}
	if err := db.Create(work).Error; err != nil {
		t.Fatalf("Failed to seed maintenance work: %v", err)
	}
	return req, work
}

// ReloadPart reads the part row as stored
func ReloadPart(t *testing.T, db *gorm.DB, id string) *entity.SparePart {
	t.Helper()
	var part entity.SparePart
	if err := db.Where("id = ?", id).First(&part).Error; err != nil {
		t.Fatalf("Failed to reload part: %v", err)
	}
	return &part
}

// ReloadRequest reads the maintenance request row as stored
func ReloadRequest(t *testing.T, db *gorm.DB, id string) *entity.MaintenanceRequest {
	t.Helper()
	var req entity.MaintenanceRequest
	if err := db.Where("id = ?", id).First(&req).Error; err != nil {
		t.Fatalf("Failed to reload maintenance request: %v", err)
	}
	return &req
}

// ReloadWork reads the work order row as stored
func ReloadWork(t *testing.T, db *gorm.DB, id string) *entity.MaintenanceWork {
	t.Helper()
	var work entity.MaintenanceWork
	if err := db.Where("id = ?", id).First(&work).Error; err != nil {
		t.Fatalf("Failed to reload maintenance work: %v", err)
	}
	return &work
}

// SeedDowntime books a downtime period on machine. A zero hours leaves it open.
func SeedDowntime(t *testing.T, db *gorm.DB, machine *entity.Machine, start time.Time, hours float64) *entity.MachineDowntime {
	t.Helper()
	d := &entity.MachineDowntime{
		ID:        newID(),
		MachineID: machine.ID,
		Reason:    "Breakdown",
		StartTime: start,
	}
	if hours > 0 {
		end := start.Add(time.Duration(hours * float64(time.Hour)))
		d.EndTime = &end
		d.DurationHours = &hours
	}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("Failed to seed downtime: %v", err)
	}
	return d
}

// CountRows counts rows of model matching where
func CountRows(t *testing.T, db *gorm.DB, model interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return n
}
