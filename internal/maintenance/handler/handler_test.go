package handler

import (
	"net/http"
	"testing"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/service"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/testutil"
	"github.com/mkhaled501333/maintaince-management/internal/middleware"
	"github.com/mkhaled501333/maintaince-management/internal/shared/sse"
)

type users struct {
	tech, manager, inventory, admin, supervisor *entity.User
}

func setupMaintenanceTest(t *testing.T) (*testutil.TestEnv, users) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()
	router.Use(middleware.RequestID())

	repos := repository.NewRepositories(db)
	hub := sse.NewHub(nil)
	svc := service.NewServices(db, repos, service.Dependencies{Publisher: hub})
	RegisterRoutes(testutil.AuthGroup(router, "/api/v1"), NewHandlers(svc, hub))

	u := users{
		tech:       testutil.SeedUser(t, db, entity.RoleMaintenanceTech),
		manager:    testutil.SeedUser(t, db, entity.RoleMaintenanceManager),
		inventory:  testutil.SeedUser(t, db, entity.RoleInventoryManager),
		admin:      testutil.SeedUser(t, db, entity.RoleAdmin),
		supervisor: testutil.SeedUser(t, db, entity.RoleSupervisor),
	}
	return &testutil.TestEnv{DB: db, Router: router, Hub: hub, T: t}, u
}

func expectStatus(t *testing.T, code, want int, body string) {
	t.Helper()
	if code != want {
		t.Fatalf("Expected %d, got %d: %s", want, code, body)
	}
}

func dataOf(t *testing.T, resp map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected object data, got %v", resp["data"])
	}
	return data
}

func TestPartsRequestEndToEnd(t *testing.T) {
	env, u := setupMaintenanceTest(t)
	machine := testutil.SeedMachine(t, env.DB, entity.MachineStatusDown)
	part := testutil.SeedSparePart(t, env.DB, 10, 2, "12.50")
	techToken := testutil.TokenFor(u.tech)

	// report the breakdown and take it on
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/maintenance-requests", map[string]interface{}{
		"machine_id":  machine.ID,
		"title":       "Conveyor stopped",
		"description": "Drive belt slipping",
		"priority":    "high",
	}, testutil.TokenFor(u.supervisor))
	expectStatus(t, w.Code, http.StatusCreated, w.Body.String())
	requestID := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/maintenance-requests/"+requestID+"/accept", nil, techToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	workID := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	// request parts
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/spare-parts-requests", map[string]interface{}{
		"maintenance_work_id": workID,
		"spare_part_id":       part.ID,
		"quantity_requested":  3,
	}, techToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	pr := dataOf(t, testutil.ParseResponse(w))
	if pr["status"] != entity.PartsRequestStatusPending {
		t.Errorf("Expected PENDING, got %v", pr["status"])
	}
	prID := pr["id"].(string)
	if got := testutil.ReloadRequest(t, env.DB, requestID).Status; got != entity.RequestStatusWaitingParts {
		t.Errorf("Expected WAITING_PARTS, got %s", got)
	}

	// technicians cannot approve
	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/spare-parts-requests/"+prID+"/approve", nil, techToken)
	expectStatus(t, w.Code, http.StatusForbidden, w.Body.String())

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/spare-parts-requests/"+prID+"/approve",
		map[string]interface{}{"approval_notes": "go ahead"}, testutil.TokenFor(u.manager))
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/spare-parts-requests/"+prID+"/approve", nil, testutil.TokenFor(u.manager))
	expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())

	invToken := testutil.TokenFor(u.inventory)
	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/spare-parts-requests/"+prID+"/issue", nil, invToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if got := testutil.ReloadPart(t, env.DB, part.ID).CurrentStock; got != 7 {
		t.Errorf("Expected stock 7 after issue, got %d", got)
	}
	if got := testutil.ReloadRequest(t, env.DB, requestID).Status; got != entity.RequestStatusInProgress {
		t.Errorf("Expected IN_PROGRESS after issue, got %s", got)
	}

	// a second issue must not book stock again
	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/spare-parts-requests/"+prID+"/issue", nil, invToken)
	expectStatus(t, w.Code, http.StatusConflict, w.Body.String())
	if got := testutil.ReloadPart(t, env.DB, part.ID).CurrentStock; got != 7 {
		t.Errorf("Expected stock to stay 7, got %d", got)
	}

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/spare-parts-requests/"+prID+"/process-return", nil, invToken)
	expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())
	if detail := testutil.ParseResponse(w)["detail"]; detail != "Return must be requested first before processing" {
		t.Errorf("Unexpected detail: %v", detail)
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/spare-parts-requests/"+prID+"/return-request", nil, techToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/spare-parts-requests/"+prID+"/process-return", nil, invToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	returned := dataOf(t, testutil.ParseResponse(w))
	if returned["is_returned"] != true || returned["status"] != entity.PartsRequestStatusIssued {
		t.Errorf("Expected returned ISSUED request, got %v", returned)
	}
	if got := testutil.ReloadPart(t, env.DB, part.ID).CurrentStock; got != 10 {
		t.Errorf("Expected stock 10 after return, got %d", got)
	}

	// finish the job; the machine goes back into service
	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/maintenance-work/"+workID+"/complete",
		map[string]interface{}{"actual_hours": 1.5, "labor_cost": "40"}, techToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/machines/qr/"+machine.QRCode, nil, techToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if status := dataOf(t, testutil.ParseResponse(w))["status"]; status != entity.MachineStatusOperational {
		t.Errorf("Expected OPERATIONAL machine, got %v", status)
	}

	// audit history carries the caller's user agent
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/activity-logs/"+entity.EntitySparePartsRequest+"/"+prID, nil, testutil.TokenFor(u.admin))
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	history := dataOf(t, testutil.ParseResponse(w))
	items := history["items"].([]interface{})
	if len(items) != 5 {
		t.Fatalf("Expected 5 audit rows, got %d", len(items))
	}
	if ua := items[0].(map[string]interface{})["user_agent"]; ua != "testutil" {
		t.Errorf("Expected user agent testutil, got %v", ua)
	}
}

func TestIssueInsufficientStockOverHTTP(t *testing.T) {
	env, u := setupMaintenanceTest(t)
	machine := testutil.SeedMachine(t, env.DB, entity.MachineStatusMaintenance)
	part := testutil.SeedSparePart(t, env.DB, 1, 0, "")
	_, work := testutil.SeedWork(t, env.DB, machine, u.tech, entity.RequestStatusInProgress, entity.WorkStatusInProgress)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/spare-parts-requests", map[string]interface{}{
		"maintenance_work_id": work.ID,
		"spare_part_id":       part.ID,
		"quantity_requested":  4,
	}, testutil.TokenFor(u.tech))
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	prID := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/spare-parts-requests/"+prID+"/approve", nil, testutil.TokenFor(u.admin))
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/spare-parts-requests/"+prID+"/issue", nil, testutil.TokenFor(u.inventory))
	expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())
	resp := testutil.ParseResponse(w)
	if resp["detail"] != "Insufficient stock. Available: 1, Requested: 4" {
		t.Errorf("Unexpected detail: %v", resp["detail"])
	}
	if resp["code"] != float64(40000) {
		t.Errorf("Expected code 40000, got %v", resp["code"])
	}
}

func TestAuthAndNotFound(t *testing.T) {
	env, u := setupMaintenanceTest(t)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/spare-parts-requests", nil, "")
	expectStatus(t, w.Code, http.StatusUnauthorized, w.Body.String())

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/spare-parts-requests", nil, "not-a-token")
	expectStatus(t, w.Code, http.StatusUnauthorized, w.Body.String())

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/spare-parts-requests/missing/issue", nil, testutil.TokenFor(u.inventory))
	expectStatus(t, w.Code, http.StatusNotFound, w.Body.String())

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/spare-parts-requests", map[string]interface{}{
		"maintenance_work_id": "w",
	}, testutil.TokenFor(u.tech))
	expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/reports/inventory/stock-levels", nil, testutil.TokenFor(u.tech))
	expectStatus(t, w.Code, http.StatusForbidden, w.Body.String())
}

func TestListPagination(t *testing.T) {
	env, u := setupMaintenanceTest(t)
	for i := 0; i < 3; i++ {
		testutil.SeedSparePart(t, env.DB, i, 0, "")
	}

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/spare-parts?page=2&page_size=2", nil, testutil.TokenFor(u.tech))
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	data := dataOf(t, testutil.ParseResponse(w))
	pagination := data["pagination"].(map[string]interface{})
	if pagination["total"] != float64(3) || pagination["total_pages"] != float64(2) || pagination["page"] != float64(2) {
		t.Errorf("Unexpected pagination: %v", pagination)
	}
	if items := data["items"].([]interface{}); len(items) != 1 {
		t.Errorf("Expected 1 item on page 2, got %d", len(items))
	}
}

func TestActivityLogsAreAdminOnly(t *testing.T) {
	env, u := setupMaintenanceTest(t)

	for _, path := range []string{
		"/api/v1/activity-logs",
		"/api/v1/activity-logs/" + entity.EntityMachine + "/any",
	} {
		w := testutil.DoRequest(env.Router, "GET", path, nil, testutil.TokenFor(u.manager))
		expectStatus(t, w.Code, http.StatusForbidden, w.Body.String())

		w = testutil.DoRequest(env.Router, "GET", path, nil, testutil.TokenFor(u.admin))
		expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	}
}
