package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/testutil"
)

func TestFailureCodeAndTypeCatalogs(t *testing.T) {
	env, u := setupMaintenanceTest(t)
	adminToken := testutil.TokenFor(u.admin)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/failure-codes", map[string]interface{}{
		"code": "ELE-01", "description": "Short circuit", "category": "ELECTRICAL",
	}, testutil.TokenFor(u.manager))
	expectStatus(t, w.Code, http.StatusForbidden, w.Body.String())

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/failure-codes", map[string]interface{}{
		"code": "ele-01", "description": "Short circuit", "category": "ELECTRICAL",
	}, adminToken)
	expectStatus(t, w.Code, http.StatusCreated, w.Body.String())
	if code := dataOf(t, testutil.ParseResponse(w))["code"]; code != "ELE-01" {
		t.Errorf("Expected code ELE-01, got %v", code)
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/failure-codes", map[string]interface{}{
		"code": "ELE-01", "description": "Duplicate",
	}, adminToken)
	expectStatus(t, w.Code, http.StatusConflict, w.Body.String())

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/failure-codes", map[string]interface{}{
		"code": "OLD-01", "description": "Retired", "is_active": false,
	}, adminToken)
	expectStatus(t, w.Code, http.StatusCreated, w.Body.String())

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/failure-codes", nil, testutil.TokenFor(u.tech))
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if items := dataOf(t, testutil.ParseResponse(w))["items"].([]interface{}); len(items) != 1 {
		t.Errorf("Expected only the active code, got %d", len(items))
	}
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/failure-codes?is_active=all", nil, testutil.TokenFor(u.tech))
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if items := dataOf(t, testutil.ParseResponse(w))["items"].([]interface{}); len(items) != 2 {
		t.Errorf("Expected both codes, got %d", len(items))
	}
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/failure-codes?is_active=maybe", nil, testutil.TokenFor(u.tech))
	expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/maintenance-types", map[string]interface{}{"name": "Preventive"}, adminToken)
	expectStatus(t, w.Code, http.StatusCreated, w.Body.String())
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/maintenance-types", map[string]interface{}{"name": "Preventive"}, adminToken)
	expectStatus(t, w.Code, http.StatusConflict, w.Body.String())
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/maintenance-types", nil, testutil.TokenFor(u.supervisor))
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if items := dataOf(t, testutil.ParseResponse(w))["items"].([]interface{}); len(items) != 1 {
		t.Errorf("Expected 1 maintenance type, got %d", len(items))
	}
}

func TestUserAdministration(t *testing.T) {
	env, u := setupMaintenanceTest(t)
	adminToken := testutil.TokenFor(u.admin)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/users", nil, testutil.TokenFor(u.manager))
	expectStatus(t, w.Code, http.StatusForbidden, w.Body.String())

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/users", map[string]interface{}{
		"username": "new_tech", "full_name": "New Technician", "role": "maintenance_tech",
	}, adminToken)
	expectStatus(t, w.Code, http.StatusCreated, w.Body.String())
	created := dataOf(t, testutil.ParseResponse(w))
	userID := created["id"].(string)
	if created["role"] != entity.RoleMaintenanceTech {
		t.Errorf("Expected MAINTENANCE_TECH, got %v", created["role"])
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/users", map[string]interface{}{
		"username": "new_tech", "full_name": "Someone Else", "role": "SUPERVISOR",
	}, adminToken)
	expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())

	w = testutil.DoRequest(env.Router, "PUT", "/api/v1/users/"+userID, map[string]interface{}{
		"full_name": "Senior Technician",
	}, adminToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if name := dataOf(t, testutil.ParseResponse(w))["full_name"]; name != "Senior Technician" {
		t.Errorf("Expected updated name, got %v", name)
	}

	w = testutil.DoRequest(env.Router, "DELETE", "/api/v1/users/"+u.admin.ID, nil, adminToken)
	expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())

	w = testutil.DoRequest(env.Router, "DELETE", "/api/v1/users/"+userID, nil, adminToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/users/"+userID, nil, adminToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if active := dataOf(t, testutil.ParseResponse(w))["is_active"]; active != false {
		t.Errorf("Expected deactivated user, got is_active=%v", active)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/users?is_active=false", nil, adminToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if items := itemsOf(t, testutil.ParseResponse(w)); len(items) != 1 {
		t.Errorf("Expected 1 inactive user, got %d", len(items))
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/users/missing", nil, adminToken)
	expectStatus(t, w.Code, http.StatusNotFound, w.Body.String())
}

func TestMaintenanceReportsOverHTTP(t *testing.T) {
	env, u := setupMaintenanceTest(t)
	machine := testutil.SeedMachine(t, env.DB, entity.MachineStatusOperational)
	testutil.SeedDowntime(t, env.DB, machine, time.Now().Add(-3*time.Hour), 2)
	managerToken := testutil.TokenFor(u.manager)

	for _, path := range []string{
		"/api/v1/reports/downtime",
		"/api/v1/reports/maintenance-costs",
		"/api/v1/reports/failure-analysis",
	} {
		w := testutil.DoRequest(env.Router, "GET", path, nil, testutil.TokenFor(u.tech))
		expectStatus(t, w.Code, http.StatusForbidden, w.Body.String())

		w = testutil.DoRequest(env.Router, "GET", path, nil, managerToken)
		expectStatus(t, w.Code, http.StatusOK, w.Body.String())

		w = testutil.DoRequest(env.Router, "GET", path+"?date_from=yesterday", nil, managerToken)
		expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())
	}

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/reports/downtime?machine_id="+machine.ID, nil, managerToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	data := dataOf(t, testutil.ParseResponse(w))
	if data["total_downtime_hours"] != float64(2) || data["frequency"] != float64(1) {
		t.Errorf("Unexpected downtime totals: %v", data)
	}
}
