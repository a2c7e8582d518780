package handler

import (
	"net/http"
	"testing"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/testutil"
)

func itemsOf(t *testing.T, resp map[string]interface{}) []interface{} {
	t.Helper()
	items, ok := dataOf(t, resp)["items"].([]interface{})
	if !ok {
		t.Fatalf("Expected items list, got %v", resp["data"])
	}
	return items
}

func TestMaintenanceWorkflowOverHTTP(t *testing.T) {
	env, u := setupMaintenanceTest(t)
	machine := testutil.SeedMachine(t, env.DB, entity.MachineStatusDown)
	techToken := testutil.TokenFor(u.tech)
	otherTech := testutil.SeedUser(t, env.DB, entity.RoleMaintenanceTech)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/maintenance-requests", map[string]interface{}{
		"machine_id":  machine.ID,
		"title":       "Hydraulic leak",
		"description": "Oil under the press",
	}, testutil.TokenFor(u.supervisor))
	expectStatus(t, w.Code, http.StatusCreated, w.Body.String())
	requestID := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/maintenance-requests/available", nil, techToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if items := itemsOf(t, testutil.ParseResponse(w)); len(items) != 1 {
		t.Fatalf("Expected 1 available request, got %d", len(items))
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/maintenance-requests/available", nil, testutil.TokenFor(u.supervisor))
	expectStatus(t, w.Code, http.StatusForbidden, w.Body.String())

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/maintenance-work/by-request/"+requestID, nil, techToken)
	expectStatus(t, w.Code, http.StatusNoContent, w.Body.String())

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/maintenance-requests/"+requestID, map[string]interface{}{
		"title": "Hydraulic leak on press 1",
	}, techToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if title := dataOf(t, testutil.ParseResponse(w))["title"]; title != "Hydraulic leak on press 1" {
		t.Errorf("Expected updated title, got %v", title)
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/maintenance-requests/"+requestID+"/accept", nil, techToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	workID := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/maintenance-work/by-request/"+requestID, nil, techToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if id := dataOf(t, testutil.ParseResponse(w))["id"]; id != workID {
		t.Errorf("Expected work %s, got %v", workID, id)
	}
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/maintenance-work/by-request/"+requestID, nil, testutil.TokenFor(otherTech))
	expectStatus(t, w.Code, http.StatusForbidden, w.Body.String())

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/maintenance-requests/available", nil, techToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if items := itemsOf(t, testutil.ParseResponse(w)); len(items) != 0 {
		t.Errorf("Expected no available requests after accept, got %d", len(items))
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/maintenance-requests/my-work", nil, techToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if items := itemsOf(t, testutil.ParseResponse(w)); len(items) != 1 {
		t.Errorf("Expected 1 request in my work, got %d", len(items))
	}
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/maintenance-requests/my-work", nil, testutil.TokenFor(otherTech))
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if items := itemsOf(t, testutil.ParseResponse(w)); len(items) != 0 {
		t.Errorf("Expected another technician to see no work, got %d", len(items))
	}

	// checklist progress, then pause
	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/maintenance-work/"+workID+"/update-progress", map[string]interface{}{
		"maintenance_steps": []map[string]interface{}{
			{"step": 1, "description": "Isolate power", "completed": true},
			{"step": 2, "description": "Replace seal", "completed": false},
		},
		"status": "on_hold",
	}, techToken)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	work := dataOf(t, testutil.ParseResponse(w))
	if work["status"] != entity.WorkStatusOnHold {
		t.Errorf("Expected ON_HOLD, got %v", work["status"])
	}
	if steps := work["maintenance_steps"].([]interface{}); len(steps) != 2 {
		t.Errorf("Expected 2 steps, got %d", len(steps))
	}

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/maintenance-work/"+workID+"/update-progress", map[string]interface{}{
		"maintenance_steps": []map[string]interface{}{},
		"status":            "COMPLETED",
	}, techToken)
	expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/maintenance-work/"+workID+"/update-progress", map[string]interface{}{
		"maintenance_steps": []map[string]interface{}{
			{"step": 1, "description": "Isolate power", "completed": false},
			{"step": 2, "description": "Replace seal", "completed": true},
		},
	}, techToken)
	expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())

	// cancel the request outright
	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/maintenance-requests/"+requestID+"/status", nil, techToken)
	expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/maintenance-requests/"+requestID+"/status",
		map[string]interface{}{"status": "COMPLETED"}, techToken)
	expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/maintenance-requests/"+requestID+"/status",
		map[string]interface{}{"status": "CANCELLED"}, testutil.TokenFor(u.manager))
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if got := testutil.ReloadWork(t, env.DB, workID).Status; got != entity.WorkStatusCancelled {
		t.Errorf("Expected work CANCELLED, got %s", got)
	}
	if got := testutil.ReloadRequest(t, env.DB, requestID).Status; got != entity.RequestStatusCancelled {
		t.Errorf("Expected request CANCELLED, got %s", got)
	}

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/maintenance-work/"+workID+"/complete", map[string]interface{}{}, techToken)
	expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())
}

func TestCompleteWorkNegativeCostOverHTTP(t *testing.T) {
	env, u := setupMaintenanceTest(t)
	machine := testutil.SeedMachine(t, env.DB, entity.MachineStatusMaintenance)
	_, work := testutil.SeedWork(t, env.DB, machine, u.tech, entity.RequestStatusInProgress, entity.WorkStatusInProgress)

	w := testutil.DoRequest(env.Router, "PATCH", "/api/v1/maintenance-work/"+work.ID+"/complete",
		map[string]interface{}{"labor_cost": "-10"}, testutil.TokenFor(u.tech))
	expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())
	if got := testutil.ReloadWork(t, env.DB, work.ID).Status; got != entity.WorkStatusInProgress {
		t.Errorf("Expected work to stay IN_PROGRESS, got %s", got)
	}
}
