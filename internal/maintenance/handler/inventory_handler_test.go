package handler

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/testutil"
	"github.com/xuri/excelize/v2"
)

func TestCreateTransactionReturnsMovement(t *testing.T) {
	env, u := setupMaintenanceTest(t)
	part := testutil.SeedSparePart(t, env.DB, 5, 0, "")

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/inventory-transactions", map[string]interface{}{
		"spare_part_id":    part.ID,
		"transaction_type": "in",
		"quantity":         7,
		"unit_price":       "1.25",
		"reference_number": "PO-88",
	}, testutil.TokenFor(u.inventory))
	expectStatus(t, w.Code, http.StatusCreated, w.Body.String())
	data := dataOf(t, testutil.ParseResponse(w))
	if data["before_quantity"] != float64(5) || data["after_quantity"] != float64(12) {
		t.Errorf("Unexpected movement: %v", data)
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/inventory-transactions", map[string]interface{}{
		"spare_part_id":    part.ID,
		"transaction_type": "OUT",
		"quantity":         7,
	}, testutil.TokenFor(u.manager))
	expectStatus(t, w.Code, http.StatusForbidden, w.Body.String())
}

func TestSparePartSoftDelete(t *testing.T) {
	env, u := setupMaintenanceTest(t)
	part := testutil.SeedSparePart(t, env.DB, 0, 0, "")
	token := testutil.TokenFor(u.inventory)

	w := testutil.DoRequest(env.Router, "DELETE", "/api/v1/spare-parts/"+part.ID, nil, token)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())

	w = testutil.DoRequest(env.Router, "DELETE", "/api/v1/spare-parts/"+part.ID, nil, token)
	expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/spare-parts/"+part.ID, nil, token)
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if active := dataOf(t, testutil.ParseResponse(w))["is_active"]; active != false {
		t.Errorf("Expected inactive part, got %v", active)
	}
}

func TestExportLedger(t *testing.T) {
	env, u := setupMaintenanceTest(t)
	part := testutil.SeedSparePart(t, env.DB, 4, 0, "")

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/inventory-transactions/export?spare_part_id="+part.ID, nil, testutil.TokenFor(u.manager))
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("Unexpected content type %q", ct)
	}

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Ledger")
	if err != nil {
		t.Fatalf("Failed to read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header, 1 entry and total, got %d rows", len(rows))
	}
	if rows[1][3] != entity.TransactionTypeIn {
		t.Errorf("Expected IN entry, got %v", rows[1])
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/inventory-transactions/export?date_from=yesterday", nil, testutil.TokenFor(u.manager))
	expectStatus(t, w.Code, http.StatusBadRequest, w.Body.String())
}

func TestReconcileEndpoint(t *testing.T) {
	env, u := setupMaintenanceTest(t)
	part := testutil.SeedSparePart(t, env.DB, 6, 0, "")

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/spare-parts/"+part.ID+"/reconcile", nil, testutil.TokenFor(u.inventory))
	expectStatus(t, w.Code, http.StatusOK, w.Body.String())
	data := dataOf(t, testutil.ParseResponse(w))
	if data["drift"] != float64(0) || data["ledger_stock"] != float64(6) {
		t.Errorf("Unexpected reconcile result: %v", data)
	}
}
