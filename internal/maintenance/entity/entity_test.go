package entity

import "testing"

func TestCalculateStockStatus(t *testing.T) {
	max := 20
	tests := []struct {
		name     string
		current  int
		minimum  int
		maximum  *int
		expected string
	}{
		{"below minimum", 4, 5, nil, StockStatusCritical},
		{"under one and a half minimum", 7, 5, nil, StockStatusLow},
		{"exactly one and a half minimum", 15, 10, nil, StockStatusAdequate},
		{"above maximum", 25, 5, &max, StockStatusExcess},
		{"adequate", 10, 5, &max, StockStatusAdequate},
		{"no thresholds", 0, 0, nil, StockStatusAdequate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateStockStatus(tt.current, tt.minimum, tt.maximum); got != tt.expected {
				t.Errorf("CalculateStockStatus(%d, %d) = %s, want %s", tt.current, tt.minimum, got, tt.expected)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{PartsRequestStatusPending, PartsRequestStatusApproved},
		{PartsRequestStatusPending, PartsRequestStatusRejected},
		{PartsRequestStatusApproved, PartsRequestStatusIssued},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Errorf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}

	denied := [][2]string{
		{PartsRequestStatusApproved, PartsRequestStatusRejected},
		{PartsRequestStatusRejected, PartsRequestStatusApproved},
		{PartsRequestStatusIssued, PartsRequestStatusPending},
		{PartsRequestStatusPending, PartsRequestStatusIssued},
	}
	for _, pair := range denied {
		if CanTransition(pair[0], pair[1]) {
			t.Errorf("expected %s -> %s to be rejected", pair[0], pair[1])
		}
	}
}

func TestActorHasRole(t *testing.T) {
	tech := Actor{UserID: "u1", Roles: []string{RoleMaintenanceTech}}
	if !tech.HasRole(RoleMaintenanceTech) {
		t.Error("tech should hold MAINTENANCE_TECH")
	}
	if tech.HasRole(RoleInventoryManager) {
		t.Error("tech should not hold INVENTORY_MANAGER")
	}

	admin := Actor{UserID: "a1", Roles: []string{RoleAdmin}}
	if !admin.HasRole(RoleInventoryManager) || !admin.IsAdmin() {
		t.Error("admin should pass every role check")
	}
	if !tech.HasAnyRole(RoleInventoryManager, RoleMaintenanceTech) {
		t.Error("HasAnyRole should match one of the roles")
	}
}
