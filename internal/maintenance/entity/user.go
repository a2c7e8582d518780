package entity

import "time"

// Roles
const (
	RoleAdmin              = "ADMIN"
	RoleSupervisor         = "SUPERVISOR"
	RoleMaintenanceTech    = "MAINTENANCE_TECH"
	RoleMaintenanceManager = "MAINTENANCE_MANAGER"
	RoleInventoryManager   = "INVENTORY_MANAGER"
)

// User is a local account record. Credentials live with the identity provider; this table only
// keeps what the workflow needs to resolve names and roles.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Username  string    `json:"username" gorm:"size:50;uniqueIndex;not null"`
	FullName  string    `json:"full_name" gorm:"size:100;not null"`
	Role      string    `json:"role" gorm:"size:30;not null;default:MAINTENANCE_TECH"`
	IsActive  bool      `json:"is_active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Name   string
	Roles  []string
}

// HasRole reports whether the actor holds role. ADMIN holds every role.
func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role || r == RoleAdmin {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the actor holds at least one of roles.
func (a Actor) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if a.HasRole(role) {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool {
	for _, r := range a.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}
