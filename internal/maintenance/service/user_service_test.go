package service

import (
	"testing"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.User.Create(f.ctx, actorOf(f.manager), &CreateUserRequest{Username: "j_doe", FullName: "Jane Doe", Role: "supervisor"})
	assert.ErrorIs(t, err, ErrForbidden)

	user, err := f.svc.User.Create(f.ctx, actorOf(f.admin), &CreateUserRequest{Username: "j_doe", FullName: "Jane Doe", Role: "supervisor"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleSupervisor, user.Role)
	assert.True(t, user.IsActive)
	assert.Equal(t, []string{entity.ActionCreate}, f.auditActions(t, entity.EntityUser, user.ID))

	_, err = f.svc.User.Create(f.ctx, actorOf(f.admin), &CreateUserRequest{Username: "j_doe", FullName: "John Doe", Role: "SUPERVISOR"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.EqualError(t, err, "The username 'j_doe' is already taken")

	tests := []struct {
		name string
		req  CreateUserRequest
	}{
		{"short username", CreateUserRequest{Username: "jd", FullName: "Jane Doe", Role: "ADMIN"}},
		{"username with spaces", CreateUserRequest{Username: "jane doe", FullName: "Jane Doe", Role: "ADMIN"}},
		{"one letter name", CreateUserRequest{Username: "jane_d", FullName: "J", Role: "ADMIN"}},
		{"unknown role", CreateUserRequest{Username: "jane_d", FullName: "Jane Doe", Role: "OPERATOR"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.User.Create(f.ctx, actorOf(f.admin), &tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	user := testutil.SeedUser(t, f.db, entity.RoleMaintenanceTech)

	role, name := "maintenance_manager", "Promoted Tech"
	updated, err := f.svc.User.Update(f.ctx, actorOf(f.admin), user.ID, &UpdateUserRequest{Role: &role, FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleMaintenanceManager, updated.Role)
	assert.Equal(t, "Promoted Tech", updated.FullName)

	taken := f.tech.Username
	_, err = f.svc.User.Update(f.ctx, actorOf(f.admin), user.ID, &UpdateUserRequest{Username: &taken})
	assert.ErrorIs(t, err, ErrInvalidInput)

	same := user.Username
	_, err = f.svc.User.Update(f.ctx, actorOf(f.admin), user.ID, &UpdateUserRequest{Username: &same})
	assert.NoError(t, err)

	demote := entity.RoleSupervisor
	_, err = f.svc.User.Update(f.ctx, actorOf(f.admin), f.admin.ID, &UpdateUserRequest{Role: &demote})
	assert.ErrorIs(t, err, ErrInvalidInput)

	off := false
	_, err = f.svc.User.Update(f.ctx, actorOf(f.admin), f.admin.ID, &UpdateUserRequest{IsActive: &off})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.User.Update(f.ctx, actorOf(f.admin), "missing", &UpdateUserRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeactivateUser(t *testing.T) {
	f := newFixture(t)
	user := testutil.SeedUser(t, f.db, entity.RoleSupervisor)

	assert.ErrorIs(t, f.svc.User.Deactivate(f.ctx, actorOf(f.manager), user.ID), ErrForbidden)
	err := f.svc.User.Deactivate(f.ctx, actorOf(f.admin), f.admin.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.EqualError(t, err, "Cannot delete your own account")

	require.NoError(t, f.svc.User.Deactivate(f.ctx, actorOf(f.admin), user.ID))
	stored, err := f.svc.User.Get(f.ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, []string{entity.ActionDelete}, f.auditActions(t, entity.EntityUser, user.ID))

	inactive := false
	items, total, err := f.svc.User.List(f.ctx, repository.UserListParams{IsActive: &inactive})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, user.ID, items[0].ID)

	items, total, err = f.svc.User.List(f.ctx, repository.UserListParams{Role: entity.RoleInventoryManager})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, f.inventory.ID, items[0].ID)
}
