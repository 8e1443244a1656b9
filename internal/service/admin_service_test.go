package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAdmin(t *testing.T, f *fixture, email, role string) *model.Admin {
	t.Helper()
	admin, err := f.svc.Admins.Create(context.Background(), f.actor, AdminInput{
		Email: email, Password: "Admin@123", FirstName: "Ada", LastName: "Min", Role: role,
	})
	require.NoError(t, err)
	return admin
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := seedAdmin(t, f, "Ops@FamilyTree.com", model.RoleAdmin)
	assert.Equal(t, "ops@familytree.com", admin.Email)

	got, token, err := f.svc.Auth.Login(ctx, "ops@familytree.com", "Admin@123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NotNil(t, got.LastLogin)

	authed, err := f.svc.Auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, authed.ID)

	_, _, err = f.svc.Auth.Login(ctx, "ops@familytree.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = f.svc.Auth.Login(ctx, "nobody@familytree.com", "Admin@123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = f.svc.Auth.Login(ctx, "", "")
	assert.EqualError(t, err, "Email and password are required")

	_, err = f.svc.Auth.Authenticate(ctx, "not-a-token")
	assert.Error(t, err)
}

func TestDeactivatedAdminCannotLogIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := seedAdmin(t, f, "ops@familytree.com", model.RoleAdmin)

	_, token, err := f.svc.Auth.Login(ctx, admin.Email, "Admin@123")
	require.NoError(t, err)

	require.NoError(t, f.svc.Admins.Deactivate(ctx, f.actor, admin.ID))

	_, _, err = f.svc.Auth.Login(ctx, admin.Email, "Admin@123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Auth.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	var stored model.Admin
	require.NoError(t, f.db.First(&stored, admin.ID).Error)
	assert.False(t, stored.IsActive)
}

func TestAdminSelfProtection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := seedAdmin(t, f, "ops@familytree.com", model.RoleSuperAdmin)
	self := ActorFrom(admin)

	err := f.svc.Admins.Deactivate(ctx, self, admin.ID)
	assert.EqualError(t, err, "You cannot deactivate your own account")

	_, err = f.svc.Admins.Update(ctx, self, AdminUpdate{AdminID: admin.ID, IsActive: boolp(false)})
	assert.EqualError(t, err, "You cannot deactivate your own account")

	assert.ErrorIs(t, f.svc.Admins.Deactivate(ctx, self, 999), ErrNotFound)
}

func TestAdminCreateAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := seedAdmin(t, f, "a@familytree.com", model.RoleAdmin)
	seedAdmin(t, f, "b@familytree.com", model.RoleAdmin)

	_, err := f.svc.Admins.Create(ctx, f.actor, AdminInput{Email: "A@familytree.com", Password: "x", FirstName: "A", LastName: "B", Role: model.RoleAdmin})
	var dup *DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "Admin with this email already exists", dup.Message)

	_, err = f.svc.Admins.Create(ctx, f.actor, AdminInput{Email: "c@familytree.com", Password: "x", FirstName: "A", LastName: "B", Role: "owner"})
	asValidation(t, err)

	_, err = f.svc.Admins.Update(ctx, f.actor, AdminUpdate{AdminID: a.ID, Email: strp("b@familytree.com")})
	assert.EqualError(t, err, "Another admin with this email already exists")

	updated, err := f.svc.Admins.Update(ctx, f.actor, AdminUpdate{AdminID: a.ID, Role: strp(model.RoleSuperAdmin), Password: strp("N3w-pass")})
	require.NoError(t, err)
	assert.Equal(t, model.RoleSuperAdmin, updated.Role)

	_, _, err = f.svc.Auth.Login(ctx, "a@familytree.com", "N3w-pass")
	assert.NoError(t, err)

	_, err = f.svc.Admins.Update(ctx, f.actor, AdminUpdate{AdminID: 999})
	assert.EqualError(t, err, "Admin not found")
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := AdminInput{Email: "root@familytree.com", Password: "first", FirstName: "Super", LastName: "Admin", Role: model.RoleSuperAdmin}

	admin, created, err := f.svc.Auth.EnsureAdmin(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)

	require.NoError(t, f.db.Model(admin).Update("is_active", false).Error)

	in.Password = "second"
	again, created, err := f.svc.Auth.EnsureAdmin(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)

	_, _, err = f.svc.Auth.Login(ctx, in.Email, "second")
	assert.NoError(t, err)
	_, _, err = f.svc.Auth.Login(ctx, in.Email, "first")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
