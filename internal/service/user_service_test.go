package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/Rashmi7205/admin-fam-tree/pkg/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserCreateProvisionsIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.Users.Create(ctx, f.actor, UserInput{
		Email:       " Jane@Example.com ",
		Password:    "secret",
		DisplayName: "Jane",
		Profile:     &model.Profile{Occupation: "Pilot"},
		Address:     &model.Address{Country: "NZ"},
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, "uid-jane@example.com", user.UID)
	assert.Equal(t, model.ProviderEmail, user.Provider)
	assert.Equal(t, "user", user.Role)
	assert.True(t, user.IsActive)
	assert.Equal(t, []string{"create:jane@example.com"}, f.identity.calls)

	reloaded, err := f.svc.Users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pilot", reloaded.Profile.Data().Occupation)
	assert.Equal(t, "NZ", reloaded.Address.Country)

	_, err = f.svc.Users.Create(ctx, f.actor, UserInput{Email: "jane@example.com", Password: "x"})
	var dup *DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "User with this email already exists", dup.Message)
	assert.Len(t, f.identity.calls, 1)
}

func TestUserCreateIdentityFailure(t *testing.T) {
	f := newFixture(t)
	f.identity.createErr = errors.New("quota exceeded")

	_, err := f.svc.Users.Create(context.Background(), f.actor, UserInput{Email: "a@b.c", Password: "x"})
	var xerr *ExternalError
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, "Failed to create user in identity provider", xerr.Message)

	var n int64
	require.NoError(t, f.db.Model(&model.User{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUserCreateRollsBackIdentityOnInsertFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.db.Callback().Create().Before("gorm:create").Register("test:fail_users", func(db *gorm.DB) {
		if db.Statement.Table == "users" {
			_ = db.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	_, err = f.svc.Users.Create(ctx, f.actor, UserInput{Email: "a@b.c", Password: "x"})
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, []string{"create:a@b.c", "delete:uid-a@b.c"}, f.identity.calls)
}

func TestUserCreateLosesEmailRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// another writer takes the email between the lookup and the insert
	raced := false
	err := f.db.Callback().Create().Before("gorm:create").Register("test:race_users", func(db *gorm.DB) {
		if db.Statement.Table != "users" || raced {
			return
		}
		raced = true
		if _, err := db.Statement.ConnPool.ExecContext(db.Statement.Context,
			"INSERT INTO users (email) VALUES (?)", "a@b.c"); err != nil {
			_ = db.AddError(err)
		}
	})
	require.NoError(t, err)

	_, err = f.svc.Users.Create(ctx, f.actor, UserInput{Email: "a@b.c", Password: "x"})
	var dup *DuplicateError
	require.True(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, "User with this email already exists", dup.Message)
	assert.Equal(t, []string{"create:a@b.c", "delete:uid-a@b.c"}, f.identity.calls)
}

func TestUserDeleteOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.Users.Create(ctx, f.actor, UserInput{Email: "a@b.c", Password: "x"})
	require.NoError(t, err)

	f.identity.deleteErr = errors.New("provider down")
	err = f.svc.Users.Delete(ctx, f.actor, user.ID)
	var xerr *ExternalError
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, "Failed to delete user from identity provider", xerr.Message)
	_, err = f.svc.Users.Get(ctx, user.ID)
	require.NoError(t, err, "row is kept when the provider call fails")

	f.identity.deleteErr = fmt.Errorf("lookup: %w", identity.ErrAccountNotFound)
	require.NoError(t, f.svc.Users.Delete(ctx, f.actor, user.ID))
	_, err = f.svc.Users.Get(ctx, user.ID)
	assert.EqualError(t, err, "User not found")

	assert.Equal(t, []string{"create:a@b.c", "delete:uid-a@b.c", "delete:uid-a@b.c"}, f.identity.calls)
}

func TestUserUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.Users.Create(ctx, f.actor, UserInput{Email: "a@b.c", Password: "x"})
	require.NoError(t, err)
	_, err = f.svc.Users.Create(ctx, f.actor, UserInput{Email: "d@e.f", Password: "x"})
	require.NoError(t, err)

	updated, err := f.svc.Users.Update(ctx, f.actor, UserUpdate{UserID: a.ID, DisplayName: strp(" Ann "), IsActive: boolp(false)})
	require.NoError(t, err)
	assert.Equal(t, "Ann", updated.DisplayName)
	assert.False(t, updated.IsActive)

	_, err = f.svc.Users.Update(ctx, f.actor, UserUpdate{UserID: a.ID, Email: strp("D@E.F")})
	assert.EqualError(t, err, "Another user with this email already exists")

	_, err = f.svc.Users.Update(ctx, f.actor, UserUpdate{UserID: 999})
	assert.EqualError(t, err, "User not found")
}
