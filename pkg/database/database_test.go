package database

import (
	"context"
	"testing"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/Rashmi7205/admin-fam-tree/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := Open(&config.DBConfig{
		Driver:       "sqlite",
		Path:         "file:database_test?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Migrate(db))
	require.NoError(t, Ping(context.Background(), db))

	for _, m := range model.All() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
	assert.True(t, db.Migrator().HasIndex(&model.MemberLink{}, "idx_member_link"))
}

func TestOpenTranslatesUniqueViolations(t *testing.T) {
	db, err := Open(&config.DBConfig{
		Driver:       "sqlite",
		Path:         "file:database_unique_test?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	defer Close(db)
	require.NoError(t, Migrate(db))

	require.NoError(t, db.Create(&model.Admin{Email: "ops@familytree.com", Role: model.RoleAdmin}).Error)
	err = db.Create(&model.Admin{Email: "ops@familytree.com", Role: model.RoleAdmin}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(&config.DBConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestMigrateNil(t *testing.T) {
	assert.Error(t, Migrate(nil))
}
