package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "admin_token", cfg.Session.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Events.Enabled())
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "admin.yaml")
	content := []byte(`
db:
  driver: sqlite
  path: /tmp/tree.db
session:
  ttl: 2h
mail:
  provider: ses
  from: noreply@familytree.com
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "/tmp/tree.db", cfg.DB.GetDSN())
	assert.Equal(t, 90*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "ses", cfg.Mail.Provider)
	assert.Equal(t, "noreply@familytree.com", cfg.Mail.From)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	// untouched keys keep their defaults
	assert.Equal(t, "members", cfg.Upload.Folder)
}

func TestLoadRejectsDefaultKeyInProduction(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SESSION_SIGNING_KEY", "a-real-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Server.IsProduction())
}

func TestGetDSN(t *testing.T) {
	pg := DBConfig{Driver: "postgres", Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", pg.GetDSN())

	my := DBConfig{Driver: "mysql", Host: "db", Port: "3306", User: "u", Password: "p", DBName: "n"}
	assert.Equal(t, "u:p@tcp(db:3306)/n?charset=utf8mb4&parseTime=True&loc=UTC", my.GetDSN())
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, (&DBConfig{LogLevel: "silent"}).GormLogLevel())
	assert.Equal(t, logger.Info, (&DBConfig{LogLevel: "info"}).GormLogLevel())
	assert.Equal(t, logger.Warn, (&DBConfig{LogLevel: "bogus"}).GormLogLevel())
}
