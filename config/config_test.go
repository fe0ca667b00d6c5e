package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hotel-booking/models"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
database:
  type: sqlite
  sqlite_path: from-yaml.db
session:
  secret: `+secret+`
rate_limit:
  limit: 5
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("SESSION_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "from-yaml.db", cfg.Database.SQLitePath)
	assert.Equal(t, 5, cfg.RateLimit.Limit)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	assert.Error(t, cfg.Validate(), "missing secret")

	cfg.Session.Secret = "short"
	assert.Error(t, cfg.Validate())

	cfg.Session.Secret = secret
	cfg.Database.Type = "oracle"
	assert.Error(t, cfg.Validate())

	cfg.Database.Type = "postgres"
	assert.NoError(t, cfg.Validate())
}

func TestMySQLDSNFromURL(t *testing.T) {
	dsn, err := mysqlDSNFromURL("mysql://u:p@db.local/hotel")
	require.NoError(t, err)
	assert.Contains(t, dsn, "u:p@tcp(db.local:3306)/hotel?")
	assert.Contains(t, dsn, "parseTime=True")

	_, err = mysqlDSNFromURL("mysql://u:p@db.local/")
	assert.Error(t, err)
}

func newSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))
	return db
}

func TestSeedDatabase_Idempotent(t *testing.T) {
	db := newSQLite(t)
	require.NoError(t, SeedDatabase(db, zap.NewNop()))
	require.NoError(t, SeedDatabase(db, zap.NewNop()))

	var admins, types int64
	db.Model(&models.Admin{}).Count(&admins)
	db.Model(&models.RoomType{}).Count(&types)
	assert.Equal(t, int64(1), admins)
	assert.Equal(t, int64(4), types)
}

func TestUpsertAdmin_ResetsPassword(t *testing.T) {
	db := newSQLite(t)
	first, err := UpsertAdmin(db, " Boss@Hotel.Local ", "secret-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "boss@hotel.local", first.Email)

	require.NoError(t, db.Model(first).Update("is_active", false).Error)
	_, err = UpsertAdmin(db, "boss@hotel.local", "secret-2", nil)
	require.NoError(t, err)

	var got models.Admin
	require.NoError(t, db.First(&got, first.ID).Error)
	assert.True(t, got.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("secret-2")))
}
