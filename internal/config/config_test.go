package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/associates/internal/config"
	"github.com/msomdec/associates/internal/domain"
)

func writeProperties(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.properties")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_PropertiesFile(t *testing.T) {
	path := writeProperties(t, `hostname=db.internal
port=3306
dbname=training
username=admin
password=s3cret
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.DriverPostgres, cfg.Driver)
	assert.Equal(t, "db.internal", cfg.Hostname)
	assert.Equal(t, 3306, cfg.Port)
	assert.Equal(t, "training", cfg.DBName)
	assert.Equal(t, "admin", cfg.Username)
	assert.Equal(t, "s3cret", cfg.Password)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogSQL)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeProperties(t, `hostname=db.internal
port=5432
dbname=training
username=admin
password=s3cret
`)
	t.Setenv("ASSOCIATES_HOSTNAME", "db.override")
	t.Setenv("ASSOCIATES_LOG_SQL", "true")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.override", cfg.Hostname)
	assert.Equal(t, "admin", cfg.Username)
	assert.True(t, cfg.LogSQL)
}

func TestLoad_EnvironmentOnly(t *testing.T) {
	t.Setenv("ASSOCIATES_DRIVER", "sqlite")
	t.Setenv("ASSOCIATES_DBNAME", "associates.db")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.DriverSQLite, cfg.Driver)
	assert.Equal(t, "associates.db", cfg.DBName)
}

func TestLoad_MissingValues(t *testing.T) {
	path := writeProperties(t, "hostname=db.internal\n")

	_, err := config.Load(path)
	require.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "dbname")
	assert.Contains(t, err.Error(), "port")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.properties"))
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("ASSOCIATES_DRIVER", "mariadb")
	t.Setenv("ASSOCIATES_DBNAME", "training")

	_, err := config.Load("")
	require.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "driver")
}

func TestConnectionString(t *testing.T) {
	cfg := &config.Config{
		Driver:   config.DriverPostgres,
		Hostname: "localhost",
		Port:     5432,
		DBName:   "training",
		Username: "admin",
		Password: "s3cret",
	}

	want := "postgres://localhost:5432/training?user=admin&password=s3cret"
	assert.Equal(t, want, cfg.ConnectionString())
	assert.Equal(t, want, cfg.ConnectionString(), "must be reproducible")
	assert.Equal(t, "postgres://localhost:5432/training?user=admin&password=xxxxx", cfg.Redacted())
}

func TestConnectionString_EscapesCredentials(t *testing.T) {
	cfg := &config.Config{
		Driver:   config.DriverPostgres,
		Hostname: "localhost",
		Port:     5432,
		DBName:   "training",
		Username: "ad min",
		Password: "p&ss=word",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"postgres://localhost:5432/training?user=ad+min&password=p%26ss%3Dword&sslmode=disable",
		cfg.ConnectionString())
}

func TestConnectionString_EscapesDBName(t *testing.T) {
	cfg := &config.Config{
		Driver:   config.DriverPostgres,
		Hostname: "localhost",
		Port:     5432,
		DBName:   "train/ing?x",
		Username: "admin",
		Password: "s3cret",
	}

	assert.Equal(t, "postgres://localhost:5432/train%2Fing%3Fx?user=admin&password=s3cret", cfg.ConnectionString())
}

func TestTarget(t *testing.T) {
	pg := &config.Config{
		Driver:   config.DriverPostgres,
		Hostname: "localhost",
		Port:     5432,
		DBName:   "training",
		Username: "admin",
		Password: "s3cret",
	}
	assert.Equal(t, pg.Redacted(), pg.Target())
	assert.NotContains(t, pg.Target(), "s3cret")

	lite := &config.Config{Driver: config.DriverSQLite, DBName: "associates.db"}
	assert.Equal(t, "associates.db", lite.Target())
}
