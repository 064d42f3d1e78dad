package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: dev
postgres:
  dsn: postgres://u:p@localhost:5432/station?sslmode=disable
station:
  reopen_password: "12345"
  printer: zebra
telegram:
  admin_chat_id: 42
`), 0o644))

	t.Setenv("APP_STATION_PRINTER", "tsc")
	t.Chdir(dir)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, "postgres://u:p@localhost:5432/station?sslmode=disable", c.Postgres.DSN)
	assert.Equal(t, "12345", c.Station.ReopenPassword)
	assert.Equal(t, "tsc", c.Station.Printer, "env overrides file")
	assert.Equal(t, int64(42), c.Telegram.AdminChatID)

	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.True(t, c.Metrics.Enabled)
	assert.Equal(t, "labels", c.Station.OutputDir)
	assert.False(t, c.Station.NoPrint)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
