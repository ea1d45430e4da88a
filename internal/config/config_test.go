package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[server]
http_port = 8085

[database]
host = "localhost"
user = "scheduling"
password = "from-file"
dbname = "scheduling"

[auth]
jwt_secret = "secret"

[redis]
enabled = true
address = "localhost:6379"

[generation]
slot_duration_minutes = 30
horizon_days = 14
job_enabled = true
cron = "*/30 * * * *"
cron_timezone = "Europe/Moscow"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 8085, cfg.Server.HTTPPort)
	assert.Equal(t, 15, cfg.Server.ShutdownTimeout, "default kept")
	assert.Equal(t, 30, cfg.Generation.SlotDurationMinutes)
	assert.Equal(t, 14, cfg.Generation.HorizonDays)
	assert.Equal(t, "*/30 * * * *", cfg.Generation.Cron)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Contains(t, cfg.Database.DSN(), "dbname=scheduling")
}

func TestLoad_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("DB_PASSWORD", "from-env")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, `
[server]
http_port = 0
[generation]
horizon_days = 0
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.http_port")
	assert.Contains(t, err.Error(), "generation.horizon_days")
	assert.Contains(t, err.Error(), "auth.jwt_secret")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
