package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("DB_HOST", "")
	t.Setenv("PORT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.MaxLifetime)
	assert.Equal(t, "X-User-ID", cfg.Auth.IdentityHeader)
	assert.Equal(t, []string{"http://localhost:4200"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_MAX_OPEN_CONNS", "50")
	t.Setenv("SERVER_READ_TIMEOUT", "2s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DB_AUTO_MIGRATE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Database.AutoMigrate)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("DB_MAX_IDLE_CONNS", "many")
	t.Setenv("SERVER_WRITE_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Host: "db", Name: "conduit"},
		Auth:     AuthConfig{IdentityHeader: "X-User-ID"},
	}
	assert.NoError(t, cfg.Validate())

	cfg.Database.Name = ""
	assert.Error(t, cfg.Validate())

	cfg.Database.Name = "conduit"
	cfg.Auth.IdentityHeader = ""
	assert.Error(t, cfg.Validate())
}

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{Host: "h", Port: "1", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=n sslmode=disable", db.GetDSN())
}
