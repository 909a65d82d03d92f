package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mind-engage/mindengage-qti/internal/qti"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DEFAULT_QTI_VERSION", "REQUIRE_AUTH", "CORS_ORIGINS", "MAX_UPLOAD_MB"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	assert.Equal(t, ModeOffline, c.Mode)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, qti.V21, c.DefaultQTIVersion)
	assert.False(t, c.RequireAuth)
	assert.Equal(t, int64(20<<20), c.MaxUploadBytes)
	assert.Contains(t, c.CORSOrigins, "http://localhost:3000")
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("DEFAULT_QTI_VERSION", "3.0")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("MAX_UPLOAD_MB", "bogus")
	t.Setenv("REQUIRE_AUTH", "")
	c := FromEnv()
	assert.Equal(t, ModeOnline, c.Mode)
	assert.True(t, c.RequireAuth)
	assert.Equal(t, qti.V30, c.DefaultQTIVersion)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins)
	assert.Equal(t, int64(20<<20), c.MaxUploadBytes)
}

func TestFromEnv_BadVersionFallsBack(t *testing.T) {
	t.Setenv("DEFAULT_QTI_VERSION", "9.9")
	assert.Equal(t, qti.V21, FromEnv().DefaultQTIVersion)
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	assert.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=:9191\n"), 0o600))
	t.Setenv("HTTP_ADDR", "")
	os.Unsetenv("HTTP_ADDR")
	assert.Equal(t, ":9191", Load(path).HTTPAddr)
}
