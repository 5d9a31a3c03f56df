package serverconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "inky.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
web:
  addr: ":9090"
  api_timeout: 3s
  cors_origins: ["http://a.test"]
devapi:
  db_path: /tmp/inky-test.db
  login_limit: 3
`), 0o600))

	t.Setenv("INKY_WEB_ADDR", ":7070")
	t.Setenv("INKY_CORS_ORIGINS", "http://b.test, http://c.test")
	t.Setenv("INKY_LOGIN_WINDOW", "not-a-duration")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":7070", cfg.Web.Addr)
	assert.Equal(t, 3*time.Second, cfg.Web.APITimeout)
	assert.Equal(t, []string{"http://b.test", "http://c.test"}, cfg.Web.CORSOrigins)
	assert.Equal(t, "/tmp/inky-test.db", cfg.DevAPI.DBPath)
	assert.Equal(t, 3, cfg.DevAPI.LoginLimit)
	assert.Equal(t, 15*time.Minute, cfg.DevAPI.LoginWindow)
	assert.Equal(t, "http://localhost:3000/api/v1", cfg.Web.APIURL)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("INKY_API_URL=http://api.test/v1\n"), 0o600))
	t.Setenv("INKY_API_URL", "")
	os.Unsetenv("INKY_API_URL")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://api.test/v1", cfg.Web.APIURL)
}

func TestProductionNeedsSecret(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("INKY_ENV", "production")
	_, err := Load("")
	assert.Error(t, err)
}

func TestUploadSettingsFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "inky.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
web:
  upload_url: http://img.test/upload
  upload_preset: covers
`), 0o600))
	t.Setenv("INKY_UPLOAD_PRESET", "avatars")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://img.test/upload", cfg.Web.UploadURL)
	assert.Equal(t, "avatars", cfg.Web.UploadPreset)
}
