package config

import (
	"os"
	"path/filepath"
	"testing"
)

// chdir moves into dir with HOME pointed at home for the rest of the test.
func chdir(t *testing.T, home, dir string) {
	t.Helper()
	t.Setenv("HOME", home)
	for _, d := range []string{home, dir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func touch(t *testing.T, p string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte("version: 1\n"), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
}

func TestPathLookup(t *testing.T) {
	root := t.TempDir()
	home := filepath.Join(root, "home")
	project := filepath.Join(root, "project")
	deep := filepath.Join(project, "a", "b")

	chdir(t, home, deep)
	if got, _ := Path(); got != In(home) {
		t.Fatalf("without a project config, Path() = %q", got)
	}

	touch(t, In(project))
	touch(t, In(filepath.Join(project, "a")))
	if got, _ := Path(); got != In(filepath.Join(project, "a")) {
		t.Fatalf("nearest project config not chosen: %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	c, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if c.Version != 1 || c.DefaultServer != "main" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if got := c.Preference("default_format", "json"); got != "table" {
		t.Fatalf("default_format = %q", got)
	}
	if _, ok := c.Default(); ok {
		t.Fatalf("fresh config should have no server")
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(p, []byte("servers: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFromPath(p); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSessionSurvivesReconnectToSameServer(t *testing.T) {
	p := In(t.TempDir())
	c, _ := LoadFromPath(p)
	c.SetDefault("http://localhost:3000/api/v1")
	c.SetSession("s%3Aabc", "u1", "Ada", "O")
	if err := SaveToPath(c, p); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}
	if st, err := os.Stat(p); err != nil || st.Mode().Perm() != 0o600 {
		t.Fatalf("config should be private: %v %v", st, err)
	}

	again, err := LoadFromPath(p)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	s, ok := again.Default()
	if !ok || s.Session != "s%3Aabc" || s.UserName != "Ada" || s.Role != "O" {
		t.Fatalf("unexpected server: %+v", s)
	}

	again.SetDefault("http://localhost:3000/api/v1")
	if s, _ := again.Default(); s.Session != "s%3Aabc" {
		t.Fatalf("same url should keep the session, got %+v", s)
	}
	again.SetDefault("http://other:3000/api/v1")
	if s, _ := again.Default(); s.Session != "" || s.URL != "http://other:3000/api/v1" {
		t.Fatalf("new url should drop the session, got %+v", s)
	}
}

func TestClearSessionAndDefault(t *testing.T) {
	c := &Config{}
	c.SetDefault("http://x")
	c.SetSession("tok", "u1", "Ada", "U")
	c.ClearSession()
	s, ok := c.Default()
	if !ok || s.URL != "http://x" || s.Session != "" || s.Role != "" || s.ConnectedAt == "" {
		t.Fatalf("unexpected server after ClearSession: %+v", s)
	}
	c.ClearDefault()
	if _, ok := c.Default(); ok {
		t.Fatalf("server should be gone")
	}
	c.SetSession("tok", "u1", "Ada", "U")
	if len(c.Servers) != 0 {
		t.Fatalf("SetSession without a server must not create one")
	}
}

func TestUploadsEnvOverridesFile(t *testing.T) {
	t.Setenv("INKY_UPLOAD_URL", "")
	t.Setenv("INKY_UPLOAD_PRESET", "")
	p := In(t.TempDir())
	c, _ := LoadFromPath(p)
	c.Upload = Upload{Endpoint: "http://img.local/upload", Preset: "covers"}
	if err := SaveToPath(c, p); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}
	again, err := LoadFromPath(p)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := again.Uploads(); got != c.Upload {
		t.Fatalf("Uploads() = %+v", got)
	}

	t.Setenv("INKY_UPLOAD_URL", "http://other/upload")
	if got := again.Uploads(); got.Endpoint != "http://other/upload" || got.Preset != "covers" {
		t.Fatalf("env should override the endpoint only: %+v", got)
	}
}
