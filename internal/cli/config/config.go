// Package config persists the CLI's connection: which API server it talks
// to and the session cookie from the last login.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DirName  = ".inky"
	FileName = "config.yaml"

	mainServer = "main"
)

type Config struct {
	Version       int               `yaml:"version"`
	DefaultServer string            `yaml:"default_server"`
	Servers       map[string]Server `yaml:"servers"`
	Preferences   map[string]string `yaml:"preferences,omitempty"`
	Upload        Upload            `yaml:"upload,omitempty"`
}

// Upload is the image host that cover and avatar files are sent to before
// their URL is saved on the space, thread or profile.
type Upload struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	Preset   string `yaml:"preset,omitempty"`
}

// Server is one saved API endpoint together with the session cookie
// issued by its login call.
type Server struct {
	URL         string `yaml:"url"`
	Session     string `yaml:"session,omitempty"`
	UserID      string `yaml:"user_id,omitempty"`
	UserName    string `yaml:"user_name,omitempty"`
	Role        string `yaml:"role,omitempty"`
	ConnectedAt string `yaml:"connected_at"`
}

// In returns the config file kept inside dir.
func In(dir string) string {
	return filepath.Join(dir, DirName, FileName)
}

// Path returns the nearest config found walking up from the working
// directory, or the one under the home directory. The home directory is
// never treated as a project.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if wd, err := os.Getwd(); err == nil {
		for dir := wd; ; dir = filepath.Dir(dir) {
			if dir != home {
				if st, err := os.Stat(In(dir)); err == nil && !st.IsDir() {
					return In(dir), nil
				}
			}
			if filepath.Dir(dir) == dir {
				break
			}
		}
	}
	return In(home), nil
}

func Load() (*Config, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(p)
}

// LoadFromPath reads p. A missing file yields an empty configuration.
func LoadFromPath(p string) (*Config, error) {
	c := &Config{}
	b, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
		c.Preferences = map[string]string{"default_format": "table"}
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
	}
	c.normalize()
	return c, nil
}

func (c *Config) normalize() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.DefaultServer == "" {
		c.DefaultServer = mainServer
	}
	if c.Servers == nil {
		c.Servers = map[string]Server{}
	}
}

func Save(c *Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	return SaveToPath(c, p)
}

// SaveToPath replaces p through a rename so a crash never leaves half a
// session on disk.
func SaveToPath(c *Config, p string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, FileName+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// SetDefault points the CLI at url. The saved login survives only when the
// url is unchanged.
func (c *Config) SetDefault(url string) {
	c.normalize()
	next := Server{URL: url, ConnectedAt: time.Now().UTC().Format(time.RFC3339)}
	if prev := c.Servers[mainServer]; prev.URL == url {
		next.Session, next.UserID, next.UserName, next.Role = prev.Session, prev.UserID, prev.UserName, prev.Role
	}
	c.Servers[mainServer] = next
	c.DefaultServer = mainServer
}

// SetSession records the session cookie and the logged in user on the
// default server.
func (c *Config) SetSession(session, userID, userName, role string) {
	c.update(func(s *Server) {
		s.Session, s.UserID, s.UserName, s.Role = session, userID, userName, role
	})
}

// ClearSession forgets the login but keeps the server url.
func (c *Config) ClearSession() {
	c.update(func(s *Server) { *s = Server{URL: s.URL, ConnectedAt: s.ConnectedAt} })
}

func (c *Config) update(fn func(*Server)) {
	s, ok := c.Servers[c.DefaultServer]
	if !ok {
		return
	}
	fn(&s)
	c.Servers[c.DefaultServer] = s
}

func (c *Config) ClearDefault() {
	delete(c.Servers, c.DefaultServer)
}

func (c *Config) Default() (Server, bool) {
	s, ok := c.Servers[c.DefaultServer]
	return s, ok
}

// Uploads returns the image host. INKY_UPLOAD_URL and INKY_UPLOAD_PRESET
// override the saved values.
func (c *Config) Uploads() Upload {
	up := c.Upload
	if v := strings.TrimSpace(os.Getenv("INKY_UPLOAD_URL")); v != "" {
		up.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("INKY_UPLOAD_PRESET")); v != "" {
		up.Preset = v
	}
	return up
}

func (c *Config) Preference(key, fallback string) string {
	if v := c.Preferences[key]; v != "" {
		return v
	}
	return fallback
}
