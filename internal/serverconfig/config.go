// Package serverconfig loads settings for the inky-web and inky-devserver
// binaries: defaults, then an optional YAML file, then the environment
// (with a .env file loaded first).
package serverconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string       `yaml:"environment"`
	LogLevel    string       `yaml:"log_level"`
	LogFormat   string       `yaml:"log_format"`
	Web         WebConfig    `yaml:"web"`
	DevAPI      DevAPIConfig `yaml:"devapi"`
}

// WebConfig configures the page gateway.
type WebConfig struct {
	Addr            string        `yaml:"addr"`
	APIURL          string        `yaml:"api_url"`
	APITimeout      time.Duration `yaml:"api_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	UploadURL       string        `yaml:"upload_url"`
	UploadPreset    string        `yaml:"upload_preset"`
}

// DevAPIConfig configures the local API stand-in.
type DevAPIConfig struct {
	Addr          string        `yaml:"addr"`
	DBPath        string        `yaml:"db_path"`
	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	LoginLimit    int           `yaml:"login_limit"`
	LoginWindow   time.Duration `yaml:"login_window"`
	CORSOrigins   []string      `yaml:"cors_origins"`
}

func Default() Config {
	return Config{
		Environment: "development",
		LogLevel:    "info",
		LogFormat:   "text",
		Web: WebConfig{
			Addr:            ":8081",
			APIURL:          "http://localhost:3000/api/v1",
			APITimeout:      15 * time.Second,
			ReadTimeout:     10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		DevAPI: DevAPIConfig{
			Addr:        ":3000",
			DBPath:      "./inky.db",
			SessionTTL:  7 * 24 * time.Hour,
			LoginLimit:  10,
			LoginWindow: 15 * time.Minute,
		},
	}
}

// Load builds the configuration. yamlPath may be empty; a missing .env file
// is not an error.
func Load(yamlPath string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", yamlPath, err)
		}
	}
	applyEnv(&cfg)
	return cfg, validate(cfg)
}

func applyEnv(cfg *Config) {
	cfg.Environment = getEnv("INKY_ENV", cfg.Environment)
	cfg.LogLevel = getEnv("INKY_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("INKY_LOG_FORMAT", cfg.LogFormat)

	cfg.Web.Addr = getEnv("INKY_WEB_ADDR", cfg.Web.Addr)
	cfg.Web.APIURL = getEnv("INKY_API_URL", cfg.Web.APIURL)
	cfg.Web.APITimeout = getEnvAsDuration("INKY_API_TIMEOUT", cfg.Web.APITimeout)
	cfg.Web.CORSOrigins = getEnvAsSlice("INKY_CORS_ORIGINS", cfg.Web.CORSOrigins)
	cfg.Web.ReadTimeout = getEnvAsDuration("INKY_WEB_READ_TIMEOUT", cfg.Web.ReadTimeout)
	cfg.Web.ShutdownTimeout = getEnvAsDuration("INKY_SHUTDOWN_TIMEOUT", cfg.Web.ShutdownTimeout)
	cfg.Web.UploadURL = getEnv("INKY_UPLOAD_URL", cfg.Web.UploadURL)
	cfg.Web.UploadPreset = getEnv("INKY_UPLOAD_PRESET", cfg.Web.UploadPreset)

	cfg.DevAPI.Addr = getEnv("INKY_DEVAPI_ADDR", cfg.DevAPI.Addr)
	cfg.DevAPI.DBPath = getEnv("INKY_DEVAPI_DB", cfg.DevAPI.DBPath)
	cfg.DevAPI.SessionSecret = getEnv("INKY_SESSION_SECRET", cfg.DevAPI.SessionSecret)
	cfg.DevAPI.SessionTTL = getEnvAsDuration("INKY_SESSION_TTL", cfg.DevAPI.SessionTTL)
	cfg.DevAPI.LoginLimit = getEnvAsInt("INKY_LOGIN_LIMIT", cfg.DevAPI.LoginLimit)
	cfg.DevAPI.LoginWindow = getEnvAsDuration("INKY_LOGIN_WINDOW", cfg.DevAPI.LoginWindow)
	cfg.DevAPI.CORSOrigins = getEnvAsSlice("INKY_DEVAPI_CORS_ORIGINS", cfg.DevAPI.CORSOrigins)
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.Web.APIURL) == "" {
		return errors.New("web api_url must be set")
	}
	if cfg.Environment == "production" && cfg.DevAPI.SessionSecret == "" {
		return errors.New("session secret must be set outside development")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
