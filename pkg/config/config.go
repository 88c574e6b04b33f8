// Package config loads the qtool configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/export"
)

// DefaultPath is the config file read when --config is not given
const DefaultPath = "qtool.yaml"

// Config is the root configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Editor    EditorConfig    `yaml:"editor"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port           string        `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Host           string        `yaml:"host"`
	Port           string        `yaml:"port"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	Name           string        `yaml:"name"`
	SSLMode        string        `yaml:"sslmode"`
	MaxOpen        int           `yaml:"max_open"`
	MaxIdle        int           `yaml:"max_idle"`
	HealthInterval time.Duration `yaml:"health_interval"`
}

// DSN returns the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type ArtifactsConfig struct {
	Dir string `yaml:"dir"`
	// ShareSecret signs download links; sharing is disabled when empty
	ShareSecret string        `yaml:"share_secret"`
	ShareTTL    time.Duration `yaml:"share_ttl"`
}

// SharingEnabled reports whether signed download links can be issued
func (a ArtifactsConfig) SharingEnabled() bool {
	return a.ShareSecret != ""
}

type EditorConfig struct {
	CanvasWidth   int    `yaml:"canvas_width"`
	CanvasHeight  int    `yaml:"canvas_height"`
	GridSize      int    `yaml:"grid_size"`
	DefaultPoints int    `yaml:"default_points"`
	ExportFormat  string `yaml:"export_format"`
	RenderScale   int    `yaml:"render_scale"`
	JoinByID      bool   `yaml:"join_by_id"`
	// IdleTimeout closes editors without requests for this long; 0 keeps
	// them open until closed or saved
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           "5432",
			User:           "qtool_user",
			Password:       "qtool_pass",
			Name:           "qtool_db",
			SSLMode:        "disable",
			MaxOpen:        25,
			MaxIdle:        5,
			HealthInterval: 30 * time.Second,
		},
		Artifacts: ArtifactsConfig{
			Dir:      "data/artifacts",
			ShareTTL: 7 * 24 * time.Hour,
		},
		Editor: EditorConfig{
			CanvasWidth:   960,
			CanvasHeight:  400,
			GridSize:      40,
			DefaultPoints: 4,
			ExportFormat:  string(export.FormatPDF),
			RenderScale:   export.DefaultScale,
			IdleTimeout:   2 * time.Hour,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path on top of the defaults. A missing file
// is not an error. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the config as YAML
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)

	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	if origins := getEnv("SERVER_ALLOWED_ORIGINS", ""); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}

	c.Artifacts.Dir = getEnv("ARTIFACTS_DIR", c.Artifacts.Dir)
	c.Artifacts.ShareSecret = getEnv("SHARE_SECRET", c.Artifacts.ShareSecret)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
}

// Validate checks the values that would otherwise fail later at runtime
func (c *Config) Validate() error {
	var errs []error

	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		errs = append(errs, fmt.Errorf("server.port must be numeric, got %q", c.Server.Port))
	}
	if c.Editor.CanvasWidth <= 0 || c.Editor.CanvasHeight <= 0 {
		errs = append(errs, fmt.Errorf("editor canvas size must be positive, got %dx%d",
			c.Editor.CanvasWidth, c.Editor.CanvasHeight))
	}
	if c.Editor.GridSize < 0 {
		errs = append(errs, fmt.Errorf("editor.grid_size must not be negative"))
	}
	if c.Editor.DefaultPoints < 0 {
		errs = append(errs, fmt.Errorf("editor.default_points must not be negative"))
	}
	if _, err := export.ParseFormat(c.Editor.ExportFormat); err != nil {
		errs = append(errs, fmt.Errorf("editor.export_format: %w", err))
	}
	if c.Editor.RenderScale < 1 || c.Editor.RenderScale > export.MaxScale {
		errs = append(errs, fmt.Errorf("editor.render_scale must be between 1 and %d", export.MaxScale))
	}
	if c.Editor.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("editor.idle_timeout must not be negative"))
	}
	if c.Artifacts.SharingEnabled() && len(c.Artifacts.ShareSecret) < 16 {
		errs = append(errs, fmt.Errorf("artifacts.share_secret must be at least 16 bytes"))
	}
	if c.Artifacts.ShareTTL < 0 {
		errs = append(errs, fmt.Errorf("artifacts.share_ttl must not be negative"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
