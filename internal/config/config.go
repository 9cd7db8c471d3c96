package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/hylla/rota/internal/domain"
)

type Config struct {
	Database   DatabaseConfig    `toml:"database"`
	Server     ServerConfig      `toml:"server"`
	Editor     EditorConfig      `toml:"editor"`
	Logging    LoggingConfig     `toml:"logging"`
	PDF        PDFConfig         `toml:"pdf"`
	Duties     []DutyConfig      `toml:"duties"`
	People     []PersonConfig    `toml:"people"`
	Exclusions []ExclusionConfig `toml:"exclusions"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type ServerConfig struct {
	Bind        string `toml:"bind"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// EditorConfig holds editor timings in milliseconds.
type EditorConfig struct {
	AutosaveDelayMS      int `toml:"autosave_delay_ms"`
	ToastDurationMS      int `toml:"toast_duration_ms"`
	CommitConfirmDelayMS int `toml:"commit_confirm_delay_ms"`
	RequestTimeoutMS     int `toml:"request_timeout_ms"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type PDFConfig struct {
	ChromeBin string `toml:"chrome_bin"`
	Headless  bool   `toml:"headless"`
	TimeoutMS int    `toml:"timeout_ms"`
}

type DutyConfig struct {
	Key     string `toml:"key"`
	Name    string `toml:"name"`
	Code    string `toml:"code"`
	Service string `toml:"service"`
}

type PersonConfig struct {
	Name   string   `toml:"name"`
	Duties []string `toml:"duties"`
}

type ExclusionConfig struct {
	Duties []string `toml:"duties"`
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Server: ServerConfig{
			Bind:        "127.0.0.1:5055",
			MCPEndpoint: "/mcp",
		},
		Editor: EditorConfig{
			AutosaveDelayMS:      2000,
			ToastDurationMS:      1000,
			CommitConfirmDelayMS: 1000,
			RequestTimeoutMS:     10000,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".rota/log",
			},
		},
		PDF: PDFConfig{
			Headless:  true,
			TimeoutMS: 30000,
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if bind := strings.TrimSpace(c.Server.Bind); bind != "" {
		if _, _, err := net.SplitHostPort(bind); err != nil {
			return fmt.Errorf("invalid server.bind %q: %w", c.Server.Bind, err)
		}
	}
	if ep := strings.TrimSpace(c.Server.MCPEndpoint); ep != "" && !strings.HasPrefix(ep, "/") {
		return fmt.Errorf("server.mcp_endpoint must start with '/': %q", c.Server.MCPEndpoint)
	}

	timings := []struct {
		name  string
		value int
	}{
		{"editor.autosave_delay_ms", c.Editor.AutosaveDelayMS},
		{"editor.toast_duration_ms", c.Editor.ToastDurationMS},
		{"editor.commit_confirm_delay_ms", c.Editor.CommitConfirmDelayMS},
		{"editor.request_timeout_ms", c.Editor.RequestTimeoutMS},
		{"pdf.timeout_ms", c.PDF.TimeoutMS},
	}
	for _, timing := range timings {
		if timing.value < 0 {
			return fmt.Errorf("%s must be >= 0", timing.name)
		}
	}

	if _, err := charmLog.ParseLevel(strings.TrimSpace(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	for idx, ex := range c.Exclusions {
		if len(ex.Duties) != 2 {
			return fmt.Errorf("exclusions[%d].duties must name exactly two duties", idx)
		}
	}
	if _, err := c.Catalog(); err != nil {
		return fmt.Errorf("invalid roster: %w", err)
	}

	return nil
}

// Catalog converts the roster sections into a validated domain catalog.
func (c Config) Catalog() (domain.Catalog, error) {
	duties := make([]domain.Duty, 0, len(c.Duties))
	for _, d := range c.Duties {
		duties = append(duties, domain.Duty{Key: d.Key, Name: d.Name, Code: d.Code, Service: d.Service})
	}
	people := make([]domain.Person, 0, len(c.People))
	for _, p := range c.People {
		people = append(people, domain.Person{Name: p.Name, Duties: append([]string(nil), p.Duties...)})
	}
	exclusions := make([]domain.Exclusion, 0, len(c.Exclusions))
	for _, ex := range c.Exclusions {
		if len(ex.Duties) != 2 {
			return domain.Catalog{}, domain.ErrInvalidExclusion
		}
		exclusions = append(exclusions, domain.Exclusion{A: ex.Duties[0], B: ex.Duties[1]})
	}
	return domain.NewCatalog(duties, people, exclusions)
}

// AutosaveDelay returns the autosave quiet period.
func (e EditorConfig) AutosaveDelay() time.Duration {
	return time.Duration(e.AutosaveDelayMS) * time.Millisecond
}

// ToastDuration returns how long a toast stays visible.
func (e EditorConfig) ToastDuration() time.Duration {
	return time.Duration(e.ToastDurationMS) * time.Millisecond
}

// CommitConfirmDelay returns the pause before "Committed" is shown.
func (e EditorConfig) CommitConfirmDelay() time.Duration {
	return time.Duration(e.CommitConfirmDelayMS) * time.Millisecond
}

// RequestTimeout returns the per-request deadline for saves and commits.
func (e EditorConfig) RequestTimeout() time.Duration {
	return time.Duration(e.RequestTimeoutMS) * time.Millisecond
}

// Timeout returns the PDF render deadline.
func (p PDFConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMS) * time.Millisecond
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
