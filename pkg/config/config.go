package config

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/ritzau/classdeps/pkg/logging"
	"github.com/spf13/pflag"
)

// FileName is the optional config file read from the working directory
const FileName = "classdeps.toml"

// EnvPrefix prefixes environment overrides, e.g. CLASSDEPS_PORT=9090
const EnvPrefix = "CLASSDEPS_"

// Config holds all configuration for the application
type Config struct {
	OldSnapshot string   `koanf:"old"`
	NewSnapshot string   `koanf:"new"`
	OldCommand  string   `koanf:"oldcmd"` // extractor printing the old snapshot, instead of old
	NewCommand  string   `koanf:"newcmd"`
	Changed     []string `koanf:"changed"`
	Port        int      `koanf:"port"`
	Watch       bool     `koanf:"watch"`
	Workers     int      `koanf:"workers"`
	Signatures  int      `koanf:"signatures"` // method descriptor LRU size
	RootType    string   `koanf:"root"`
	Validate    bool     `koanf:"validate"`
	JSONLogs    bool     `koanf:"json"`
	Verbosity   string   `koanf:"verbosity"`
	VerboseCnt  int      `koanf:"verbose"`
}

// Defaults returns the built-in configuration values
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"old":        "",
		"new":        "",
		"oldcmd":     "",
		"newcmd":     "",
		"changed":    []string{},
		"port":       8080,
		"watch":      false,
		"workers":    runtime.NumCPU(),
		"signatures": 4096,
		"root":       "java.lang.Object",
		"validate":   true,
		"json":       false,
		"verbosity":  "",
		"verbose":    0,
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFile(FileName, f)
}

// LoadFile is Load with an explicit config file path
func LoadFile(path string, f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - classdeps.toml
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	// 3. Environment Variables
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Check validates value ranges
func (c *Config) Check() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.RootType == "" {
		return fmt.Errorf("root type must not be empty")
	}
	return nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}

// LogLevel resolves the logging level. An explicit verbosity wins over the
// -v count: 0 is info, 1 debug, 2 or more trace.
func (c *Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Verbosity) {
	case "":
	case "trace":
		return logging.LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown verbosity %q", c.Verbosity)
	}

	switch {
	case c.VerboseCnt >= 2:
		return logging.LevelTrace, nil
	case c.VerboseCnt == 1:
		return slog.LevelDebug, nil
	default:
		return slog.LevelInfo, nil
	}
}
