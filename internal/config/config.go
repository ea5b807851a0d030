package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for chatqa.
type Config struct {
	General GeneralConfig `json:"general" yaml:"general"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	Source  SourceConfig  `json:"source" yaml:"source"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel" yaml:"logLevel"`
	LogFile  string `json:"logFile,omitempty" yaml:"logFile,omitempty"` // optional log file path
}

// ServerConfig configures the HTTP service exposing /ask.
type ServerConfig struct {
	Host                string  `json:"host" yaml:"host"`
	Port                int     `json:"port" yaml:"port"`
	ReadTimeoutSeconds  int     `json:"readTimeoutSeconds" yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds int     `json:"writeTimeoutSeconds" yaml:"writeTimeoutSeconds"`
	RateLimitPerSecond  float64 `json:"rateLimitPerSecond" yaml:"rateLimitPerSecond"` // 0 = disabled
	RateLimitBurst      int     `json:"rateLimitBurst" yaml:"rateLimitBurst"`
}

// SourceConfig configures where messages are read from. URL is the remote
// messages API; File and SnapshotDB select offline sources instead.
type SourceConfig struct {
	URL            string `json:"url" yaml:"url"`
	APIKey         string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds" yaml:"timeoutSeconds"`
	MaxRetries     int    `json:"maxRetries" yaml:"maxRetries"`
	File           string `json:"file,omitempty" yaml:"file,omitempty"`
	SnapshotDB     string `json:"snapshotDb,omitempty" yaml:"snapshotDb,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// Addr returns the listen address for the HTTP service.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DefaultConfigDir returns the default config directory (~/.chatqa).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chatqa"
	}
	return filepath.Join(home, ".chatqa")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func Load(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.LogFile = expandPath(cfg.General.LogFile)
	cfg.Source.File = expandPath(cfg.Source.File)
	cfg.Source.SnapshotDB = expandPath(cfg.Source.SnapshotDB)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// LoadOrDefaults loads path if it exists and falls back to Defaults when it
// does not. Environment overrides are applied in both cases.
func LoadOrDefaults(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, false, err
		}
		cfg = Defaults()
		ApplyEnv(cfg)
		return cfg, false, Validate(cfg)
	}
	ApplyEnv(cfg)
	return cfg, true, Validate(cfg)
}

// ApplyEnv overrides config values from the process environment:
// MESSAGES_API_URL, PORT, CHATQA_LOG_LEVEL and CHATQA_SOURCE_API_KEY.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("MESSAGES_API_URL")); v != "" {
		cfg.Source.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHATQA_LOG_LEVEL")); v != "" {
		cfg.General.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("CHATQA_SOURCE_API_KEY"); v != "" {
		cfg.Source.APIKey = v
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	path = expandPath(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}
	if cfg.Server.ReadTimeoutSeconds < 1 {
		errs = append(errs, "server.readTimeoutSeconds must be >= 1")
	}
	if cfg.Server.WriteTimeoutSeconds < 1 {
		errs = append(errs, "server.writeTimeoutSeconds must be >= 1")
	}
	if cfg.Server.RateLimitPerSecond < 0 {
		errs = append(errs, "server.rateLimitPerSecond must be >= 0")
	}
	if cfg.Server.RateLimitPerSecond > 0 && cfg.Server.RateLimitBurst < 1 {
		errs = append(errs, "server.rateLimitBurst must be >= 1 when rate limiting is enabled")
	}

	if cfg.Source.TimeoutSeconds < 1 || cfg.Source.TimeoutSeconds > 300 {
		errs = append(errs, "source.timeoutSeconds must be between 1 and 300")
	}
	if cfg.Source.MaxRetries < 0 || cfg.Source.MaxRetries > 10 {
		errs = append(errs, "source.maxRetries must be between 0 and 10")
	}
	if cfg.Source.URL != "" {
		u, err := url.Parse(cfg.Source.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("source.url must be an http(s) URL: %q", cfg.Source.URL))
		}
	}
	if cfg.Source.URL == "" && cfg.Source.File == "" && cfg.Source.SnapshotDB == "" {
		errs = append(errs, "source: one of url, file or snapshotDb must be set")
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Endpoint, "/") {
		errs = append(errs, "metrics.endpoint must start with /")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
