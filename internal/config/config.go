// Package config loads fa configuration from JSON-with-comments files and
// environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailscale/hujson"
)

// DirName is the per-project configuration directory.
const DirName = ".fa"

// FileName is the configuration file inside DirName.
const FileName = "config.json"

// Config holds all configuration options.
type Config struct {
	DBPath      string          `json:"db_path,omitempty"`
	LogLevel    string          `json:"log_level,omitempty"`
	LogFormat   string          `json:"log_format,omitempty"`
	HTTPAddr    string          `json:"http_addr,omitempty"`
	CORSOrigins []string        `json:"cors_origins,omitempty"`
	Actor       string          `json:"actor,omitempty"`
	Reconcile   ReconcileConfig `json:"reconcile"`
	AI          AIConfig        `json:"ai"`

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// ReconcileConfig tunes batch reconciliation.
type ReconcileConfig struct {
	// AllowDuplicateIDs makes the last item win when a batch names the same
	// record twice instead of rejecting the batch.
	AllowDuplicateIDs bool `json:"allow_duplicate_ids"`
}

// AIConfig configures the AI revision service client.
type AIConfig struct {
	Model     string        `json:"model,omitempty"`
	BaseURL   string        `json:"base_url,omitempty"`
	APIKeyEnv string        `json:"api_key_env,omitempty"`
	Timeout   Duration      `json:"timeout,omitempty"`
	Breaker   BreakerConfig `json:"breaker"`

	// RequestsPerMinute caps calls to the AI service; 0 means no limit.
	RequestsPerMinute int `json:"requests_per_minute,omitempty"`

	// APIKey is read from the environment variable named by APIKeyEnv.
	APIKey string `json:"-"`
}

// BreakerConfig configures the circuit breaker around the AI client.
type BreakerConfig struct {
	MaxRequests  uint32   `json:"max_requests,omitempty"`
	Interval     Duration `json:"interval,omitempty"`
	Timeout      Duration `json:"timeout,omitempty"`
	FailureRatio float64  `json:"failure_ratio,omitempty"`
	MinRequests  uint32   `json:"min_requests,omitempty"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string
	Project string
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("duration must be a string or number of seconds")
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the default configuration. home is the user's home
// directory and may be empty.
func Default(home string) Config {
	dbPath := filepath.Join(DirName, "fa.db")
	if home != "" {
		dbPath = filepath.Join(home, DirName, "fa.db")
	}
	return Config{
		DBPath:    dbPath,
		LogLevel:  "info",
		LogFormat: "console",
		HTTPAddr:  ":8080",
		AI: AIConfig{
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
			Timeout:   Duration(60 * time.Second),
			Breaker: BreakerConfig{
				MaxRequests:  3,
				Interval:     Duration(60 * time.Second),
				Timeout:      Duration(30 * time.Second),
				FailureRatio: 0.6,
				MinRequests:  3,
			},
			RequestsPerMinute: 30,
		},
	}
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	Dir        string            // working directory; os.Getwd() when empty
	ConfigPath string            // explicit config file (--config); must exist when set
	Env        map[string]string // environment variables
}

// Load resolves configuration with the following precedence (highest wins):
//  1. Defaults
//  2. Global user config ($XDG_CONFIG_HOME/fa/config.json or ~/.config/fa/config.json)
//  3. Project config (.fa/config.json in Dir) or the explicit ConfigPath
//  4. Environment overrides
func Load(input LoadInput) (*Config, error) {
	dir := input.Dir
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := Default(input.Env["HOME"])

	if global := globalPath(input.Env); global != "" {
		loaded, err := loadFile(global, false, &cfg)
		if err != nil {
			return nil, err
		}
		if loaded {
			cfg.Sources.Global = global
		}
	}

	project := filepath.Join(dir, DirName, FileName)
	mustExist := false
	if input.ConfigPath != "" {
		project = input.ConfigPath
		if !filepath.IsAbs(project) {
			project = filepath.Join(dir, project)
		}
		mustExist = true
	}
	loaded, err := loadFile(project, mustExist, &cfg)
	if err != nil {
		return nil, err
	}
	if loaded {
		cfg.Sources.Project = project
	}

	applyEnv(&cfg, input.Env)

	if !filepath.IsAbs(cfg.DBPath) && cfg.DBPath != ":memory:" {
		cfg.DBPath = filepath.Join(dir, cfg.DBPath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// globalPath returns the path to the global config file, or "" if the home
// directory cannot be determined.
func globalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "fa", FileName)
	}
	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "fa", FileName)
	}
	return ""
}

// loadFile decodes the file at path over cfg. Fields absent from the file
// keep their current values.
func loadFile(path string, mustExist bool, cfg *Config) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mustExist {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return false, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := json.Unmarshal(standardized, cfg); err != nil {
		return false, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return true, nil
}

func applyEnv(cfg *Config, env map[string]string) {
	if v := env["FA_DB_PATH"]; v != "" {
		cfg.DBPath = v
	}
	if v := env["FA_LOG_LEVEL"]; v != "" {
		cfg.LogLevel = v
	}
	if v := env["FA_HTTP_ADDR"]; v != "" {
		cfg.HTTPAddr = v
	}
	if v := env["FA_ACTOR"]; v != "" {
		cfg.Actor = v
	}
	if v := env["FA_AI_MODEL"]; v != "" {
		cfg.AI.Model = v
	}
	if v := env["FA_AI_BASE_URL"]; v != "" {
		cfg.AI.BaseURL = v
	}
	if cfg.AI.APIKeyEnv != "" {
		cfg.AI.APIKey = env[cfg.AI.APIKeyEnv]
	}
}

// Validate rejects configurations the binary cannot run with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be debug, info, warn or error", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log_format %q: must be json or console", c.LogFormat)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr is required")
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("ai.timeout must be positive")
	}
	if r := c.AI.Breaker.FailureRatio; r <= 0 || r > 1 {
		return fmt.Errorf("ai.breaker.failure_ratio must be in (0, 1], got %v", r)
	}
	if c.AI.RequestsPerMinute < 0 {
		return fmt.Errorf("ai.requests_per_minute must not be negative")
	}
	if c.AI.Breaker.Timeout <= 0 {
		return fmt.Errorf("ai.breaker.timeout must be positive")
	}
	return nil
}

// SaveConfig writes cfg to dir/.fa/config.json.
func SaveConfig(dir string, cfg *Config) error {
	faDir := filepath.Join(dir, DirName)
	if err := os.MkdirAll(faDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s dir: %w", DirName, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(faDir, FileName)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// EnvMap returns the process environment as a map.
func EnvMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
