package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL = "https://nest-todo-app-backend.vercel.app"

	EnvAPIURL = "TODO_API_URL"
	EnvDebug  = "LAZYTODO_DEBUG"

	SessionSQLite = "sqlite"
	SessionRedis  = "redis"
	SessionMemory = "memory"
)

type Config struct {
	APIURL         string `json:"api_url" toml:"api_url"`
	SessionBackend string `json:"session_backend" toml:"session_backend"`
	DBPath         string `json:"db_path" toml:"db_path"`
	RedisURL       string `json:"redis_url,omitempty" toml:"redis_url"`
	LogFile        string `json:"log_file" toml:"log_file"`
	LogLevel       string `json:"log_level" toml:"log_level"`
}

func Default() Config {
	return Config{
		APIURL:         DefaultAPIURL,
		SessionBackend: SessionSQLite,
		LogLevel:       "info",
	}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lazytodo", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// Load reads the file at path (JSON, or TOML for a .toml extension) over the
// defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, err
	}

	if isTOML(path) {
		if _, err := toml.Decode(string(data), &config); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	} else if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}

// ApplyEnv overrides file values with the environment.
func ApplyEnv(cfg Config) Config {
	if url := strings.TrimSpace(os.Getenv(EnvAPIURL)); url != "" {
		cfg.APIURL = url
	}
	if debug := strings.TrimSpace(os.Getenv(EnvDebug)); debug == "1" || strings.EqualFold(debug, "true") {
		cfg.LogLevel = "debug"
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.SessionBackend == "" {
		cfg.SessionBackend = SessionSQLite
	}
	return cfg
}

func (c Config) Validate() error {
	switch c.SessionBackend {
	case SessionSQLite, SessionMemory:
	case SessionRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("redis_url is required for the redis session backend")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.SessionBackend)
	}
	return nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		encoded, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		data = encoded
	}

	return os.WriteFile(path, data, 0o644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
