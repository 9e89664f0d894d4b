package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

type Config struct {
	SessionsRoot string `toml:"sessions_root"`
	DBPath       string `toml:"db_path"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	LogLevel     string `toml:"log_level"`
	Workers      int    `toml:"workers"` // 0 = GOMAXPROCS
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(home)
}

// LoadFrom resolves defaults and the config file relative to home, then
// applies environment overrides.
func LoadFrom(home string) (*Config, error) {
	cfg := &Config{
		SessionsRoot: filepath.Join(home, ".codex", "sessions"),
		DBPath:       filepath.Join(home, ".config", "aistat", "aistat.db"),
		Host:         "0.0.0.0",
		Port:         5172,
		LogLevel:     "info",
	}

	cfgPath := filepath.Join(home, ".config", "aistat", "config.toml")
	if p := os.Getenv("AISTAT_CONFIG"); p != "" {
		cfgPath = p
	}
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	// expand ~ in paths
	cfg.SessionsRoot = expandHome(cfg.SessionsRoot, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if root := os.Getenv("SESSIONS_ROOT_PATH"); root != "" {
		cfg.SessionsRoot = root
	}
	if db := os.Getenv("AISTAT_DB_PATH"); db != "" {
		cfg.DBPath = db
	}
	if host := os.Getenv("AISTAT_HOST"); host != "" {
		cfg.Host = host
	}
	if portStr := os.Getenv("AISTAT_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid AISTAT_PORT: %w", err)
		}
		cfg.Port = port
	}
	if level := os.Getenv("AISTAT_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	return nil
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
