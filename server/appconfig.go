package server

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// AppConfig defines application configuration loaded from files and environment.
type AppConfig struct {
	Env      string         `koanf:"env"`
	Listen   string         `koanf:"listen"`
	Database DatabaseConfig `koanf:"database"`
	Valkey   ValkeyConfig   `koanf:"valkey"`
	Auth     AuthConfig     `koanf:"auth"`
}

type DatabaseConfig struct {
	RBAC DSNConfig `koanf:"rbac"`
}

type DSNConfig struct {
	DSN string `koanf:"dsn"`
}

// ValkeyConfig points the permission cache at a Valkey node. An empty Addr
// selects the embedded buntdb cache instead.
type ValkeyConfig struct {
	Addr   string        `koanf:"addr"`
	Prefix string        `koanf:"prefix"`
	TTL    time.Duration `koanf:"ttl"`
}

// AuthConfig holds the HS256 secret the admin token middleware verifies with.
type AuthConfig struct {
	Secret string `koanf:"secret"`
}

var (
	cfgOnce sync.Once
	cfgInst *AppConfig
)

// GetConfig loads and returns the singleton AppConfig. Loading order:
// 1) config/config.yaml (optional)
// 2) config/config.<APP_ENV>.yaml (optional), APP_ENV defaults to "local"
// 3) Environment variables with prefix GYM_ mapped using __ as nested separator, e.g. GYM_DATABASE__RBAC__DSN
func GetConfig() *AppConfig {
	cfgOnce.Do(func() {
		k := koanf.New(".")
		// Config directory (CONFIG_DIR) default ./config
		configDir := os.Getenv("CONFIG_DIR")
		if configDir == "" {
			configDir = "config"
		}
		// Whether to load files (default: disabled to keep tests isolated)
		loadFiles := strings.EqualFold(os.Getenv("APP_CONFIG_FILES"), "1") || strings.EqualFold(os.Getenv("APP_CONFIG_FILES"), "true")
		// 1) base file
		if loadFiles {
			base := filepath.Join(configDir, "config.yaml")
			if _, err := os.Stat(base); err == nil {
				if err := k.Load(file.Provider(base), yaml.Parser()); err != nil {
					log.Printf("config: failed loading base: %v", err)
				}
			}
		}
		// 2) env-specific file
		envName := os.Getenv("APP_ENV")
		if envName == "" {
			envName = "local"
		}
		if loadFiles {
			envFile := filepath.Join(configDir, "config."+envName+".yaml")
			if _, err := os.Stat(envFile); err == nil {
				if err := k.Load(file.Provider(envFile), yaml.Parser()); err != nil {
					log.Printf("config: failed loading env file: %v", err)
				}
			}
		}
		// 3) env vars: GYM_ prefix, __ delim for nesting
		_ = k.Load(env.Provider("GYM_", "__", func(s string) string {
			// GYM_DATABASE__RBAC__DSN -> database.rbac.dsn
			return s
		}), nil)

		var c AppConfig
		if err := k.Unmarshal("", &c); err != nil {
			log.Printf("config: unmarshal error: %v", err)
		}
		if c.Env == "" {
			c.Env = envName
		}
		if c.Listen == "" {
			c.Listen = ":8086"
		}
		cfgInst = &c
	})
	return cfgInst
}

// RBACDBDSN returns the effective DSN for the RBAC database (config first,
// then env fallback to MIGRATE_DSN so one variable can drive both).
func (c *AppConfig) RBACDBDSN() string {
	if c != nil && c.Database.RBAC.DSN != "" {
		return strings.TrimSpace(c.Database.RBAC.DSN)
	}
	dsn := strings.TrimSpace(os.Getenv("RBAC_DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("MIGRATE_DSN"))
	}
	return dsn
}

// AuthSecret returns the admin token secret (config first, then env).
func (c *AppConfig) AuthSecret() string {
	if c != nil && c.Auth.Secret != "" {
		return strings.TrimSpace(c.Auth.Secret)
	}
	return strings.TrimSpace(os.Getenv("RBAC_AUTH_SECRET"))
}
