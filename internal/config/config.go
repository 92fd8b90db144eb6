package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type AppConfig struct {
	FreePBX   FreePBXConfig   `toml:"freepbx"`
	Cache     CacheConfig     `toml:"cache"`
	Dashboard DashboardConfig `toml:"dashboard"`
}

type FreePBXConfig struct {
	Host                  string `toml:"host"`
	Port                  int    `toml:"port"`
	Username              string `toml:"username"`
	Secret                string `toml:"secret"`
	ConnectTimeoutSeconds int    `toml:"connect_timeout_seconds"`
	CallTimeoutSeconds    int    `toml:"call_timeout_seconds"`
}

type CacheConfig struct {
	Directory  string `toml:"directory"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

type DashboardConfig struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

func LoadAppConfig(path string) (AppConfig, error) {
	var cfg AppConfig
	if err := loadToml(path, &cfg); err != nil {
		return AppConfig{}, err
	}
	applyDefaults(&cfg)
	if err := ValidateAppConfig(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.FreePBX.Port == 0 {
		cfg.FreePBX.Port = 5038
	}
	if cfg.FreePBX.ConnectTimeoutSeconds == 0 {
		cfg.FreePBX.ConnectTimeoutSeconds = 5
	}
	if cfg.FreePBX.CallTimeoutSeconds == 0 {
		cfg.FreePBX.CallTimeoutSeconds = 10
	}
	if cfg.Cache.Directory == "" {
		cfg.Cache.Directory = "cache"
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 900
	}
	if cfg.Dashboard.Addr == "" {
		cfg.Dashboard.Addr = ":8090"
	}
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateAppConfig(cfg AppConfig) error {
	if err := ValidateFreePBX(cfg.FreePBX); err != nil {
		return fmt.Errorf("freepbx config invalid: %w", err)
	}
	if strings.TrimSpace(cfg.Cache.Directory) == "" {
		return fmt.Errorf("cache config missing directory")
	}
	if cfg.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache ttl_seconds must be positive")
	}
	if strings.TrimSpace(cfg.Dashboard.Addr) == "" {
		return fmt.Errorf("dashboard config missing addr")
	}
	return nil
}

func ValidateFreePBX(cfg FreePBXConfig) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return fmt.Errorf("host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port out of range: %d", cfg.Port)
	}
	if strings.TrimSpace(cfg.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if strings.TrimSpace(cfg.Secret) == "" {
		return fmt.Errorf("secret is required")
	}
	return nil
}
