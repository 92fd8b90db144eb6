package config

import (
	"time"

	"github.com/danmuck/shtops/internal/freepbx"
)

// ManagerConfig maps the TOML section onto the dial settings the
// manager client expects.
func ManagerConfig(cfg FreePBXConfig) freepbx.Config {
	out := freepbx.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Secret:   cfg.Secret,
	}
	out.AMI.ConnectTimeout = time.Duration(cfg.ConnectTimeoutSeconds) * time.Second
	out.AMI.CallTimeout = time.Duration(cfg.CallTimeoutSeconds) * time.Second
	return out
}

// CacheTTL returns the snapshot freshness window.
func CacheTTL(cfg CacheConfig) time.Duration {
	return time.Duration(cfg.TTLSeconds) * time.Second
}
