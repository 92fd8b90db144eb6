package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/shtops/internal/config"
)

// settings is the resolved runtime configuration for one invocation:
// built-in defaults, overlaid by the config file where it defines a
// key, overlaid by flags where given.
type settings struct {
	cacheDir string
	ttl      time.Duration
	freepbx  config.FreePBXConfig
	jsonOut  bool
}

type commonFlags struct {
	configPath string
	cacheDir   string
	ttl        time.Duration
	jsonOut    bool
}

const defaultConfigPath = "shtops.toml"

func bindCommonFlags(fs *flag.FlagSet, cf *commonFlags) {
	fs.StringVar(&cf.configPath, "config", defaultConfigPath, "path to shtops.toml")
	fs.StringVar(&cf.cacheDir, "cache-dir", "", "override cache directory")
	fs.DurationVar(&cf.ttl, "ttl", 0, "override cache freshness window (e.g. 15m)")
	fs.BoolVar(&cf.jsonOut, "json", false, "emit JSON instead of text")
}

func resolveSettings(cf commonFlags, fs *flag.FlagSet) (settings, error) {
	s := settings{
		cacheDir: "cache",
		ttl:      15 * time.Minute,
		jsonOut:  cf.jsonOut,
	}
	s.freepbx = config.FreePBXConfig{
		Port:                  5038,
		ConnectTimeoutSeconds: 5,
		CallTimeoutSeconds:    10,
	}

	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})

	if err := overlayFile(&s, cf.configPath, explicit); err != nil {
		return settings{}, err
	}

	if cf.cacheDir != "" {
		s.cacheDir = cf.cacheDir
	}
	if cf.ttl > 0 {
		s.ttl = cf.ttl
	}
	return s, nil
}

func overlayFile(s *settings, path string, explicit bool) error {
	var raw config.AppConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			// Default path absent: run on defaults and flags alone.
			return nil
		}
		return fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("cache", "directory") {
		if dir := strings.TrimSpace(raw.Cache.Directory); dir != "" {
			s.cacheDir = dir
		}
	}
	if meta.IsDefined("cache", "ttl_seconds") {
		if raw.Cache.TTLSeconds <= 0 {
			return fmt.Errorf("cache ttl_seconds must be positive")
		}
		s.ttl = time.Duration(raw.Cache.TTLSeconds) * time.Second
	}

	if meta.IsDefined("freepbx", "host") {
		s.freepbx.Host = strings.TrimSpace(raw.FreePBX.Host)
	}
	if meta.IsDefined("freepbx", "port") {
		s.freepbx.Port = raw.FreePBX.Port
	}
	if meta.IsDefined("freepbx", "username") {
		s.freepbx.Username = strings.TrimSpace(raw.FreePBX.Username)
	}
	if meta.IsDefined("freepbx", "secret") {
		s.freepbx.Secret = raw.FreePBX.Secret
	}
	if meta.IsDefined("freepbx", "connect_timeout_seconds") {
		s.freepbx.ConnectTimeoutSeconds = raw.FreePBX.ConnectTimeoutSeconds
	}
	if meta.IsDefined("freepbx", "call_timeout_seconds") {
		s.freepbx.CallTimeoutSeconds = raw.FreePBX.CallTimeoutSeconds
	}
	return nil
}
