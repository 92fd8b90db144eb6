package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chdir mirrors t.Chdir for toolchains older than Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

func parseCommon(t *testing.T, args []string) (commonFlags, *flag.FlagSet) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var cf commonFlags
	bindCommonFlags(fs, &cf)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cf, fs
}

func TestResolveSettingsDefaults(t *testing.T) {
	cf, fs := parseCommon(t, []string{"-config", filepath.Join(t.TempDir(), "absent.toml")})
	// Explicit -config pointing at a missing file must fail.
	if _, err := resolveSettings(cf, fs); err == nil {
		t.Fatal("expected error for explicit missing config")
	}

	chdir(t, t.TempDir())

	cf, fs = parseCommon(t, nil)
	s, err := resolveSettings(cf, fs)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.cacheDir != "cache" || s.ttl != 15*time.Minute {
		t.Fatalf("defaults = %+v", s)
	}
	if s.freepbx.Port != 5038 {
		t.Fatalf("freepbx defaults = %+v", s.freepbx)
	}
}

func TestResolveSettingsFileAndFlagOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shtops.toml")
	body := `
[freepbx]
host = "pbx.lan"
username = "ops"
secret = "s3cret"

[cache]
directory = "/var/cache/shtops"
ttl_seconds = 600
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cf, fs := parseCommon(t, []string{"-config", path})
	s, err := resolveSettings(cf, fs)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.cacheDir != "/var/cache/shtops" || s.ttl != 10*time.Minute {
		t.Fatalf("file overlay = %+v", s)
	}
	if s.freepbx.Host != "pbx.lan" || s.freepbx.Port != 5038 {
		t.Fatalf("freepbx = %+v, want file host with default port", s.freepbx)
	}

	// Flags beat the file.
	cf, fs = parseCommon(t, []string{"-config", path, "-cache-dir", "/tmp/elsewhere", "-ttl", "1m"})
	s, err = resolveSettings(cf, fs)
	if err != nil {
		t.Fatalf("resolve with flags: %v", err)
	}
	if s.cacheDir != "/tmp/elsewhere" || s.ttl != time.Minute {
		t.Fatalf("flag overlay = %+v", s)
	}
}

func TestResolveSettingsRejectsBadTTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shtops.toml")
	if err := os.WriteFile(path, []byte("[cache]\nttl_seconds = -5\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cf, fs := parseCommon(t, []string{"-config", path})
	if _, err := resolveSettings(cf, fs); err == nil {
		t.Fatal("expected ttl validation error")
	}
}

func writeSnapshots(t *testing.T, dir string, trunkState string) {
	t.Helper()
	now := time.Now().UTC().Format(time.RFC3339)
	snapshots := map[string]string{
		"librenms": `{"alerts": [], "collected_at": "` + now + `"}`,
		"proxmox":  `{"nodes": [], "vms": [], "containers": [], "collected_at": "` + now + `"}`,
		"freepbx":  `{"trunks": [{"name": "voip-main", "state": "` + trunkState + `"}], "collected_at": "` + now + `"}`,
		"unifi":    `{"devices": [], "collected_at": "` + now + `"}`,
	}
	for system, body := range snapshots {
		if err := os.WriteFile(filepath.Join(dir, system+".json"), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", system, err)
		}
	}
}

func TestStatusCommandExitCodes(t *testing.T) {
	dir := t.TempDir()
	writeSnapshots(t, dir, "Registered")

	var out bytes.Buffer
	code := run([]string{"status", "-cache-dir", dir, "-ttl", "1h"}, &out)
	if code != 0 {
		t.Fatalf("exit = %d, output:\n%s", code, out.String())
	}
	if !strings.Contains(out.String(), "overall: ok") {
		t.Fatalf("output:\n%s", out.String())
	}

	writeSnapshots(t, dir, "Rejected")
	out.Reset()
	code = run([]string{"status", "-cache-dir", dir, "-ttl", "1h"}, &out)
	if code != 2 {
		t.Fatalf("exit = %d, want 2 for critical", code)
	}
}

func TestAttentionCommandJSON(t *testing.T) {
	dir := t.TempDir()
	writeSnapshots(t, dir, "Rejected")

	var out bytes.Buffer
	code := run([]string{"attention", "-cache-dir", dir, "-ttl", "1h", "-json"}, &out)
	if code != 2 {
		t.Fatalf("exit = %d, want 2", code)
	}
	var payload struct {
		Overall   string           `json:"overall_status"`
		Attention []map[string]any `json:"attention"`
	}
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out.String())
	}
	if payload.Overall != "critical" || len(payload.Attention) != 1 {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestCollectRequiresManagerConfig(t *testing.T) {
	chdir(t, t.TempDir())

	var out bytes.Buffer
	if code := run([]string{"collect"}, &out); code != 1 {
		t.Fatalf("exit = %d, want 1 without freepbx credentials", code)
	}
}

func TestInitConfigRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shtops.toml")
	var out bytes.Buffer
	if code := run([]string{"init-config", "-output", path}, &out); code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if code := run([]string{"init-config", "-output", path}, &out); code != 1 {
		t.Fatal("expected refusal to overwrite")
	}

	cf, fs := parseCommon(t, []string{"-config", path})
	s, err := resolveSettings(cf, fs)
	if err != nil {
		t.Fatalf("template does not resolve: %v", err)
	}
	if s.freepbx.Host != "pbx.lan" {
		t.Fatalf("settings = %+v", s)
	}
}

func TestUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	if code := run([]string{"frobnicate"}, &out); code != 2 {
		t.Fatalf("exit = %d, want 2", code)
	}
}
