// Package cache owns the JSON snapshot files collectors write and the
// status layer reads. One file per system, stamped with collected_at.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// collectedAtKey is the timestamp field every snapshot carries.
const collectedAtKey = "collected_at"

// File is one cache file read result. Read problems are surfaced as data so
// the status layer can report them instead of failing the whole report.
type File struct {
	System      string
	Path        string
	Exists      bool
	CollectedAt time.Time
	AgeSeconds  int
	HasAge      bool
	Fresh       bool
	Data        map[string]any
	Err         string
}

// PathFor returns the snapshot path for a system under dir.
func PathFor(system, dir string) string {
	return filepath.Join(dir, system+".json")
}

// Load reads <dir>/<system>.json and computes freshness against ttl.
func Load(system, dir string, ttl time.Duration) File {
	path := PathFor(system, dir)
	cf := File{System: system, Path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cf
		}
		cf.Exists = true
		cf.Err = err.Error()
		return cf
	}
	cf.Exists = true

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		cf.Err = fmt.Sprintf("cache read error: %v", err)
		return cf
	}
	cf.Data = data

	ts, ok := parseCollectedAt(data[collectedAtKey])
	if !ok {
		return cf
	}
	cf.CollectedAt = ts

	age := time.Since(ts)
	if age < 0 {
		age = 0
	}
	cf.AgeSeconds = int(age.Seconds())
	cf.HasAge = true
	cf.Fresh = age <= ttl
	return cf
}

// Write marshals payload into <dir>/<system>.json, injecting collected_at.
// The payload must marshal to a JSON object.
func Write(system, dir string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", system, err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("cache: %s payload must be an object: %w", system, err)
	}
	data[collectedAtKey] = time.Now().UTC().Format(time.RFC3339)

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", system, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache: create dir %s: %w", dir, err)
	}
	path := PathFor(system, dir)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("cache: write %s: %w", path, err)
	}
	return nil
}

func parseCollectedAt(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
