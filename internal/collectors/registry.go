// Package collectors owns the pull side of the pipeline: each collector
// talks to one monitored system and produces the JSON payload that gets
// written to the snapshot cache.
package collectors

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/shtops/internal/cache"
	"github.com/danmuck/shtops/internal/observability"
)

// Collector gathers a full snapshot for one system.
type Collector interface {
	System() string
	Collect() (map[string]any, error)
}

// RunResult reports one collector's outcome.
type RunResult struct {
	System   string
	Path     string
	Duration time.Duration
	Err      error
}

// Registry stores collectors by system name.
type Registry struct {
	repo map[string]Collector
	mu   sync.RWMutex
}

// NewRegistry initializes an empty collector registry.
func NewRegistry() *Registry {
	return &Registry{
		repo: make(map[string]Collector),
	}
}

// Register adds a collector to the registry by system name.
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.repo[c.System()] = c
}

// Get returns a collector by system name.
func (r *Registry) Get(system string) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.repo[system]
	return c, ok
}

// Systems returns the registered system names.
func (r *Registry) Systems() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.repo))
	for name := range r.repo {
		out = append(out, name)
	}
	return out
}

// RunAll runs every registered collector and writes each successful
// snapshot to cacheDir. A failing collector is reported in its result
// and does not stop the others.
func (r *Registry) RunAll(cacheDir string) []RunResult {
	r.mu.RLock()
	collectors := make([]Collector, 0, len(r.repo))
	for _, c := range r.repo {
		collectors = append(collectors, c)
	}
	r.mu.RUnlock()

	results := make([]RunResult, 0, len(collectors))
	for _, c := range collectors {
		results = append(results, Run(c, cacheDir))
	}
	return results
}

// Run executes one collector and persists its snapshot.
func Run(c Collector, cacheDir string) RunResult {
	start := time.Now()
	payload, err := c.Collect()
	if err == nil {
		err = cache.Write(c.System(), cacheDir, payload)
	}
	duration := time.Since(start)
	observability.RecordCollectorRun(c.System(), err == nil, duration)

	result := RunResult{
		System:   c.System(),
		Path:     cache.PathFor(c.System(), cacheDir),
		Duration: duration,
		Err:      err,
	}
	if err != nil {
		log.Error().Err(err).Str("system", c.System()).Msg("collector_failed")
	} else {
		log.Info().Str("system", c.System()).Dur("duration", duration).Msg("collector_ok")
	}
	return result
}
