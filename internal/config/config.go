// Package config loads the runtime's tunables -- heap size, worker count,
// trace capacity -- from an optional TOML file, falling back to defaults
// sized relative to GOMAXPROCS.
package config

import (
	"fmt"
	"runtime"

	"github.com/BurntSushi/toml"
	"go.uber.org/automaxprocs/maxprocs"
)

// Config holds every knob the runtime exposes to an operator.
type Config struct {
	// HeapWords is the total number of 64-bit words in the shared heap,
	// shared across every worker's disjoint allocation arena.
	HeapWords uint64 `toml:"heap_words"`
	// Workers is the number of parallel reduction workers. Rounded up to
	// the nearest power of two by the driver; 1 runs a single unthreaded
	// worker on the single-threaded fast path.
	Workers int `toml:"workers"`
	// TraceCapacity bounds the ring buffer internal/telemetry keeps of
	// recent faults and rewrite-rate samples; 0 disables it.
	TraceCapacity int `toml:"trace_capacity"`
}

// Default returns a Config sized for the current machine: GOMAXPROCS
// workers (after letting automaxprocs reconcile it with any container CPU
// quota) and a heap generous enough for small-to-medium programs.
func Default() Config {
	undo, err := maxprocs.Set()
	if err == nil {
		defer undo()
	}
	return Config{
		HeapWords:     1 << 24,
		Workers:       runtime.GOMAXPROCS(0),
		TraceCapacity: 256,
	}
}

// Load reads a TOML config file at path, starting from Default and
// overwriting whichever fields the file sets.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports whether a Config is usable: a positive heap size and
// worker count, specifically.
func (c Config) Validate() error {
	if c.HeapWords == 0 {
		return fmt.Errorf("config: heap_words must be positive")
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be positive")
	}
	return nil
}
