// Package telemetry writes optional JSONL events describing each chat turn.
// Events never carry raw message text, only sizes, counts and outcomes.
package telemetry

import (
	"path/filepath"
	"sync"
)

// DefaultDir is where events.jsonl is written when no directory is configured.
const DefaultDir = ".chat"

// Options controls event emission.
type Options struct {
	Observe bool
	Dir     string
}

var (
	mu   sync.RWMutex
	opts = Options{Dir: DefaultDir}
)

// Configure replaces the process-wide telemetry options.
func Configure(o Options) {
	if o.Dir == "" {
		o.Dir = DefaultDir
	}
	mu.Lock()
	opts = o
	mu.Unlock()
}

// ObserveEnabled reports whether events are being written.
func ObserveEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return opts.Observe
}

// EventsPath returns the JSONL file events are appended to.
func EventsPath() string {
	mu.RLock()
	defer mu.RUnlock()
	return filepath.Join(opts.Dir, "events.jsonl")
}
