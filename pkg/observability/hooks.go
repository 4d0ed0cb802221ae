// Package observability provides hook points for instrumenting the
// optimizer, validator, renderers, and cache without coupling them to any
// metrics backend. All hooks default to no-ops; embedders install their own
// with SetHooks.
package observability

import "sync"

// Hooks is the set of callbacks invoked at interesting points. Any nil field
// is simply skipped.
type Hooks struct {
	// OptimizeAttempt fires after each placement attempt.
	OptimizeAttempt func(attempt, placed, violations int)
	// OptimizeDone fires when a search finishes with its best score.
	OptimizeDone func(attempts, score int)
	// ValidateDone fires after a validation pass with the finding count.
	ValidateDone func(violations int)
	// RenderDone fires after a sink writes an artifact.
	RenderDone func(format string, bytes int)
	// CacheHit and CacheMiss fire on cache lookups.
	CacheHit  func(key string)
	CacheMiss func(key string)
}

var (
	mu      sync.RWMutex
	current Hooks
)

// SetHooks installs the given hooks, replacing any previous set.
func SetHooks(h Hooks) {
	mu.Lock()
	defer mu.Unlock()
	current = h
}

// Reset restores the default no-op hooks.
func Reset() {
	SetHooks(Hooks{})
}

// OptimizeAttempt invokes the attempt hook if installed.
func OptimizeAttempt(attempt, placed, violations int) {
	mu.RLock()
	h := current.OptimizeAttempt
	mu.RUnlock()
	if h != nil {
		h(attempt, placed, violations)
	}
}

// OptimizeDone invokes the completion hook if installed.
func OptimizeDone(attempts, score int) {
	mu.RLock()
	h := current.OptimizeDone
	mu.RUnlock()
	if h != nil {
		h(attempts, score)
	}
}

// ValidateDone invokes the validation hook if installed.
func ValidateDone(violations int) {
	mu.RLock()
	h := current.ValidateDone
	mu.RUnlock()
	if h != nil {
		h(violations)
	}
}

// RenderDone invokes the render hook if installed.
func RenderDone(format string, bytes int) {
	mu.RLock()
	h := current.RenderDone
	mu.RUnlock()
	if h != nil {
		h(format, bytes)
	}
}

// CacheHit invokes the cache-hit hook if installed.
func CacheHit(key string) {
	mu.RLock()
	h := current.CacheHit
	mu.RUnlock()
	if h != nil {
		h(key)
	}
}

// CacheMiss invokes the cache-miss hook if installed.
func CacheMiss(key string) {
	mu.RLock()
	h := current.CacheMiss
	mu.RUnlock()
	if h != nil {
		h(key)
	}
}
