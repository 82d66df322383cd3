// Package timeouts centralizes the deadlines used for database, blob and
// mail calls.
//
// Every external call made while serving a request runs under one of these
// values via context.WithTimeout, so a stalled collaborator cannot hold a
// request open indefinitely. Values can be overridden once at startup with
// Configure; zero fields keep the defaults.
//
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: lists and two-document updates
//   - Long: uploads and multi-collection work
//   - Batch: bulk deletes, bulk email fan-out, backups
//   - Notify: one outbound email send
package timeouts

import (
	"sync"
	"time"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 2 * time.Minute
	DefaultNotify = 15 * time.Second
)

var (
	mu     sync.RWMutex
	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	long   = DefaultLong
	batch  = DefaultBatch
	notify = DefaultNotify
)

func get(v *time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return *v
}

// Ping returns the health-check timeout.
func Ping() time.Duration { return get(&ping) }

// Short returns the timeout for single-document operations.
func Short() time.Duration { return get(&short) }

// Medium returns the timeout for list queries and paired updates.
func Medium() time.Duration { return get(&medium) }

// Long returns the timeout for uploads and multi-collection work.
func Long() time.Duration { return get(&long) }

// Batch returns the timeout for bulk operations.
func Batch() time.Duration { return get(&batch) }

// Notify returns the timeout for a single email send.
func Notify() time.Duration { return get(&notify) }

// Config holds override values. Zero values are ignored.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
	Notify time.Duration
}

// Configure applies non-zero overrides.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&ping, cfg.Ping)
	set(&short, cfg.Short)
	set(&medium, cfg.Medium)
	set(&long, cfg.Long)
	set(&batch, cfg.Batch)
	set(&notify, cfg.Notify)
}

// Reset restores the defaults. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping, short, medium, long, batch, notify =
		DefaultPing, DefaultShort, DefaultMedium, DefaultLong, DefaultBatch, DefaultNotify
}
