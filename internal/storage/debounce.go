package storage

import (
	"log"
	"sync"
	"time"
)

// DefaultDebounceWindow is the trailing window within which writes to the
// same key are coalesced
const DefaultDebounceWindow = time.Second

// saver is the write target of a debouncer
type saver interface {
	Save(key string, value interface{}) error
}

// Debouncer coalesces snapshot writes per key. Each Save resets the key's
// timer and replaces its pending value, so only the latest snapshot within
// the window is written. Write errors are logged and swallowed; in-memory
// state stays authoritative.
type Debouncer struct {
	mu      sync.Mutex
	repo    saver
	window  time.Duration
	timers  map[string]*time.Timer
	pending map[string]interface{}
}

// NewDebouncer creates a debouncer writing through repo. A window of 0 uses
// the default.
func NewDebouncer(repo saver, window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{
		repo:    repo,
		window:  window,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]interface{}),
	}
}

// Save schedules value to be written under key once the trailing window
// elapses without another Save for the same key
func (d *Debouncer) Save(key string, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[key] = value
	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}
	d.timers[key] = time.AfterFunc(d.window, func() {
		d.flushKey(key)
	})
}

// Flush writes every pending snapshot immediately. Called on shutdown so the
// trailing window doesn't lose the last answers.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	keys := make([]string, 0, len(d.pending))
	for key := range d.pending {
		keys = append(keys, key)
	}
	d.mu.Unlock()

	for _, key := range keys {
		d.flushKey(key)
	}
}

func (d *Debouncer) flushKey(key string) {
	d.mu.Lock()
	value, ok := d.pending[key]
	if ok {
		delete(d.pending, key)
	}
	if timer, exists := d.timers[key]; exists {
		timer.Stop()
		delete(d.timers, key)
	}
	d.mu.Unlock()

	if !ok {
		return
	}
	if err := d.repo.Save(key, value); err != nil {
		log.Printf("failed to persist snapshot %s: %v", key, err)
	}
}
