// Package watch reloads the forecast payload when its file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Reloader loads a payload file; forecast.Store satisfies it
type Reloader interface {
	LoadFile(path string) error
}

// Options tunes the watcher
type Options struct {
	// Debounce is the quiet period required after the last event
	Debounce time.Duration
	// RetryInterval is the first backoff interval for a failed reload
	RetryInterval time.Duration
	// MaxRetryElapsed bounds how long a reload keeps retrying
	MaxRetryElapsed time.Duration
}

// DefaultOptions returns production settings
func DefaultOptions() Options {
	return Options{
		Debounce:        250 * time.Millisecond,
		RetryInterval:   100 * time.Millisecond,
		MaxRetryElapsed: 5 * time.Second,
	}
}

// Stats counts watcher activity
type Stats struct {
	Events   int    `json:"events"`
	Reloads  int    `json:"reloads"`
	Failures int    `json:"failures"`
	LastErr  string `json:"lastError,omitempty"`
}

// Watcher watches a single payload file
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	path     string
	reloader Reloader
	opts     Options
	running  bool
	pending  bool
	lastSeen time.Time
	stats    Stats
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a watcher for path. Call Start to begin watching.
func New(path string, reloader Reloader, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve payload path: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultOptions().Debounce
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultOptions().RetryInterval
	}
	if opts.MaxRetryElapsed <= 0 {
		opts.MaxRetryElapsed = DefaultOptions().MaxRetryElapsed
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		fsw:      fsw,
		path:     abs,
		reloader: reloader,
		opts:     opts,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start watches the payload's directory. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Editors replace files by rename, so watch the directory, not the file
	dir := filepath.Dir(w.path)
	if err := w.fsw.Add(dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Info().Str("path", w.path).Msg("Watching forecast payload for changes")

	go w.run(ctx)
	return nil
}

// Stop stops watching and waits for the event loop to exit
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.fsw.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing file watcher")
	}
}

// Stats returns a snapshot of watcher activity
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	// Stop must also interrupt a reload that is backing off
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	tick := w.opts.Debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("File watcher error")

		case <-ticker.C:
			if w.due() {
				w.reload(ctx)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	// Removal alone leaves the current payload in place
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}

	log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Payload file event")

	w.mu.Lock()
	w.pending = true
	w.lastSeen = time.Now()
	w.stats.Events++
	w.mu.Unlock()
}

// due reports whether a pending change has been quiet for the debounce period
func (w *Watcher) due() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.pending || time.Since(w.lastSeen) < w.opts.Debounce {
		return false
	}
	w.pending = false
	return true
}

func (w *Watcher) reload(ctx context.Context) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.opts.RetryInterval
	b.MaxElapsedTime = w.opts.MaxRetryElapsed

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		return w.reloader.LoadFile(w.path)
	}, backoff.WithContext(b, ctx))

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.stats.Failures++
		w.stats.LastErr = err.Error()
		log.Error().Err(err).Str("path", w.path).Int("attempts", attempts).
			Msg("Payload reload failed; keeping previous payload")
		return
	}
	w.stats.Reloads++
	w.stats.LastErr = ""
	log.Info().Str("path", w.path).Int("attempts", attempts).Msg("Payload reloaded")
}
