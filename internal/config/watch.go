package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matthewbaird/exadmin/internal/auth"
)

// Holder publishes the current configuration to concurrent readers.
type Holder struct {
	p atomic.Pointer[Config]
}

// NewHolder returns a Holder serving c.
func NewHolder(c *Config) *Holder {
	h := &Holder{}
	h.p.Store(c)
	return h
}

// Load returns the current configuration.
func (h *Holder) Load() *Config { return h.p.Load() }

// Store replaces the current configuration.
func (h *Holder) Store(c *Config) { h.p.Store(c) }

// User implements auth.Directory against the current configuration.
func (h *Holder) User(name string) (*auth.User, bool) {
	return h.Load().User(name)
}

// reloadDebounce coalesces the burst of events editors produce on save.
const reloadDebounce = 250 * time.Millisecond

// Watcher reloads a config file into a Holder when it changes on disk.
// A file that fails to parse or validate is logged and the previous
// configuration stays in effect.
type Watcher struct {
	Path     string
	Holder   *Holder
	Validate func(*Config) error // optional
	OnReload func(*Config)       // optional, called after a successful swap
	Logger   *slog.Logger

	mu       sync.Mutex
	debounce *time.Timer
	signals  chan struct{}
}

// Run watches until ctx is done. It watches the file's directory so that
// editors replacing the file by rename are noticed.
func (w *Watcher) Run(ctx context.Context) error {
	w.signals = make(chan struct{}, 1)
	path := filepath.Clean(w.Path)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(filepath.Dir(path)); err != nil {
		return err
	}
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-w.signals:
			w.reload(path)

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.mu.Lock()
				if w.debounce != nil {
					w.debounce.Stop()
				}
				w.debounce = time.AfterFunc(reloadDebounce, w.sendSignal)
				w.mu.Unlock()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger().Warn("config watcher error", "path", path, "error", err)
		}
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) sendSignal() {
	select {
	case w.signals <- struct{}{}:
	default:
	}
}

func (w *Watcher) reload(path string) {
	c, err := Load(path)
	if err == nil && w.Validate != nil {
		err = w.Validate(c)
	}
	if err != nil {
		w.logger().Error("config reload failed, keeping previous config", "path", path, "error", err)
		return
	}
	w.Holder.Store(c)
	w.logger().Info("config reloaded", "path", path, "models", len(c.Models), "users", len(c.Users))
	if w.OnReload != nil {
		w.OnReload(c)
	}
}

func (w *Watcher) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
