package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/noeta/NAR/errors"
	"github.com/noeta/NAR/logger"
)

// ReloadCallback is invoked with the freshly loaded config after the
// watched file changes. A callback error is logged, not fatal.
type ReloadCallback func(*Config) error

// Watcher reloads the configuration when its file changes on disk. Rapid
// successive writes are debounced; writes made through Save are ignored to
// prevent reload loops.
type Watcher struct {
	configPath     string
	watcher        *fsnotify.Watcher
	debouncePeriod time.Duration

	mu        sync.RWMutex
	callbacks []ReloadCallback

	debounceMu    sync.Mutex
	debounceTimer *time.Timer

	ownWriteMu    sync.Mutex
	ownWriteUntil time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

var (
	globalWatcher   *Watcher
	globalWatcherMu sync.Mutex
)

// Watch creates and starts the process-wide config watcher on a path.
func Watch(configPath string) (*Watcher, error) {
	globalWatcherMu.Lock()
	defer globalWatcherMu.Unlock()
	if globalWatcher != nil {
		return globalWatcher, nil
	}
	w, err := NewWatcher(configPath)
	if err != nil {
		return nil, err
	}
	w.Start()
	globalWatcher = w
	return w, nil
}

// NewWatcher creates a stopped watcher for a config file.
func NewWatcher(configPath string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fsw.Add(configPath); err != nil {
		fsw.Close()
		return nil, errors.Wrapf(err, "failed to watch config file %s", configPath)
	}
	return &Watcher{
		configPath:     configPath,
		watcher:        fsw,
		debouncePeriod: 500 * time.Millisecond,
		stop:           make(chan struct{}),
	}, nil
}

// OnReload registers a callback invoked after each successful reload.
func (w *Watcher) OnReload(cb ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// MarkOwnWrite flags file events in the next debounce window as
// self-inflicted. One save can fan out into several fsnotify events, so a
// single-shot flag is not enough.
func (w *Watcher) MarkOwnWrite() {
	w.ownWriteMu.Lock()
	defer w.ownWriteMu.Unlock()
	w.ownWriteUntil = time.Now().Add(2 * w.debouncePeriod)
}

func (w *Watcher) checkOwnWrite() bool {
	w.ownWriteMu.Lock()
	defer w.ownWriteMu.Unlock()
	return time.Now().Before(w.ownWriteUntil)
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Close stops watching and releases the fsnotify handle.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stop)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if w.checkOwnWrite() {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("config watcher error", "error", err)
		}
	}
}

// scheduleReload debounces bursts of file events into one reload.
func (w *Watcher) scheduleReload() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := LoadFromFile(w.configPath)
	if err != nil {
		logger.Warnw("config reload failed, keeping previous config",
			"path", w.configPath, "error", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		logger.Warnw("reloaded config invalid, keeping previous config",
			"path", w.configPath, "error", err)
		return
	}

	w.mu.RLock()
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		if err := cb(cfg); err != nil {
			logger.Warnw("config reload callback failed", "error", err)
		}
	}
	logger.Infow("configuration reloaded", "path", w.configPath)
}
