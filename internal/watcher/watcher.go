// Package watcher re-aggregates a run directory when its contents change.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/bactopia/bactopia-parser/internal/event"
)

// ScanFunc aggregates the watched run directory once.
type ScanFunc func(ctx context.Context) error

// Options tunes a Service. Zero values use the defaults.
type Options struct {
	// Debounce coalesces bursts of filesystem events into one scan.
	Debounce time.Duration
	// MaxScansPerMinute caps how often scans may start.
	MaxScansPerMinute int
	// PollInterval is used when fsnotify cannot watch the root.
	PollInterval time.Duration
}

// Service watches a run root and its sample directories. New and removed
// sample directories are published as events; any change schedules a
// debounced, rate limited scan.
type Service struct {
	root     string
	scanFn   ScanFunc
	eventBus *event.Bus
	logger   *slog.Logger
	debounce time.Duration
	poll     time.Duration
	limiter  *rate.Limiter

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	samples map[string]struct{} // sample directory names under root
}

// NewService creates a watcher for root. bus may be nil.
func NewService(root string, scanFn ScanFunc, bus *event.Bus, logger *slog.Logger, opts Options) *Service {
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}
	if opts.MaxScansPerMinute <= 0 {
		opts.MaxScansPerMinute = 6
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Minute
	}
	perScan := time.Minute / time.Duration(opts.MaxScansPerMinute)
	return &Service{
		root:     root,
		scanFn:   scanFn,
		eventBus: bus,
		logger:   logger.With("component", "fs-watcher"),
		debounce: opts.Debounce,
		poll:     opts.PollInterval,
		limiter:  rate.NewLimiter(rate.Every(perScan), 1),
		samples:  make(map[string]struct{}),
	}
}

// Start blocks until ctx is canceled. When fsnotify is unavailable the
// root is polled for added and removed sample directories instead.
func (s *Service) Start(ctx context.Context) error {
	snap := readDirSnapshot(s.root)
	if snap == nil {
		snap = make(map[string]struct{})
	}
	s.mu.Lock()
	s.samples = snap
	s.mu.Unlock()

	var eventCh <-chan fsnotify.Event
	var errCh <-chan error
	var pollCh <-chan time.Time

	w, err := s.openWatcher()
	if err != nil {
		s.logger.Warn("fsnotify unavailable, polling run directory", "root", s.root, "error", err)
		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()
		pollCh = ticker.C
	} else {
		defer w.Close() //nolint:errcheck
		eventCh = w.Events
		errCh = w.Errors
	}
	s.logger.Info("watching run directory", "root", s.root)

	// Starts stopped; reset on each relevant event.
	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	defer debounceTimer.Stop()
	scanPending := false

	schedule := func() {
		if !debounceTimer.Stop() {
			select {
			case <-debounceTimer.C:
			default:
			}
		}
		debounceTimer.Reset(s.debounce)
		scanPending = true
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("watcher stopping")
			return nil

		case ev, ok := <-eventCh:
			if !ok {
				return nil
			}
			if s.handleFSEvent(ev) {
				schedule()
			}

		case err, ok := <-errCh:
			if !ok {
				return nil
			}
			s.logger.Error("fsnotify error", "error", err)

		case <-pollCh:
			if s.pollRoot() {
				schedule()
			}

		case <-debounceTimer.C:
			if !scanPending {
				continue
			}
			scanPending = false
			if err := s.limiter.Wait(ctx); err != nil {
				return nil
			}
			s.logger.Info("change settled, re-aggregating", "root", s.root)
			if err := s.scanFn(ctx); err != nil {
				s.logger.Error("scan triggered by watcher failed", "error", err)
			}
		}
	}
}

func (s *Service) openWatcher() (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(s.root); err != nil {
		_ = w.Close()
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcher = w
	for name := range s.samples {
		s.addSampleWatch(filepath.Join(s.root, name))
	}
	return w, nil
}

// addSampleWatch must be called with s.mu held.
func (s *Service) addSampleWatch(dir string) {
	if s.watcher == nil {
		return
	}
	if err := s.watcher.Add(dir); err != nil {
		s.logger.Warn("failed to watch sample directory", "path", dir, "error", err)
	}
}

// handleFSEvent tracks sample directories under the root and reports
// whether the event should trigger a scan.
func (s *Service) handleFSEvent(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	if filepath.Dir(ev.Name) != filepath.Clean(s.root) {
		// A file inside a sample directory changed.
		return true
	}
	name := filepath.Base(ev.Name)

	if ev.Has(fsnotify.Create) {
		info, err := os.Stat(ev.Name)
		if err != nil || !info.IsDir() {
			return false
		}
		s.mu.Lock()
		_, known := s.samples[name]
		s.samples[name] = struct{}{}
		s.addSampleWatch(ev.Name)
		s.mu.Unlock()
		if !known {
			s.publish(event.SampleAdded, name)
		}
		return true
	}

	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		s.mu.Lock()
		_, known := s.samples[name]
		delete(s.samples, name)
		s.mu.Unlock()
		if !known {
			return false
		}
		s.publish(event.SampleRemoved, name)
		return true
	}
	return false
}

// pollRoot diffs the root's subdirectories against the last snapshot.
func (s *Service) pollRoot() bool {
	snap := readDirSnapshot(s.root)
	if snap == nil {
		return false
	}

	s.mu.Lock()
	old := s.samples
	s.samples = snap
	s.mu.Unlock()

	changed := false
	for name := range snap {
		if _, ok := old[name]; !ok {
			s.publish(event.SampleAdded, name)
			changed = true
		}
	}
	for name := range old {
		if _, ok := snap[name]; !ok {
			s.publish(event.SampleRemoved, name)
			changed = true
		}
	}
	return changed
}

func (s *Service) publish(t event.Type, name string) {
	level := slog.LevelInfo
	if t == event.SampleRemoved {
		level = slog.LevelWarn
	}
	s.logger.Log(context.Background(), level, "sample directory changed",
		"event", string(t), "name", name, "root", s.root)

	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(event.Event{
		Type:   t,
		Root:   s.root,
		Sample: name,
	})
}

// readDirSnapshot reads directory entries and returns a set of subdirectory names.
func readDirSnapshot(path string) map[string]struct{} {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil
	}
	snap := make(map[string]struct{})
	for _, e := range entries {
		if e.IsDir() {
			snap[e.Name()] = struct{}{}
		}
	}
	return snap
}
