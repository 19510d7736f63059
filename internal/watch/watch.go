// Package watch rebuilds a site when its sources change and, optionally, on
// a fixed interval.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// DefaultDebounce is used when the configured debounce is not positive.
const DefaultDebounce = 300 * time.Millisecond

// Builder runs one build. *site.Service satisfies it.
type Builder interface {
	Build(ctx context.Context) (*site.BuildReport, error)
}

// BuildFunc is called after every build the watcher runs.
type BuildFunc func(report *site.BuildReport, err error)

// Watcher triggers builds from filesystem events and an optional schedule.
// Builds never overlap: requests arriving during a build coalesce into one
// follow-up build.
type Watcher struct {
	builder  Builder
	roots    []string
	ignored  []string
	debounce time.Duration
	interval time.Duration
	logger   *slog.Logger
	onBuild  BuildFunc

	requests chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// OnBuild registers a callback invoked after each build.
func OnBuild(fn BuildFunc) Option {
	return func(w *Watcher) { w.onBuild = fn }
}

// New returns a Watcher for the directories named in cfg. The content,
// layouts and static directories are watched; output and state directories
// are ignored even when nested inside them.
func New(b Builder, cfg *config.Config, opts ...Option) *Watcher {
	debounce := cfg.Watch.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		builder:  b,
		roots:    watchRoots(cfg.Build.ContentDir, cfg.Build.LayoutsDir, cfg.Build.StaticDir),
		ignored:  nonEmpty(cfg.Build.OutputDir, cfg.Build.StateDir),
		debounce: debounce,
		interval: cfg.Watch.Interval,
		logger:   slog.Default(),
		requests: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Roots returns the directories being watched.
func (w *Watcher) Roots() []string { return w.roots }

// Run performs an initial build, then rebuilds on change until ctx is done.
// It returns nil on cancellation and an error only when watching cannot start.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fsw.Close() }()
	for _, root := range w.roots {
		if err := w.addDirsRecursive(fsw, root); err != nil {
			return err
		}
	}

	sched, err := w.schedule()
	if err != nil {
		return err
	}
	if sched != nil {
		sched.Start()
		defer func() {
			if err := sched.Shutdown(); err != nil {
				w.logger.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.buildLoop(ctx)
	}()

	w.request()
	trigger, stop := w.debouncer()
	defer stop()

	w.logger.Info("Watching for changes", slog.Any("roots", w.roots), slog.Duration("debounce", w.debounce))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Watch stopped")
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(fsw, ev) {
				trigger()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// schedule returns a scheduler requesting periodic rebuilds, or nil when no
// interval is configured.
func (w *Watcher) schedule() (gocron.Scheduler, error) {
	if w.interval <= 0 {
		return nil, nil
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if _, err := s.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(w.request),
		gocron.WithName("periodic-rebuild"),
	); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	w.logger.Info("Periodic rebuild scheduled", slog.Duration("interval", w.interval))
	return s, nil
}

// request queues a build. A build already queued absorbs the request.
func (w *Watcher) request() {
	select {
	case w.requests <- struct{}{}:
	default:
	}
}

// debouncer returns a trigger that requests a build once events have been
// quiet for the debounce period, and a stop function cancelling any pending
// timer.
func (w *Watcher) debouncer() (trigger func(), stop func()) {
	var mu sync.Mutex
	var timer *time.Timer
	trigger = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, w.request)
	}
	stop = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return trigger, stop
}

func (w *Watcher) buildLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.requests:
			w.build(ctx)
		}
	}
}

func (w *Watcher) build(ctx context.Context) {
	report, err := w.builder.Build(ctx)
	switch {
	case err != nil && errors.Is(err, context.Canceled):
		return
	case err != nil:
		w.logger.Warn("Rebuild failed", logfields.Error(err))
	case report != nil && report.Failed() > 0:
		w.logger.Warn("Rebuild finished with failures", logfields.Count(report.Failed()))
	default:
		w.logger.Info("Rebuild finished")
	}
	if w.onBuild != nil {
		w.onBuild(report, err)
	}
}

// handleEvent reports whether ev should trigger a rebuild. Newly created
// directories are added to the watch.
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if shouldIgnoreEvent(ev.Name) || w.isIgnoredPath(ev.Name) {
		return false
	}
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(fsw, ev.Name)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	return true
}

func (w *Watcher) addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || w.isIgnoredPath(path)) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			w.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

func (w *Watcher) isIgnoredPath(path string) bool {
	for _, dir := range w.ignored {
		if within(dir, path) {
			return true
		}
	}
	return false
}

// shouldIgnoreEvent returns true for hidden, editor swap and OS metadata files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}

// watchRoots returns the existing directories among dirs, dropping any that
// another root already covers.
func watchRoots(dirs ...string) []string {
	var roots []string
	for _, d := range nonEmpty(dirs...) {
		if fi, err := os.Stat(d); err != nil || !fi.IsDir() {
			continue
		}
		covered := false
		for _, r := range roots {
			if within(r, d) {
				covered = true
				break
			}
		}
		if !covered {
			roots = append(roots, d)
		}
	}
	return roots
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, filepath.Clean(v))
		}
	}
	return out
}
