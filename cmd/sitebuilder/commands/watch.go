package commands

import (
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/site"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	SiteFlags

	Debounce time.Duration `help:"Quiet period after a change before rebuilding (default 300ms)"`
	Interval time.Duration `help:"Also rebuild on this interval; 0 disables"`
}

func (w *WatchCmd) Run(g *Global) error {
	cfg, err := w.LoadConfig()
	if err != nil {
		return err
	}
	if w.Debounce > 0 {
		cfg.Watch.Debounce = w.Debounce
	}
	if w.Interval > 0 {
		cfg.Watch.Interval = w.Interval
	}
	svc, closeFn := newService(cfg, g.Logger)
	defer closeFn()

	ctx, cancel := signalContext()
	defer cancel()

	watcher := watch.New(svc, cfg,
		watch.WithLogger(g.Logger),
		watch.OnBuild(func(report *site.BuildReport, _ error) { printReport(g, report) }),
	)
	return watcher.Run(ctx)
}
