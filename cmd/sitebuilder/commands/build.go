package commands

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	SiteFlags
}

func (b *BuildCmd) Run(g *Global) error {
	cfg, err := b.LoadConfig()
	if err != nil {
		return err
	}
	svc, closeFn := newService(cfg, g.Logger)
	defer closeFn()

	ctx, cancel := signalContext()
	defer cancel()

	report, err := svc.Build(ctx)
	printReport(g, report)
	if err != nil {
		return err
	}
	return report.Err()
}
