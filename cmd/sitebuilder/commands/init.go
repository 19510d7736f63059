package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir   string `arg:"" optional:"" default:"." help:"Content directory to write sitebuilder.yaml into" type:"path"`
	Force bool   `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global) error {
	path := filepath.Join(i.Dir, config.DefaultFileName)
	if err := config.WriteExample(path, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Stdout, "Wrote configuration to %s\n", path)
	return nil
}
