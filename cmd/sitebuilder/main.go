package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/cmd/sitebuilder/commands"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// exitRequest is raised by kong's exit hook so that run can return the code
// instead of terminating the process.
type exitRequest int

func run(args []string, stdout, stderr io.Writer) (code int) {
	var cli commands.CLI
	g := &commands.Global{Stdout: stdout, Stderr: stderr}

	parser, err := kong.New(&cli,
		kong.Name("sitebuilder"),
		kong.Description("Build a static site from a directory of markdown documents."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(g),
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitRequest(c)) }),
	)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return ferrors.ExitInternal
	}

	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitRequest)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return ferrors.ExitUsage
	}
	return commands.Exit(g, cli.Verbose, kctx.Run(g))
}
