package main

import (
	"io"

	"github.com/maruel/subcommands"
)

// application is subcommands.DefaultApplication with its output streams
// replaceable, so commands can be run in tests.
type application struct {
	subcommands.DefaultApplication
	out    io.Writer
	errOut io.Writer
}

func (a *application) GetOut() io.Writer { return a.out }
func (a *application) GetErr() io.Writer { return a.errOut }

func newApplication(out, errOut io.Writer) *application {
	return &application{
		DefaultApplication: subcommands.DefaultApplication{
			Name:  "globalcache",
			Title: "Inspect and edit a local or Redis-backed cache.",
			Commands: []*subcommands.Command{
				cmdGet,
				cmdSet,
				cmdDel,
				cmdHas,
				cmdPing,
				cmdKeys,
				cmdValues,
				cmdLock,
				cmdUnlock,
				subcommands.CmdHelp,
			},
		},
		out:    out,
		errOut: errOut,
	}
}

func run(args []string, out, errOut io.Writer) int {
	return subcommands.Run(newApplication(out, errOut), args)
}
