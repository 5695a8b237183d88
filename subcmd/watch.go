package subcmd

import (
	"context"
	"os"
	"time"

	"github.com/c0deeast/suyuan-vm/board"
	"github.com/c0deeast/suyuan-vm/sequencer"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"github.com/xlab/closer"
)

var Watch = cli.Command{
	Name:      "watch",
	Aliases:   []string{"w"},
	Usage:     "Shows the state of input pins until interrupted",
	ArgsUsage: "<device> <pin...>",
	Flags: withFlags([]cli.Flag{
		cli.DurationFlag{
			Name:  "interval, n",
			Usage: `Polling interval`,
			Value: 200 * time.Millisecond,
		},
		cli.StringFlag{
			Name:  "interrupt, i",
			Usage: `Also count interrupts of this mode (RISING|FALLING|CHANGE|LOW|HIGH)`,
		},
	}, deviceFlags, logFlags),
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() < 2 {
			cli.ShowCommandHelp(ctx, "watch")
			os.Exit(1)
		}
		mode := board.InterruptMode(ctx.String("interrupt"))
		if mode != "" && !mode.Valid() {
			return exitError(errors.Errorf("Unknown interrupt mode %s", mode))
		}
		cfg, err := setup(ctx)
		if err != nil {
			return exitError(err)
		}
		args := ctx.Args()
		s, runCtx, err := open(ctx, cfg, args[0])
		if err != nil {
			return exitError(err)
		}
		done := make(chan struct{})
		defer close(done)
		defer s.Close()
		ws, err := sequencer.NewWatchState(s.device.Variant(), args[1:])
		if err != nil {
			return exitError(err)
		}

		watchCtx, stop := context.WithCancel(runCtx)
		defer stop()
		closer.Bind(func() {
			stop()
			<-done
		})
		err = sequencer.Watch(watchCtx, s.disp, ws, &sequencer.WatchOptions{
			Interval:  ctx.Duration("interval"),
			Interrupt: mode,
			Out:       os.Stdout,
		})
		return exitError(err)
	},
}
