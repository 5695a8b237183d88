package subcmd

import (
	"context"
	"os"

	"github.com/c0deeast/suyuan-vm/sequencer"
	"github.com/urfave/cli"
	"github.com/xlab/closer"
)

var Run = cli.Command{
	Name:      "run",
	Aliases:   []string{"r"},
	Usage:     "Runs a block program (.yaml) on the board",
	ArgsUsage: "<device> <program>",
	Flags: withFlags([]cli.Flag{
		cli.IntFlag{
			Name:  "loop, l",
			Usage: `Loop count (0: infinite)`,
			Value: 1,
		},
		cli.DurationFlag{
			Name:  "linger",
			Usage: `Keep serving interrupts for this long after the last step (negative: until interrupted)`,
		},
	}, deviceFlags, logFlags),
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() < 2 || ctx.Int("loop") < 0 {
			cli.ShowCommandHelp(ctx, "run")
			os.Exit(1)
		}
		cfg, err := setup(ctx)
		if err != nil {
			return exitError(err)
		}
		args := ctx.Args()
		p, err := sequencer.LoadProgram(args[1])
		if err != nil {
			return exitError(err)
		}
		s, runCtx, err := open(ctx, cfg, args[0])
		if err != nil {
			return exitError(err)
		}
		done := make(chan struct{})
		defer close(done)
		defer s.Close()

		playCtx, stop := context.WithCancel(runCtx)
		defer stop()
		closer.Bind(func() {
			stop()
			<-done
		})
		q := sequencer.New(s.disp)
		err = q.Play(playCtx, p, &sequencer.SequencerOptions{
			Loop:   ctx.Int("loop"),
			Linger: ctx.Duration("linger"),
		})
		if err != nil && playCtx.Err() == nil {
			return exitError(err)
		}
		return nil
	},
}
