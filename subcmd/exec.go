package subcmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/c0deeast/suyuan-vm/blocks"
	"github.com/c0deeast/suyuan-vm/log"
	"github.com/urfave/cli"
)

var Exec = cli.Command{
	Name:      "exec",
	Aliases:   []string{"x"},
	Usage:     "Executes one block on the board",
	ArgsUsage: "<device> <opcode> [NAME=VALUE...]",
	Flags: withFlags([]cli.Flag{
		cli.BoolFlag{
			Name:  "json, j",
			Usage: `Prints the result in JSON format`,
		},
	}, deviceFlags, logFlags),
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() < 2 {
			cli.ShowCommandHelp(ctx, "exec")
			os.Exit(1)
		}
		cfg, err := setup(ctx)
		if err != nil {
			return exitError(err)
		}
		args := ctx.Args()
		blockArgs, err := parseAssignments(args[2:])
		if err != nil {
			return exitError(err)
		}
		s, runCtx, err := open(ctx, cfg, args[0])
		if err != nil {
			return exitError(err)
		}
		defer s.Close()

		res, err := s.disp.Execute(runCtx, args[1], blockArgs)
		if err != nil {
			return exitError(err)
		}
		if ctx.Bool("json") {
			j, err := json.Marshal(res)
			if err != nil {
				return exitError(err)
			}
			fmt.Println(string(j))
		} else if res.Arity != blocks.Arity_None {
			fmt.Println(res.Value)
		} else {
			log.Infof("%s done", args[1])
		}
		return nil
	},
}
