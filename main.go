package main

import (
	"os"

	"github.com/c0deeast/suyuan-vm/subcmd"
	"github.com/urfave/cli"
)

var version string

func init() {
	if version == "" {
		version = "unknown"
	}
}

func main() {
	app := cli.NewApp()
	app.Name = "suyuan-vm"
	app.Version = version
	app.Usage = "Drives ESP32 boards with OpenBlock blocks over a serial link"
	app.HelpName = "suyuan-vm"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  `Config file (.yaml)`,
			EnvVar: "SUYUAN_CONFIG",
		},
	}

	app.Commands = []cli.Command{
		subcmd.Catalog,
		subcmd.Info,
		subcmd.Exec,
		subcmd.Run,
		subcmd.Watch,
		subcmd.Serve,
	}

	app.Action = func(ctx *cli.Context) error {
		cli.ShowAppHelp(ctx)
		return nil
	}

	app.Run(os.Args)
}
