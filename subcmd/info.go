package subcmd

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/c0deeast/suyuan-vm/board"
	"github.com/urfave/cli"
)

var Info = cli.Command{
	Name:    "info",
	Aliases: []string{"i"},
	Usage:   "Shows the board variant: pins, channels, serial ports and upload target",
	Flags: withFlags([]cli.Flag{
		cli.BoolFlag{
			Name:  "json, j",
			Usage: `Shows in JSON format`,
		},
		cli.StringFlag{
			Name:  "os",
			Usage: `Upload target for this OS`,
			Value: runtime.GOOS,
		},
	}, logFlags),
	Action: func(ctx *cli.Context) error {
		cfg, err := setup(ctx)
		if err != nil {
			return exitError(err)
		}
		v, _, err := variantOf(cfg)
		if err != nil {
			return exitError(err)
		}
		fqbn, _ := v.Identity.FQBN(ctx.String("os"))
		if ctx.Bool("json") {
			j, err := json.MarshalIndent(map[string]interface{}{
				"id":       v.ID,
				"name":     v.Name,
				"identity": v.Identity,
				"fqbn":     fqbn,
				"pins":     v.Pins,
				"channels": v.Channels,
				"serial":   v.UsableSerialPorts(),
			}, "", "  ")
			if err != nil {
				return exitError(err)
			}
			fmt.Println(string(j))
			return nil
		}

		fmt.Printf("%s (%s), known variants: %s\n", v.Name, v.ID, strings.Join(board.Variants(), ", "))
		fmt.Printf("USB ids:   %s\n", strings.Join(v.Identity.PNPIDs, " "))
		l := v.Identity.Link
		fmt.Printf("link:      %d bps, %d data bits, %d stop bits\n", l.BaudRate, l.DataBits, l.StopBits)
		fmt.Printf("upload:    %s %s\n", v.Identity.Type, fqbn)
		fmt.Println()
		fmt.Println("Pin   Caps")
		for _, p := range v.Pins {
			note := ""
			if v.IsFlashReserved(p.Value) {
				note = " (flash, unavailable)"
			}
			fmt.Printf("%-5s %s%s\n", p.Name, p.Caps, note)
		}
		fmt.Println()
		for _, c := range v.Channels {
			fmt.Printf("%s ", c.Label())
		}
		fmt.Println()
		ports := []string{}
		for _, p := range v.UsableSerialPorts() {
			ports = append(ports, fmt.Sprint(p.Number))
		}
		fmt.Printf("serial ports: %s\n", strings.Join(ports, ", "))
		return nil
	},
}
