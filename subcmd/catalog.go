package subcmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/c0deeast/suyuan-vm/blocks"
	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var Catalog = cli.Command{
	Name:    "catalog",
	Aliases: []string{"c"},
	Usage:   "Dumps the block catalog of the board variant",
	Flags: withFlags([]cli.Flag{
		cli.BoolFlag{
			Name:  "json, j",
			Usage: `Dumps in JSON format`,
		},
		cli.BoolFlag{
			Name:  "protobuf, p",
			Usage: `Dumps in protobuf`,
		},
		cli.StringFlag{
			Name:  "block, b",
			Usage: `Dumps only the block with this opcode`,
		},
	}, logFlags),
	Action: func(ctx *cli.Context) error {
		cfg, err := setup(ctx)
		if err != nil {
			return exitError(err)
		}
		_, c, err := variantOf(cfg)
		if err != nil {
			return exitError(err)
		}
		if op := ctx.String("block"); op != "" {
			d, ok := c.Lookup(op)
			if !ok {
				return exitError(errors.Errorf("Unknown block %s", op))
			}
			printBlock(os.Stdout, c, d)
			return nil
		}
		switch {
		case ctx.Bool("json"):
			j, err := json.MarshalIndent(c, "", "  ")
			if err != nil {
				return exitError(err)
			}
			fmt.Println(string(j))
		case ctx.Bool("protobuf"):
			b, err := proto.Marshal(c.ToPB())
			if err != nil {
				return exitError(err)
			}
			os.Stdout.Write(b)
		default:
			printCatalog(os.Stdout, c)
		}
		return nil
	},
}

func printCatalog(w io.Writer, c *blocks.Catalog) {
	fmt.Fprintf(w, "%s (%s)\n", c.Variant.Name, c.Variant.ID)
	for _, cat := range c.Categories {
		fmt.Fprintf(w, "\n[%s] %s %s\n", cat.ID, cat.Name, cat.Color1)
		for _, d := range cat.Blocks {
			if d.IsSeparator() {
				fmt.Fprintln(w, "  ---")
				continue
			}
			fmt.Fprintf(w, "  %-28s %-11s %s\n", d.Opcode, d.BlockType, d.Text)
		}
	}
}

func printBlock(w io.Writer, c *blocks.Catalog, d *blocks.Descriptor) {
	fmt.Fprintf(w, "%s: %s\n", d.Opcode, d.Text)
	fmt.Fprintf(w, "  type %s, value %s, %s\n", d.BlockType, d.Arity, d.Class)
	for _, a := range d.Arguments {
		line := fmt.Sprintf("  %-10s %-9s default %q", a.Name, a.Type, a.Default)
		if m, ok := c.Menu(a.Menu); ok {
			line += " one of " + strings.Join(m.Values(), "|")
		} else if lo, hi, ok := a.Type.Bounds(); ok {
			line += fmt.Sprintf(" in [%g, %g]", lo, hi)
		}
		fmt.Fprintln(w, line)
	}
}
