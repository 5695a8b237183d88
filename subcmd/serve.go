package subcmd

import (
	"context"
	"time"

	"github.com/c0deeast/suyuan-vm/bridge"
	"github.com/c0deeast/suyuan-vm/log"
	"github.com/urfave/cli"
	"github.com/xlab/closer"
)

var Serve = cli.Command{
	Name:      "serve",
	Aliases:   []string{"s"},
	Usage:     "Serves block requests from an MQTT broker until interrupted",
	ArgsUsage: "[device]",
	Flags: withFlags([]cli.Flag{
		cli.StringFlag{
			Name:  "broker, b",
			Usage: `Broker URL (default: from config)`,
		},
		cli.StringFlag{
			Name:  "prefix, p",
			Usage: `Topic prefix (default: from config)`,
		},
	}, deviceFlags, logFlags),
	Action: func(ctx *cli.Context) error {
		cfg, err := setup(ctx)
		if err != nil {
			return exitError(err)
		}
		if b := ctx.String("broker"); b != "" {
			cfg.MQTT.Broker = b
		}
		if p := ctx.String("prefix"); p != "" {
			cfg.MQTT.TopicPrefix = p
		}
		s, runCtx, err := open(ctx, cfg, ctx.Args().First())
		if err != nil {
			return exitError(err)
		}
		client, err := bridge.Dial(cfg.MQTT)
		if err != nil {
			s.Close()
			return exitError(err)
		}
		br := bridge.New(client, s.disp, bridge.Options{
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         byte(cfg.MQTT.QoS),
			Timeout:     cfg.MQTT.ConnectTimeout(),
			QueueSize:   cfg.Interrupt.QueueSize,
		})
		if err := br.Start(runCtx); err != nil {
			client.Disconnect(250)
			s.Close()
			return exitError(err)
		}

		closer.Bind(func() {
			s.cancel()
			if err := br.Stop(); err != nil {
				log.Warnf("%s", err)
			}
			stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.disp.Stop(stopCtx); err != nil {
				log.Warnf("%s", err)
			}
			if n := br.Dropped(); n > 0 {
				log.Warnf("%d requests dropped", n)
			}
			client.Disconnect(250)
			s.Close()
		})
		log.Infof("serving %s on %s", cfg.MQTT.TopicPrefix, cfg.MQTT.Broker)
		closer.Hold()
		return nil
	},
}
