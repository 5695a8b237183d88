package subcmd

import (
	"context"
	"strings"

	"github.com/c0deeast/suyuan-vm/blocks"
	"github.com/c0deeast/suyuan-vm/board"
	"github.com/c0deeast/suyuan-vm/config"
	"github.com/c0deeast/suyuan-vm/dispatch"
	"github.com/c0deeast/suyuan-vm/interrupt"
	"github.com/c0deeast/suyuan-vm/log"
	"github.com/c0deeast/suyuan-vm/peripheral"
	"github.com/c0deeast/suyuan-vm/serial"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var logFlags = []cli.Flag{
	cli.BoolFlag{
		Name:  "debug, d",
		Usage: `Show debug messages`,
	},
	cli.BoolFlag{
		Name:  "quiet, q",
		Usage: `Suppress information messages`,
	},
	cli.BoolFlag{
		Name:  "silent, Q",
		Usage: `Do not output any messages`,
	},
}

var deviceFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "baudrate, r",
		Usage: `Baud rate ` + serial.BaudRateList() + ` (default: from config)`,
	},
	cli.StringFlag{
		Name:  "driver",
		Usage: `Serial driver (jacobsa|tarm)`,
	},
	cli.BoolFlag{
		Name:  "handshake",
		Usage: `Wait for the board sketch and check its version`,
	},
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	result := []cli.Flag{}
	for _, g := range groups {
		result = append(result, g...)
	}
	return result
}

// setup は、設定ファイルを読み込み、ログ出力を設定します。
func setup(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	log.Level = cfg.Log.LogLevel()
	if ctx.Bool("debug") {
		log.Level = log.LogLevel_Debug
	} else if ctx.Bool("silent") {
		log.Level = log.LogLevel_None
	} else if ctx.Bool("quiet") {
		log.Level = log.LogLevel_Warn
	}
	log.SetFile(cfg.Log.FileOptions())
	return cfg, nil
}

func variantOf(cfg *config.Config) (*board.Variant, *blocks.Catalog, error) {
	v, err := board.Lookup(cfg.Device.Variant)
	if err != nil {
		return nil, nil, err
	}
	c, err := blocks.Load(v)
	if err != nil {
		return nil, nil, err
	}
	return v, c, nil
}

// session は、ボードとの接続と、それを駆動する Dispatcher です。
type session struct {
	ctrl   *serial.Controller
	device *peripheral.Device
	disp   *dispatch.Dispatcher
	cancel context.CancelFunc
}

// open は、ボードに接続し、割り込みテーブルのワーカーを開始します。
func open(ctx *cli.Context, cfg *config.Config, device string) (*session, context.Context, error) {
	v, c, err := variantOf(cfg)
	if err != nil {
		return nil, nil, err
	}
	opts := serial.Options{
		Device:      device,
		BaudRate:    cfg.Device.BaudRate,
		Driver:      cfg.Device.Driver,
		ReadTimeout: cfg.Device.ReadTimeout(),
		Handshake:   cfg.Device.Handshake || ctx.Bool("handshake"),
		NullReplies: peripheral.NullReplies(),
	}
	if device == "" {
		opts.Device = cfg.Device.Port
	}
	if r := ctx.Int("baudrate"); r != 0 {
		if !serial.IsValidBaudRate(r) {
			return nil, nil, errors.Errorf("invalid baud rate %d, want one of %s", r, serial.BaudRateList())
		}
		opts.BaudRate = r
	}
	if d := ctx.String("driver"); d != "" {
		opts.Driver = d
	}
	ctrl, err := serial.Open(opts)
	if err != nil {
		return nil, nil, err
	}
	dev := peripheral.NewDevice(v, ctrl)
	table := interrupt.New(cfg.Interrupt.QueueSize)
	runCtx, cancel := context.WithCancel(context.Background())
	table.Start(runCtx)
	s := &session{
		ctrl:   ctrl,
		device: dev,
		disp:   dispatch.New(c, dev, table, dispatch.WithGripperDefaultSpeed(cfg.Robot.GripperDefaultSpeed)),
		cancel: cancel,
	}
	return s, runCtx, nil
}

func (s *session) Close() {
	s.cancel()
	if err := s.ctrl.Close(); err != nil {
		log.Warnf("%s", err)
	}
	log.Debugf("%d bytes sent", s.ctrl.SentBytes())
}

// parseAssignments は、NAME=VALUE 形式の引数をブロックの引数に変換します。
func parseAssignments(list []string) (map[string]interface{}, error) {
	args := map[string]interface{}{}
	for _, a := range list {
		i := strings.Index(a, "=")
		if i <= 0 {
			return nil, errors.Errorf("argument %q is not NAME=VALUE", a)
		}
		args[strings.ToUpper(a[:i])] = a[i+1:]
	}
	return args, nil
}

func exitError(err error) error {
	if err == nil {
		return nil
	}
	return cli.NewExitError(err, 1)
}
