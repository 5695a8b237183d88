package serial

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/c0deeast/suyuan-vm/log"
	"github.com/c0deeast/suyuan-vm/peripheral"
	"github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
	tarm "github.com/tarm/serial"
	"github.com/xlab/closer"
)

const (
	sketchVersionGTE = 100
	sketchVersionLT  = 200
)

// ErrClosed は、接続が閉じられた後に送信しようとした場合のエラーです。
var ErrClosed = errors.New("serial port closed")

// BoardError は、ボードがコマンドの実行に失敗したことを表します。
type BoardError struct {
	Message string
}

func (e *BoardError) Error() string {
	return "board: " + e.Message
}

// BaudRates は、ボーレートの選択肢です。
var BaudRates = []int{300, 600, 1200, 2400, 4800, 9600, 14400, 19200, 28800, 38400, 57600, 115200}

// IsValidBaudRate は、指定した整数値がボーレートとして使用可能かを判定します。
func IsValidBaudRate(r int) bool {
	for _, v := range BaudRates {
		if v == r {
			return true
		}
	}
	return false
}

// BaudRateList は、ボーレートの選択肢を一覧表示します。
func BaudRateList() string {
	s := fmt.Sprint(BaudRates)
	return "(" + strings.Replace(s[1:len(s)-1], " ", "|", -1) + ")"
}

// Options は、シリアルポートを開く際の設定です。
type Options struct {
	Device   string
	BaudRate int
	// Driver は "jacobsa"（既定）または "tarm" です。
	Driver string
	// ReadTimeout は、文字間タイムアウトです（jacobsa のみ）。
	ReadTimeout time.Duration
	// Handshake が真の場合、ボードの "ready" を待ちスケッチのバージョンを確認します。
	Handshake        bool
	HandshakeTimeout time.Duration
	// NullReplies は、ヌルデバイスが問い合わせに返す値です（既定は "0"）。
	NullReplies map[string]string
}

type reply struct {
	value string
	err   error
}

// Controller は、シリアルポート経由でボードを制御するコントローラです。
type Controller struct {
	deviceName string
	ser        io.ReadWriteCloser
	writeMutex sync.Mutex

	mu            sync.Mutex
	closed        bool
	seq           uint32
	pending       map[uint32]chan reply
	onInterrupt   func(pin string, high bool)
	sketchVersion int
	ready         chan struct{}
	readyOnce     sync.Once
	nullReplies   map[string]string

	done      chan struct{}
	closeOnce sync.Once
	serOnce   sync.Once
	sentTotal int
}

var _ peripheral.Transport = (*Controller)(nil)

// IsNullDevice は、デバイス名が実機を持たないヌルデバイスを指すかを判定します。
func IsNullDevice(name string) bool {
	return name == "/dev/null" || name == "--"
}

// Open は、設定に従ってシリアルポートを開き、新しい Controller を作成します。
func Open(opts Options) (*Controller, error) {
	if IsNullDevice(opts.Device) {
		log.Infof("using null device")
		return newNullController(opts.Device, opts.NullReplies), nil
	}
	if opts.BaudRate == 0 {
		opts.BaudRate = 57600
	}
	log.Infof("opening serial port %s (%d bps, %s)", opts.Device, opts.BaudRate, driverName(opts.Driver))
	ser, err := openPort(opts)
	if err != nil {
		return nil, err
	}
	c := NewController(opts.Device, ser)
	closer.Bind(func() {
		c.Close()
	})
	if opts.Handshake {
		timeout := opts.HandshakeTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := c.WaitReady(ctx); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

func driverName(d string) string {
	if d == "" {
		return "jacobsa"
	}
	return d
}

func openPort(opts Options) (io.ReadWriteCloser, error) {
	switch driverName(opts.Driver) {
	case "jacobsa":
		timeout := opts.ReadTimeout
		if timeout <= 0 {
			timeout = 100 * time.Millisecond
		}
		ser, err := serial.Open(serial.OpenOptions{
			PortName:              opts.Device,
			BaudRate:              uint(opts.BaudRate),
			DataBits:              8,
			StopBits:              1,
			ParityMode:            serial.PARITY_NONE,
			InterCharacterTimeout: uint(timeout / time.Millisecond),
			MinimumReadSize:       1,
		})
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return ser, nil
	case "tarm":
		ser, err := tarm.OpenPort(&tarm.Config{
			Name:     opts.Device,
			Baud:     opts.BaudRate,
			Size:     8,
			Parity:   tarm.ParityNone,
			StopBits: tarm.Stop1,
		})
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return ser, nil
	}
	return nil, errors.Errorf("unknown serial driver %q", opts.Driver)
}

// NewController は、開かれた任意のストリームを使う Controller を作成し、受信を開始します。
func NewController(deviceName string, ser io.ReadWriteCloser) *Controller {
	c := &Controller{
		deviceName: deviceName,
		ser:        ser,
		pending:    map[uint32]chan reply{},
		ready:      make(chan struct{}),
		done:       make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func newNullController(deviceName string, replies map[string]string) *Controller {
	return &Controller{
		deviceName:  deviceName,
		pending:     map[uint32]chan reply{},
		ready:       make(chan struct{}),
		done:        make(chan struct{}),
		nullReplies: replies,
	}
}

func (c *Controller) isNullDevice() bool {
	return c.ser == nil
}

func (c *Controller) readLoop() {
	reader := bufio.NewReaderSize(c.ser, 2048)
	for {
		s, err := reader.ReadString('\n')
		if s != "" {
			c.handleLine(s)
		}
		if err != nil {
			if err != io.EOF && !c.isClosed() {
				log.Warnf("serial port error: %s", err)
			}
			c.shutdown(ErrClosed)
			return
		}
	}
}

func (c *Controller) handleLine(s string) {
	l, err := parseLine(s)
	if err != nil {
		log.Warnf("%s", err)
		return
	}
	switch l.kind {
	case lineReady:
		c.readyOnce.Do(func() { close(c.ready) })
	case lineVersion:
		c.mu.Lock()
		c.sketchVersion = l.version
		c.mu.Unlock()
	case lineIRQ:
		c.mu.Lock()
		f := c.onInterrupt
		c.mu.Unlock()
		if f != nil {
			f(l.pin, l.high)
		}
	case lineAck, lineValue, lineError:
		c.mu.Lock()
		ch, ok := c.pending[l.seq]
		delete(c.pending, l.seq)
		c.mu.Unlock()
		var r reply
		switch l.kind {
		case lineValue:
			r.value = l.value
		case lineError:
			r.err = &BoardError{Message: l.value}
		}
		if !ok {
			if r.err != nil {
				log.Warnf("command #%d failed on board: %s", l.seq, l.value)
			}
			return
		}
		ch <- r
	default:
		log.Debugf("IN: %s", strings.TrimRight(s, "\r\n"))
	}
}

// WaitReady は、ボードの "ready" を待ち、スケッチのバージョンを確認します。
func (c *Controller) WaitReady(ctx context.Context) error {
	if c.isNullDevice() {
		return nil
	}
	select {
	case <-c.ready:
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for the board to become ready")
	}
	c.mu.Lock()
	v := c.sketchVersion
	c.mu.Unlock()
	if !(sketchVersionGTE <= v && v < sketchVersionLT) {
		return errors.Errorf(
			`sketch version mismatch (want %d <= version < %d, got %d). please write "sketch/suyuan.ino" onto the board`,
			sketchVersionGTE, sketchVersionLT, v,
		)
	}
	return nil
}

// SketchVersion は、ボードが通知したスケッチのバージョンを返します。
func (c *Controller) SketchVersion() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sketchVersion
}

// OnInterrupt は、ボードから割り込みが通知された際に呼ばれる関数を設定します。
func (c *Controller) OnInterrupt(f func(pin string, high bool)) {
	c.mu.Lock()
	c.onInterrupt = f
	c.mu.Unlock()
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) nextSeq(wait bool) (uint32, chan reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, nil, ErrClosed
	}
	c.seq++
	if !wait {
		return c.seq, nil, nil
	}
	ch := make(chan reply, 1)
	c.pending[c.seq] = ch
	return c.seq, ch, nil
}

func (c *Controller) write(seq uint32, cmd peripheral.Command) error {
	b := encodeLine(seq, cmd)
	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()
	n, err := c.ser.Write(b)
	c.sentTotal += n
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Exec は、コマンドを送信します。ボードの応答は待ちません。
func (c *Controller) Exec(ctx context.Context, cmd peripheral.Command) error {
	seq, _, err := c.nextSeq(false)
	if err != nil {
		return err
	}
	if c.isNullDevice() {
		log.Debugf("OUT(null): %d %s", seq, cmd)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	return c.write(seq, cmd)
}

// Query は、コマンドを送信し、ボードからの応答値を待ちます。
func (c *Controller) Query(ctx context.Context, cmd peripheral.Command) (string, error) {
	seq, ch, err := c.nextSeq(true)
	if err != nil {
		return "", err
	}
	if c.isNullDevice() {
		c.forget(seq)
		log.Debugf("OUT(null): %d %s", seq, cmd)
		if v, ok := c.nullReplies[cmd.Op]; ok {
			return v, nil
		}
		return "0", nil
	}
	if err := c.write(seq, cmd); err != nil {
		c.forget(seq)
		return "", err
	}
	select {
	case r := <-ch:
		return r.value, r.err
	case <-c.done:
		return "", ErrClosed
	case <-ctx.Done():
		c.forget(seq)
		return "", errors.WithStack(ctx.Err())
	}
}

func (c *Controller) forget(seq uint32) {
	c.mu.Lock()
	delete(c.pending, seq)
	c.mu.Unlock()
}

func (c *Controller) shutdown(reason error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		pending := c.pending
		c.pending = map[uint32]chan reply{}
		c.mu.Unlock()
		close(c.done)
		for _, ch := range pending {
			ch <- reply{err: reason}
		}
	})
}

// Close は、シリアルポート接続を終了します。
func (c *Controller) Close() error {
	c.shutdown(ErrClosed)
	if c.ser == nil {
		return nil
	}
	var err error
	c.serOnce.Do(func() {
		log.Infof("closing serial port")
		err = c.ser.Close()
		log.Infof("done")
	})
	return errors.WithStack(err)
}

// SentBytes は、これまでに送信したバイト数を返します。
func (c *Controller) SentBytes() int {
	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()
	return c.sentTotal
}
