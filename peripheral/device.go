package peripheral

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/c0deeast/suyuan-vm/board"
	"github.com/c0deeast/suyuan-vm/log"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// ボードのスケッチが受け付ける操作名
const (
	opPinMode         = "pinMode"
	opDigitalWrite    = "digitalWrite"
	opLedcWrite       = "ledcWrite"
	opDacWrite        = "dacWrite"
	opServoWrite      = "servoWrite"
	opBusServo        = "busServo"
	opDigitalRead     = "digitalRead"
	opAnalogRead      = "analogRead"
	opTouchRead       = "touchRead"
	opAttachInterrupt = "attachInterrupt"
	opDetachInterrupt = "detachInterrupt"
	opSerialBegin     = "serialBegin"
	opSerialPrint     = "serialPrint"
	opSerialAvailable = "serialAvailable"
	opSerialRead      = "serialRead"
	opJointAngle      = "jointAngle"
	opJointAngles     = "jointAngles"
	opGripperAngle    = "gripperAngle"
	opGripperStatus   = "gripperStatus"
	opCoordinates     = "coordinates"
	opGetAngles       = "getAngles"
	opGetCoordinates  = "getCoordinates"
)

// NullReplies は、ボードのない接続が一覧の問い合わせに返す応答です。
// ロボットの値のブロックが解釈できる形式になっています。
func NullReplies() map[string]string {
	zeros := "0,0,0,0,0,0"
	return map[string]string{opGetAngles: zeros, opGetCoordinates: zeros}
}

// ErrPinCapability は、ピンが要求された機能を持たないときのエラーです。
var ErrPinCapability = errors.New("pin does not support this function")

// TransportError は、コマンドの送信または応答の受信に失敗したことを表すエラーです。
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %s", e.Op, e.Err)
}

func (e *TransportError) Cause() error  { return e.Err }
func (e *TransportError) Unwrap() error { return e.Err }

// Device は、ESP32 ファミリー向けの Board の実装です。
// ボードの種類ごとに異なるのは、ピンの機能だけです。
type Device struct {
	variant *board.Variant
	tr      Transport

	mu     sync.RWMutex
	notify map[string]func(pin string, high bool)
}

var _ Board = (*Device)(nil)

// NewDevice は、tr で通信する Device を作成します。tr の割り込みのコールバックは Device が使います。
func NewDevice(v *board.Variant, tr Transport) *Device {
	d := &Device{
		variant: v,
		tr:      tr,
		notify:  map[string]func(string, bool){},
	}
	tr.OnInterrupt(d.interrupt)
	return d
}

func (d *Device) Variant() *board.Variant { return d.variant }

func (d *Device) Close() error {
	return d.tr.Close()
}

func (d *Device) interrupt(pin string, high bool) {
	d.mu.RLock()
	f := d.notify[pin]
	d.mu.RUnlock()
	if f == nil {
		log.Debugf("device: interrupt on unwatched pin %s", pin)
		return
	}
	f(pin, high)
}

func (d *Device) pin(value string, caps board.Caps) error {
	p, ok := d.variant.Pin(value)
	if !ok {
		return errors.Errorf("%s has no pin %s", d.variant.Name, value)
	}
	if d.variant.IsFlashReserved(p.Value) || !p.Caps.Has(caps) {
		return errors.Wrapf(ErrPinCapability, "%s (%s)", p.Name, caps)
	}
	return nil
}

func (d *Device) exec(ctx context.Context, cmd Command) error {
	log.Debugf("-> %s", cmd)
	if err := d.tr.Exec(ctx, cmd); err != nil {
		return &TransportError{Op: cmd.Op, Err: err}
	}
	return nil
}

func (d *Device) query(ctx context.Context, cmd Command) (string, error) {
	log.Debugf("-> %s ?", cmd)
	v, err := d.tr.Query(ctx, cmd)
	if err != nil {
		return "", &TransportError{Op: cmd.Op, Err: err}
	}
	log.Debugf("<- %s = %s", cmd.Op, v)
	return v, nil
}

func (d *Device) queryNumber(ctx context.Context, cmd Command) (float64, error) {
	v, err := d.query(ctx, cmd)
	if err != nil {
		return 0, err
	}
	f, err := cast.ToFloat64E(strings.TrimSpace(v))
	if err != nil {
		return 0, &TransportError{Op: cmd.Op, Err: errors.Errorf("malformed number reply %q", v)}
	}
	return f, nil
}

func (d *Device) queryList(ctx context.Context, cmd Command, n int) ([]float64, error) {
	v, err := d.query(ctx, cmd)
	if err != nil {
		return nil, err
	}
	fields := strings.Split(v, ",")
	if len(fields) != n {
		return nil, &TransportError{Op: cmd.Op, Err: errors.Errorf("expected %d values, got %q", n, v)}
	}
	out := make([]float64, n)
	for i, s := range fields {
		f, err := cast.ToFloat64E(strings.TrimSpace(s))
		if err != nil {
			return nil, &TransportError{Op: cmd.Op, Err: errors.Errorf("malformed list reply %q", v)}
		}
		out[i] = f
	}
	return out, nil
}

func (d *Device) SetPinMode(ctx context.Context, pin string, mode board.PinMode) error {
	caps := board.Cap_Input
	if mode == board.PinMode_Output {
		caps = board.Cap_Output
	}
	if err := d.pin(pin, caps); err != nil {
		return err
	}
	return d.exec(ctx, Cmd(opPinMode, pin, mode))
}

func (d *Device) SetDigitalOutput(ctx context.Context, pin string, level board.Level) error {
	if err := d.pin(pin, board.Cap_Output); err != nil {
		return err
	}
	return d.exec(ctx, Cmd(opDigitalWrite, pin, level))
}

func (d *Device) SetPwmOutput(ctx context.Context, pin string, channel, value int) error {
	if err := d.pin(pin, board.Cap_Output); err != nil {
		return err
	}
	if _, ok := d.variant.Channel(channel); !ok {
		return errors.Errorf("no PWM channel %d", channel)
	}
	return d.exec(ctx, Cmd(opLedcWrite, pin, channel, value))
}

func (d *Device) SetDacOutput(ctx context.Context, pin string, value int) error {
	if err := d.pin(pin, board.Cap_DAC); err != nil {
		return err
	}
	return d.exec(ctx, Cmd(opDacWrite, pin, value))
}

func (d *Device) SetServoOutput(ctx context.Context, pin string, channel int, angle float64) error {
	if err := d.pin(pin, board.Cap_Output); err != nil {
		return err
	}
	if _, ok := d.variant.Channel(channel); !ok {
		return errors.Errorf("no PWM channel %d", channel)
	}
	return d.exec(ctx, Cmd(opServoWrite, pin, channel, angle))
}

func (d *Device) SetBusServo(ctx context.Context, id int, speed float64, position int) error {
	return d.exec(ctx, Cmd(opBusServo, id, speed, position))
}

func (d *Device) ReadDigitalPin(ctx context.Context, pin string) (bool, error) {
	if err := d.pin(pin, board.Cap_Input); err != nil {
		return false, err
	}
	cmd := Cmd(opDigitalRead, pin)
	v, err := d.query(ctx, cmd)
	if err != nil {
		return false, err
	}
	b, err := cast.ToBoolE(strings.TrimSpace(v))
	if err != nil {
		return false, &TransportError{Op: cmd.Op, Err: errors.Errorf("malformed level reply %q", v)}
	}
	return b, nil
}

func (d *Device) ReadAnalogPin(ctx context.Context, pin string) (float64, error) {
	if err := d.pin(pin, board.Cap_Analog); err != nil {
		return 0, err
	}
	return d.queryNumber(ctx, Cmd(opAnalogRead, pin))
}

func (d *Device) ReadTouchPin(ctx context.Context, pin string) (float64, error) {
	if err := d.pin(pin, board.Cap_Touch); err != nil {
		return 0, err
	}
	return d.queryNumber(ctx, Cmd(opTouchRead, pin))
}

func (d *Device) AttachInterrupt(ctx context.Context, pin string, mode board.InterruptMode, notify func(pin string, high bool)) error {
	if err := d.pin(pin, board.Cap_Input); err != nil {
		return err
	}
	d.mu.Lock()
	prev, armed := d.notify[pin]
	d.notify[pin] = notify
	d.mu.Unlock()
	if err := d.exec(ctx, Cmd(opAttachInterrupt, pin, mode)); err != nil {
		d.mu.Lock()
		if armed {
			d.notify[pin] = prev
		} else {
			delete(d.notify, pin)
		}
		d.mu.Unlock()
		return err
	}
	return nil
}

func (d *Device) DetachInterrupt(ctx context.Context, pin string) error {
	d.mu.Lock()
	delete(d.notify, pin)
	d.mu.Unlock()
	return d.exec(ctx, Cmd(opDetachInterrupt, pin))
}

func (d *Device) serialPort(port int) error {
	for _, p := range d.variant.UsableSerialPorts() {
		if p.Number == port {
			return nil
		}
	}
	return errors.Errorf("serial port %d is not available", port)
}

func (d *Device) SerialBegin(ctx context.Context, port, baudRate int) error {
	if err := d.serialPort(port); err != nil {
		return err
	}
	return d.exec(ctx, Cmd(opSerialBegin, port, baudRate))
}

func (d *Device) SerialPrint(ctx context.Context, port int, value string, eol board.Eol) error {
	if err := d.serialPort(port); err != nil {
		return err
	}
	return d.exec(ctx, Cmd(opSerialPrint, port, value+eol.Suffix()))
}

func (d *Device) SerialAvailable(ctx context.Context, port int) (float64, error) {
	if err := d.serialPort(port); err != nil {
		return 0, err
	}
	return d.queryNumber(ctx, Cmd(opSerialAvailable, port))
}

func (d *Device) SerialReadByte(ctx context.Context, port int) (float64, error) {
	if err := d.serialPort(port); err != nil {
		return 0, err
	}
	return d.queryNumber(ctx, Cmd(opSerialRead, port))
}

func (d *Device) SetJointAngle(ctx context.Context, joint int, angle, speed float64) error {
	return d.exec(ctx, Cmd(opJointAngle, joint, angle, speed))
}

func (d *Device) SetAllJointAngles(ctx context.Context, angles [6]float64, speed float64) error {
	args := []interface{}{}
	for _, a := range angles {
		args = append(args, a)
	}
	return d.exec(ctx, Cmd(opJointAngles, append(args, speed)...))
}

func (d *Device) SetGripperAngle(ctx context.Context, angle, speed float64) error {
	return d.exec(ctx, Cmd(opGripperAngle, angle, speed))
}

func (d *Device) SetGripperStatus(ctx context.Context, status board.GripperStatus, speed float64) error {
	return d.exec(ctx, Cmd(opGripperStatus, status, speed))
}

func (d *Device) SetCoordinates(ctx context.Context, c Coordinates, speed float64, mode board.CoordinatesMode) error {
	return d.exec(ctx, Cmd(opCoordinates, c.X, c.Y, c.Z, c.RX, c.RY, c.RZ, speed, mode))
}

func (d *Device) GetAllAngles(ctx context.Context) ([]float64, error) {
	return d.queryList(ctx, Cmd(opGetAngles), 6)
}

func (d *Device) GetAllCoordinates(ctx context.Context) ([]float64, error) {
	return d.queryList(ctx, Cmd(opGetCoordinates), 6)
}
