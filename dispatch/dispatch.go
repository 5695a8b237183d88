// Package dispatch は、ブロックを実行します。
// opcode からブロック定義を引いて引数を正規化し、
// ボード、ホスト側の数値計算、割り込みテーブルのいずれかを呼び出します。
package dispatch

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/c0deeast/suyuan-vm/blocks"
	"github.com/c0deeast/suyuan-vm/board"
	"github.com/c0deeast/suyuan-vm/interrupt"
	"github.com/c0deeast/suyuan-vm/log"
	"github.com/c0deeast/suyuan-vm/numeric"
	"github.com/c0deeast/suyuan-vm/peripheral"
	"github.com/pkg/errors"
)

// Result は、ブロックの実行結果です。
// 値を返さないブロックでは Value は nil、それ以外では bool・float64・int64・string のいずれかです。
type Result struct {
	Arity blocks.Arity `json:"arity"`
	Value interface{}  `json:"value"`
}

type handler func(ctx context.Context, v blocks.Values) (interface{}, error)

// Option は、Dispatcher の設定です。
type Option func(*Dispatcher)

// WithGripperDefaultSpeed は、setGripperStatusDefault で使う速度を設定します。
func WithGripperDefaultSpeed(speed float64) Option {
	return func(d *Dispatcher) { d.gripperSpeed = speed }
}

// Dispatcher は、1 つのボードに対してブロックを実行します。
// 割り込みテーブルの他に状態を持たず、複数の goroutine から使えます。
type Dispatcher struct {
	catalog      *blocks.Catalog
	board        peripheral.Board
	table        *interrupt.Table
	handlers     map[string]handler
	gripperSpeed float64

	// pins は、割り込みの登録でテーブルとボードを更新する順序を揃えます。
	pins sync.Mutex
}

// New は、カタログのブロックを実行する Dispatcher を作成します。
func New(c *blocks.Catalog, b peripheral.Board, t *interrupt.Table, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		catalog:      c,
		board:        b,
		table:        t,
		gripperSpeed: 50,
	}
	for _, o := range opts {
		o(d)
	}
	d.handlers = d.buildHandlers()
	return d
}

func (d *Dispatcher) Catalog() *blocks.Catalog { return d.catalog }

func (d *Dispatcher) Table() *interrupt.Table { return d.table }

func (d *Dispatcher) resolve(opcode string, args map[string]interface{}) (*blocks.Descriptor, blocks.Values, error) {
	desc, ok := d.catalog.Lookup(opcode)
	if !ok {
		return nil, nil, &Error{Kind: KindUnknownOpcode, Op: opcode, Err: errors.Errorf("unknown block %q", opcode)}
	}
	v, err := desc.Normalize(d.catalog, args)
	if err != nil {
		return nil, nil, &Error{Kind: KindArgument, Op: opcode, Err: err}
	}
	return desc, v, nil
}

// Execute は、ブロックを 1 つ実行し、その値を返します。
// 出力のブロックはコマンドをボードに渡した時点で戻り、
// センサーのブロックは新しい値を読み取るまで待ちます。
func (d *Dispatcher) Execute(ctx context.Context, opcode string, args map[string]interface{}) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = &Error{Kind: KindInternal, Op: opcode, Err: errors.Errorf("panic: %v", r)}
		}
	}()
	desc, v, err := d.resolve(opcode, args)
	if err != nil {
		return Result{}, err
	}
	h, ok := d.handlers[opcode]
	if !ok {
		return Result{}, &Error{Kind: KindUnknownOpcode, Op: opcode, Err: errors.New("block has no implementation")}
	}
	log.Debugf("exec %s %v", opcode, map[string]interface{}(v))
	value, err := h(ctx, v)
	if err != nil {
		return Result{}, classify(opcode, err)
	}
	if desc.Arity == blocks.Arity_None {
		return Result{Arity: blocks.Arity_None}, nil
	}
	return Result{Arity: arityOf(value, desc.Arity), Value: value}, nil
}

func arityOf(v interface{}, declared blocks.Arity) blocks.Arity {
	switch v.(type) {
	case bool:
		return blocks.Arity_Boolean
	case float64, int64:
		return blocks.Arity_Number
	case string:
		return blocks.Arity_String
	}
	return declared
}

// Attach は、args で指定した割り込みが発生するたびに body を実行するよう登録します。
// 同じピンに再度 Attach すると、登録は置き換えられます。
func (d *Dispatcher) Attach(ctx context.Context, args map[string]interface{}, body interrupt.Handler) error {
	_, v, err := d.resolve(blocks.Op_AttachInterrupt, args)
	if err != nil {
		return err
	}
	return classify(blocks.Op_AttachInterrupt, d.attach(ctx, v, body))
}

func (d *Dispatcher) attach(ctx context.Context, v blocks.Values, body interrupt.Handler) error {
	pin, mode := v.String("PIN"), board.InterruptMode(v.String("MODE"))
	if body == nil {
		body = func(_ context.Context, ev interrupt.Event) error {
			log.Debugf("interrupt on pin %s (%s) with no body", ev.Pin, ev.Mode)
			return nil
		}
	}
	d.pins.Lock()
	defer d.pins.Unlock()
	undo := d.table.Attach(pin, mode, body)
	if err := d.board.AttachInterrupt(ctx, pin, mode, d.table.Notify); err != nil {
		// the board keeps whatever it had armed before
		undo()
		return err
	}
	return nil
}

func (d *Dispatcher) detach(ctx context.Context, pin string) error {
	d.pins.Lock()
	defer d.pins.Unlock()
	if !d.table.Detach(pin) {
		return nil
	}
	return d.board.DetachInterrupt(ctx, pin)
}

// Stop は、プログラムの終了時のように、すべての割り込みの登録を解除します。
// 解除に失敗するピンがあっても残りのピンを解除し、最初のエラーを返します。
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.pins.Lock()
	defer d.pins.Unlock()
	var first error
	for _, pin := range d.table.Reset() {
		if err := d.board.DetachInterrupt(ctx, pin); err != nil && first == nil {
			first = classify(blocks.Op_DetachInterrupt, err)
		}
	}
	return first
}

func joinNumbers(fs []float64) string {
	s := make([]string, len(fs))
	for i, f := range fs {
		s[i] = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.Join(s, ",")
}

func (d *Dispatcher) buildHandlers() map[string]handler {
	b := d.board
	return map[string]handler{
		blocks.Op_SetPinMode: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return nil, b.SetPinMode(ctx, v.String("PIN"), board.PinMode(v.String("MODE")))
		},
		blocks.Op_SetDigitalOutput: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return nil, b.SetDigitalOutput(ctx, v.String("PIN"), board.Level(v.String("LEVEL")))
		},
		blocks.Op_SetPwmOutput: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return nil, b.SetPwmOutput(ctx, v.String("PIN"), v.Int("CH"), v.Int("OUT"))
		},
		blocks.Op_SetDACOutput: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return nil, b.SetDacOutput(ctx, v.String("PIN"), v.Int("OUT"))
		},
		blocks.Op_ReadDigitalPin: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return b.ReadDigitalPin(ctx, v.String("PIN"))
		},
		blocks.Op_ReadAnalogPin: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return b.ReadAnalogPin(ctx, v.String("PIN"))
		},
		blocks.Op_ReadTouchPin: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return b.ReadTouchPin(ctx, v.String("PIN"))
		},
		blocks.Op_SetServoOutput: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return nil, b.SetServoOutput(ctx, v.String("PIN"), v.Int("CH"), v.Float("OUT"))
		},
		blocks.Op_SetSCServo: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return nil, b.SetBusServo(ctx, v.Int("STEERINGID"), v.Float("SPEED"), v.Int("POSITION"))
		},
		blocks.Op_AttachInterrupt: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return nil, d.attach(ctx, v, nil)
		},
		blocks.Op_DetachInterrupt: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return nil, d.detach(ctx, v.String("PIN"))
		},

		blocks.Op_SerialBegin: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return nil, b.SerialBegin(ctx, v.Int("NO"), v.Int("VALUE"))
		},
		blocks.Op_SerialPrint: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return nil, b.SerialPrint(ctx, v.Int("NO"), v.String("VALUE"), board.Eol(v.String("EOL")))
		},
		blocks.Op_SerialAvailable: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return b.SerialAvailable(ctx, v.Int("NO"))
		},
		blocks.Op_SerialReadByte: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return b.SerialReadByte(ctx, v.Int("NO"))
		},

		blocks.Op_DataMap: func(_ context.Context, v blocks.Values) (interface{}, error) {
			return numeric.Map(v.Float("DATA"), v.Float("ARG0"), v.Float("ARG1"), v.Float("ARG2"), v.Float("ARG3"))
		},
		blocks.Op_DataConstrain: func(_ context.Context, v blocks.Values) (interface{}, error) {
			return numeric.Constrain(v.Float("DATA"), v.Float("ARG0"), v.Float("ARG1"))
		},
		blocks.Op_DataConvert: func(_ context.Context, v blocks.Values) (interface{}, error) {
			return numeric.Convert(v.String("DATA"), board.DataType(v.String("TYPE")))
		},
		blocks.Op_DataToASCIIChar: func(_ context.Context, v blocks.Values) (interface{}, error) {
			return numeric.ToChar(v.Float("DATA"))
		},
		blocks.Op_DataToASCIINumber: func(_ context.Context, v blocks.Values) (interface{}, error) {
			code, err := numeric.ToCode(v.String("DATA"))
			return int64(code), err
		},

		blocks.Op_SetJointAngle: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return nil, b.SetJointAngle(ctx, v.Int("JOINT"), v.Float("ANGLE"), v.Float("SPEED"))
		},
		blocks.Op_SetAllJointAngles: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			var angles [6]float64
			for i := range angles {
				angles[i] = v.Float("ANGLE" + strconv.Itoa(i+1))
			}
			return nil, b.SetAllJointAngles(ctx, angles, v.Float("SPEED"))
		},
		blocks.Op_SetGripper: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return nil, b.SetGripperAngle(ctx, v.Float("ANGLE"), v.Float("SPEED"))
		},
		blocks.Op_SetGripperStatus: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return nil, b.SetGripperStatus(ctx, board.GripperStatus(v.Int("STATUS")), v.Float("SPEED"))
		},
		blocks.Op_SetGripperDefault: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			return nil, b.SetGripperStatus(ctx, board.GripperStatus(v.Int("STATUS")), d.gripperSpeed)
		},
		blocks.Op_SetCoordinates: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			c := peripheral.Coordinates{
				X: v.Float("X"), Y: v.Float("Y"), Z: v.Float("Z"),
				RX: v.Float("RX"), RY: v.Float("RY"), RZ: v.Float("RZ"),
			}
			return nil, b.SetCoordinates(ctx, c, v.Float("SPEED"), board.CoordinatesMode(v.Int("MODE")))
		},
		blocks.Op_GetAllAngles: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			fs, err := b.GetAllAngles(ctx)
			if err != nil {
				return nil, err
			}
			return joinNumbers(fs), nil
		},
		blocks.Op_GetAllCoordinates: func(ctx context.Context, v blocks.Values) (interface{}, error) {
			fs, err := b.GetAllCoordinates(ctx)
			if err != nil {
				return nil, err
			}
			return joinNumbers(fs), nil
		},
	}
}
