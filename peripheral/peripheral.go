// Package peripheral は、Dispatcher が呼び出すボードの操作と、
// その ESP32 ファミリー向けの実装である Device です。
package peripheral

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/c0deeast/suyuan-vm/board"
)

// Command は、ボードへの要求です。操作名と、変換済みの引数の組です。
type Command struct {
	Op   string
	Args []string
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Op
	}
	return c.Op + " " + strings.Join(c.Args, " ")
}

// Cmd は、各引数を送信用の形式に変換してコマンドを作成します。
func Cmd(op string, args ...interface{}) Command {
	c := Command{Op: op}
	for _, a := range args {
		c.Args = append(c.Args, encode(a))
	}
	return c
}

func encode(a interface{}) string {
	switch v := a.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case board.GripperStatus:
		return strconv.Itoa(int(v))
	case board.CoordinatesMode:
		return strconv.Itoa(int(v))
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(a)
}

// Transport は、コマンドをボードに届けます。
// 通信路への排他制御は実装側で行います。
type Transport interface {
	// Exec は、コマンドを送信し、受け付けられた時点で戻ります。
	Exec(ctx context.Context, cmd Command) error
	// Query は、コマンドを送信し、ボードからの値を待ちます。
	Query(ctx context.Context, cmd Command) (string, error)
	// OnInterrupt は、ボードが割り込みを通知するたびに呼ぶ関数を設定します。
	OnInterrupt(f func(pin string, high bool))
	Close() error
}

// Coordinates は、ロボットアームの先端の直交座標での姿勢です。
type Coordinates struct {
	X, Y, Z    float64
	RX, RY, RZ float64
}

// Board は、プログラムからボードに対して行える操作です。
type Board interface {
	SetPinMode(ctx context.Context, pin string, mode board.PinMode) error
	SetDigitalOutput(ctx context.Context, pin string, level board.Level) error
	SetPwmOutput(ctx context.Context, pin string, channel, value int) error
	SetDacOutput(ctx context.Context, pin string, value int) error
	SetServoOutput(ctx context.Context, pin string, channel int, angle float64) error
	SetBusServo(ctx context.Context, id int, speed float64, position int) error
	ReadDigitalPin(ctx context.Context, pin string) (bool, error)
	ReadAnalogPin(ctx context.Context, pin string) (float64, error)
	ReadTouchPin(ctx context.Context, pin string) (float64, error)
	AttachInterrupt(ctx context.Context, pin string, mode board.InterruptMode, notify func(pin string, high bool)) error
	DetachInterrupt(ctx context.Context, pin string) error

	SerialBegin(ctx context.Context, port, baudRate int) error
	SerialPrint(ctx context.Context, port int, value string, eol board.Eol) error
	SerialAvailable(ctx context.Context, port int) (float64, error)
	SerialReadByte(ctx context.Context, port int) (float64, error)

	SetJointAngle(ctx context.Context, joint int, angle, speed float64) error
	SetAllJointAngles(ctx context.Context, angles [6]float64, speed float64) error
	SetGripperAngle(ctx context.Context, angle, speed float64) error
	SetGripperStatus(ctx context.Context, status board.GripperStatus, speed float64) error
	SetCoordinates(ctx context.Context, c Coordinates, speed float64, mode board.CoordinatesMode) error
	GetAllAngles(ctx context.Context) ([]float64, error)
	GetAllCoordinates(ctx context.Context) ([]float64, error)
}
