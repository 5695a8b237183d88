package peripheral

import (
	"context"
	"reflect"
	"testing"

	"github.com/c0deeast/suyuan-vm/board"
	"github.com/pkg/errors"
)

type fakeTransport struct {
	execs   []Command
	queries []Command
	replies map[string]string
	err     error
	irq     func(pin string, high bool)
}

func (f *fakeTransport) Exec(_ context.Context, cmd Command) error {
	f.execs = append(f.execs, cmd)
	return f.err
}

func (f *fakeTransport) Query(_ context.Context, cmd Command) (string, error) {
	f.queries = append(f.queries, cmd)
	if f.err != nil {
		return "", f.err
	}
	return f.replies[cmd.Op], nil
}

func (f *fakeTransport) OnInterrupt(h func(pin string, high bool)) { f.irq = h }
func (f *fakeTransport) Close() error                               { return nil }

func newDevice() (*Device, *fakeTransport) {
	tr := &fakeTransport{replies: map[string]string{}}
	return NewDevice(board.ESP32, tr), tr
}

func TestActuatorEncoding(t *testing.T) {
	d, tr := newDevice()
	ctx := context.Background()
	steps := []error{
		d.SetPinMode(ctx, "2", board.PinMode_Output),
		d.SetDigitalOutput(ctx, "2", board.Level_High),
		d.SetPwmOutput(ctx, "4", 9, 128),
		d.SetServoOutput(ctx, "5", 1, 90.5),
		d.SerialPrint(ctx, 2, "hi", board.Eol_Warp),
		d.SetGripperStatus(ctx, board.GripperStatus_Open, 50),
		d.SetCoordinates(ctx, Coordinates{X: 1, Y: 2, Z: 3}, 100, board.CoordinatesMode_Linear),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	want := []string{
		"pinMode 2 OUTPUT",
		"digitalWrite 2 HIGH",
		"ledcWrite 4 9 128",
		"servoWrite 5 1 90.5",
		"serialPrint 2 hi\r\n",
		"gripperStatus 1 50",
		"coordinates 1 2 3 0 0 0 100 1",
	}
	got := []string{}
	for _, c := range tr.execs {
		got = append(got, c.String())
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("commands =\n%q\nwant\n%q", got, want)
	}
	if len(tr.queries) != 0 {
		t.Errorf("actuators issued queries: %v", tr.queries)
	}
}

func TestPinCapabilityChecks(t *testing.T) {
	d, tr := newDevice()
	ctx := context.Background()
	touch := func(pin string) error {
		_, err := d.ReadTouchPin(ctx, pin)
		return err
	}
	cases := []error{
		d.SetDigitalOutput(ctx, "34", board.Level_High),
		d.SetDacOutput(ctx, "2", 10),
		touch("35"),
		d.SetPinMode(ctx, "7", board.PinMode_Input),
		d.SetPwmOutput(ctx, "2", 16, 0),
		d.SerialPrint(ctx, 1, "x", board.Eol_NoWarp),
	}
	for i, err := range cases {
		if err == nil {
			t.Errorf("case %d accepted", i)
		}
	}
	if len(tr.execs)+len(tr.queries) != 0 {
		t.Errorf("rejected calls reached the transport: %v %v", tr.execs, tr.queries)
	}
}

func TestSensorReplies(t *testing.T) {
	d, tr := newDevice()
	ctx := context.Background()
	tr.replies[opAnalogRead] = "2047"
	tr.replies[opDigitalRead] = "1"
	tr.replies[opGetAngles] = "0,10.5,20,30,40,50"

	v, err := d.ReadAnalogPin(ctx, "34")
	if err != nil || v != 2047 {
		t.Errorf("ReadAnalogPin = %v, %v", v, err)
	}
	b, err := d.ReadDigitalPin(ctx, "34")
	if err != nil || !b {
		t.Errorf("ReadDigitalPin = %v, %v", b, err)
	}
	angles, err := d.GetAllAngles(ctx)
	if err != nil || !reflect.DeepEqual(angles, []float64{0, 10.5, 20, 30, 40, 50}) {
		t.Errorf("GetAllAngles = %v, %v", angles, err)
	}

	tr.replies[opAnalogRead] = "lots"
	if _, err := d.ReadAnalogPin(ctx, "34"); err == nil {
		t.Error("malformed reply accepted")
	} else if _, ok := err.(*TransportError); !ok {
		t.Errorf("malformed reply gave %T", err)
	}
	tr.replies[opGetCoordinates] = "1,2,3"
	if _, err := d.GetAllCoordinates(ctx); err == nil {
		t.Error("short list accepted")
	}
}

func TestTransportErrorWrapped(t *testing.T) {
	d, tr := newDevice()
	boom := errors.New("cable unplugged")
	tr.err = boom
	err := d.SetDigitalOutput(context.Background(), "2", board.Level_Low)
	te, ok := err.(*TransportError)
	if !ok || te.Op != opDigitalWrite || !errors.Is(err, boom) {
		t.Errorf("err = %#v", err)
	}
}

func TestInterruptRouting(t *testing.T) {
	d, tr := newDevice()
	ctx := context.Background()
	var got []bool
	if err := d.AttachInterrupt(ctx, "4", board.InterruptMode_Change, func(pin string, high bool) {
		got = append(got, high)
	}); err != nil {
		t.Fatal(err)
	}
	tr.irq("4", true)
	tr.irq("13", true)
	if err := d.DetachInterrupt(ctx, "4"); err != nil {
		t.Fatal(err)
	}
	tr.irq("4", false)
	if !reflect.DeepEqual(got, []bool{true}) {
		t.Errorf("delivered = %v", got)
	}
	if tr.execs[0].String() != "attachInterrupt 4 CHANGE" || tr.execs[1].String() != "detachInterrupt 4" {
		t.Errorf("commands = %v", tr.execs)
	}
}

func TestFailedReattachKeepsRoute(t *testing.T) {
	d, tr := newDevice()
	ctx := context.Background()
	var got []string
	if err := d.AttachInterrupt(ctx, "4", board.InterruptMode_Falling, func(pin string, high bool) {
		got = append(got, "first")
	}); err != nil {
		t.Fatal(err)
	}
	tr.err = errors.New("cable unplugged")
	if err := d.AttachInterrupt(ctx, "4", board.InterruptMode_Rising, func(pin string, high bool) {
		got = append(got, "second")
	}); err == nil {
		t.Fatal("expected an error")
	}
	tr.err = nil
	tr.irq("4", false)
	if !reflect.DeepEqual(got, []string{"first"}) {
		t.Errorf("delivered = %v", got)
	}

	// a failed first attach leaves nothing routed
	tr.err = errors.New("cable unplugged")
	d.AttachInterrupt(ctx, "0", board.InterruptMode_Change, func(pin string, high bool) {
		got = append(got, "pin 0")
	})
	tr.err = nil
	tr.irq("0", true)
	if len(got) != 1 {
		t.Errorf("delivered = %v", got)
	}
}
