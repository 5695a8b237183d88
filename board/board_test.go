package board

import (
	"encoding/json"
	"testing"
)

func TestOutputPinsExcludeFlashAndInputOnly(t *testing.T) {
	out := ESP32.PinsWith(Cap_Output)
	if len(out) == 0 {
		t.Fatal("no output pins")
	}
	for _, p := range out {
		if ESP32.IsFlashReserved(p.Value) {
			t.Errorf("%s is flash-reserved but offered for output", p.Name)
		}
		switch p.Value {
		case "34", "35", "36", "39":
			t.Errorf("%s is input-only but offered for output", p.Name)
		}
	}
}

func TestReadPinsIncludeInputOnly(t *testing.T) {
	found := false
	for _, p := range ESP32.PinsWith(Cap_Input) {
		if p.Value == "34" {
			found = true
		}
		if ESP32.IsFlashReserved(p.Value) {
			t.Errorf("%s is flash-reserved but offered for input", p.Name)
		}
	}
	if !found {
		t.Error("IO34 missing from input pins")
	}
}

func TestCapabilitySubsets(t *testing.T) {
	cases := []struct {
		caps Caps
		want []string
	}{
		{Cap_DAC, []string{"25", "26"}},
		{Cap_Touch, []string{"0", "2", "4", "12", "13", "14", "15", "27", "32", "33"}},
		{Cap_Analog, []string{"0", "2", "4", "12", "13", "14", "15", "25", "26", "27", "32", "33", "34", "35", "36", "39"}},
	}
	for _, c := range cases {
		got := ESP32.PinsWith(c.caps)
		if len(got) != len(c.want) {
			t.Errorf("PinsWith(%s): got %d pins, want %d", c.caps, len(got), len(c.want))
			continue
		}
		for i, p := range got {
			if p.Value != c.want[i] {
				t.Errorf("PinsWith(%s)[%d] = %s, want %s", c.caps, i, p.Value, c.want[i])
			}
		}
	}
}

func TestChannelTimers(t *testing.T) {
	if len(ESP32.Channels) != 16 {
		t.Fatalf("got %d channels, want 16", len(ESP32.Channels))
	}
	cases := map[int]string{0: "LT0", 1: "LT0", 2: "LT1", 7: "LT3", 8: "HT0", 13: "HT2", 15: "HT3"}
	for n, timer := range cases {
		c, ok := ESP32.Channel(n)
		if !ok || c.Timer != timer {
			t.Errorf("channel %d: got %q, want %q", n, c.Timer, timer)
		}
	}
	c, _ := ESP32.Channel(9)
	if c.Label() != "CH9 (HT0)" {
		t.Errorf("label = %q", c.Label())
	}
}

func TestSerialPorts(t *testing.T) {
	ports := ESP32.UsableSerialPorts()
	if len(ports) != 2 || ports[0].Number != 0 || ports[1].Number != 2 {
		t.Errorf("usable ports = %+v", ports)
	}
}

func TestIdentity(t *testing.T) {
	id := ESP32.Identity
	if !id.Matches(`usb\vid_1a86&pid_7523`) {
		t.Error("CH340 not matched")
	}
	if id.Matches(`USB\VID_0000&PID_0000`) {
		t.Error("unknown adapter matched")
	}
	if f, _ := id.FQBN("windows"); f != "esp32:esp32:esp32:UploadSpeed=921600" {
		t.Errorf("windows fqbn = %q", f)
	}
	if f, _ := id.FQBN("linux"); f != "esp32:esp32:esp32:UploadSpeed=460800" {
		t.Errorf("linux fqbn = %q", f)
	}
	if id.Link.BaudRate != 57600 || id.Link.DataBits != 8 || id.Link.StopBits != 1 {
		t.Errorf("link = %+v", id.Link)
	}
}

func TestLookup(t *testing.T) {
	v, err := Lookup(ESP32ID)
	if err != nil || v != ESP32 {
		t.Fatalf("Lookup(%q) = %v, %v", ESP32ID, v, err)
	}
	if _, err := Lookup("arduinoUno"); err == nil {
		t.Error("expected error for unknown variant")
	}
	p, ok := ESP32.Pin("io34")
	if !ok || p.Value != "34" {
		t.Errorf("Pin(io34) = %+v, %v", p, ok)
	}
}

func TestInterruptModeFires(t *testing.T) {
	cases := []struct {
		mode       InterruptMode
		prev, high bool
		want       bool
	}{
		{InterruptMode_Rising, false, true, true},
		{InterruptMode_Rising, true, true, false},
		{InterruptMode_Falling, true, false, true},
		{InterruptMode_Change, true, false, true},
		{InterruptMode_Change, false, false, false},
		{InterruptMode_LowLevel, false, false, true},
		{InterruptMode_HighLevel, true, true, true},
	}
	for _, c := range cases {
		if got := c.mode.Fires(c.prev, c.high); got != c.want {
			t.Errorf("%s.Fires(%v, %v) = %v", c.mode, c.prev, c.high, got)
		}
	}
}

func TestEnumJSON(t *testing.T) {
	b, err := json.Marshal(GripperStatus_Open)
	if err != nil || string(b) != `"Open(1)"` {
		t.Errorf("GripperStatus json = %s, %v", b, err)
	}
	if CoordinatesMode_Linear.String() != "Linear(1)" {
		t.Errorf("CoordinatesMode string = %s", CoordinatesMode_Linear)
	}
	if Eol_Warp.Suffix() != "\r\n" || Eol_NoWarp.Suffix() != "" {
		t.Error("unexpected eol suffix")
	}
}
