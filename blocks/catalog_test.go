package blocks

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/c0deeast/suyuan-vm/board"
)

func esp32(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load(board.ESP32)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCategoryOrder(t *testing.T) {
	c := esp32(t)
	ids := []string{}
	for _, cat := range c.Categories {
		ids = append(ids, cat.ID)
	}
	if !reflect.DeepEqual(ids, []string{"pin", "serial", "data", "robot"}) {
		t.Errorf("categories = %v", ids)
	}
	pin := c.Categories[0]
	if pin.Color1 != "#4C97FF" || pin.Color2 != "#3373CC" || pin.Color3 != "#3373CC" {
		t.Errorf("pin colors = %s %s %s", pin.Color1, pin.Color2, pin.Color3)
	}
}

func TestPinCategoryBlocks(t *testing.T) {
	want := []string{
		Op_SetPinMode, Op_SetDigitalOutput, Op_SetPwmOutput, Op_SetDACOutput, SeparatorOpcode,
		Op_ReadDigitalPin, Op_ReadAnalogPin, Op_ReadTouchPin, SeparatorOpcode,
		Op_SetServoOutput, SeparatorOpcode,
		Op_SetSCServo, SeparatorOpcode,
		Op_AttachInterrupt, Op_DetachInterrupt,
	}
	got := []string{}
	for _, d := range esp32(t).Categories[0].Blocks {
		got = append(got, d.Opcode)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("pin blocks =\n%v\nwant\n%v", got, want)
	}
}

func TestOutputMenuExcludesFlashPins(t *testing.T) {
	c := esp32(t)
	for _, name := range []string{Menu_Pins, Menu_OutPins, Menu_AnalogPins, Menu_DACPins, Menu_TouchPins} {
		m, ok := c.Menu(name)
		if !ok {
			t.Fatalf("menu %s missing", name)
		}
		for _, it := range m.Items {
			if c.Variant.IsFlashReserved(it.Value) {
				t.Errorf("menu %s offers flash pin %s", name, it.Text)
			}
		}
	}
	out, _ := c.Menu(Menu_OutPins)
	in, _ := c.Menu(Menu_Pins)
	if out.Contains("34") {
		t.Error("input-only IO34 offered for output")
	}
	if !in.Contains("34") {
		t.Error("IO34 missing from read menu")
	}
}

func TestDeterministic(t *testing.T) {
	a, err := NewCatalog(board.ESP32)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewCatalog(board.ESP32)
	if err != nil {
		t.Fatal(err)
	}
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if string(ja) != string(jb) {
		t.Error("two builds of the same variant differ")
	}
	c1 := esp32(t)
	c2 := esp32(t)
	if c1 != c2 {
		t.Error("Load rebuilt a cached catalog")
	}
}

func TestDescriptorsHaveValidDefaults(t *testing.T) {
	c := esp32(t)
	for _, d := range c.Descriptors() {
		if _, err := d.Normalize(c, nil); err != nil {
			t.Errorf("%s defaults rejected: %v", d.Opcode, err)
		}
		if d.BlockType == BlockType_Reporter && d.Arity == Arity_None {
			t.Errorf("%s is a reporter without arity", d.Opcode)
		}
	}
}

func TestLookup(t *testing.T) {
	c := esp32(t)
	d, ok := c.Lookup(Op_ReadAnalogPin)
	if !ok || d.Class != Class_Sensor || d.Arity != Arity_Number {
		t.Errorf("readAnalogPin = %+v, %v", d, ok)
	}
	if _, ok := c.Lookup(SeparatorOpcode); ok {
		t.Error("separator resolved as a block")
	}
	if _, ok := c.Lookup("playTone"); ok {
		t.Error("unknown opcode resolved")
	}
}

func TestCatalogJSON(t *testing.T) {
	b, err := json.Marshal(esp32(t))
	if err != nil {
		t.Fatal(err)
	}
	var cats []map[string]interface{}
	if err := json.Unmarshal(b, &cats); err != nil {
		t.Fatal(err)
	}
	if len(cats) != 4 {
		t.Fatalf("got %d categories", len(cats))
	}
	blocks := cats[0]["blocks"].([]interface{})
	if blocks[4] != SeparatorOpcode {
		t.Errorf("blocks[4] = %v", blocks[4])
	}
	menus := cats[0]["menus"].(map[string]interface{})
	level := menus[Menu_Level].(map[string]interface{})
	if level["acceptReporters"] != true {
		t.Error("level menu does not accept reporters")
	}
	if !strings.Contains(string(b), `"CH8 (HT0)"`) {
		t.Error("channel labels missing timer")
	}
}
