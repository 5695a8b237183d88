package blocks

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c0deeast/suyuan-vm/board"
	"github.com/spf13/cast"
)

func pinMenu(name string, pins []board.Pin) *Menu {
	m := &Menu{Name: name}
	for _, p := range pins {
		m.Items = append(m.Items, MenuItem{Text: p.Name, Value: p.Value})
	}
	return m
}

// levelReporter は、計算結果の値を level メニューの項目に変換します。
// 真偽値は true、数値は 0 以外のとき HIGH になります。
func levelReporter(v interface{}) (string, bool) {
	switch x := v.(type) {
	case bool:
		return board.LevelOf(x).String(), true
	case board.Level:
		return x.String(), x == board.Level_High || x == board.Level_Low
	case string:
		s := strings.TrimSpace(x)
		if strings.EqualFold(s, "true") || strings.EqualFold(s, "false") {
			return board.LevelOf(strings.EqualFold(s, "true")).String(), true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "", false
		}
		return board.LevelOf(f != 0).String(), true
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return "", false
	}
	return board.LevelOf(f != 0).String(), true
}

func pinCategory(v *board.Variant) *Category {
	channels := &Menu{Name: Menu_LedcChannels}
	for _, c := range v.Channels {
		channels.Items = append(channels.Items, MenuItem{Text: c.Label(), Value: strconv.Itoa(c.Number)})
	}
	interruptModes := &Menu{Name: Menu_InterruptMode}
	for _, it := range []struct {
		text string
		mode board.InterruptMode
	}{
		{"rising edge", board.InterruptMode_Rising},
		{"falling edge", board.InterruptMode_Falling},
		{"change edge", board.InterruptMode_Change},
		{"low level", board.InterruptMode_LowLevel},
		{"high level", board.InterruptMode_HighLevel},
	} {
		interruptModes.Items = append(interruptModes.Items, MenuItem{Text: it.text, Value: it.mode.String()})
	}

	pin := func(menu, def string) Argument {
		return Argument{Name: "PIN", Type: ArgumentType_String, Menu: menu, Default: def}
	}
	channel := Argument{Name: "CH", Type: ArgumentType_Number, Menu: Menu_LedcChannels, Default: "0"}

	return &Category{
		ID:     "pin",
		Name:   "Pins",
		Color1: "#4C97FF",
		Color2: "#3373CC",
		Color3: "#3373CC",
		Blocks: []*Descriptor{
			{
				Opcode:    Op_SetPinMode,
				Text:      "set pin [PIN] mode [MODE]",
				BlockType: BlockType_Command,
				Class:     Class_Actuator,
				Arguments: []Argument{
					pin(Menu_OutPins, "2"),
					{Name: "MODE", Type: ArgumentType_String, Menu: Menu_Mode, Default: board.PinMode_Input.String()},
				},
			},
			{
				Opcode:    Op_SetDigitalOutput,
				Text:      "set digital pin [PIN] out [LEVEL]",
				BlockType: BlockType_Command,
				Class:     Class_Actuator,
				Arguments: []Argument{
					pin(Menu_OutPins, "2"),
					{Name: "LEVEL", Type: ArgumentType_String, Menu: Menu_Level, Default: board.Level_High.String()},
				},
			},
			{
				Opcode:    Op_SetPwmOutput,
				Text:      "set pwm pin [PIN] use channel [CH] out [OUT]",
				BlockType: BlockType_Command,
				Class:     Class_Actuator,
				Arguments: []Argument{
					pin(Menu_OutPins, "2"),
					{Name: "OUT", Type: ArgumentType_Uint8, Default: "255"},
					channel,
				},
			},
			{
				Opcode:    Op_SetDACOutput,
				Text:      "set dac pin [PIN] out [OUT]",
				BlockType: BlockType_Command,
				Class:     Class_Actuator,
				Arguments: []Argument{
					pin(Menu_DACPins, "25"),
					{Name: "OUT", Type: ArgumentType_Uint8, Default: "0"},
				},
			},
			Separator,
			{
				Opcode:    Op_ReadDigitalPin,
				Text:      "read digital pin [PIN]",
				BlockType: BlockType_Boolean,
				Arity:     Arity_Boolean,
				Class:     Class_Sensor,
				Arguments: []Argument{pin(Menu_Pins, "2")},
			},
			{
				Opcode:    Op_ReadAnalogPin,
				Text:      "read analog pin [PIN]",
				BlockType: BlockType_Reporter,
				Arity:     Arity_Number,
				Class:     Class_Sensor,
				Arguments: []Argument{pin(Menu_AnalogPins, "2")},
			},
			{
				Opcode:    Op_ReadTouchPin,
				Text:      "read touch pin [PIN]",
				BlockType: BlockType_Reporter,
				Arity:     Arity_Number,
				Class:     Class_Sensor,
				Arguments: []Argument{pin(Menu_TouchPins, "2")},
			},
			Separator,
			{
				Opcode:    Op_SetServoOutput,
				Text:      "set servo pin [PIN] use channel [CH] out [OUT]",
				BlockType: BlockType_Command,
				Class:     Class_Actuator,
				Arguments: []Argument{
					pin(Menu_OutPins, "2"),
					{Name: "OUT", Type: ArgumentType_HalfAngle, Default: "90"},
					channel,
				},
			},
			Separator,
			{
				Opcode:    Op_SetSCServo,
				Text:      "set bus servo [STEERINGID] speed [SPEED] position [POSITION]",
				BlockType: BlockType_Command,
				Class:     Class_Actuator,
				Arguments: []Argument{
					{Name: "STEERINGID", Type: ArgumentType_Number, Default: "0"},
					{Name: "SPEED", Type: ArgumentType_Oto100, Default: "1"},
					{Name: "POSITION", Type: ArgumentType_Number, Default: "4095"},
				},
			},
			Separator,
			{
				Opcode:    Op_AttachInterrupt,
				Text:      "attach interrupt pin [PIN] mode [MODE] executes",
				BlockType: BlockType_Conditional,
				Class:     Class_Event,
				Arguments: []Argument{
					pin(Menu_Pins, "2"),
					{Name: "MODE", Type: ArgumentType_String, Menu: Menu_InterruptMode, Default: board.InterruptMode_Rising.String()},
				},
			},
			{
				Opcode:    Op_DetachInterrupt,
				Text:      "detach interrupt pin [PIN]",
				BlockType: BlockType_Command,
				Class:     Class_Event,
				Arguments: []Argument{pin(Menu_Pins, "2")},
			},
		},
		Menus: []*Menu{
			pinMenu(Menu_Pins, v.PinsWith(board.Cap_Input)),
			pinMenu(Menu_OutPins, v.PinsWith(board.Cap_Output)),
			{
				Name: Menu_Mode,
				Items: []MenuItem{
					{"input", board.PinMode_Input.String()},
					{"output", board.PinMode_Output.String()},
					{"input-pullup", board.PinMode_InputPullup.String()},
					{"input-pulldown", board.PinMode_InputPulldown.String()},
				},
			},
			pinMenu(Menu_AnalogPins, v.PinsWith(board.Cap_Analog)),
			{
				Name:            Menu_Level,
				AcceptReporters: true,
				Items: []MenuItem{
					{"high", board.Level_High.String()},
					{"low", board.Level_Low.String()},
				},
				reporter: levelReporter,
			},
			channels,
			pinMenu(Menu_DACPins, v.PinsWith(board.Cap_DAC)),
			pinMenu(Menu_TouchPins, v.PinsWith(board.Cap_Touch)),
			interruptModes,
		},
	}
}

func serialCategory(v *board.Variant) *Category {
	serialNo := &Menu{Name: Menu_SerialNo}
	for _, p := range v.UsableSerialPorts() {
		serialNo.Items = append(serialNo.Items, MenuItem{Text: strconv.Itoa(p.Number), Value: strconv.Itoa(p.Number)})
	}
	baudrate := &Menu{Name: Menu_Baudrate}
	for _, b := range v.UARTBaudRates {
		baudrate.Items = append(baudrate.Items, MenuItem{Text: strconv.Itoa(b), Value: strconv.Itoa(b)})
	}
	no := Argument{Name: "NO", Type: ArgumentType_Number, Menu: Menu_SerialNo, Default: "0"}

	return &Category{
		ID:     "serial",
		Name:   "Serial",
		Color1: "#9966FF",
		Color2: "#774DCB",
		Color3: "#774DCB",
		Blocks: []*Descriptor{
			{
				Opcode:    Op_SerialBegin,
				Text:      "serial [NO] begin baudrate [VALUE]",
				BlockType: BlockType_Command,
				Class:     Class_Actuator,
				Arguments: []Argument{
					no,
					{Name: "VALUE", Type: ArgumentType_Number, Menu: Menu_Baudrate, Default: "115200"},
				},
			},
			{
				Opcode:    Op_SerialPrint,
				Text:      "serial [NO] print [VALUE] [EOL]",
				BlockType: BlockType_Command,
				Class:     Class_Actuator,
				Arguments: []Argument{
					no,
					{Name: "VALUE", Type: ArgumentType_String, Default: "Hello OpenBlock"},
					{Name: "EOL", Type: ArgumentType_String, Menu: Menu_Eol, Default: board.Eol_Warp.String()},
				},
			},
			{
				Opcode:    Op_SerialAvailable,
				Text:      "serial [NO] available data length",
				BlockType: BlockType_Reporter,
				Arity:     Arity_Number,
				Class:     Class_Sensor,
				Arguments: []Argument{no},
			},
			{
				Opcode:    Op_SerialReadByte,
				Text:      "serial [NO] read a byte",
				BlockType: BlockType_Reporter,
				Arity:     Arity_Number,
				Class:     Class_Sensor,
				Arguments: []Argument{no},
			},
		},
		Menus: []*Menu{
			baudrate,
			serialNo,
			{
				Name: Menu_Eol,
				Items: []MenuItem{
					{"warp", board.Eol_Warp.String()},
					{"no-warp", board.Eol_NoWarp.String()},
				},
			},
		},
	}
}

func dataCategory(v *board.Variant) *Category {
	num := func(name, def string) Argument {
		return Argument{Name: name, Type: ArgumentType_Number, Default: def}
	}
	return &Category{
		ID:     "data",
		Name:   "Data",
		Color1: "#CF63CF",
		Color2: "#C94FC9",
		Color3: "#BD42BD",
		Blocks: []*Descriptor{
			{
				Opcode:    Op_DataMap,
				Text:      "map [DATA] from ([ARG0], [ARG1]) to ([ARG2], [ARG3])",
				BlockType: BlockType_Reporter,
				Arity:     Arity_Number,
				Class:     Class_Utility,
				Arguments: []Argument{
					num("DATA", "50"), num("ARG0", "1"), num("ARG1", "100"), num("ARG2", "1"), num("ARG3", "1000"),
				},
			},
			{
				Opcode:    Op_DataConstrain,
				Text:      "constrain [DATA] between ([ARG0], [ARG1])",
				BlockType: BlockType_Reporter,
				Arity:     Arity_Number,
				Class:     Class_Utility,
				Arguments: []Argument{num("DATA", "50"), num("ARG0", "1"), num("ARG1", "100")},
			},
			Separator,
			{
				Opcode:    Op_DataConvert,
				Text:      "convert [DATA] to [TYPE]",
				BlockType: BlockType_Reporter,
				Arity:     Arity_String,
				Class:     Class_Utility,
				Arguments: []Argument{
					{Name: "DATA", Type: ArgumentType_String, Default: "123"},
					{Name: "TYPE", Type: ArgumentType_String, Menu: Menu_DataType, Default: board.DataType_Integer.String()},
				},
			},
			{
				Opcode:    Op_DataToASCIIChar,
				Text:      "convert [DATA] to ASCII character",
				BlockType: BlockType_Reporter,
				Arity:     Arity_String,
				Class:     Class_Utility,
				Arguments: []Argument{num("DATA", "97")},
			},
			{
				Opcode:    Op_DataToASCIINumber,
				Text:      "convert [DATA] to ASCII number",
				BlockType: BlockType_Reporter,
				Arity:     Arity_Number,
				Class:     Class_Utility,
				Arguments: []Argument{{Name: "DATA", Type: ArgumentType_String, Default: "a"}},
			},
		},
		Menus: []*Menu{
			{
				Name: Menu_DataType,
				Items: []MenuItem{
					{"integer", board.DataType_Integer.String()},
					{"decimal", board.DataType_Decimal.String()},
					{"string", board.DataType_String.String()},
				},
			},
		},
	}
}

func robotCategory(v *board.Variant) *Category {
	angle := func(name string) Argument {
		return Argument{Name: name, Type: ArgumentType_HalfAngle, Default: "0"}
	}
	speed := Argument{Name: "SPEED", Type: ArgumentType_Oto500, Default: "0"}
	status := Argument{Name: "STATUS", Type: ArgumentType_String, Menu: Menu_GripperStatus, Default: "1"}
	coord := func(name string) Argument {
		return Argument{Name: name, Type: ArgumentType_Number, Default: "0"}
	}

	joints := &Menu{Name: Menu_Joint}
	for j := 1; j <= 6; j++ {
		joints.Items = append(joints.Items, MenuItem{Text: fmt.Sprint(j), Value: fmt.Sprint(j)})
	}

	return &Category{
		ID:     "robot",
		Name:   "ROBOT",
		Color1: "#CF63CF",
		Color2: "#C94FC9",
		Color3: "#BD42BD",
		Blocks: []*Descriptor{
			{
				Opcode:    Op_SetJointAngle,
				Text:      "set joint [JOINT] angle [ANGLE] speed [SPEED]",
				BlockType: BlockType_Command,
				Class:     Class_Actuator,
				Arguments: []Argument{
					{Name: "JOINT", Type: ArgumentType_Uint8, Menu: Menu_Joint, Default: "1"},
					angle("ANGLE"),
					speed,
				},
			},
			{
				Opcode:    Op_SetAllJointAngles,
				Text:      "set full joint,joint 1 [ANGLE1] joint 2 [ANGLE2] joint 3 [ANGLE3] joint 4 [ANGLE4] joint 5 [ANGLE5] joint 6 [ANGLE6] speed [SPEED]",
				BlockType: BlockType_Command,
				Class:     Class_Actuator,
				Arguments: []Argument{
					angle("ANGLE1"), angle("ANGLE2"), angle("ANGLE3"),
					angle("ANGLE4"), angle("ANGLE5"), angle("ANGLE6"),
					speed,
				},
			},
			{
				Opcode:    Op_SetGripper,
				Text:      "set gripper angle [ANGLE] speed [SPEED]",
				BlockType: BlockType_Command,
				Class:     Class_Actuator,
				Arguments: []Argument{
					{Name: "ANGLE", Type: ArgumentType_Oto100, Default: "0"},
					speed,
				},
			},
			{
				Opcode:    Op_SetGripperStatus,
				Text:      "set gripper status [STATUS] speed [SPEED]",
				BlockType: BlockType_Command,
				Class:     Class_Actuator,
				Arguments: []Argument{
					status,
					{Name: "SPEED", Type: ArgumentType_Oto100, Default: "0"},
				},
			},
			{
				Opcode:    Op_SetGripperDefault,
				Text:      "set gripper status [STATUS]",
				BlockType: BlockType_Command,
				Class:     Class_Actuator,
				Arguments: []Argument{status},
			},
			{
				Opcode:    Op_SetCoordinates,
				Text:      "set coordinate x[X] y[Y] z[Z] rx[RX] ry[RY] rz[RZ] speed[SPEED] mode[MODE]",
				BlockType: BlockType_Command,
				Class:     Class_Actuator,
				Arguments: []Argument{
					coord("X"), coord("Y"), coord("Z"),
					coord("RX"), coord("RY"), coord("RZ"),
					speed,
					{Name: "MODE", Type: ArgumentType_String, Menu: Menu_CoordinatesMode, Default: "0"},
				},
			},
			{
				Opcode:    Op_GetAllAngles,
				Text:      "get all angle",
				BlockType: BlockType_Command,
				Arity:     Arity_String,
				Class:     Class_Sensor,
			},
			{
				Opcode:    Op_GetAllCoordinates,
				Text:      "get all coordinates",
				BlockType: BlockType_Command,
				Arity:     Arity_String,
				Class:     Class_Sensor,
			},
		},
		Menus: []*Menu{
			joints,
			{
				Name: Menu_GripperStatus,
				Items: []MenuItem{
					{"open", fmt.Sprint(int(board.GripperStatus_Open))},
					{"close", fmt.Sprint(int(board.GripperStatus_Close))},
				},
			},
			{
				Name: Menu_CoordinatesMode,
				Items: []MenuItem{
					{"angular", fmt.Sprint(int(board.CoordinatesMode_Angular))},
					{"linear", fmt.Sprint(int(board.CoordinatesMode_Linear))},
				},
			},
		},
	}
}

func esp32Categories(v *board.Variant) []*Category {
	return []*Category{
		pinCategory(v),
		serialCategory(v),
		dataCategory(v),
		robotCategory(v),
	}
}
