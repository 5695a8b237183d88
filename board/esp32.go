package board

import (
	"fmt"
)

// ESP32ID は、ESP32 DevKit の ID です。
const ESP32ID = "arduinoEsp32"

// ESP32 は、ESP32 DevKit (ESP32-WROOM-32) です。
var ESP32 = register(newESP32())

func newESP32() *Variant {
	analog := map[int]bool{}
	for _, n := range []int{0, 2, 4, 12, 13, 14, 15, 25, 26, 27, 32, 33, 34, 35, 36, 39} {
		analog[n] = true
	}
	touch := map[int]bool{}
	for _, n := range []int{0, 2, 4, 12, 13, 14, 15, 27, 32, 33} {
		touch[n] = true
	}
	dac := map[int]bool{25: true, 26: true}
	inputOnly := map[int]bool{34: true, 35: true, 36: true, 39: true}

	v := &Variant{
		ID:            ESP32ID,
		Name:          "ESP32 Arduino",
		FlashReserved: []string{"6", "7", "8", "9", "10", "11"},
		Identity: Identity{
			PNPIDs: []string{
				`USB\VID_1A86&PID_7523`, // CH340
				`USB\VID_1A86&PID_55D4`, // CH9102
				`USB\VID_10C4&PID_EA60`, // CP2102
			},
			Link: LinkConfig{BaudRate: 57600, DataBits: 8, StopBits: 1},
			Type: "arduino",
			FQBNs: map[string]string{
				"darwin":  "esp32:esp32:esp32:UploadSpeed=460800",
				"linux":   "esp32:esp32:esp32:UploadSpeed=460800",
				"windows": "esp32:esp32:esp32:UploadSpeed=921600",
			},
		},
		SerialPorts: []SerialPort{
			{Number: 0},
			{Number: 1, Reserved: true}, // IO9/IO10 belong to the flash chip
			{Number: 2},
		},
		UARTBaudRates: []int{4800, 9600, 19200, 38400, 57600, 76800, 115200},
	}

	for n := 0; n <= 39; n++ {
		switch n {
		case 20, 24, 28, 29, 30, 31, 37, 38:
			continue
		}
		caps := Cap_Digital
		if inputOnly[n] {
			caps = Cap_Input
		}
		if analog[n] {
			caps |= Cap_Analog
		}
		if touch[n] {
			caps |= Cap_Touch
		}
		if dac[n] {
			caps |= Cap_DAC
		}
		v.Pins = append(v.Pins, Pin{Name: fmt.Sprintf("IO%d", n), Value: fmt.Sprint(n), Caps: caps})
	}

	for n := 0; n < 16; n++ {
		speed := "LT"
		if 8 <= n {
			speed = "HT"
		}
		v.Channels = append(v.Channels, Channel{Number: n, Timer: fmt.Sprintf("%s%d", speed, n%8/2)})
	}
	return v
}
