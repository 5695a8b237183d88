// Package board は、対応するボードの種類ごとのデータです。
// ピンとその機能、PWM チャンネル、UART、
// デバイスの検出と書き込みツールに渡す識別情報を保持します。
package board

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Caps は、ピンの電気的な機能の集合です。
type Caps uint8

const (
	Cap_Input Caps = 1 << iota
	Cap_Output
	Cap_Analog
	Cap_DAC
	Cap_Touch
)

// Cap_Digital は、デジタル入出力の両方に使えるピンです。
const Cap_Digital = Cap_Input | Cap_Output

func (c Caps) Has(want Caps) bool {
	return c&want == want
}

func (c Caps) String() string {
	names := []string{}
	for _, x := range []struct {
		c Caps
		s string
	}{
		{Cap_Input, "input"},
		{Cap_Output, "output"},
		{Cap_Analog, "analog"},
		{Cap_DAC, "dac"},
		{Cap_Touch, "touch"},
	} {
		if c.Has(x.c) {
			names = append(names, x.s)
		}
	}
	return strings.Join(names, ",")
}

// Pin は、物理的な入出力ピンです。
type Pin struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Caps  Caps   `json:"-"`
}

// Channel は、PWM (LEDC) チャンネルと、それを駆動するタイマーです。
// タイマーを共有するチャンネル同士は、周波数と分解能も共有します。
type Channel struct {
	Number int    `json:"number"`
	Timer  string `json:"timer"`
}

func (c Channel) Label() string {
	return fmt.Sprintf("CH%d (%s)", c.Number, c.Timer)
}

// SerialPort は、ハードウェア UART です。
type SerialPort struct {
	Number   int  `json:"number"`
	Reserved bool `json:"reserved"`
}

// LinkConfig は、ボードとの通信に使うシリアルの設定です。
type LinkConfig struct {
	BaudRate int `json:"baudRate"`
	DataBits int `json:"dataBits"`
	StopBits int `json:"stopBits"`
}

// Identity は、ボードの検出と書き込みに必要な識別情報です。
// このパッケージでは解釈しません。
type Identity struct {
	PNPIDs []string          `json:"pnpids"`
	Link   LinkConfig        `json:"link"`
	Type   string            `json:"type"`
	FQBNs  map[string]string `json:"fqbn"`
}

// Matches は、接続されたデバイスの PNP ID が既知のアダプタかを判定します。
func (id Identity) Matches(pnpid string) bool {
	for _, p := range id.PNPIDs {
		if strings.EqualFold(p, pnpid) {
			return true
		}
	}
	return false
}

// FQBN は、指定した GOOS での書き込み先を返します。
func (id Identity) FQBN(goos string) (string, bool) {
	f, ok := id.FQBNs[goos]
	return f, ok
}

// Variant は、ボードの種類 1 つです。構築後は変更されません。
type Variant struct {
	ID            string
	Name          string
	Pins          []Pin
	FlashReserved []string
	Channels      []Channel
	SerialPorts   []SerialPort
	UARTBaudRates []int
	Identity      Identity
}

// IsFlashReserved は、ピンが内蔵フラッシュに接続されているかを判定します。
func (v *Variant) IsFlashReserved(value string) bool {
	for _, p := range v.FlashReserved {
		if p == value {
			return true
		}
	}
	return false
}

// PinsWith は、caps のすべての機能を持つ使用可能なピンをボードの順に返します。
func (v *Variant) PinsWith(caps Caps) []Pin {
	pins := []Pin{}
	for _, p := range v.Pins {
		if v.IsFlashReserved(p.Value) || !p.Caps.Has(caps) {
			continue
		}
		pins = append(pins, p)
	}
	return pins
}

// Pin は、値（"2"）または名前（"IO2"）でピンを探します。
func (v *Variant) Pin(s string) (Pin, bool) {
	for _, p := range v.Pins {
		if p.Value == s || strings.EqualFold(p.Name, s) {
			return p, true
		}
	}
	return Pin{}, false
}

// Channel は、指定した番号の PWM チャンネルを返します。
func (v *Variant) Channel(n int) (Channel, bool) {
	for _, c := range v.Channels {
		if c.Number == n {
			return c, true
		}
	}
	return Channel{}, false
}

// UsableSerialPorts は、予約されていない UART を返します。
func (v *Variant) UsableSerialPorts() []SerialPort {
	ports := []SerialPort{}
	for _, s := range v.SerialPorts {
		if !s.Reserved {
			ports = append(ports, s)
		}
	}
	return ports
}

var variants = map[string]*Variant{}

func register(v *Variant) *Variant {
	variants[v.ID] = v
	return v
}

// Lookup は、指定した ID のボードの種類を返します。
func Lookup(id string) (*Variant, error) {
	v, ok := variants[id]
	if !ok {
		return nil, errors.Errorf("unknown board variant: %s", id)
	}
	return v, nil
}

// Variants は、登録されているボードの種類の ID を昇順に返します。
func Variants() []string {
	ids := make([]string, 0, len(variants))
	for id := range variants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
