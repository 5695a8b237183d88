package board

import (
	"encoding/json"
	"fmt"
)

// PinMode は、ピンの入出力モードです。
type PinMode string

const (
	PinMode_Input         PinMode = "INPUT"
	PinMode_Output        PinMode = "OUTPUT"
	PinMode_InputPullup   PinMode = "INPUT_PULLUP"
	PinMode_InputPulldown PinMode = "INPUT_PULLDOWN"
)

var PinModes = []PinMode{PinMode_Input, PinMode_Output, PinMode_InputPullup, PinMode_InputPulldown}

func (m PinMode) String() string { return string(m) }

// Level は、デジタル出力のレベルです。
type Level string

const (
	Level_High Level = "HIGH"
	Level_Low  Level = "LOW"
)

func (l Level) String() string { return string(l) }

// Bool は、レベルが HIGH かを判定します。
func (l Level) Bool() bool { return l == Level_High }

// LevelOf は、真偽値を Level に変換します。
func LevelOf(high bool) Level {
	if high {
		return Level_High
	}
	return Level_Low
}

// InterruptMode は、割り込みを発生させるエッジまたはレベルです。
type InterruptMode string

const (
	InterruptMode_Rising    InterruptMode = "RISING"
	InterruptMode_Falling   InterruptMode = "FALLING"
	InterruptMode_Change    InterruptMode = "CHANGE"
	InterruptMode_LowLevel  InterruptMode = "LOW"
	InterruptMode_HighLevel InterruptMode = "HIGH"
)

var InterruptModes = []InterruptMode{
	InterruptMode_Rising,
	InterruptMode_Falling,
	InterruptMode_Change,
	InterruptMode_LowLevel,
	InterruptMode_HighLevel,
}

func (m InterruptMode) String() string { return string(m) }

func (m InterruptMode) Valid() bool {
	for _, x := range InterruptModes {
		if m == x {
			return true
		}
	}
	return false
}

// Fires は、ピンの状態が割り込みの条件を満たすかを判定します。
// prev は直前のレベル、high は現在のレベルです。
func (m InterruptMode) Fires(prev, high bool) bool {
	switch m {
	case InterruptMode_Rising:
		return !prev && high
	case InterruptMode_Falling:
		return prev && !high
	case InterruptMode_Change:
		return prev != high
	case InterruptMode_LowLevel:
		return !high
	case InterruptMode_HighLevel:
		return high
	}
	return false
}

// Eol は、シリアル出力の末尾に改行を付けるかを表します。
type Eol string

const (
	Eol_Warp   Eol = "warp"
	Eol_NoWarp Eol = "noWarp"
)

func (e Eol) String() string { return string(e) }

// Suffix は、出力する値の末尾に付ける文字列を返します。
func (e Eol) Suffix() string {
	if e == Eol_Warp {
		return "\r\n"
	}
	return ""
}

// DataType は、値の変換先の型です。
type DataType string

const (
	DataType_Integer DataType = "INTEGER"
	DataType_Decimal DataType = "DECIMAL"
	DataType_String  DataType = "STRING"
)

func (t DataType) String() string { return string(t) }

// GripperStatus は、ロボットのグリッパーの開閉状態です。
type GripperStatus int

const (
	GripperStatus_Close GripperStatus = 0
	GripperStatus_Open  GripperStatus = 1
)

func (s GripperStatus) String() string {
	v := "undefined"
	switch s {
	case GripperStatus_Close:
		v = "Close"
	case GripperStatus_Open:
		v = "Open"
	}
	return fmt.Sprintf("%s(%d)", v, int(s))
}

func (s GripperStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CoordinatesMode は、アームが目標座標へ移動する方法です。
type CoordinatesMode int

const (
	CoordinatesMode_Angular CoordinatesMode = 0
	CoordinatesMode_Linear  CoordinatesMode = 1
)

func (m CoordinatesMode) String() string {
	v := "undefined"
	switch m {
	case CoordinatesMode_Angular:
		v = "Angular"
	case CoordinatesMode_Linear:
		v = "Linear"
	}
	return fmt.Sprintf("%s(%d)", v, int(m))
}

func (m CoordinatesMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}
