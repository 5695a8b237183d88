package blocks

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// ArgumentType は、ブロックの引数の型です。
type ArgumentType string

const (
	ArgumentType_String    ArgumentType = "string"
	ArgumentType_Number    ArgumentType = "number"
	ArgumentType_Uint8     ArgumentType = "uint8"
	ArgumentType_HalfAngle ArgumentType = "halfAngle"
	ArgumentType_Oto100    ArgumentType = "oto100"
	ArgumentType_Oto500    ArgumentType = "oto500"
)

// Numeric は、この型の値が数値かを判定します。
func (t ArgumentType) Numeric() bool {
	return t != ArgumentType_String
}

// Integral は、この型の値が整数でなければならないかを判定します。
func (t ArgumentType) Integral() bool {
	return t == ArgumentType_Uint8
}

// Bounds は、この型の値が取り得る閉区間を返します。
// 範囲のない型では ok が false になります。
func (t ArgumentType) Bounds() (lo, hi float64, ok bool) {
	switch t {
	case ArgumentType_Uint8:
		return 0, 255, true
	case ArgumentType_HalfAngle:
		return 0, 180, true
	case ArgumentType_Oto100:
		return 0, 100, true
	case ArgumentType_Oto500:
		return 0, 500, true
	}
	return 0, 0, false
}

// BlockType は、エディタ上のブロックの形状です。
type BlockType string

const (
	BlockType_Command     BlockType = "command"
	BlockType_Reporter    BlockType = "reporter"
	BlockType_Boolean     BlockType = "Boolean"
	BlockType_Conditional BlockType = "conditional"
)

// Arity は、ブロックが返す値の種類です。
type Arity int

const (
	Arity_None Arity = iota
	Arity_Boolean
	Arity_Number
	Arity_String
)

func (a Arity) String() string {
	switch a {
	case Arity_None:
		return "none"
	case Arity_Boolean:
		return "boolean"
	case Arity_Number:
		return "number"
	case Arity_String:
		return "string"
	}
	return fmt.Sprintf("Arity(%d)", int(a))
}

func (a Arity) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Arity) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.WithStack(err)
	}
	for x := Arity_None; x <= Arity_String; x++ {
		if x.String() == s {
			*a = x
			return nil
		}
	}
	return errors.Errorf("unknown arity %q", s)
}

// Class は、ブロックの実行方法の分類です。
type Class int

const (
	// Class_Actuator は、ボードに渡したら応答を待たずに完了するブロックです。
	Class_Actuator Class = iota
	// Class_Sensor は、ボードからの値を待つブロックです。
	Class_Sensor
	// Class_Utility は、ホスト側で計算するブロックです。
	Class_Utility
	// Class_Event は、割り込みの登録を扱うブロックです。
	Class_Event
)

func (c Class) String() string {
	switch c {
	case Class_Actuator:
		return "actuator"
	case Class_Sensor:
		return "sensor"
	case Class_Utility:
		return "utility"
	case Class_Event:
		return "event"
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

func (c Class) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Class) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.WithStack(err)
	}
	for x := Class_Actuator; x <= Class_Event; x++ {
		if x.String() == s {
			*c = x
			return nil
		}
	}
	return errors.Errorf("unknown block class %q", s)
}
