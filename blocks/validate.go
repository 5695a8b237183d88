package blocks

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/spf13/cast"
)

// Values は、正規化されたブロックの引数です。
// 文字列の引数は string、メニューを持つ数値と uint8 の引数は int、
// それ以外の数値の引数は float64 で保持します。
type Values map[string]interface{}

func (v Values) String(name string) string {
	return cast.ToString(v[name])
}

func (v Values) Float(name string) float64 {
	return cast.ToFloat64(v[name])
}

func (v Values) Int(name string) int {
	return cast.ToInt(v[name])
}

// ArgumentError は、引数が定義に反していることを表すエラーです。
type ArgumentError struct {
	Opcode   string
	Argument string
	Value    interface{}
	Reason   string
}

func (e *ArgumentError) Error() string {
	if e.Argument == "" {
		return fmt.Sprintf("%s: %s", e.Opcode, e.Reason)
	}
	return fmt.Sprintf("%s: argument %s=%v: %s", e.Opcode, e.Argument, e.Value, e.Reason)
}

// Normalize は、引数をブロック定義に照らして検査し、定義された型に変換します。
// 省略された引数には既定値を使います。
// 値を範囲内に丸めることはせず、メニューや範囲の外の値は *ArgumentError になります。
func (d *Descriptor) Normalize(c *Catalog, args map[string]interface{}) (Values, error) {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := d.Argument(name); !ok {
			return nil, &ArgumentError{Opcode: d.Opcode, Argument: name, Value: args[name], Reason: "unknown argument"}
		}
	}

	out := Values{}
	for _, a := range d.Arguments {
		raw, ok := args[a.Name]
		if !ok || raw == nil {
			raw = a.Default
		}
		v, reason := normalizeArgument(c, a, raw)
		if reason != "" {
			return nil, &ArgumentError{Opcode: d.Opcode, Argument: a.Name, Value: raw, Reason: reason}
		}
		out[a.Name] = v
	}
	return out, nil
}

func normalizeArgument(c *Catalog, a Argument, raw interface{}) (interface{}, string) {
	if a.Menu != "" {
		m, ok := c.Menu(a.Menu)
		if !ok {
			return nil, "undeclared menu " + a.Menu
		}
		s, err := cast.ToStringE(raw)
		value, found := "", false
		if err == nil {
			value, found = m.Resolve(s)
		}
		if !found && m.AcceptReporters && m.reporter != nil {
			value, found = m.reporter(raw)
		}
		if !found {
			return nil, fmt.Sprintf("not an option of menu %s", m.Name)
		}
		if a.Type.Numeric() {
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Sprintf("menu %s value %q is not a number", m.Name, value)
			}
			return n, ""
		}
		return value, ""
	}

	if !a.Type.Numeric() {
		s, err := cast.ToStringE(raw)
		if err != nil {
			return nil, "not a string"
		}
		return s, ""
	}

	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return nil, "not a number"
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, "not a finite number"
	}
	if lo, hi, ok := a.Type.Bounds(); ok && (f < lo || hi < f) {
		return nil, fmt.Sprintf("out of range [%g, %g] for %s", lo, hi, a.Type)
	}
	if a.Type.Integral() {
		if f != math.Trunc(f) {
			return nil, fmt.Sprintf("%s must be a whole number", a.Type)
		}
		return int(f), ""
	}
	return f, ""
}
