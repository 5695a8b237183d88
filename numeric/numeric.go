// Package numeric は、ホスト側で計算するデータのブロックです。
package numeric

import (
	"math"
	"strconv"
	"strings"

	"github.com/c0deeast/suyuan-vm/board"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

var (
	ErrDegenerateRange = errors.New("input range is empty")
	ErrInvertedBounds  = errors.New("lower bound is greater than upper bound")
	ErrUnparsable      = errors.New("value cannot be converted")
	ErrNotSingleChar   = errors.New("exactly one character is required")
	ErrNotASCII        = errors.New("not an ASCII character")
)

// Map は、v を [inMin, inMax] から [outMin, outMax] へ線形に変換します。
// v を入力の範囲に丸めることはしません。
func Map(v, inMin, inMax, outMin, outMax float64) (float64, error) {
	if err := finite("map", v, inMin, inMax, outMin, outMax); err != nil {
		return 0, err
	}
	if inMin == inMax {
		return 0, errors.Wrapf(ErrDegenerateRange, "map from (%g, %g)", inMin, inMax)
	}
	if inMin == outMin && inMax == outMax {
		return v, nil
	}
	return outMin + (v-inMin)*(outMax-outMin)/(inMax-inMin), nil
}

func finite(op string, fs ...float64) error {
	for _, f := range fs {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errors.Wrapf(ErrUnparsable, "%s: %g is not a finite number", op, f)
		}
	}
	return nil
}

// Constrain は、v を [lo, hi] の範囲に収めます。
func Constrain(v, lo, hi float64) (float64, error) {
	if err := finite("constrain", v, lo, hi); err != nil {
		return 0, err
	}
	if hi < lo {
		return 0, errors.Wrapf(ErrInvertedBounds, "constrain between (%g, %g)", lo, hi)
	}
	return math.Min(math.Max(v, lo), hi), nil
}

// Convert は、v を to の型に変換します。
// INTEGER は int64、DECIMAL は float64、STRING は文字列です。
// 小数を INTEGER に変換すると 0 方向に切り捨てます。
func Convert(v interface{}, to board.DataType) (interface{}, error) {
	switch to {
	case board.DataType_String:
		return toText(v)
	case board.DataType_Decimal:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		return f, nil
	case board.DataType_Integer:
		if s, ok := v.(string); ok {
			if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				return n, nil
			}
		}
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case int32:
			return int64(n), nil
		}
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		t := math.Trunc(f)
		if t < math.MinInt64 || math.MaxInt64 <= t {
			return nil, errors.Wrapf(ErrUnparsable, "%v overflows an integer", v)
		}
		return int64(t), nil
	}
	return nil, errors.Errorf("unknown data type %q", to)
}

func toFloat(v interface{}) (float64, error) {
	var f float64
	var err error
	if s, ok := v.(string); ok {
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
	} else {
		f, err = cast.ToFloat64E(v)
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.Wrapf(ErrUnparsable, "%q is not a number", cast.ToString(v))
	}
	return f, nil
}

func toText(v interface{}) (string, error) {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", errors.Wrapf(ErrUnparsable, "%T has no text form", v)
	}
	return s, nil
}

// ToChar は、指定したコードの ASCII 文字を返します。
func ToChar(code float64) (string, error) {
	if code != math.Trunc(code) || code < 0 || 127 < code {
		return "", errors.Wrapf(ErrNotASCII, "code %g", code)
	}
	return string(rune(int(code))), nil
}

// ToCode は、1 文字の ASCII コードを返します。
func ToCode(s string) (int, error) {
	r := []rune(s)
	if len(r) != 1 {
		return 0, errors.Wrapf(ErrNotSingleChar, "%q", s)
	}
	if 127 < r[0] {
		return 0, errors.Wrapf(ErrNotASCII, "%q", s)
	}
	return int(r[0]), nil
}
