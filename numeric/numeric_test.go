package numeric

import (
	"math"
	"testing"

	"github.com/c0deeast/suyuan-vm/board"
	"github.com/pkg/errors"
)

func TestMap(t *testing.T) {
	got, err := Map(50, 1, 100, 1, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-495.4545) > 1e-3 {
		t.Errorf("Map(50, 1, 100, 1, 1000) = %v", got)
	}
	got, _ = Map(5, 0, 10, 100, 0)
	if got != 50 {
		t.Errorf("reversed output range: %v", got)
	}
	got, _ = Map(20, 0, 10, 0, 100)
	if got != 200 {
		t.Errorf("out-of-range input is not extrapolated: %v", got)
	}
}

func TestMapIdentity(t *testing.T) {
	ranges := [][2]float64{{0, 1}, {1, 100}, {-3.7, 12.1}, {0.1, 0.3}, {100, 1}}
	for _, r := range ranges {
		lo, hi := math.Min(r[0], r[1]), math.Max(r[0], r[1])
		for i := 0; i <= 20; i++ {
			v := lo + (hi-lo)*float64(i)/20
			got, err := Map(v, r[0], r[1], r[0], r[1])
			if err != nil || got != v {
				t.Errorf("Map(%v, %v, %v, %v, %v) = %v, %v", v, r[0], r[1], r[0], r[1], got, err)
			}
		}
	}
}

func TestMapDegenerate(t *testing.T) {
	if _, err := Map(3, 5, 5, 0, 10); errors.Cause(err) != ErrDegenerateRange {
		t.Errorf("err = %v", err)
	}
}

func TestConstrain(t *testing.T) {
	got, err := Constrain(150, 1, 100)
	if err != nil || got != 100 {
		t.Errorf("Constrain(150, 1, 100) = %v, %v", got, err)
	}
	for _, v := range []float64{-1e9, -1, 0, 1, 42.5, 100, 101, 1e9} {
		got, err := Constrain(v, 0, 100)
		if err != nil || got < 0 || 100 < got {
			t.Errorf("Constrain(%v, 0, 100) = %v, %v", v, got, err)
		}
		if 0 <= v && v <= 100 && got != v {
			t.Errorf("Constrain(%v, 0, 100) changed an in-range value to %v", v, got)
		}
	}
	if got, _ := Constrain(7, 3, 3); got != 3 {
		t.Errorf("Constrain(7, 3, 3) = %v", got)
	}
	if _, err := Constrain(5, 10, 1); errors.Cause(err) != ErrInvertedBounds {
		t.Errorf("inverted bounds err = %v", err)
	}
}

func TestNonFinite(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	if _, err := Map(nan, 0, 10, 0, 100); errors.Cause(err) != ErrUnparsable {
		t.Errorf("Map(NaN) err = %v", err)
	}
	if _, err := Map(5, 0, inf, 0, 100); errors.Cause(err) != ErrUnparsable {
		t.Errorf("Map with an infinite bound err = %v", err)
	}
	for _, c := range [][3]float64{{nan, 0, 100}, {-inf, 0, 100}, {5, nan, 100}, {5, 0, inf}} {
		if got, err := Constrain(c[0], c[1], c[2]); errors.Cause(err) != ErrUnparsable {
			t.Errorf("Constrain(%v, %v, %v) = %v, %v", c[0], c[1], c[2], got, err)
		}
	}
}

func TestConvert(t *testing.T) {
	cases := []struct {
		in   interface{}
		to   board.DataType
		want interface{}
	}{
		{"123", board.DataType_Integer, int64(123)},
		{" -42 ", board.DataType_Integer, int64(-42)},
		{"3.9", board.DataType_Integer, int64(3)},
		{"-3.9", board.DataType_Integer, int64(-3)},
		{12.75, board.DataType_Integer, int64(12)},
		{"0012", board.DataType_Integer, int64(12)},
		{"9007199254740993", board.DataType_Integer, int64(9007199254740993)},
		{"2.5", board.DataType_Decimal, 2.5},
		{7, board.DataType_Decimal, 7.0},
		{2.5, board.DataType_String, "2.5"},
		{100.0, board.DataType_String, "100"},
		{int64(-8), board.DataType_String, "-8"},
		{"abc", board.DataType_String, "abc"},
	}
	for _, c := range cases {
		got, err := Convert(c.in, c.to)
		if err != nil || got != c.want {
			t.Errorf("Convert(%#v, %s) = %#v, %v; want %#v", c.in, c.to, got, err, c.want)
		}
	}
}

func TestConvertUnparsable(t *testing.T) {
	for _, in := range []interface{}{"", "abc", "1e", "NaN", "Inf", math.NaN()} {
		for _, to := range []board.DataType{board.DataType_Integer, board.DataType_Decimal} {
			if _, err := Convert(in, to); errors.Cause(err) != ErrUnparsable {
				t.Errorf("Convert(%#v, %s) err = %v", in, to, err)
			}
		}
	}
}

func TestConvertRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 255, -32768, 1 << 40, math.MaxInt64, math.MinInt64} {
		s, err := Convert(n, board.DataType_String)
		if err != nil {
			t.Fatal(err)
		}
		back, err := Convert(s, board.DataType_Integer)
		if err != nil || back != n {
			t.Errorf("round trip of %d gave %#v, %v", n, back, err)
		}
	}
}

func TestASCII(t *testing.T) {
	for code := 32; code < 127; code++ {
		c, err := ToChar(float64(code))
		if err != nil {
			t.Fatal(err)
		}
		back, err := ToCode(c)
		if err != nil || back != code {
			t.Errorf("ToCode(ToChar(%d)) = %d, %v", code, back, err)
		}
		c2, _ := ToChar(float64(back))
		if c2 != c {
			t.Errorf("ToChar(ToCode(%q)) = %q", c, c2)
		}
	}
	if c, _ := ToChar(97); c != "a" {
		t.Errorf("ToChar(97) = %q", c)
	}
}

func TestASCIIErrors(t *testing.T) {
	for _, s := range []string{"", "ab"} {
		if _, err := ToCode(s); errors.Cause(err) != ErrNotSingleChar {
			t.Errorf("ToCode(%q) err = %v", s, err)
		}
	}
	if _, err := ToCode("é"); errors.Cause(err) != ErrNotASCII {
		t.Errorf("ToCode(é) err = %v", err)
	}
	for _, code := range []float64{-1, 128, 65.5} {
		if _, err := ToChar(code); errors.Cause(err) != ErrNotASCII {
			t.Errorf("ToChar(%v) err = %v", code, err)
		}
	}
}
