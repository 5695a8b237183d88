package subcmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/c0deeast/suyuan-vm/blocks"
	"github.com/c0deeast/suyuan-vm/config"
)

func TestParseAssignments(t *testing.T) {
	args, err := parseAssignments([]string{"pin=2", "VALUE=a=b", "Level="})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"PIN": "2", "VALUE": "a=b", "LEVEL": ""}
	if len(args) != len(want) {
		t.Fatalf("got %v", args)
	}
	for k, v := range want {
		if args[k] != v {
			t.Errorf("%s = %v, want %q", k, args[k], v)
		}
	}
	for _, bad := range []string{"PIN", "=2"} {
		if _, err := parseAssignments([]string{bad}); err == nil {
			t.Errorf("%q: expected an error", bad)
		}
	}
}

func TestPrintCatalog(t *testing.T) {
	_, c, err := variantOf(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	printCatalog(&buf, c)
	out := buf.String()
	for _, s := range []string{"[pin]", "[serial]", "[data]", "[robot]", "setDigitalOutput", "  ---"} {
		if !strings.Contains(out, s) {
			t.Errorf("catalog output lacks %q", s)
		}
	}

	d, ok := c.Lookup(blocks.Op_SetPwmOutput)
	if !ok {
		t.Fatal("pwm block not found")
	}
	buf.Reset()
	printBlock(&buf, c, d)
	if !strings.Contains(buf.String(), "in [0, 255]") {
		t.Errorf("pwm block output lacks its bounds:\n%s", buf.String())
	}
}
