package serial

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/c0deeast/suyuan-vm/peripheral"
	"github.com/pkg/errors"
)

// encodeLine は、コマンドを1行の送信データに変換します。
func encodeLine(seq uint32, c peripheral.Command) []byte {
	b := strings.Builder{}
	b.WriteString(strconv.FormatUint(uint64(seq), 10))
	b.WriteByte(' ')
	b.WriteString(c.Op)
	for _, a := range c.Args {
		b.WriteByte(' ')
		b.WriteString(quoteArg(a))
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

func quoteArg(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r == '"' || r == '\\' || unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return strconv.Quote(s)
		}
	}
	return s
}

type lineKind int

const (
	lineUnknown lineKind = iota
	lineAck
	lineValue
	lineError
	lineIRQ
	lineVersion
	lineReady
)

// line は、ボードから受信した1行です。
type line struct {
	kind    lineKind
	seq     uint32
	value   string
	pin     string
	high    bool
	version int
}

func parseLine(s string) (line, error) {
	s = strings.TrimRight(s, "\r\n")
	head, rest := s, ""
	if i := strings.IndexByte(s, ' '); 0 <= i {
		head, rest = s[:i], s[i+1:]
	}
	switch head {
	case "ready":
		return line{kind: lineReady}, nil
	case "version":
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return line{}, errors.Errorf("bad version line %q", s)
		}
		return line{kind: lineVersion, version: n}, nil
	case "irq":
		f := strings.Fields(rest)
		if len(f) != 2 || (f[1] != "0" && f[1] != "1") {
			return line{}, errors.Errorf("bad irq line %q", s)
		}
		return line{kind: lineIRQ, pin: f[0], high: f[1] == "1"}, nil
	case "ok", "=", "!":
		seqStr, value := rest, ""
		if i := strings.IndexByte(rest, ' '); 0 <= i {
			seqStr, value = rest[:i], rest[i+1:]
		}
		seq, err := strconv.ParseUint(seqStr, 10, 32)
		if err != nil {
			return line{}, errors.Errorf("bad sequence number in %q", s)
		}
		l := line{seq: uint32(seq), value: value}
		switch head {
		case "ok":
			l.kind = lineAck
		case "=":
			l.kind = lineValue
		default:
			l.kind = lineError
		}
		return l, nil
	}
	return line{kind: lineUnknown, value: s}, nil
}
