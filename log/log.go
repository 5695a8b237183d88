package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogLevel int

const (
	LogLevel_None = iota
	LogLevel_Warn
	LogLevel_Info
	LogLevel_Debug
)

func (l LogLevel) String() string {
	switch l {
	case LogLevel_None:
		return "none"
	case LogLevel_Warn:
		return "warn"
	case LogLevel_Info:
		return "info"
	case LogLevel_Debug:
		return "debug"
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

// ParseLevel は、設定ファイルのレベル名を LogLevel に変換します。
func ParseLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "silent":
		return LogLevel_None, true
	case "warn", "warning", "quiet":
		return LogLevel_Warn, true
	case "", "info":
		return LogLevel_Info, true
	case "debug":
		return LogLevel_Debug, true
	}
	return LogLevel_Info, false
}

var Level LogLevel = LogLevel_Info

var cyan = color.New(color.FgCyan)
var yellow = color.New(color.FgYellow)

var (
	mu     sync.Mutex
	out    io.Writer = os.Stderr
	file   io.WriteCloser
	indent = 0
)

// FileOptions は、ローテーションするログファイルの設定です。
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// SetFile は、すべてのメッセージをサイズでローテーションするファイルにも出力します。Path が空ならファイル出力を止めます。
func SetFile(opts FileOptions) {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
	}
	if opts.Path == "" {
		return
	}
	file = &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
	}
}

// SetOutput は、端末への出力先を変更します。nil を指定すると stderr に戻します。
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	out = w
}

func emit(c *color.Color, prefix, f string, args ...interface{}) {
	msg := fmt.Sprintf(f, args...)
	mu.Lock()
	defer mu.Unlock()
	line := strings.Repeat("  ", indent) + prefix + msg + "\n"
	if c != nil {
		c.Fprint(out, line)
	} else {
		fmt.Fprint(out, line)
	}
	if file != nil {
		fmt.Fprint(file, line)
	}
}

func Warnf(f string, args ...interface{}) {
	if LogLevel_Warn <= Level {
		emit(yellow, "[WARNING] ", f, args...)
	}
}

func Infof(f string, args ...interface{}) {
	if LogLevel_Info <= Level {
		emit(nil, "", f, args...)
	}
}

func Debugf(f string, args ...interface{}) {
	if LogLevel_Debug <= Level {
		emit(cyan, "", f, args...)
	}
}

func Enter() {
	mu.Lock()
	indent++
	mu.Unlock()
}

func Leave() {
	mu.Lock()
	if 0 < indent {
		indent--
	}
	mu.Unlock()
}
