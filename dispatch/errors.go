package dispatch

import (
	"fmt"

	"github.com/c0deeast/suyuan-vm/blocks"
	"github.com/c0deeast/suyuan-vm/peripheral"
	"github.com/pkg/errors"
)

// Kind は、ブロックが失敗した理由の分類です。
type Kind int

const (
	KindNone Kind = iota
	// KindArgument は、範囲外やメニューにない値など、引数が定義に反していることを表します。
	// 必要な機能を持たないピンもこれに含まれます。
	KindArgument
	// KindTransport は、コマンドの送信または応答の受信に失敗したことを表します。
	KindTransport
	// KindUnknownOpcode は、カタログにないブロックを表します。
	KindUnknownOpcode
	// KindInternal は、ブロックの実行中に recover した panic を表します。
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindArgument:
		return "argument"
	case KindTransport:
		return "transport"
	case KindUnknownOpcode:
		return "unknownOpcode"
	case KindInternal:
		return "internal"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error は、Dispatcher の呼び出しが失敗したときに返すエラーです。
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *Error) Cause() error  { return e.Err }
func (e *Error) Unwrap() error { return e.Err }

// KindOf は、エラーの Kind を返します。Dispatcher のエラーでなければ KindNone です。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*Error); ok {
		return err
	}
	kind := KindArgument
	var te *peripheral.TransportError
	var ae *blocks.ArgumentError
	switch {
	case errors.As(err, &te):
		kind = KindTransport
	case errors.As(err, &ae):
		kind = KindArgument
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
