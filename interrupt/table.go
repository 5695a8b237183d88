// Package interrupt は、実行中のプログラムのピンごとの割り込みの登録を管理し、
// ボードからの割り込みをキュー経由でハンドラに渡します。
package interrupt

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c0deeast/suyuan-vm/board"
	"github.com/c0deeast/suyuan-vm/log"
	"github.com/pkg/errors"
)

// Event は、ハンドラに渡す割り込みです。
type Event struct {
	Pin  string
	Mode board.InterruptMode
	High bool
	TS   time.Time
}

// Handler は、ピンに登録する処理です。
// 返したエラーはログに出力されるだけで、登録は解除されません。
type Handler func(ctx context.Context, ev Event) error

type registration struct {
	mode    board.InterruptMode
	handler Handler
	gen     uint64
}

type pending struct {
	pin  string
	high bool
	gen  uint64
	ts   time.Time
}

// Table は、ピンごとに最大 1 つの登録を保持します。
type Table struct {
	// Written by the transport reader; must not block it.
	q       chan pending
	stopped chan struct{}

	mu   sync.RWMutex
	regs map[string]*registration
	gen  uint64

	running sync.WaitGroup
	drops   uint32
}

// New は、queueSize 個の割り込みを保持できるキューを持つ Table を作成します。
func New(queueSize int) *Table {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Table{
		q:       make(chan pending, queueSize),
		stopped: make(chan struct{}),
		regs:    map[string]*registration{},
	}
}

// Attach は、pin に h を登録します。既存の登録は置き換えられます。
// 返り値の関数を呼ぶと、直前の登録に戻します。ただし、その間に再登録された場合は何もしません。
func (t *Table) Attach(pin string, mode board.InterruptMode, h Handler) (undo func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	prev, ok := t.regs[pin]
	if ok {
		log.Debugf("interrupt: replacing registration on pin %s", pin)
	}
	r := &registration{mode: mode, handler: h, gen: t.gen}
	t.regs[pin] = r
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.regs[pin] != r {
			return
		}
		if prev != nil {
			t.regs[pin] = prev
		} else {
			delete(t.regs, pin)
		}
	}
}

// Detach は、pin の登録を解除し、登録があったかを返します。
func (t *Table) Detach(pin string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.regs[pin]
	delete(t.regs, pin)
	return ok
}

// Reset は、すべての登録を解除し、登録のあったピンを返します。
func (t *Table) Reset() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	pins := make([]string, 0, len(t.regs))
	for pin := range t.regs {
		pins = append(pins, pin)
	}
	sort.Strings(pins)
	t.regs = map[string]*registration{}
	return pins
}

func (t *Table) Registered(pin string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.regs[pin]
	return ok
}

// Mode は、pin に登録されている割り込みのモードを返します。
func (t *Table) Mode(pin string) (board.InterruptMode, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.regs[pin]
	if !ok {
		return "", false
	}
	return r.mode, true
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.regs)
}

// Notify は、ボードから通知された割り込みをキューに入れます。
// ブロックはせず、キューが一杯のときは破棄して数を数えます。
func (t *Table) Notify(pin string, high bool) {
	t.mu.RLock()
	r, ok := t.regs[pin]
	t.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case t.q <- pending{pin: pin, high: high, gen: r.gen, ts: time.Now()}:
	default:
		atomic.AddUint32(&t.drops, 1)
	}
}

// Drops は、キューが一杯で破棄した割り込みの数を返します。
func (t *Table) Drops() uint32 {
	return atomic.LoadUint32(&t.drops)
}

// Start は、ctx が終了するまで配送のワーカーを動かします。呼び出すのは 1 回だけです。
func (t *Table) Start(ctx context.Context) {
	go func() {
		defer close(t.stopped)
		for {
			select {
			case <-ctx.Done():
				return
			case p := <-t.q:
				t.deliver(ctx, p)
			}
		}
	}()
}

// Wait は、ワーカーが停止し、実行中のハンドラがすべて戻るまで待ちます。
func (t *Table) Wait() {
	<-t.stopped
	t.running.Wait()
}

func (t *Table) deliver(ctx context.Context, p pending) {
	t.mu.RLock()
	r := t.regs[p.pin]
	t.mu.RUnlock()
	if r == nil || r.gen != p.gen {
		// detached or replaced since the board raised it
		return
	}
	ev := Event{Pin: p.pin, Mode: r.mode, High: p.high, TS: p.ts}
	t.running.Add(1)
	go func() {
		defer t.running.Done()
		if err := run(ctx, r.handler, ev); err != nil {
			log.Warnf("interrupt on pin %s: %s", ev.Pin, err)
		}
	}()
}

func run(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, ev)
}
